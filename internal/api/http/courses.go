package http

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/coursekit/coursekit-server/internal/content"
)

// syllabusItem is the merged, order-sorted view of a course's content.
type syllabusItem struct {
	ID        string           `json:"id"`
	Type      content.ItemType `json:"type"`
	Title     string           `json:"title"`
	Order     int              `json:"order"`
	TimeLimit int              `json:"time_limit"`
}

// POST /courses
func CreateCourseHandler(svc *content.Service) http.HandlerFunc {
	type req struct {
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		c, err := svc.CreateCourse(r.Context(), in.Title, in.Description, principal(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// GET /courses
func ListCoursesHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courses, err := svc.Store().ListCourses(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, courses)
	}
}

// GET /courses/{courseID} — course plus its ordered syllabus.
func GetCourseHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		c, err := svc.Store().GetCourse(r.Context(), courseID)
		if err != nil {
			writeErr(w, err)
			return
		}
		lessons, quizzes, err := svc.Store().ItemsByCourse(r.Context(), courseID)
		if err != nil {
			writeErr(w, err)
			return
		}
		items := make([]syllabusItem, 0, len(lessons)+len(quizzes))
		for _, l := range lessons {
			items = append(items, syllabusItem{ID: l.ID, Type: content.TypeLesson, Title: l.Title, Order: l.Order, TimeLimit: l.TimeLimit})
		}
		for _, q := range quizzes {
			items = append(items, syllabusItem{ID: q.ID, Type: content.TypeQuiz, Title: q.Title, Order: q.Order, TimeLimit: q.TimeLimit})
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Order < items[j].Order })
		writeJSON(w, http.StatusOK, map[string]any{"course": c, "items": items})
	}
}

// PATCH /courses/{courseID}
func UpdateCourseHandler(svc *content.Service) http.HandlerFunc {
	type req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		c, err := svc.UpdateCourse(r.Context(), chi.URLParam(r, "courseID"), in.Title, in.Description, principal(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// DELETE /courses/{courseID}
func DeleteCourseHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteCourse(r.Context(), chi.URLParam(r, "courseID"), principal(r)); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
