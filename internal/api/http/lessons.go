package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coursekit/coursekit-server/internal/content"
)

// POST /courses/{courseID}/lessons
func CreateLessonHandler(svc *content.Service) http.HandlerFunc {
	type req struct {
		Title         string `json:"title" validate:"required"`
		Content       string `json:"content"`
		AttachmentKey string `json:"attachment_key"`
		TimeLimit     int    `json:"time_limit" validate:"gte=0"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		l, err := svc.CreateLesson(r.Context(), content.Lesson{
			CourseID:      chi.URLParam(r, "courseID"),
			Title:         in.Title,
			Content:       in.Content,
			AttachmentKey: in.AttachmentKey,
			TimeLimit:     in.TimeLimit,
		}, principal(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

// GET /lessons/{lessonID}
func GetLessonHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := svc.Store().GetLesson(r.Context(), chi.URLParam(r, "lessonID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

// PUT /lessons/{lessonID}
func UpdateLessonHandler(svc *content.Service) http.HandlerFunc {
	type req struct {
		Title         string `json:"title" validate:"required"`
		Content       string `json:"content"`
		AttachmentKey string `json:"attachment_key"`
		TimeLimit     int    `json:"time_limit" validate:"gte=0"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		l, err := svc.UpdateLesson(r.Context(), content.Lesson{
			ID:            chi.URLParam(r, "lessonID"),
			Title:         in.Title,
			Content:       in.Content,
			AttachmentKey: in.AttachmentKey,
			TimeLimit:     in.TimeLimit,
		}, principal(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

// DELETE /lessons/{lessonID}
func DeleteLessonHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteLesson(r.Context(), chi.URLParam(r, "lessonID"), principal(r)); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
