package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coursekit/coursekit-server/internal/content"
	"github.com/coursekit/coursekit-server/internal/grading"
	"github.com/coursekit/coursekit-server/internal/rbac"
)

type quizReq struct {
	Title        string             `json:"title" validate:"required"`
	Questions    []grading.Question `json:"questions" validate:"required,min=1"`
	PassingScore float64            `json:"passing_score" validate:"gte=0,lte=100"`
	TimeLimit    int                `json:"time_limit" validate:"gte=0"`
}

// POST /courses/{courseID}/quizzes
func CreateQuizHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quizReq
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		q, err := svc.CreateQuiz(r.Context(), content.Quiz{
			CourseID:     chi.URLParam(r, "courseID"),
			Title:        in.Title,
			Questions:    in.Questions,
			PassingScore: in.PassingScore,
			TimeLimit:    in.TimeLimit,
		}, principal(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, studentSafe(q, rbac.RoleFromContext(r.Context())))
	}
}

// GET /quizzes/{quizID} — answer keys are stripped for students.
func GetQuizHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := svc.Store().GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, studentSafe(q, rbac.RoleFromContext(r.Context())))
	}
}

// PUT /quizzes/{quizID}
func UpdateQuizHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quizReq
		if err := decodeValid(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		q, err := svc.UpdateQuiz(r.Context(), content.Quiz{
			ID:           chi.URLParam(r, "quizID"),
			Title:        in.Title,
			Questions:    in.Questions,
			PassingScore: in.PassingScore,
			TimeLimit:    in.TimeLimit,
		}, principal(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// DELETE /quizzes/{quizID}
func DeleteQuizHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID"), principal(r)); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// studentSafe hides answer keys from students.
func studentSafe(q content.Quiz, role string) content.Quiz {
	if role == "teacher" || role == "admin" {
		return q
	}
	qs := make([]grading.Question, len(q.Questions))
	copy(qs, q.Questions)
	for i := range qs {
		qs[i].CorrectAnswers = nil
	}
	q.Questions = qs
	return q
}
