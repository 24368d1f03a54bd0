package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coursekit/coursekit-server/internal/content"
	"github.com/coursekit/coursekit-server/internal/grading"
	"github.com/coursekit/coursekit-server/internal/notify"
	"github.com/coursekit/coursekit-server/internal/rbac"
	"github.com/coursekit/coursekit-server/internal/syncx"
)

type GradingDeps struct {
	Svc    *content.Service
	Engine *grading.Engine
	DB     *sql.DB
	Events *syncx.EventRepo
	Mailer notify.Mailer
	Log    *zap.Logger
}

// POST /quizzes/{quizID}/submit — grades the submission and persists the
// result; the engine itself stays stateless.
func SubmitQuizHandler(d GradingDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub grading.Submission
		if err := decodeValid(r, &sub); err != nil {
			writeErr(w, err)
			return
		}
		quizID := chi.URLParam(r, "quizID")
		userID := rbac.SubjectFromContext(r.Context())

		q, err := d.Svc.Store().GetQuiz(r.Context(), quizID)
		if err != nil {
			writeErr(w, err)
			return
		}
		enrollments, err := d.Svc.Store().EnrollmentsByUser(r.Context(), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		learner := grading.Learner{ID: userID}
		for _, e := range enrollments {
			learner.EnrolledCourseIDs = append(learner.EnrolledCourseIDs, e.CourseID)
		}

		res, err := d.Engine.Grade(gradingQuiz(q), sub, learner)
		if err != nil {
			writeErr(w, err)
			return
		}

		record := content.QuizResult{
			ID:                 uuid.NewString(),
			QuizID:             quizID,
			UserID:             userID,
			Score:              res.Score,
			Passed:             res.Passed,
			IncorrectQuestions: res.IncorrectQuestions,
			CreatedAt:          time.Now().Unix(),
		}
		if err := d.Svc.Store().SaveQuizResult(r.Context(), record); err != nil {
			writeErr(w, err)
			return
		}
		if err := d.Events.Append(r.Context(), syncx.EventQuizSubmitted, record.ID, map[string]any{
			"quiz_id": quizID, "user_id": userID, "score": res.Score, "passed": res.Passed,
		}); err != nil {
			d.Log.Warn("event append failed", zap.Error(err))
		}
		if u, uerr := getUser(r.Context(), d.DB, userID); uerr == nil {
			if merr := d.Mailer.SendQuizResult(u.Email, q.Title, res.Score, res.Passed); merr != nil {
				d.Log.Warn("result mail failed", zap.String("email", u.Email), zap.Error(merr))
			}
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /results — the caller's own quiz results.
func MyResultsHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.Store().ResultsByUser(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func gradingQuiz(q content.Quiz) grading.Quiz {
	return grading.Quiz{
		ID:           q.ID,
		CourseID:     q.CourseID,
		Title:        q.Title,
		TimeLimit:    q.TimeLimit,
		PassingScore: q.PassingScore,
		Questions:    q.Questions,
	}
}
