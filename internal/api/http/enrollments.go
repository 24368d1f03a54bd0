package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coursekit/coursekit-server/internal/content"
	"github.com/coursekit/coursekit-server/internal/notify"
	"github.com/coursekit/coursekit-server/internal/rbac"
)

type EnrollmentDeps struct {
	Svc    *content.Service
	DB     *sql.DB
	Mailer notify.Mailer
	Log    *zap.Logger
}

// POST /courses/{courseID}/enroll
func EnrollHandler(d EnrollmentDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		userID := rbac.SubjectFromContext(r.Context())
		e, err := d.Svc.Enroll(r.Context(), courseID, userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if u, uerr := getUser(r.Context(), d.DB, userID); uerr == nil {
			c, cerr := d.Svc.Store().GetCourse(r.Context(), courseID)
			if cerr == nil {
				if merr := d.Mailer.SendEnrollment(u.Email, c.Title); merr != nil {
					d.Log.Warn("enrollment mail failed", zap.String("email", u.Email), zap.Error(merr))
				}
			}
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

// DELETE /courses/{courseID}/enroll
func DropHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Drop(r.Context(), chi.URLParam(r, "courseID"), rbac.SubjectFromContext(r.Context())); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /enrollments — the caller's own enrollments.
func MyEnrollmentsHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.Store().EnrollmentsByUser(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /courses/{courseID}/enrollments — teacher/admin view.
func CourseEnrollmentsHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.Store().EnrollmentsByCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /courses/{courseID}/complete/{itemID}
func CompleteItemHandler(svc *content.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.CompleteItem(r.Context(),
			chi.URLParam(r, "courseID"),
			rbac.SubjectFromContext(r.Context()),
			chi.URLParam(r, "itemID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}
