package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coursekit/coursekit-server/internal/apperr"
	"github.com/coursekit/coursekit-server/internal/content"
	"github.com/coursekit/coursekit-server/internal/quizgen"
	"github.com/coursekit/coursekit-server/internal/storage"
	"github.com/coursekit/coursekit-server/internal/syncx"
)

type QuizgenDeps struct {
	Svc    *content.Service
	Gen    *quizgen.Generator
	Blobs  *storage.FSStore
	Events *syncx.EventRepo
	Log    *zap.Logger
}

// POST /courses/{courseID}/quizzes/generate
// Multipart form: file= (PDF), title=, num_questions=, passing_score=, time_limit=.
// Extracts the PDF text, asks the model for questions and creates the quiz.
func GenerateQuizHandler(d QuizgenDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")

		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeErr(w, apperr.BadRequest("pdf file required"))
			return
		}
		defer f.Close()

		key := "quizgen/" + courseID + "/" + uuid.NewString() + ".pdf"
		if _, err := d.Blobs.Put(key, f); err != nil {
			writeErr(w, err)
			return
		}

		text, err := quizgen.ExtractPDFText(d.Blobs.Path(key))
		if err != nil {
			writeErr(w, apperr.Wrap(apperr.KindBadRequest, err, "could not read pdf: "+err.Error()))
			return
		}

		num, _ := strconv.Atoi(r.FormValue("num_questions"))
		questions, err := d.Gen.Generate(r.Context(), quizgen.Request{
			SourceText:   text,
			NumQuestions: num,
		})
		if err != nil {
			writeErr(w, err)
			return
		}

		title := r.FormValue("title")
		if title == "" {
			title = "Generated quiz: " + hdr.Filename
		}
		passing, _ := strconv.ParseFloat(r.FormValue("passing_score"), 64)
		timeLimit, _ := strconv.Atoi(r.FormValue("time_limit"))

		q, err := d.Svc.CreateQuiz(r.Context(), content.Quiz{
			CourseID:     courseID,
			Title:        title,
			Questions:    questions,
			PassingScore: passing,
			TimeLimit:    timeLimit,
		}, principal(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := d.Events.Append(r.Context(), syncx.EventQuizGenerated, q.ID, map[string]any{
			"course_id": courseID, "source_key": key, "questions": len(questions),
		}); err != nil {
			d.Log.Warn("event append failed", zap.Error(err))
		}
		writeJSON(w, http.StatusCreated, q)
	}
}
