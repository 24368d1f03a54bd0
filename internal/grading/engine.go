package grading

import (
	"fmt"

	"github.com/coursekit/coursekit-server/internal/apperr"
)

// policy decides per-question correctness for one question kind.
type policy interface {
	Correct(q Question, selected []string) bool
}

// Engine scores a submission against a quiz's authoritative question list.
// It is stateless; persisting results is the caller's job.
type Engine struct {
	policies map[QuestionKind]policy
}

func NewEngine() *Engine {
	return &Engine{
		policies: map[QuestionKind]policy{
			KindSingleChoice:   singleChoicePolicy{},
			KindMultipleChoice: multipleChoicePolicy{},
			KindShortAnswer:    shortAnswerPolicy{},
		},
	}
}

// Grade validates the submission against the quiz, then scores it.
// Preconditions are checked in order and short-circuit with zero writes:
// enrollment, answer count, positional question-text match.
func (e *Engine) Grade(quiz Quiz, sub Submission, learner Learner) (Result, error) {
	enrolled := false
	for _, cid := range learner.EnrolledCourseIDs {
		if cid == quiz.CourseID {
			enrolled = true
			break
		}
	}
	if !enrolled {
		return Result{}, apperr.Forbidden("user %s is not enrolled in course %s", learner.ID, quiz.CourseID)
	}

	if len(sub.Answers) != len(quiz.Questions) {
		return Result{}, apperr.BadRequest("answer count %d does not match question count %d",
			len(sub.Answers), len(quiz.Questions))
	}
	for i := range quiz.Questions {
		if sub.Answers[i].Question != quiz.Questions[i].Text {
			return Result{}, apperr.BadRequest("answer at index %d does not match the question text at that position", i)
		}
	}

	res := Result{TotalQuestions: len(quiz.Questions)}
	for i, q := range quiz.Questions {
		p, ok := e.policies[q.Kind]
		if !ok {
			return Result{}, apperr.BadRequest("unknown question kind %q", q.Kind)
		}
		if p.Correct(q, sub.Answers[i].Selected) {
			res.CorrectCount++
		} else {
			res.IncorrectQuestions = append(res.IncorrectQuestions, q.Text)
		}
	}

	if res.TotalQuestions > 0 {
		res.Score = float64(res.CorrectCount) / float64(res.TotalQuestions) * 100
	}
	res.Passed = res.Score >= quiz.PassingScore
	if res.Passed {
		res.Message = fmt.Sprintf("You passed with %.1f%% (%d/%d correct).",
			res.Score, res.CorrectCount, res.TotalQuestions)
	} else {
		res.Message = fmt.Sprintf("You did not pass: %.1f%% (%d/%d correct), required %.1f%%.",
			res.Score, res.CorrectCount, res.TotalQuestions, quiz.PassingScore)
	}
	return res, nil
}

// --- Policies ---

type singleChoicePolicy struct{}

// Correct iff the first selection equals the first correct answer,
// case-sensitive. Empty on either side is incorrect.
func (singleChoicePolicy) Correct(q Question, selected []string) bool {
	if len(selected) == 0 || len(q.CorrectAnswers) == 0 {
		return false
	}
	return selected[0] == q.CorrectAnswers[0]
}

type multipleChoicePolicy struct{}

// Correct iff selection and answer key are set-equal: same cardinality and
// every correct answer present. Order and duplicates don't matter beyond
// the length check.
func (multipleChoicePolicy) Correct(q Question, selected []string) bool {
	if len(selected) != len(q.CorrectAnswers) || len(q.CorrectAnswers) == 0 {
		return false
	}
	have := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		have[s] = struct{}{}
	}
	for _, want := range q.CorrectAnswers {
		if _, ok := have[want]; !ok {
			return false
		}
	}
	return true
}

type shortAnswerPolicy struct{}

// Correct iff the single submitted string matches the single correct string
// after stripping all whitespace and uppercasing.
func (shortAnswerPolicy) Correct(q Question, selected []string) bool {
	if len(selected) == 0 || len(q.CorrectAnswers) == 0 {
		return false
	}
	return normalize(selected[0]) == normalize(q.CorrectAnswers[0])
}
