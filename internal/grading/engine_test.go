package grading_test

import (
	"math"
	"testing"

	"github.com/coursekit/coursekit-server/internal/apperr"
	"github.com/coursekit/coursekit-server/internal/grading"
)

func fixtureQuiz() grading.Quiz {
	return grading.Quiz{
		ID:           "q1",
		CourseID:     "c1",
		Title:        "Midterm",
		PassingScore: 60,
		Questions: []grading.Question{
			{
				Text:           "Capital of France?",
				Kind:           grading.KindSingleChoice,
				Options:        []string{"Paris", "Lyon", "Nice"},
				CorrectAnswers: []string{"Paris"},
			},
			{
				Text:           "Which are primary colors?",
				Kind:           grading.KindMultipleChoice,
				Options:        []string{"Red", "Green", "Blue", "Yellow"},
				CorrectAnswers: []string{"Red", "Blue", "Yellow"},
			},
			{
				Text:           "Chemical symbol for water?",
				Kind:           grading.KindShortAnswer,
				CorrectAnswers: []string{"H2O"},
			},
		},
	}
}

func answersFor(q grading.Quiz, selected ...[]string) grading.Submission {
	var sub grading.Submission
	for i, qu := range q.Questions {
		sub.Answers = append(sub.Answers, grading.Answer{Question: qu.Text, Selected: selected[i]})
	}
	return sub
}

var enrolled = grading.Learner{ID: "u1", EnrolledCourseIDs: []string{"c1"}}

func TestGradeRequiresEnrollment(t *testing.T) {
	quiz := fixtureQuiz()
	sub := answersFor(quiz, []string{"Paris"}, []string{"Red", "Blue", "Yellow"}, []string{"H2O"})

	_, err := grading.NewEngine().Grade(quiz, sub, grading.Learner{ID: "u2", EnrolledCourseIDs: []string{"other"}})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("want forbidden, got %v", err)
	}
}

func TestGradeRejectsAnswerCountMismatch(t *testing.T) {
	quiz := fixtureQuiz()
	sub := grading.Submission{Answers: []grading.Answer{
		{Question: quiz.Questions[0].Text, Selected: []string{"Paris"}},
	}}

	_, err := grading.NewEngine().Grade(quiz, sub, enrolled)
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("want bad request, got %v", err)
	}
}

func TestGradeRejectsPositionalTextMismatch(t *testing.T) {
	quiz := fixtureQuiz()
	sub := answersFor(quiz, []string{"Paris"}, []string{"Red", "Blue", "Yellow"}, []string{"H2O"})
	// Swap two answers: contents are fine, positions are not.
	sub.Answers[0], sub.Answers[1] = sub.Answers[1], sub.Answers[0]

	_, err := grading.NewEngine().Grade(quiz, sub, enrolled)
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("want bad request, got %v", err)
	}
}

func TestGradeAllCorrect(t *testing.T) {
	quiz := fixtureQuiz()
	// Multiple choice in a different order, short answer with stray
	// whitespace and lowercase: both still count.
	sub := answersFor(quiz, []string{"Paris"}, []string{"Yellow", "Red", "Blue"}, []string{" h2 o "})

	res, err := grading.NewEngine().Grade(quiz, sub, enrolled)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.Score != 100 || !res.Passed || res.CorrectCount != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.IncorrectQuestions) != 0 {
		t.Fatalf("incorrect questions: %v", res.IncorrectQuestions)
	}
}

func TestGradePartialScoreAndIncorrectOrder(t *testing.T) {
	quiz := fixtureQuiz()
	// Wrong single choice, subset of multiple choice, correct short answer.
	sub := answersFor(quiz, []string{"Lyon"}, []string{"Red", "Blue"}, []string{"H2O"})

	res, err := grading.NewEngine().Grade(quiz, sub, enrolled)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	want := 1.0 / 3.0 * 100
	if math.Abs(res.Score-want) > 1e-9 {
		t.Errorf("score: got %v, want %v", res.Score, want)
	}
	if res.Passed {
		t.Errorf("passed with %v against threshold %v", res.Score, quiz.PassingScore)
	}
	// Incorrect questions keep quiz order.
	if len(res.IncorrectQuestions) != 2 ||
		res.IncorrectQuestions[0] != quiz.Questions[0].Text ||
		res.IncorrectQuestions[1] != quiz.Questions[1].Text {
		t.Errorf("incorrect questions: %v", res.IncorrectQuestions)
	}
}

func TestGradeSingleChoiceUsesFirstSelection(t *testing.T) {
	quiz := grading.Quiz{
		CourseID:  "c1",
		Questions: []grading.Question{{Text: "Q", Kind: grading.KindSingleChoice, CorrectAnswers: []string{"A", "B"}}},
	}
	eng := grading.NewEngine()

	// Only the first entry of the answer key counts.
	res, err := eng.Grade(quiz, grading.Submission{Answers: []grading.Answer{{Question: "Q", Selected: []string{"B"}}}}, enrolled)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.CorrectCount != 0 {
		t.Errorf("selecting the second key entry should not count")
	}

	res, err = eng.Grade(quiz, grading.Submission{Answers: []grading.Answer{{Question: "Q", Selected: []string{"A", "B"}}}}, enrolled)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.CorrectCount != 1 {
		t.Errorf("first selection matching first key entry should count")
	}
}

func TestGradeMultipleChoiceCardinality(t *testing.T) {
	quiz := grading.Quiz{
		CourseID: "c1",
		Questions: []grading.Question{{
			Text: "Q", Kind: grading.KindMultipleChoice, CorrectAnswers: []string{"A", "B"},
		}},
	}
	eng := grading.NewEngine()
	for _, tc := range []struct {
		name     string
		selected []string
		correct  bool
	}{
		{"exact set", []string{"B", "A"}, true},
		{"subset", []string{"A"}, false},
		{"superset", []string{"A", "B", "C"}, false},
		{"duplicate padding", []string{"A", "A"}, false},
		{"empty", nil, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sub := grading.Submission{Answers: []grading.Answer{{Question: "Q", Selected: tc.selected}}}
			res, err := eng.Grade(quiz, sub, enrolled)
			if err != nil {
				t.Fatalf("grade: %v", err)
			}
			if got := res.CorrectCount == 1; got != tc.correct {
				t.Errorf("correct = %v, want %v", got, tc.correct)
			}
		})
	}
}

func TestGradeZeroPassingScoreAlwaysPasses(t *testing.T) {
	quiz := grading.Quiz{
		CourseID:  "c1",
		Questions: []grading.Question{{Text: "Q", Kind: grading.KindShortAnswer, CorrectAnswers: []string{"yes"}}},
	}
	sub := grading.Submission{Answers: []grading.Answer{{Question: "Q", Selected: []string{"no"}}}}

	res, err := grading.NewEngine().Grade(quiz, sub, enrolled)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.Score != 0 {
		t.Errorf("score: got %v, want 0", res.Score)
	}
	if !res.Passed {
		t.Errorf("a zero threshold passes any score")
	}
}

func TestGradeRejectsUnknownKind(t *testing.T) {
	quiz := grading.Quiz{
		CourseID:  "c1",
		Questions: []grading.Question{{Text: "Q", Kind: grading.QuestionKind("ESSAY"), CorrectAnswers: []string{"x"}}},
	}
	sub := grading.Submission{Answers: []grading.Answer{{Question: "Q", Selected: []string{"x"}}}}

	_, err := grading.NewEngine().Grade(quiz, sub, enrolled)
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("want bad request, got %v", err)
	}
}
