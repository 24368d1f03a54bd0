package quizgen

import (
	"testing"

	"github.com/coursekit/coursekit-server/internal/grading"
)

func TestParseQuestionsStripsFences(t *testing.T) {
	reply := "```json\n" + `[
	  {"question": "Capital of France?", "kind": "single_choice",
	   "options": ["Paris", "Lyon"], "correct_answers": ["Paris"]},
	  {"question": "Symbol for water?", "kind": "SHORT_ANSWER",
	   "options": ["should be dropped"], "correct_answers": ["H2O"]}
	]` + "\n```"

	qs, err := parseQuestions(reply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("questions: got %d, want 2", len(qs))
	}
	if qs[0].Kind != grading.KindSingleChoice {
		t.Errorf("kind not uppercased: %q", qs[0].Kind)
	}
	if qs[1].Options != nil {
		t.Errorf("short answer kept options: %v", qs[1].Options)
	}
}

func TestParseQuestionsTruncatesExtraAnswers(t *testing.T) {
	reply := `[{"question": "Pick one", "kind": "SINGLE_CHOICE",
	  "options": ["A", "B"], "correct_answers": ["A", "B"]}]`

	qs, err := parseQuestions(reply)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs[0].CorrectAnswers) != 1 || qs[0].CorrectAnswers[0] != "A" {
		t.Errorf("correct answers: %v, want just A", qs[0].CorrectAnswers)
	}
}

func TestParseQuestionsRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"not json":       "the model rambled instead",
		"empty array":    "[]",
		"unknown kind":   `[{"question": "Q", "kind": "ESSAY", "correct_answers": ["x"]}]`,
		"no answer":      `[{"question": "Q", "kind": "SHORT_ANSWER", "correct_answers": []}]`,
		"blank question": `[{"question": "  ", "kind": "SHORT_ANSWER", "correct_answers": ["x"]}]`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseQuestions(reply); err == nil {
				t.Errorf("expected an error for %q", reply)
			}
		})
	}
}
