package content_test

import (
	"context"
	"math"
	"testing"

	"github.com/coursekit/coursekit-server/internal/content"
	"github.com/coursekit/coursekit-server/internal/grading"
)

func TestProgress(t *testing.T) {
	cases := []struct {
		name        string
		current     int
		total       int
		want        float64
	}{
		{"zero over zero", 0, 0, 0},
		{"halfway", 30, 60, 50},
		{"negative current clamps", -5, 60, 0},
		{"no timed content", 10, 0, 0},
		{"over-credit exceeds 100", 90, 60, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := content.Progress(tc.current, tc.total); got != tc.want {
				t.Errorf("Progress(%d, %d) = %v, want %v", tc.current, tc.total, got, tc.want)
			}
		})
	}
}

func newTestService(t *testing.T) (*content.Service, content.Store) {
	t.Helper()
	store := content.NewInMemoryStore()
	ord := content.NewOrdering(store, nil, nil)
	return content.NewService(store, ord, nil, nil), store
}

func TestCompleteItemIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedCourse(t, store, "c1", "t1")
	seedLesson(t, store, "L1", "c1", 1, 100, 10)
	seedQuiz(t, store, "Q1", "c1", 2, 200, 20)
	if _, err := svc.Ordering().RecomputeCourseTimeLimit(ctx, "c1"); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	if _, err := svc.Enroll(ctx, "c1", "u1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	e, err := svc.CompleteItem(ctx, "c1", "u1", "L1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if e.TimeCurrent != 10 {
		t.Fatalf("time current: got %d, want 10", e.TimeCurrent)
	}
	want := 10.0 / 30.0 * 100
	if math.Abs(e.Progress-want) > 1e-9 {
		t.Fatalf("progress: got %v, want %v", e.Progress, want)
	}

	// Completing the same item again changes nothing.
	e2, err := svc.CompleteItem(ctx, "c1", "u1", "L1")
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if e2.TimeCurrent != 10 || e2.Progress != e.Progress {
		t.Errorf("second completion changed state: %+v", e2)
	}
	if len(e2.CompletedItems) != 1 {
		t.Errorf("completed items: got %d, want 1", len(e2.CompletedItems))
	}
}

func TestDeleteLessonUncreditsEnrollments(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedCourse(t, store, "c1", "t1")
	seedLesson(t, store, "L1", "c1", 1, 100, 10)
	seedQuiz(t, store, "Q1", "c1", 2, 200, 20)
	if _, err := svc.Ordering().RecomputeCourseTimeLimit(ctx, "c1"); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if _, err := svc.Enroll(ctx, "c1", "u1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := svc.CompleteItem(ctx, "c1", "u1", "L1"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := svc.DeleteLesson(ctx, "L1", owner); err != nil {
		t.Fatalf("delete lesson: %v", err)
	}

	c, err := store.GetCourse(ctx, "c1")
	if err != nil {
		t.Fatalf("get course: %v", err)
	}
	if c.TotalTimeLimit != 20 {
		t.Errorf("course total after delete: got %d, want 20", c.TotalTimeLimit)
	}

	e, err := store.GetEnrollment(ctx, "c1", "u1")
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	if e.TimeCurrent != 0 {
		t.Errorf("time current after uncredit: got %d, want 0", e.TimeCurrent)
	}
	if e.Progress != 0 {
		t.Errorf("progress after uncredit: got %v, want 0", e.Progress)
	}
	if len(e.CompletedItems) != 0 {
		t.Errorf("completed items after uncredit: %v", e.CompletedItems)
	}
}

func TestDeleteLessonRecomputesRemainingCredit(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedCourse(t, store, "c1", "t1")
	seedLesson(t, store, "L1", "c1", 1, 100, 10)
	seedLesson(t, store, "L2", "c1", 2, 200, 20)
	seedQuiz(t, store, "Q1", "c1", 3, 300, 60)
	if _, err := svc.Ordering().RecomputeCourseTimeLimit(ctx, "c1"); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if _, err := svc.Enroll(ctx, "c1", "u1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := svc.CompleteItem(ctx, "c1", "u1", "L1"); err != nil {
		t.Fatalf("complete L1: %v", err)
	}
	if _, err := svc.CompleteItem(ctx, "c1", "u1", "L2"); err != nil {
		t.Fatalf("complete L2: %v", err)
	}

	// 30 of 90 credited; dropping L1 leaves 20 of 80.
	if err := svc.DeleteLesson(ctx, "L1", owner); err != nil {
		t.Fatalf("delete lesson: %v", err)
	}
	e, err := store.GetEnrollment(ctx, "c1", "u1")
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	if e.TimeCurrent != 20 {
		t.Errorf("time current: got %d, want 20", e.TimeCurrent)
	}
	if math.Abs(e.Progress-25) > 1e-9 {
		t.Errorf("progress: got %v, want 25", e.Progress)
	}
	if len(e.CompletedItems) != 1 || e.CompletedItems[0] != "L2" {
		t.Errorf("completed items: %v, want just L2", e.CompletedItems)
	}
}

func TestQuizTimeChangeRecomputesProgress(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedCourse(t, store, "c1", "t1")
	seedLesson(t, store, "L1", "c1", 1, 100, 10)

	questions := []grading.Question{{
		Text: "2+2?", Kind: grading.KindShortAnswer, CorrectAnswers: []string{"4"},
	}}
	if err := store.SaveQuiz(ctx, content.Quiz{
		ID: "Q1", CourseID: "c1", Title: "Q1", Order: 2, CreatedAt: 200,
		TimeLimit: 20, Questions: questions,
	}); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	if _, err := svc.Ordering().RecomputeCourseTimeLimit(ctx, "c1"); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if _, err := svc.Enroll(ctx, "c1", "u1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := svc.CompleteItem(ctx, "c1", "u1", "L1"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Raising the quiz time limit shrinks everyone's percentage.
	if _, err := svc.UpdateQuiz(ctx, content.Quiz{
		ID: "Q1", Title: "Q1", Questions: questions, TimeLimit: 50,
	}, owner); err != nil {
		t.Fatalf("update quiz: %v", err)
	}

	e, err := store.GetEnrollment(ctx, "c1", "u1")
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	want := 10.0 / 60.0 * 100
	if math.Abs(e.Progress-want) > 1e-9 {
		t.Fatalf("progress after time change: got %v, want %v", e.Progress, want)
	}
}
