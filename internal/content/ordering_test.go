package content_test

import (
	"context"
	"testing"

	"github.com/coursekit/coursekit-server/internal/apperr"
	"github.com/coursekit/coursekit-server/internal/content"
)

var (
	owner    = content.Principal{ID: "t1", Role: "teacher"}
	intruder = content.Principal{ID: "t2", Role: "teacher"}
)

func seedCourse(t *testing.T, store content.Store, id, teacherID string) {
	t.Helper()
	if err := store.SaveCourse(context.Background(), content.Course{ID: id, Title: id, TeacherID: teacherID}); err != nil {
		t.Fatalf("seed course: %v", err)
	}
}

func seedLesson(t *testing.T, store content.Store, id, courseID string, order int, createdAt int64, timeLimit int) {
	t.Helper()
	err := store.SaveLesson(context.Background(), content.Lesson{
		ID: id, CourseID: courseID, Title: id, Order: order, CreatedAt: createdAt, TimeLimit: timeLimit,
	})
	if err != nil {
		t.Fatalf("seed lesson %s: %v", id, err)
	}
}

func seedQuiz(t *testing.T, store content.Store, id, courseID string, order int, createdAt int64, timeLimit int) {
	t.Helper()
	err := store.SaveQuiz(context.Background(), content.Quiz{
		ID: id, CourseID: courseID, Title: id, Order: order, CreatedAt: createdAt, TimeLimit: timeLimit,
	})
	if err != nil {
		t.Fatalf("seed quiz %s: %v", id, err)
	}
}

// courseOrders returns id -> order for every item of the course.
func courseOrders(t *testing.T, store content.Store, courseID string) map[string]int {
	t.Helper()
	lessons, quizzes, err := store.ItemsByCourse(context.Background(), courseID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	out := map[string]int{}
	for _, l := range lessons {
		out[l.ID] = l.Order
	}
	for _, q := range quizzes {
		out[q.ID] = q.Order
	}
	return out
}

func assertOrders(t *testing.T, got map[string]int, want map[string]int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("item count: got %d want %d (%v)", len(got), len(want), got)
	}
	for id, w := range want {
		if got[id] != w {
			t.Errorf("item %s: order %d, want %d (all: %v)", id, got[id], w, got)
		}
	}
}

func TestRebuildInterleavedMergesByCreationTime(t *testing.T) {
	store := content.NewInMemoryStore()
	ord := content.NewOrdering(store, nil, nil)
	seedCourse(t, store, "c1", "t1")

	// Two lessons created before the first quiz: both lessons come first.
	seedLesson(t, store, "L1", "c1", 0, 100, 0)
	seedLesson(t, store, "L2", "c1", 0, 200, 0)
	seedQuiz(t, store, "Q1", "c1", 0, 300, 0)

	if err := ord.RebuildInterleaved(context.Background(), "c1"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	assertOrders(t, courseOrders(t, store, "c1"), map[string]int{"L1": 1, "L2": 2, "Q1": 3})
}

func TestRebuildInterleavedAlternates(t *testing.T) {
	store := content.NewInMemoryStore()
	ord := content.NewOrdering(store, nil, nil)
	seedCourse(t, store, "c1", "t1")

	seedLesson(t, store, "L1", "c1", 0, 100, 0)
	seedQuiz(t, store, "Q1", "c1", 0, 200, 0)
	seedLesson(t, store, "L2", "c1", 0, 300, 0)
	seedQuiz(t, store, "Q2", "c1", 0, 400, 0)

	if err := ord.RebuildInterleaved(context.Background(), "c1"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	assertOrders(t, courseOrders(t, store, "c1"), map[string]int{"L1": 1, "Q1": 2, "L2": 3, "Q2": 4})
}

func TestRebuildInterleavedProducesDenseSequence(t *testing.T) {
	store := content.NewInMemoryStore()
	ord := content.NewOrdering(store, nil, nil)
	seedCourse(t, store, "c1", "t1")

	// Stale gappy orders left behind by a deletion.
	seedLesson(t, store, "L1", "c1", 2, 100, 0)
	seedLesson(t, store, "L2", "c1", 7, 200, 0)
	seedQuiz(t, store, "Q1", "c1", 9, 150, 0)

	if err := ord.RebuildInterleaved(context.Background(), "c1"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	assertOrders(t, courseOrders(t, store, "c1"), map[string]int{"L1": 1, "Q1": 2, "L2": 3})
}

func TestRepositionItemMovesAndRenumbers(t *testing.T) {
	store := content.NewInMemoryStore()
	ord := content.NewOrdering(store, nil, nil)
	seedCourse(t, store, "c1", "t1")

	seedLesson(t, store, "A", "c1", 1, 0, 0)
	seedLesson(t, store, "B", "c1", 2, 0, 0)
	seedLesson(t, store, "C", "c1", 3, 0, 0)
	seedQuiz(t, store, "D", "c1", 4, 0, 0)

	// [A B C D], move D to position 2 -> [A D B C].
	if err := ord.RepositionItem(context.Background(), "D", content.TypeQuiz, 2, owner); err != nil {
		t.Fatalf("reposition: %v", err)
	}
	assertOrders(t, courseOrders(t, store, "c1"), map[string]int{"A": 1, "D": 2, "B": 3, "C": 4})
}

func TestRepositionItemToEnd(t *testing.T) {
	store := content.NewInMemoryStore()
	ord := content.NewOrdering(store, nil, nil)
	seedCourse(t, store, "c1", "t1")

	seedLesson(t, store, "A", "c1", 1, 0, 0)
	seedLesson(t, store, "B", "c1", 2, 0, 0)
	seedLesson(t, store, "C", "c1", 3, 0, 0)

	// A position beyond the end appends.
	if err := ord.RepositionItem(context.Background(), "A", content.TypeLesson, 99, owner); err != nil {
		t.Fatalf("reposition: %v", err)
	}
	assertOrders(t, courseOrders(t, store, "c1"), map[string]int{"B": 1, "C": 2, "A": 3})
}

func TestRepositionItemForbiddenForNonOwner(t *testing.T) {
	store := content.NewInMemoryStore()
	ord := content.NewOrdering(store, nil, nil)
	seedCourse(t, store, "c1", "t1")
	seedLesson(t, store, "A", "c1", 1, 0, 0)

	err := ord.RepositionItem(context.Background(), "A", content.TypeLesson, 1, intruder)
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("want forbidden, got %v", err)
	}
	// Admins bypass ownership.
	if err := ord.RepositionItem(context.Background(), "A", content.TypeLesson, 1, content.Principal{ID: "root", Role: "admin"}); err != nil {
		t.Fatalf("admin reposition: %v", err)
	}
}

func TestRepositionItemRejectsBadType(t *testing.T) {
	store := content.NewInMemoryStore()
	ord := content.NewOrdering(store, nil, nil)

	err := ord.RepositionItem(context.Background(), "A", content.ItemType("VIDEO"), 1, owner)
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("want bad request, got %v", err)
	}
}

func TestApplyBulkOrdersIsVerbatimAndPerEntry(t *testing.T) {
	store := content.NewInMemoryStore()
	ord := content.NewOrdering(store, nil, nil)
	seedCourse(t, store, "c1", "t1")
	seedCourse(t, store, "c2", "t2")
	seedLesson(t, store, "X", "c1", 1, 0, 0)
	seedQuiz(t, store, "Y", "c2", 1, 0, 0)

	results := ord.ApplyBulkOrders(context.Background(), map[string]int{
		"X":     5, // owned, applied verbatim even though it leaves a gap
		"Y":     2, // other teacher's course
		"ghost": 1, // unknown id
	}, owner)

	byID := map[string]content.BulkEntryResult{}
	for _, r := range results {
		byID[r.ItemID] = r
	}
	if len(byID) != 3 {
		t.Fatalf("want 3 results, got %d", len(byID))
	}
	if byID["X"].Error != "" {
		t.Errorf("X: unexpected error %q", byID["X"].Error)
	}
	if byID["Y"].Error == "" {
		t.Errorf("Y: expected an ownership error")
	}
	if byID["ghost"].Error == "" {
		t.Errorf("ghost: expected a not-found error")
	}

	if got := courseOrders(t, store, "c1"); got["X"] != 5 {
		t.Errorf("X order: got %d, want verbatim 5", got["X"])
	}
	if got := courseOrders(t, store, "c2"); got["Y"] != 1 {
		t.Errorf("Y order: got %d, want untouched 1", got["Y"])
	}
}

func TestApplyBulkOrdersAdminBypassesOwnership(t *testing.T) {
	store := content.NewInMemoryStore()
	ord := content.NewOrdering(store, nil, nil)
	seedCourse(t, store, "c2", "t2")
	seedQuiz(t, store, "Y", "c2", 1, 0, 0)

	results := ord.ApplyBulkOrders(context.Background(), map[string]int{"Y": 7},
		content.Principal{ID: "root", Role: "admin"})
	if results[0].Error != "" {
		t.Fatalf("admin entry failed: %s", results[0].Error)
	}
	if got := courseOrders(t, store, "c2"); got["Y"] != 7 {
		t.Errorf("Y order: got %d, want 7", got["Y"])
	}
}

// conflictStore wraps a Store and forces version conflicts on full
// renumberings: a fixed number of them, or every attempt when negative.
type conflictStore struct {
	content.Store
	conflicts int
	calls     int
}

func (s *conflictStore) ReplaceCourseOrdering(ctx context.Context, courseID string, version int64, orders []content.OrderAssignment) error {
	s.calls++
	if s.conflicts != 0 {
		if s.conflicts > 0 {
			s.conflicts--
		}
		return apperr.Conflict("course %s ordering changed concurrently", courseID)
	}
	return s.Store.ReplaceCourseOrdering(ctx, courseID, version, orders)
}

func TestRebuildRetriesAfterVersionConflict(t *testing.T) {
	store := content.NewInMemoryStore()
	seedCourse(t, store, "c1", "t1")
	seedLesson(t, store, "L1", "c1", 0, 100, 0)
	seedQuiz(t, store, "Q1", "c1", 0, 200, 0)

	cs := &conflictStore{Store: store, conflicts: 1}
	ord := content.NewOrdering(cs, nil, nil)

	if err := ord.RebuildInterleaved(context.Background(), "c1"); err != nil {
		t.Fatalf("rebuild after one conflict: %v", err)
	}
	if cs.calls != 2 {
		t.Errorf("replace calls: got %d, want 2 (one conflict, one retry)", cs.calls)
	}
	assertOrders(t, courseOrders(t, store, "c1"), map[string]int{"L1": 1, "Q1": 2})
}

func TestRebuildSurfacesPersistentConflict(t *testing.T) {
	store := content.NewInMemoryStore()
	seedCourse(t, store, "c1", "t1")
	seedLesson(t, store, "L1", "c1", 0, 100, 0)
	seedQuiz(t, store, "Q1", "c1", 0, 200, 0)

	cs := &conflictStore{Store: store, conflicts: -1}
	ord := content.NewOrdering(cs, nil, nil)

	err := ord.RebuildInterleaved(context.Background(), "c1")
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("want conflict after retries are exhausted, got %v", err)
	}
	if cs.calls != 3 {
		t.Errorf("replace calls: got %d, want the bounded 3 attempts", cs.calls)
	}
	// Every attempt was rejected, so nothing was written.
	assertOrders(t, courseOrders(t, store, "c1"), map[string]int{"L1": 0, "Q1": 0})
}

func TestRepositionSurfacesPersistentConflict(t *testing.T) {
	store := content.NewInMemoryStore()
	seedCourse(t, store, "c1", "t1")
	seedLesson(t, store, "A", "c1", 1, 0, 0)
	seedLesson(t, store, "B", "c1", 2, 0, 0)

	cs := &conflictStore{Store: store, conflicts: -1}
	ord := content.NewOrdering(cs, nil, nil)

	err := ord.RepositionItem(context.Background(), "B", content.TypeLesson, 1, owner)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("want conflict after retries are exhausted, got %v", err)
	}
	assertOrders(t, courseOrders(t, store, "c1"), map[string]int{"A": 1, "B": 2})
}

func TestRecomputeCourseTimeLimit(t *testing.T) {
	store := content.NewInMemoryStore()
	ord := content.NewOrdering(store, nil, nil)
	seedCourse(t, store, "c1", "t1")
	seedLesson(t, store, "L1", "c1", 1, 0, 10)
	seedQuiz(t, store, "Q1", "c1", 2, 0, 20)

	total, err := ord.RecomputeCourseTimeLimit(context.Background(), "c1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if total != 30 {
		t.Fatalf("total: got %d, want 30", total)
	}
	c, err := store.GetCourse(context.Background(), "c1")
	if err != nil {
		t.Fatalf("get course: %v", err)
	}
	if c.TotalTimeLimit != 30 {
		t.Errorf("stored total: got %d, want 30", c.TotalTimeLimit)
	}
}
