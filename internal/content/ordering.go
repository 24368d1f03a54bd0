package content

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/coursekit/coursekit-server/internal/apperr"
)

// AuthzFunc is the authorization collaborator: may principal reorder
// content of this course?
type AuthzFunc func(p Principal, c Course) bool

// OwnerOrAdmin is the default policy: the owning teacher or an admin.
func OwnerOrAdmin(p Principal, c Course) bool {
	return p.Role == "admin" || c.TeacherID == p.ID
}

// orderingRetries bounds the optimistic-concurrency retry loop on
// version conflicts during a full renumbering.
const orderingRetries = 3

// Ordering keeps every course's item order dense, unique and consistent
// with caller-requested positioning. Each call re-reads persisted state
// and writes back only what changed.
type Ordering struct {
	store Store
	authz AuthzFunc
	log   *zap.Logger
}

func NewOrdering(store Store, authz AuthzFunc, log *zap.Logger) *Ordering {
	if authz == nil {
		authz = OwnerOrAdmin
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ordering{store: store, authz: authz, log: log}
}

// RebuildInterleaved recomputes order for all items of a course from
// scratch: lessons sorted by creation time, quizzes likewise, merged by
// alternating lesson/quiz and continuing with whichever list remains.
// The result is a dense 1..N sequence.
func (o *Ordering) RebuildInterleaved(ctx context.Context, courseID string) error {
	var lastErr error
	for attempt := 0; attempt < orderingRetries; attempt++ {
		course, err := o.store.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}
		lessons, quizzes, err := o.store.ItemsByCourse(ctx, courseID)
		if err != nil {
			return err
		}

		merged := interleave(lessonItems(lessons), quizItems(quizzes))
		assignments := make([]OrderAssignment, 0, len(merged))
		for i, it := range merged {
			if it.Order != i+1 {
				assignments = append(assignments, OrderAssignment{ID: it.ID, Type: it.Type, Order: i + 1})
			}
		}
		if len(assignments) == 0 {
			return nil
		}

		err = o.store.ReplaceCourseOrdering(ctx, courseID, course.Version, assignments)
		if err == nil {
			o.log.Debug("rebuilt course ordering",
				zap.String("course_id", courseID), zap.Int("items", len(merged)))
			return nil
		}
		if !apperr.IsKind(err, apperr.KindConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// RepositionItem moves one item to the requested 1-based position and
// renumbers the rest densely, preserving their relative order. Only the
// owning teacher or an admin may reorder.
func (o *Ordering) RepositionItem(ctx context.Context, itemID string, typ ItemType, newOrder int, by Principal) error {
	if typ != TypeLesson && typ != TypeQuiz {
		return apperr.BadRequest("invalid item type %q", typ)
	}

	var lastErr error
	for attempt := 0; attempt < orderingRetries; attempt++ {
		target, err := o.loadItem(ctx, itemID, typ)
		if err != nil {
			return err
		}
		course, err := o.store.GetCourse(ctx, target.CourseID)
		if err != nil {
			return err
		}
		if !o.authz(by, course) {
			return apperr.Forbidden("user %s may not reorder course %s", by.ID, course.ID)
		}

		lessons, quizzes, err := o.store.ItemsByCourse(ctx, course.ID)
		if err != nil {
			return err
		}
		all := append(lessonItems(lessons), quizItems(quizzes)...)
		sortByOrder(all)

		rest := make([]ContentItem, 0, len(all))
		for _, it := range all {
			if it.ID != target.ID || it.Type != target.Type {
				rest = append(rest, it)
			}
		}

		// Insert before the first item whose order >= newOrder; append if
		// none qualifies.
		at := len(rest)
		for i, it := range rest {
			if it.Order >= newOrder {
				at = i
				break
			}
		}
		seq := make([]ContentItem, 0, len(rest)+1)
		seq = append(seq, rest[:at]...)
		seq = append(seq, target)
		seq = append(seq, rest[at:]...)

		assignments := make([]OrderAssignment, 0, len(seq))
		for i, it := range seq {
			if it.Order != i+1 {
				assignments = append(assignments, OrderAssignment{ID: it.ID, Type: it.Type, Order: i + 1})
			}
		}
		if len(assignments) == 0 {
			return nil
		}

		err = o.store.ReplaceCourseOrdering(ctx, course.ID, course.Version, assignments)
		if err == nil {
			o.log.Debug("repositioned item",
				zap.String("item_id", itemID), zap.String("course_id", course.ID),
				zap.Int("new_order", newOrder))
			return nil
		}
		if !apperr.IsKind(err, apperr.KindConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// BulkEntryResult reports the outcome of one ApplyBulkOrders entry.
type BulkEntryResult struct {
	ItemID string   `json:"item_id"`
	Type   ItemType `json:"type,omitempty"`
	Order  int      `json:"order"`
	Error  string   `json:"error,omitempty"`
}

// ApplyBulkOrders sets each item's order verbatim: no renumbering and no
// collision resolution across entries, last write wins. Failures are scoped
// per entry; a Forbidden or NotFound entry does not stop the rest.
func (o *Ordering) ApplyBulkOrders(ctx context.Context, orders map[string]int, by Principal) []BulkEntryResult {
	results := make([]BulkEntryResult, 0, len(orders))
	for id, ord := range orders {
		res := BulkEntryResult{ItemID: id, Order: ord}
		it, err := o.resolveItem(ctx, id)
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.Type = it.Type

		if by.Role != "admin" {
			course, err := o.store.GetCourse(ctx, it.CourseID)
			if err != nil {
				res.Error = err.Error()
				results = append(results, res)
				continue
			}
			if !o.authz(by, course) {
				res.Error = apperr.Forbidden("user %s does not own course %s", by.ID, course.ID).Error()
				results = append(results, res)
				continue
			}
		}
		if err := o.store.SetItemOrder(ctx, it.Type, it.ID, ord); err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// RecomputeCourseTimeLimit sums the time limits of every lesson and quiz
// of the course and stores the total on the course row.
func (o *Ordering) RecomputeCourseTimeLimit(ctx context.Context, courseID string) (int, error) {
	course, err := o.store.GetCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	lessons, quizzes, err := o.store.ItemsByCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, l := range lessons {
		total += l.TimeLimit
	}
	for _, q := range quizzes {
		total += q.TimeLimit
	}
	if course.TotalTimeLimit != total {
		course.TotalTimeLimit = total
		if err := o.store.SaveCourse(ctx, course); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// --- helpers ---

func (o *Ordering) loadItem(ctx context.Context, id string, typ ItemType) (ContentItem, error) {
	switch typ {
	case TypeLesson:
		l, err := o.store.GetLesson(ctx, id)
		if err != nil {
			return ContentItem{}, err
		}
		return l.item(), nil
	default:
		q, err := o.store.GetQuiz(ctx, id)
		if err != nil {
			return ContentItem{}, err
		}
		return q.item(), nil
	}
}

// resolveItem finds an id regardless of variant: lessons first, then quizzes.
func (o *Ordering) resolveItem(ctx context.Context, id string) (ContentItem, error) {
	if l, err := o.store.GetLesson(ctx, id); err == nil {
		return l.item(), nil
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return ContentItem{}, err
	}
	q, err := o.store.GetQuiz(ctx, id)
	if err != nil {
		return ContentItem{}, err
	}
	return q.item(), nil
}

func lessonItems(ls []Lesson) []ContentItem {
	out := make([]ContentItem, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.item())
	}
	return out
}

func quizItems(qs []Quiz) []ContentItem {
	out := make([]ContentItem, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.item())
	}
	return out
}

// sortByCreated orders by creation time ascending, unknown (0) last,
// stable among equals.
func sortByCreated(items []ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].CreatedAt, items[j].CreatedAt
		if a == 0 {
			return false
		}
		if b == 0 {
			return true
		}
		return a < b
	})
}

// sortByOrder orders by current order ascending, unset (0) last, stable.
func sortByOrder(items []ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Order, items[j].Order
		if a == 0 {
			return false
		}
		if b == 0 {
			return true
		}
		return a < b
	})
}

// interleave merges the two creation-time-sorted lists into one sequence,
// taking whichever head was created first (lesson on ties or when both are
// unknown) and continuing with whichever list still has items once the
// other is exhausted.
func interleave(lessons, quizzes []ContentItem) []ContentItem {
	sortByCreated(lessons)
	sortByCreated(quizzes)

	merged := make([]ContentItem, 0, len(lessons)+len(quizzes))
	li, qi := 0, 0
	for li < len(lessons) && qi < len(quizzes) {
		if createdBefore(lessons[li], quizzes[qi]) {
			merged = append(merged, lessons[li])
			li++
		} else {
			merged = append(merged, quizzes[qi])
			qi++
		}
	}
	merged = append(merged, lessons[li:]...)
	merged = append(merged, quizzes[qi:]...)
	return merged
}

// createdBefore treats an unknown creation time as later than any known one.
func createdBefore(a, b ContentItem) bool {
	if a.CreatedAt == 0 {
		return b.CreatedAt == 0
	}
	if b.CreatedAt == 0 {
		return true
	}
	return a.CreatedAt <= b.CreatedAt
}
