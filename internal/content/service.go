package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coursekit/coursekit-server/internal/apperr"
	"github.com/coursekit/coursekit-server/internal/syncx"
)

// Service wires CRUD on courses, lessons, quizzes and enrollments to the
// ordering engine: every content mutation rebuilds the course ordering,
// recomputes the course time-limit total and fixes up enrollment progress.
type Service struct {
	store    Store
	ordering *Ordering
	events   *syncx.EventRepo
	log      *zap.Logger
}

func NewService(store Store, ordering *Ordering, events *syncx.EventRepo, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, ordering: ordering, events: events, log: log}
}

func (s *Service) Store() Store        { return s.store }
func (s *Service) Ordering() *Ordering { return s.ordering }

// --- Courses ---

func (s *Service) CreateCourse(ctx context.Context, title, description string, by Principal) (Course, error) {
	if by.Role != "teacher" && by.Role != "admin" {
		return Course{}, apperr.Forbidden("only teachers can create courses")
	}
	c := Course{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		TeacherID:   by.ID,
		CreatedAt:   time.Now().Unix(),
	}
	if err := s.store.SaveCourse(ctx, c); err != nil {
		return Course{}, err
	}
	return c, nil
}

func (s *Service) UpdateCourse(ctx context.Context, id, title, description string, by Principal) (Course, error) {
	c, err := s.authorizedCourse(ctx, id, by)
	if err != nil {
		return Course{}, err
	}
	if title != "" {
		c.Title = title
	}
	if description != "" {
		c.Description = description
	}
	if err := s.store.SaveCourse(ctx, c); err != nil {
		return Course{}, err
	}
	return c, nil
}

func (s *Service) DeleteCourse(ctx context.Context, id string, by Principal) error {
	if _, err := s.authorizedCourse(ctx, id, by); err != nil {
		return err
	}
	return s.store.DeleteCourse(ctx, id)
}

// --- Lessons ---

func (s *Service) CreateLesson(ctx context.Context, l Lesson, by Principal) (Lesson, error) {
	if _, err := s.authorizedCourse(ctx, l.CourseID, by); err != nil {
		return Lesson{}, err
	}
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now().Unix()
	if err := s.store.SaveLesson(ctx, l); err != nil {
		return Lesson{}, err
	}
	if err := s.afterContentChange(ctx, l.CourseID); err != nil {
		return Lesson{}, err
	}
	return s.store.GetLesson(ctx, l.ID)
}

func (s *Service) UpdateLesson(ctx context.Context, l Lesson, by Principal) (Lesson, error) {
	cur, err := s.store.GetLesson(ctx, l.ID)
	if err != nil {
		return Lesson{}, err
	}
	if _, err := s.authorizedCourse(ctx, cur.CourseID, by); err != nil {
		return Lesson{}, err
	}
	cur.Title = l.Title
	cur.Content = l.Content
	if l.AttachmentKey != "" {
		cur.AttachmentKey = l.AttachmentKey
	}
	timeChanged := cur.TimeLimit != l.TimeLimit
	cur.TimeLimit = l.TimeLimit
	if err := s.store.SaveLesson(ctx, cur); err != nil {
		return Lesson{}, err
	}
	if timeChanged {
		if err := s.refreshCourseTotals(ctx, cur.CourseID); err != nil {
			return Lesson{}, err
		}
	}
	return s.store.GetLesson(ctx, cur.ID)
}

func (s *Service) DeleteLesson(ctx context.Context, id string, by Principal) error {
	l, err := s.store.GetLesson(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorizedCourse(ctx, l.CourseID, by); err != nil {
		return err
	}
	if err := s.store.DeleteLesson(ctx, id); err != nil {
		return err
	}
	if err := s.afterContentChange(ctx, l.CourseID); err != nil {
		return err
	}
	return s.reconcileAfterDelete(ctx, l.CourseID, l.ID, l.TimeLimit)
}

// --- Quizzes ---

func (s *Service) CreateQuiz(ctx context.Context, q Quiz, by Principal) (Quiz, error) {
	if _, err := s.authorizedCourse(ctx, q.CourseID, by); err != nil {
		return Quiz{}, err
	}
	if err := validQuestions(q); err != nil {
		return Quiz{}, err
	}
	q.ID = uuid.NewString()
	q.CreatedAt = time.Now().Unix()
	if err := s.store.SaveQuiz(ctx, q); err != nil {
		return Quiz{}, err
	}
	if err := s.afterContentChange(ctx, q.CourseID); err != nil {
		return Quiz{}, err
	}
	return s.store.GetQuiz(ctx, q.ID)
}

func (s *Service) UpdateQuiz(ctx context.Context, q Quiz, by Principal) (Quiz, error) {
	cur, err := s.store.GetQuiz(ctx, q.ID)
	if err != nil {
		return Quiz{}, err
	}
	if _, err := s.authorizedCourse(ctx, cur.CourseID, by); err != nil {
		return Quiz{}, err
	}
	if err := validQuestions(q); err != nil {
		return Quiz{}, err
	}
	cur.Title = q.Title
	cur.Questions = q.Questions
	cur.PassingScore = q.PassingScore
	timeChanged := cur.TimeLimit != q.TimeLimit
	cur.TimeLimit = q.TimeLimit
	if err := s.store.SaveQuiz(ctx, cur); err != nil {
		return Quiz{}, err
	}
	if timeChanged {
		if err := s.refreshCourseTotals(ctx, cur.CourseID); err != nil {
			return Quiz{}, err
		}
	}
	return s.store.GetQuiz(ctx, cur.ID)
}

func (s *Service) DeleteQuiz(ctx context.Context, id string, by Principal) error {
	q, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorizedCourse(ctx, q.CourseID, by); err != nil {
		return err
	}
	if err := s.store.DeleteQuiz(ctx, id); err != nil {
		return err
	}
	if err := s.afterContentChange(ctx, q.CourseID); err != nil {
		return err
	}
	return s.reconcileAfterDelete(ctx, q.CourseID, q.ID, q.TimeLimit)
}

// --- Enrollments ---

func (s *Service) Enroll(ctx context.Context, courseID, userID string) (Enrollment, error) {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return Enrollment{}, err
	}
	if _, err := s.store.GetEnrollment(ctx, courseID, userID); err == nil {
		return Enrollment{}, apperr.Conflict("user %s is already enrolled in course %s", userID, courseID)
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return Enrollment{}, err
	}
	e := Enrollment{
		ID:             uuid.NewString(),
		CourseID:       courseID,
		UserID:         userID,
		CompletedItems: []string{},
		CreatedAt:      time.Now().Unix(),
	}
	if err := s.store.SaveEnrollment(ctx, e); err != nil {
		return Enrollment{}, err
	}
	s.append(ctx, syncx.EventEnrolled, e.ID, map[string]string{"course_id": courseID, "user_id": userID})
	return e, nil
}

func (s *Service) Drop(ctx context.Context, courseID, userID string) error {
	return s.store.DeleteEnrollment(ctx, courseID, userID)
}

// CompleteItem credits a lesson or quiz to the learner's enrollment and
// recomputes progress. Completing the same item twice is a no-op.
func (s *Service) CompleteItem(ctx context.Context, courseID, userID, itemID string) (Enrollment, error) {
	e, err := s.store.GetEnrollment(ctx, courseID, userID)
	if err != nil {
		return Enrollment{}, err
	}
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	it, err := s.ordering.resolveItem(ctx, itemID)
	if err != nil {
		return Enrollment{}, err
	}
	if it.CourseID != courseID {
		return Enrollment{}, apperr.BadRequest("item %s does not belong to course %s", itemID, courseID)
	}
	applyCompletion(&e, itemID, it.TimeLimit, course.TotalTimeLimit)
	if err := s.store.SaveEnrollment(ctx, e); err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

// --- internal plumbing ---

func (s *Service) authorizedCourse(ctx context.Context, courseID string, by Principal) (Course, error) {
	c, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if !s.ordering.authz(by, c) {
		return Course{}, apperr.Forbidden("user %s may not modify course %s", by.ID, c.ID)
	}
	return c, nil
}

// afterContentChange re-derives everything that depends on the course's
// item set: the interleaved ordering and the time-limit total.
func (s *Service) afterContentChange(ctx context.Context, courseID string) error {
	if err := s.ordering.RebuildInterleaved(ctx, courseID); err != nil {
		return err
	}
	_, err := s.ordering.RecomputeCourseTimeLimit(ctx, courseID)
	return err
}

// refreshCourseTotals recomputes the course total and every enrollment's
// progress after an item's time limit changed.
func (s *Service) refreshCourseTotals(ctx context.Context, courseID string) error {
	total, err := s.ordering.RecomputeCourseTimeLimit(ctx, courseID)
	if err != nil {
		return err
	}
	enrollments, err := s.store.EnrollmentsByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	for _, e := range enrollments {
		p := Progress(e.TimeCurrent, total)
		if p != e.Progress {
			e.Progress = p
			if err := s.store.SaveEnrollment(ctx, e); err != nil {
				return err
			}
		}
	}
	return nil
}

// reconcileAfterDelete uncredits a deleted item from every enrollment that
// had completed it and recomputes progress against the new course total.
func (s *Service) reconcileAfterDelete(ctx context.Context, courseID, itemID string, timeLimit int) error {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	enrollments, err := s.store.EnrollmentsByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	for _, e := range enrollments {
		if removeCompletion(&e, itemID, timeLimit, course.TotalTimeLimit) {
			if err := s.store.SaveEnrollment(ctx, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func validQuestions(q Quiz) error {
	if len(q.Questions) == 0 {
		return apperr.BadRequest("quiz needs at least one question")
	}
	for i, qu := range q.Questions {
		if len(qu.CorrectAnswers) == 0 {
			return apperr.BadRequest("question %d has no correct answer", i)
		}
	}
	return nil
}

func (s *Service) append(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, typ, key, data); err != nil {
		s.log.Warn("event append failed", zap.String("type", typ), zap.Error(err))
	}
}
