package content

import "context"

// OrderAssignment is one item's new order value within a course rewrite.
type OrderAssignment struct {
	ID    string
	Type  ItemType
	Order int
}

// Store is the persistence collaborator for courses, content items,
// enrollments and quiz results. Missing rows surface as apperr.NotFound,
// distinguishable from successful empty results.
type Store interface {
	GetCourse(ctx context.Context, id string) (Course, error)
	SaveCourse(ctx context.Context, c Course) error
	DeleteCourse(ctx context.Context, id string) error
	ListCourses(ctx context.Context) ([]Course, error)

	GetLesson(ctx context.Context, id string) (Lesson, error)
	SaveLesson(ctx context.Context, l Lesson) error
	DeleteLesson(ctx context.Context, id string) error

	GetQuiz(ctx context.Context, id string) (Quiz, error)
	SaveQuiz(ctx context.Context, q Quiz) error
	DeleteQuiz(ctx context.Context, id string) error

	// ItemsByCourse returns every lesson and quiz of the course.
	ItemsByCourse(ctx context.Context, courseID string) ([]Lesson, []Quiz, error)

	// SetItemOrder writes one item's order verbatim, with no version check.
	SetItemOrder(ctx context.Context, typ ItemType, id string, order int) error

	// ReplaceCourseOrdering persists a full renumbering. version must equal
	// the course's current ordering version or the write fails with
	// apperr.Conflict and no rows change.
	ReplaceCourseOrdering(ctx context.Context, courseID string, version int64, orders []OrderAssignment) error

	GetEnrollment(ctx context.Context, courseID, userID string) (Enrollment, error)
	SaveEnrollment(ctx context.Context, e Enrollment) error
	DeleteEnrollment(ctx context.Context, courseID, userID string) error
	EnrollmentsByCourse(ctx context.Context, courseID string) ([]Enrollment, error)
	EnrollmentsByUser(ctx context.Context, userID string) ([]Enrollment, error)

	SaveQuizResult(ctx context.Context, r QuizResult) error
	ResultsByUser(ctx context.Context, userID string) ([]QuizResult, error)
}
