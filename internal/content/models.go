package content

import "github.com/coursekit/coursekit-server/internal/grading"

type ItemType string

const (
	TypeLesson ItemType = "LESSON"
	TypeQuiz   ItemType = "QUIZ"
)

// ContentItem is the ordering engine's view of a lesson or quiz: the tagged
// variant plus the fields the engine is allowed to touch. Order is 1-based
// and dense within a course; 0 means not yet assigned.
type ContentItem struct {
	ID        string
	Type      ItemType
	CourseID  string
	Order     int
	TimeLimit int   // minutes
	CreatedAt int64 // unix seconds; 0 = unknown, sorts last
}

type Course struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	TeacherID      string `json:"teacher_id"`
	TotalTimeLimit int    `json:"total_time_limit"`
	Version        int64  `json:"-"` // optimistic-concurrency token for ordering rewrites
	CreatedAt      int64  `json:"created_at,omitempty"`
}

type Lesson struct {
	ID            string `json:"id"`
	CourseID      string `json:"course_id"`
	Title         string `json:"title"`
	Content       string `json:"content,omitempty"`
	AttachmentKey string `json:"attachment_key,omitempty"`
	Order         int    `json:"order"`
	TimeLimit     int    `json:"time_limit"`
	CreatedAt     int64  `json:"created_at,omitempty"`
}

type Quiz struct {
	ID           string             `json:"id"`
	CourseID     string             `json:"course_id"`
	Title        string             `json:"title"`
	Questions    []grading.Question `json:"questions"`
	PassingScore float64            `json:"passing_score"`
	Order        int                `json:"order"`
	TimeLimit    int                `json:"time_limit"`
	CreatedAt    int64              `json:"created_at,omitempty"`
}

type Enrollment struct {
	ID             string   `json:"id"`
	CourseID       string   `json:"course_id"`
	UserID         string   `json:"user_id"`
	TimeCurrent    int      `json:"time_current"`
	Progress       float64  `json:"progress"`
	CompletedItems []string `json:"completed_items"`
	CreatedAt      int64    `json:"created_at,omitempty"`
}

type QuizResult struct {
	ID                 string   `json:"id"`
	QuizID             string   `json:"quiz_id"`
	UserID             string   `json:"user_id"`
	Score              float64  `json:"score"`
	Passed             bool     `json:"passed"`
	IncorrectQuestions []string `json:"incorrect_questions"`
	CreatedAt          int64    `json:"created_at"`
}

// Principal identifies the caller of a mutating operation.
type Principal struct {
	ID   string
	Role string // "student" | "teacher" | "admin"
}

func (l Lesson) item() ContentItem {
	return ContentItem{ID: l.ID, Type: TypeLesson, CourseID: l.CourseID,
		Order: l.Order, TimeLimit: l.TimeLimit, CreatedAt: l.CreatedAt}
}

func (q Quiz) item() ContentItem {
	return ContentItem{ID: q.ID, Type: TypeQuiz, CourseID: q.CourseID,
		Order: q.Order, TimeLimit: q.TimeLimit, CreatedAt: q.CreatedAt}
}
