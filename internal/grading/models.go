package grading

type QuestionKind string

const (
	KindSingleChoice   QuestionKind = "SINGLE_CHOICE"
	KindMultipleChoice QuestionKind = "MULTIPLE_CHOICE"
	KindShortAnswer    QuestionKind = "SHORT_ANSWER"
)

// Question is immutable once authored. Options is empty for short answers;
// CorrectAnswers holds exactly one entry except for multiple choice.
type Question struct {
	Text           string       `json:"question"`
	Kind           QuestionKind `json:"kind"`
	Options        []string     `json:"options,omitempty"`
	CorrectAnswers []string     `json:"correct_answers"`
}

type Quiz struct {
	ID           string     `json:"id"`
	CourseID     string     `json:"course_id"`
	Title        string     `json:"title"`
	TimeLimit    int        `json:"time_limit"` // minutes, advisory; not enforced here
	PassingScore float64    `json:"passing_score"`
	Questions    []Question `json:"questions"`
}

// Answer pairs the question text the learner saw with their selection.
// Answers are matched to questions positionally, not by id.
type Answer struct {
	Question string   `json:"question"`
	Selected []string `json:"selected"`
}

type Submission struct {
	Answers []Answer `json:"answers"`
}

// Learner is the minimal view of a user the engine needs for the
// enrollment precondition.
type Learner struct {
	ID                string
	EnrolledCourseIDs []string
}

type Result struct {
	Score              float64  `json:"score"`
	Passed             bool     `json:"passed"`
	CorrectCount       int      `json:"correct_count"`
	TotalQuestions     int      `json:"total_questions"`
	IncorrectQuestions []string `json:"incorrect_questions"`
	Message            string   `json:"message"`
}
