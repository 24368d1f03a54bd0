package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/coursekit/coursekit-server/internal/apperr"
)

// SQLStore persists content entities through database/sql. Placeholders use
// the $N form, which both the pgx and modernc sqlite drivers accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// --- Courses ---

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, teacher_id, total_time_limit, version, created_at
		   FROM courses WHERE id=$1`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.TeacherID, &c.TotalTimeLimit, &c.Version, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, apperr.NotFound("course %s not found", id)
		}
		return Course{}, err
	}
	return c, nil
}

func (s *SQLStore) SaveCourse(ctx context.Context, c Course) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id, title, description, teacher_id, total_time_limit, version, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO UPDATE SET
		   title=EXCLUDED.title, description=EXCLUDED.description,
		   total_time_limit=EXCLUDED.total_time_limit`,
		c.ID, c.Title, c.Description, c.TeacherID, c.TotalTimeLimit, c.Version, c.CreatedAt)
	return err
}

func (s *SQLStore) DeleteCourse(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return notFoundIfZero(res, "course %s not found", id)
}

func (s *SQLStore) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, teacher_id, total_time_limit, version, created_at
		   FROM courses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.TeacherID, &c.TotalTimeLimit, &c.Version, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Lessons ---

func (s *SQLStore) GetLesson(ctx context.Context, id string) (Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, course_id, title, content, attachment_key, item_order, time_limit, created_at
		   FROM lessons WHERE id=$1`, id)
	l, err := scanLesson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lesson{}, apperr.NotFound("lesson %s not found", id)
		}
		return Lesson{}, err
	}
	return l, nil
}

func (s *SQLStore) SaveLesson(ctx context.Context, l Lesson) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lessons (id, course_id, title, content, attachment_key, item_order, time_limit, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (id) DO UPDATE SET
		   title=EXCLUDED.title, content=EXCLUDED.content,
		   attachment_key=EXCLUDED.attachment_key,
		   item_order=EXCLUDED.item_order, time_limit=EXCLUDED.time_limit`,
		l.ID, l.CourseID, l.Title, l.Content, l.AttachmentKey, nullOrder(l.Order), l.TimeLimit, nullTime(l.CreatedAt))
	return err
}

func (s *SQLStore) DeleteLesson(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return notFoundIfZero(res, "lesson %s not found", id)
}

// --- Quizzes ---

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, course_id, title, questions_json, passing_score, item_order, time_limit, created_at
		   FROM quizzes WHERE id=$1`, id)
	q, err := scanQuiz(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, apperr.NotFound("quiz %s not found", id)
		}
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) SaveQuiz(ctx context.Context, q Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quizzes (id, course_id, title, questions_json, passing_score, item_order, time_limit, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (id) DO UPDATE SET
		   title=EXCLUDED.title, questions_json=EXCLUDED.questions_json,
		   passing_score=EXCLUDED.passing_score,
		   item_order=EXCLUDED.item_order, time_limit=EXCLUDED.time_limit`,
		q.ID, q.CourseID, q.Title, string(qj), q.PassingScore, nullOrder(q.Order), q.TimeLimit, nullTime(q.CreatedAt))
	return err
}

func (s *SQLStore) DeleteQuiz(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return notFoundIfZero(res, "quiz %s not found", id)
}

// --- Items / ordering ---

func (s *SQLStore) ItemsByCourse(ctx context.Context, courseID string) ([]Lesson, []Quiz, error) {
	lrows, err := s.db.QueryContext(ctx,
		`SELECT id, course_id, title, content, attachment_key, item_order, time_limit, created_at
		   FROM lessons WHERE course_id=$1`, courseID)
	if err != nil {
		return nil, nil, err
	}
	defer lrows.Close()

	lessons := []Lesson{}
	for lrows.Next() {
		l, err := scanLesson(lrows)
		if err != nil {
			return nil, nil, err
		}
		lessons = append(lessons, l)
	}
	if err := lrows.Err(); err != nil {
		return nil, nil, err
	}

	qrows, err := s.db.QueryContext(ctx,
		`SELECT id, course_id, title, questions_json, passing_score, item_order, time_limit, created_at
		   FROM quizzes WHERE course_id=$1`, courseID)
	if err != nil {
		return nil, nil, err
	}
	defer qrows.Close()

	quizzes := []Quiz{}
	for qrows.Next() {
		q, err := scanQuiz(qrows)
		if err != nil {
			return nil, nil, err
		}
		quizzes = append(quizzes, q)
	}
	return lessons, quizzes, qrows.Err()
}

func (s *SQLStore) SetItemOrder(ctx context.Context, typ ItemType, id string, order int) error {
	table := "lessons"
	if typ == TypeQuiz {
		table = "quizzes"
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET item_order=$1 WHERE id=$2`, order, id)
	if err != nil {
		return err
	}
	return notFoundIfZero(res, "item %s not found", id)
}

func (s *SQLStore) ReplaceCourseOrdering(ctx context.Context, courseID string, version int64, orders []OrderAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE courses SET version=version+1 WHERE id=$1 AND version=$2`, courseID, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, gerr := s.GetCourse(ctx, courseID); gerr != nil {
			return gerr
		}
		return apperr.Conflict("course %s ordering changed concurrently", courseID)
	}

	for _, oa := range orders {
		table := "lessons"
		if oa.Type == TypeQuiz {
			table = "quizzes"
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET item_order=$1 WHERE id=$2`, oa.Order, oa.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- Enrollments ---

func (s *SQLStore) GetEnrollment(ctx context.Context, courseID, userID string) (Enrollment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, course_id, user_id, time_current, progress, completed_json, created_at
		   FROM enrollments WHERE course_id=$1 AND user_id=$2`, courseID, userID)
	e, err := scanEnrollment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Enrollment{}, apperr.NotFound("enrollment for user %s in course %s not found", userID, courseID)
		}
		return Enrollment{}, err
	}
	return e, nil
}

func (s *SQLStore) SaveEnrollment(ctx context.Context, e Enrollment) error {
	cj, err := json.Marshal(e.CompletedItems)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO enrollments (id, course_id, user_id, time_current, progress, completed_json, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (course_id, user_id) DO UPDATE SET
		   time_current=EXCLUDED.time_current, progress=EXCLUDED.progress,
		   completed_json=EXCLUDED.completed_json`,
		e.ID, e.CourseID, e.UserID, e.TimeCurrent, e.Progress, string(cj), e.CreatedAt)
	return err
}

func (s *SQLStore) DeleteEnrollment(ctx context.Context, courseID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM enrollments WHERE course_id=$1 AND user_id=$2`, courseID, userID)
	if err != nil {
		return err
	}
	return notFoundIfZero(res, "enrollment for user %s in course %s not found", userID, courseID)
}

func (s *SQLStore) EnrollmentsByCourse(ctx context.Context, courseID string) ([]Enrollment, error) {
	return s.enrollments(ctx, `course_id=$1`, courseID)
}

func (s *SQLStore) EnrollmentsByUser(ctx context.Context, userID string) ([]Enrollment, error) {
	return s.enrollments(ctx, `user_id=$1`, userID)
}

func (s *SQLStore) enrollments(ctx context.Context, where string, arg any) ([]Enrollment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, course_id, user_id, time_current, progress, completed_json, created_at
		   FROM enrollments WHERE `+where, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Quiz results ---

func (s *SQLStore) SaveQuizResult(ctx context.Context, r QuizResult) error {
	ij, err := json.Marshal(r.IncorrectQuestions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quiz_results (id, quiz_id, user_id, score, passed, incorrect_json, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.QuizID, r.UserID, r.Score, r.Passed, string(ij), r.CreatedAt)
	return err
}

func (s *SQLStore) ResultsByUser(ctx context.Context, userID string) ([]QuizResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, quiz_id, user_id, score, passed, incorrect_json, created_at
		   FROM quiz_results WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []QuizResult{}
	for rows.Next() {
		var r QuizResult
		var ij string
		if err := rows.Scan(&r.ID, &r.QuizID, &r.UserID, &r.Score, &r.Passed, &ij, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ij), &r.IncorrectQuestions); err != nil {
			r.IncorrectQuestions = nil
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- scan helpers ---

type rowScanner interface{ Scan(dest ...any) error }

func scanLesson(row rowScanner) (Lesson, error) {
	var l Lesson
	var order, created sql.NullInt64
	if err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.AttachmentKey, &order, &l.TimeLimit, &created); err != nil {
		return Lesson{}, err
	}
	l.Order = int(order.Int64)
	l.CreatedAt = created.Int64
	return l, nil
}

func scanQuiz(row rowScanner) (Quiz, error) {
	var q Quiz
	var qj string
	var order, created sql.NullInt64
	if err := row.Scan(&q.ID, &q.CourseID, &q.Title, &qj, &q.PassingScore, &order, &q.TimeLimit, &created); err != nil {
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qj), &q.Questions); err != nil {
		return Quiz{}, err
	}
	q.Order = int(order.Int64)
	q.CreatedAt = created.Int64
	return q, nil
}

func scanEnrollment(row rowScanner) (Enrollment, error) {
	var e Enrollment
	var cj string
	if err := row.Scan(&e.ID, &e.CourseID, &e.UserID, &e.TimeCurrent, &e.Progress, &cj, &e.CreatedAt); err != nil {
		return Enrollment{}, err
	}
	if err := json.Unmarshal([]byte(cj), &e.CompletedItems); err != nil {
		e.CompletedItems = []string{}
	}
	return e, nil
}

func nullOrder(order int) sql.NullInt64 {
	if order <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Valid: true, Int64: int64(order)}
}

func nullTime(unix int64) sql.NullInt64 {
	if unix == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Valid: true, Int64: unix}
}

func notFoundIfZero(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(format, args...)
	}
	return nil
}

var _ Store = (*SQLStore)(nil)
