package content

import (
	"context"
	"sync"

	"github.com/coursekit/coursekit-server/internal/apperr"
)

// memoryStore is a Store for tests and single-process dev runs.
type memoryStore struct {
	mu          sync.RWMutex
	courses     map[string]Course
	lessons     map[string]Lesson
	quizzes     map[string]Quiz
	enrollments map[string]Enrollment // key: courseID|userID
	results     []QuizResult
}

func NewInMemoryStore() Store {
	return &memoryStore{
		courses:     map[string]Course{},
		lessons:     map[string]Lesson{},
		quizzes:     map[string]Quiz{},
		enrollments: map[string]Enrollment{},
	}
}

func enrollKey(courseID, userID string) string { return courseID + "|" + userID }

func (m *memoryStore) GetCourse(_ context.Context, id string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return Course{}, apperr.NotFound("course %s not found", id)
	}
	return c, nil
}

func (m *memoryStore) SaveCourse(_ context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.courses[c.ID]; ok {
		c.Version = cur.Version
	}
	m.courses[c.ID] = c
	return nil
}

func (m *memoryStore) DeleteCourse(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return apperr.NotFound("course %s not found", id)
	}
	delete(m.courses, id)
	for lid, l := range m.lessons {
		if l.CourseID == id {
			delete(m.lessons, lid)
		}
	}
	for qid, q := range m.quizzes {
		if q.CourseID == id {
			delete(m.quizzes, qid)
		}
	}
	for k, e := range m.enrollments {
		if e.CourseID == id {
			delete(m.enrollments, k)
		}
	}
	return nil
}

func (m *memoryStore) ListCourses(_ context.Context) ([]Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryStore) GetLesson(_ context.Context, id string) (Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lessons[id]
	if !ok {
		return Lesson{}, apperr.NotFound("lesson %s not found", id)
	}
	return l, nil
}

func (m *memoryStore) SaveLesson(_ context.Context, l Lesson) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lessons[l.ID] = l
	return nil
}

func (m *memoryStore) DeleteLesson(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lessons[id]; !ok {
		return apperr.NotFound("lesson %s not found", id)
	}
	delete(m.lessons, id)
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, apperr.NotFound("quiz %s not found", id)
	}
	return q, nil
}

func (m *memoryStore) SaveQuiz(_ context.Context, q Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[q.ID] = q
	return nil
}

func (m *memoryStore) DeleteQuiz(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[id]; !ok {
		return apperr.NotFound("quiz %s not found", id)
	}
	delete(m.quizzes, id)
	return nil
}

func (m *memoryStore) ItemsByCourse(_ context.Context, courseID string) ([]Lesson, []Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lessons := []Lesson{}
	for _, l := range m.lessons {
		if l.CourseID == courseID {
			lessons = append(lessons, l)
		}
	}
	quizzes := []Quiz{}
	for _, q := range m.quizzes {
		if q.CourseID == courseID {
			quizzes = append(quizzes, q)
		}
	}
	return lessons, quizzes, nil
}

func (m *memoryStore) SetItemOrder(_ context.Context, typ ItemType, id string, order int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if typ == TypeLesson {
		l, ok := m.lessons[id]
		if !ok {
			return apperr.NotFound("lesson %s not found", id)
		}
		l.Order = order
		m.lessons[id] = l
		return nil
	}
	q, ok := m.quizzes[id]
	if !ok {
		return apperr.NotFound("quiz %s not found", id)
	}
	q.Order = order
	m.quizzes[id] = q
	return nil
}

func (m *memoryStore) ReplaceCourseOrdering(_ context.Context, courseID string, version int64, orders []OrderAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[courseID]
	if !ok {
		return apperr.NotFound("course %s not found", courseID)
	}
	if c.Version != version {
		return apperr.Conflict("course %s ordering changed concurrently", courseID)
	}
	c.Version++
	m.courses[courseID] = c
	for _, oa := range orders {
		if oa.Type == TypeLesson {
			if l, ok := m.lessons[oa.ID]; ok {
				l.Order = oa.Order
				m.lessons[oa.ID] = l
			}
		} else {
			if q, ok := m.quizzes[oa.ID]; ok {
				q.Order = oa.Order
				m.quizzes[oa.ID] = q
			}
		}
	}
	return nil
}

func (m *memoryStore) GetEnrollment(_ context.Context, courseID, userID string) (Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.enrollments[enrollKey(courseID, userID)]
	if !ok {
		return Enrollment{}, apperr.NotFound("enrollment for user %s in course %s not found", userID, courseID)
	}
	return e, nil
}

func (m *memoryStore) SaveEnrollment(_ context.Context, e Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments[enrollKey(e.CourseID, e.UserID)] = e
	return nil
}

func (m *memoryStore) DeleteEnrollment(_ context.Context, courseID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := enrollKey(courseID, userID)
	if _, ok := m.enrollments[k]; !ok {
		return apperr.NotFound("enrollment for user %s in course %s not found", userID, courseID)
	}
	delete(m.enrollments, k)
	return nil
}

func (m *memoryStore) EnrollmentsByCourse(_ context.Context, courseID string) ([]Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Enrollment{}
	for _, e := range m.enrollments {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) EnrollmentsByUser(_ context.Context, userID string) ([]Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Enrollment{}
	for _, e := range m.enrollments {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) SaveQuizResult(_ context.Context, r QuizResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

func (m *memoryStore) ResultsByUser(_ context.Context, userID string) ([]QuizResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []QuizResult{}
	for _, r := range m.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}
