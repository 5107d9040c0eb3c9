// Package memory is a mutex guarded, in-process implementation of the
// repositories used by STORE=memory and by service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

type store struct {
	seq         map[string]uint
	users       map[string]models.User
	courses     map[uint]models.Course
	units       map[uint]models.Unit
	lessons     map[uint]models.Lesson
	quizzes     map[uint]models.LessonQuiz
	exams       map[uint]models.UnitExam
	enrollments map[uint]models.Enrollment
	attempts    map[uint]models.ExamAttempt
	activity    []models.ActivityLog
}

func newStore() *store {
	return &store{
		seq:         make(map[string]uint),
		users:       make(map[string]models.User),
		courses:     make(map[uint]models.Course),
		units:       make(map[uint]models.Unit),
		lessons:     make(map[uint]models.Lesson),
		quizzes:     make(map[uint]models.LessonQuiz),
		exams:       make(map[uint]models.UnitExam),
		enrollments: make(map[uint]models.Enrollment),
		attempts:    make(map[uint]models.ExamAttempt),
	}
}

func (s *store) nextID(table string) uint {
	s.seq[table]++
	return s.seq[table]
}

// snapshot deep copies the store so a failed transaction can be rolled back.
func (s *store) snapshot() *store {
	out := newStore()
	for k, v := range s.seq {
		out.seq[k] = v
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.courses {
		out.courses[k] = cloneCourse(v)
	}
	for k, v := range s.units {
		out.units[k] = v
	}
	for k, v := range s.lessons {
		out.lessons[k] = v
	}
	for k, v := range s.quizzes {
		out.quizzes[k] = cloneQuiz(v)
	}
	for k, v := range s.exams {
		out.exams[k] = cloneExam(v)
	}
	for k, v := range s.enrollments {
		out.enrollments[k] = cloneEnrollment(v)
	}
	for k, v := range s.attempts {
		out.attempts[k] = cloneAttempt(v)
	}
	out.activity = append([]models.ActivityLog(nil), s.activity...)
	return out
}

// Repository implements repositories.Repository. All methods are safe for
// concurrent use; WithTransaction holds the lock for the whole callback.
type Repository struct {
	mu   *sync.Mutex
	s    *store
	inTx bool
	now  func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		mu:  &sync.Mutex{},
		s:   newStore(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// lock returns the matching unlock. Inside a transaction the lock is already held.
func (r *Repository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *Repository) Course() repositories.CourseRepository         { return &courseRepo{r} }
func (r *Repository) Unit() repositories.UnitRepository             { return &unitRepo{r} }
func (r *Repository) Lesson() repositories.LessonRepository         { return &lessonRepo{r} }
func (r *Repository) Quiz() repositories.QuizRepository             { return &quizRepo{r} }
func (r *Repository) Exam() repositories.ExamRepository             { return &examRepo{r} }
func (r *Repository) Enrollment() repositories.EnrollmentRepository { return &enrollmentRepo{r} }
func (r *Repository) Attempt() repositories.AttemptRepository       { return &attemptRepo{r} }
func (r *Repository) Activity() repositories.ActivityRepository     { return &activityRepo{r} }
func (r *Repository) User() repositories.UserRepository             { return &userRepo{r} }

func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	saved := r.s.snapshot()
	tx := &Repository{mu: r.mu, s: r.s, inTx: true, now: r.now}
	if err := fn(tx); err != nil {
		*r.s = *saved
		return err
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *Repository) Close() error {
	return nil
}

// RepositoryManager adapts Repository to repositories.RepositoryManager.
type RepositoryManager struct {
	repo *Repository
}

func NewRepositoryManager() repositories.RepositoryManager {
	return &RepositoryManager{}
}

func (rm *RepositoryManager) Initialize() error {
	rm.repo = NewRepository()
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	return nil
}

// ===== COPY HELPERS =====

func cloneBytes(b datatypes.JSON) datatypes.JSON {
	if b == nil {
		return nil
	}
	return append(datatypes.JSON(nil), b...)
}

func cloneCourse(c models.Course) models.Course {
	c.Units = nil
	if c.Settings.PrerequisiteCourseIDs != nil {
		c.Settings.PrerequisiteCourseIDs = append(datatypes.JSONSlice[uint]{}, c.Settings.PrerequisiteCourseIDs...)
	}
	return c
}

func cloneUnit(u models.Unit) models.Unit {
	u.Lessons = nil
	u.Exams = nil
	return u
}

func cloneLesson(l models.Lesson) models.Lesson {
	l.Quizzes = nil
	return l
}

func cloneQuiz(q models.LessonQuiz) models.LessonQuiz {
	q.Questions = cloneBytes(q.Questions)
	return q
}

func cloneExam(e models.UnitExam) models.UnitExam {
	e.Questions = cloneBytes(e.Questions)
	return e
}

func cloneEnrollment(e models.Enrollment) models.Enrollment {
	e.Course = nil
	e.Progress = datatypes.NewJSONType(e.Progress.Data().Clone())
	return e
}

func cloneAttempt(a models.ExamAttempt) models.ExamAttempt {
	answers := make(models.AttemptAnswers, len(a.Answers.Data()))
	for k, v := range a.Answers.Data() {
		answers[k] = v
	}
	a.Answers = datatypes.NewJSONType(answers)
	return a
}

func stamp(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// sortByOrder sorts by order value, ties broken by id.
func sortByOrder[T any](items []*T, order func(*T) (int, uint)) {
	sort.Slice(items, func(i, j int) bool {
		oi, ii := order(items[i])
		oj, ij := order(items[j])
		if oi != oj {
			return oi < oj
		}
		return ii < ij
	})
}
