package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/ordering"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

func unitOrder(u *models.Unit) (int, uint)     { return u.Order, u.ID }
func lessonOrder(l *models.Lesson) (int, uint) { return l.Order, l.ID }

// ===== COURSES =====

type courseRepo struct{ r *Repository }

func (c *courseRepo) Create(ctx context.Context, course *models.Course) error {
	defer c.r.lock()()
	s := c.r.s
	course.ID = s.nextID("courses")
	stamp(&course.CreatedAt, &course.UpdatedAt, c.r.now())
	s.courses[course.ID] = cloneCourse(*course)
	return nil
}

func (c *courseRepo) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	defer c.r.lock()()
	course, ok := c.r.s.courses[id]
	if !ok {
		return nil, fmt.Errorf("course %d: %w", id, repositories.ErrNotFound)
	}
	out := cloneCourse(course)
	return &out, nil
}

func (c *courseRepo) LockByID(ctx context.Context, id uint) (*models.Course, error) {
	return c.GetByID(ctx, id)
}

func (c *courseRepo) GetWithContent(ctx context.Context, id uint) (*models.Course, error) {
	defer c.r.lock()()
	s := c.r.s
	course, ok := s.courses[id]
	if !ok {
		return nil, fmt.Errorf("course %d: %w", id, repositories.ErrNotFound)
	}
	out := cloneCourse(course)

	units := unitsOf(s, id)
	out.Units = make([]models.Unit, 0, len(units))
	for _, u := range units {
		unit := *u
		for _, l := range lessonsOf(s, unit.ID) {
			lesson := *l
			for _, q := range quizzesOf(s, lesson.ID) {
				lesson.Quizzes = append(lesson.Quizzes, *q)
			}
			unit.Lessons = append(unit.Lessons, lesson)
		}
		for _, e := range examsOf(s, unit.ID) {
			unit.Exams = append(unit.Exams, *e)
		}
		out.Units = append(out.Units, unit)
	}
	return &out, nil
}

func (c *courseRepo) Update(ctx context.Context, course *models.Course) error {
	defer c.r.lock()()
	s := c.r.s
	existing, ok := s.courses[course.ID]
	if !ok {
		return fmt.Errorf("course %d: %w", course.ID, repositories.ErrNotFound)
	}
	course.CreatedAt = existing.CreatedAt
	course.UpdatedAt = c.r.now()
	s.courses[course.ID] = cloneCourse(*course)
	return nil
}

func (c *courseRepo) Delete(ctx context.Context, id uint) error {
	defer c.r.lock()()
	s := c.r.s
	if _, ok := s.courses[id]; !ok {
		return fmt.Errorf("course %d: %w", id, repositories.ErrNotFound)
	}
	for _, u := range unitsOf(s, id) {
		deleteUnit(s, u.ID)
	}
	delete(s.courses, id)
	return nil
}

func (c *courseRepo) ListWithStats(ctx context.Context) ([]*models.CourseWithStats, error) {
	defer c.r.lock()()
	s := c.r.s

	out := make([]*models.CourseWithStats, 0, len(s.courses))
	for _, course := range s.courses {
		row := &models.CourseWithStats{Course: cloneCourse(course)}
		for _, e := range s.enrollments {
			if e.CourseID == course.ID {
				row.EnrollmentCount++
			}
		}
		for _, u := range unitsOf(s, course.ID) {
			row.UnitCount++
			row.LessonCount += int64(len(lessonsOf(s, u.ID)))
			row.ExamCount += int64(len(examsOf(s, u.ID)))
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ===== UNITS =====

type unitRepo struct{ r *Repository }

func (u *unitRepo) Create(ctx context.Context, unit *models.Unit) error {
	defer u.r.lock()()
	s := u.r.s
	if _, ok := s.courses[unit.CourseID]; !ok {
		return fmt.Errorf("course %d: %w", unit.CourseID, repositories.ErrNotFound)
	}
	unit.ID = s.nextID("units")
	stamp(&unit.CreatedAt, &unit.UpdatedAt, u.r.now())
	s.units[unit.ID] = cloneUnit(*unit)
	return nil
}

func (u *unitRepo) GetByID(ctx context.Context, id uint) (*models.Unit, error) {
	defer u.r.lock()()
	unit, ok := u.r.s.units[id]
	if !ok {
		return nil, fmt.Errorf("unit %d: %w", id, repositories.ErrNotFound)
	}
	return &unit, nil
}

func (u *unitRepo) LockByID(ctx context.Context, id uint) (*models.Unit, error) {
	return u.GetByID(ctx, id)
}

func (u *unitRepo) ListByCourse(ctx context.Context, courseID uint) ([]*models.Unit, error) {
	defer u.r.lock()()
	return unitsOf(u.r.s, courseID), nil
}

func (u *unitRepo) Update(ctx context.Context, unit *models.Unit) error {
	defer u.r.lock()()
	s := u.r.s
	existing, ok := s.units[unit.ID]
	if !ok {
		return fmt.Errorf("unit %d: %w", unit.ID, repositories.ErrNotFound)
	}
	unit.CreatedAt = existing.CreatedAt
	unit.UpdatedAt = u.r.now()
	s.units[unit.ID] = cloneUnit(*unit)
	return nil
}

func (u *unitRepo) Delete(ctx context.Context, id uint) error {
	defer u.r.lock()()
	if _, ok := u.r.s.units[id]; !ok {
		return fmt.Errorf("unit %d: %w", id, repositories.ErrNotFound)
	}
	deleteUnit(u.r.s, id)
	return nil
}

func (u *unitRepo) UpdateOrders(ctx context.Context, courseID uint, updates []ordering.Update) error {
	defer u.r.lock()()
	s := u.r.s
	for _, upd := range updates {
		unit, ok := s.units[upd.ID]
		if !ok || unit.CourseID != courseID {
			return fmt.Errorf("unit %d in course %d: %w", upd.ID, courseID, repositories.ErrNotFound)
		}
	}
	now := u.r.now()
	for _, upd := range updates {
		unit := s.units[upd.ID]
		unit.Order = upd.Order
		unit.UpdatedAt = now
		s.units[upd.ID] = unit
	}
	return nil
}

// ===== LESSONS =====

type lessonRepo struct{ r *Repository }

func (l *lessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	defer l.r.lock()()
	s := l.r.s
	if _, ok := s.units[lesson.UnitID]; !ok {
		return fmt.Errorf("unit %d: %w", lesson.UnitID, repositories.ErrNotFound)
	}
	lesson.ID = s.nextID("lessons")
	stamp(&lesson.CreatedAt, &lesson.UpdatedAt, l.r.now())
	s.lessons[lesson.ID] = cloneLesson(*lesson)
	return nil
}

func (l *lessonRepo) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	defer l.r.lock()()
	lesson, ok := l.r.s.lessons[id]
	if !ok {
		return nil, fmt.Errorf("lesson %d: %w", id, repositories.ErrNotFound)
	}
	return &lesson, nil
}

func (l *lessonRepo) ListByUnit(ctx context.Context, unitID uint) ([]*models.Lesson, error) {
	defer l.r.lock()()
	return lessonsOf(l.r.s, unitID), nil
}

func (l *lessonRepo) Update(ctx context.Context, lesson *models.Lesson) error {
	defer l.r.lock()()
	s := l.r.s
	existing, ok := s.lessons[lesson.ID]
	if !ok {
		return fmt.Errorf("lesson %d: %w", lesson.ID, repositories.ErrNotFound)
	}
	lesson.CreatedAt = existing.CreatedAt
	lesson.UpdatedAt = l.r.now()
	s.lessons[lesson.ID] = cloneLesson(*lesson)
	return nil
}

func (l *lessonRepo) Delete(ctx context.Context, id uint) error {
	defer l.r.lock()()
	s := l.r.s
	if _, ok := s.lessons[id]; !ok {
		return fmt.Errorf("lesson %d: %w", id, repositories.ErrNotFound)
	}
	deleteLesson(s, id)
	return nil
}

func (l *lessonRepo) UpdateOrders(ctx context.Context, unitID uint, updates []ordering.Update) error {
	defer l.r.lock()()
	s := l.r.s
	for _, upd := range updates {
		lesson, ok := s.lessons[upd.ID]
		if !ok || lesson.UnitID != unitID {
			return fmt.Errorf("lesson %d in unit %d: %w", upd.ID, unitID, repositories.ErrNotFound)
		}
	}
	now := l.r.now()
	for _, upd := range updates {
		lesson := s.lessons[upd.ID]
		lesson.Order = upd.Order
		lesson.UpdatedAt = now
		s.lessons[upd.ID] = lesson
	}
	return nil
}

// ===== QUIZZES =====

type quizRepo struct{ r *Repository }

func (q *quizRepo) Create(ctx context.Context, quiz *models.LessonQuiz) error {
	defer q.r.lock()()
	s := q.r.s
	if _, ok := s.lessons[quiz.LessonID]; !ok {
		return fmt.Errorf("lesson %d: %w", quiz.LessonID, repositories.ErrNotFound)
	}
	quiz.ID = s.nextID("lesson_quizzes")
	stamp(&quiz.CreatedAt, &quiz.UpdatedAt, q.r.now())
	s.quizzes[quiz.ID] = cloneQuiz(*quiz)
	return nil
}

func (q *quizRepo) GetByID(ctx context.Context, id uint) (*models.LessonQuiz, error) {
	defer q.r.lock()()
	quiz, ok := q.r.s.quizzes[id]
	if !ok {
		return nil, fmt.Errorf("quiz %d: %w", id, repositories.ErrNotFound)
	}
	out := cloneQuiz(quiz)
	return &out, nil
}

func (q *quizRepo) ListByLesson(ctx context.Context, lessonID uint) ([]*models.LessonQuiz, error) {
	defer q.r.lock()()
	return quizzesOf(q.r.s, lessonID), nil
}

func (q *quizRepo) Update(ctx context.Context, quiz *models.LessonQuiz) error {
	defer q.r.lock()()
	s := q.r.s
	existing, ok := s.quizzes[quiz.ID]
	if !ok {
		return fmt.Errorf("quiz %d: %w", quiz.ID, repositories.ErrNotFound)
	}
	quiz.CreatedAt = existing.CreatedAt
	quiz.UpdatedAt = q.r.now()
	s.quizzes[quiz.ID] = cloneQuiz(*quiz)
	return nil
}

func (q *quizRepo) Delete(ctx context.Context, id uint) error {
	defer q.r.lock()()
	if _, ok := q.r.s.quizzes[id]; !ok {
		return fmt.Errorf("quiz %d: %w", id, repositories.ErrNotFound)
	}
	delete(q.r.s.quizzes, id)
	return nil
}

// ===== EXAMS =====

type examRepo struct{ r *Repository }

func (e *examRepo) Create(ctx context.Context, exam *models.UnitExam) error {
	defer e.r.lock()()
	s := e.r.s
	if _, ok := s.units[exam.UnitID]; !ok {
		return fmt.Errorf("unit %d: %w", exam.UnitID, repositories.ErrNotFound)
	}
	exam.ID = s.nextID("unit_exams")
	stamp(&exam.CreatedAt, &exam.UpdatedAt, e.r.now())
	s.exams[exam.ID] = cloneExam(*exam)
	return nil
}

func (e *examRepo) GetByID(ctx context.Context, id uint) (*models.UnitExam, error) {
	defer e.r.lock()()
	exam, ok := e.r.s.exams[id]
	if !ok {
		return nil, fmt.Errorf("exam %d: %w", id, repositories.ErrNotFound)
	}
	out := cloneExam(exam)
	return &out, nil
}

func (e *examRepo) GetWithCourse(ctx context.Context, id uint) (*models.ExamWithCourse, error) {
	defer e.r.lock()()
	s := e.r.s
	exam, ok := s.exams[id]
	if !ok {
		return nil, fmt.Errorf("exam %d: %w", id, repositories.ErrNotFound)
	}
	unit, ok := s.units[exam.UnitID]
	if !ok {
		return nil, fmt.Errorf("unit %d: %w", exam.UnitID, repositories.ErrNotFound)
	}
	out := cloneExam(exam)
	return &models.ExamWithCourse{Exam: &out, CourseID: unit.CourseID}, nil
}

func (e *examRepo) ListByUnit(ctx context.Context, unitID uint) ([]*models.UnitExam, error) {
	defer e.r.lock()()
	return examsOf(e.r.s, unitID), nil
}

func (e *examRepo) Update(ctx context.Context, exam *models.UnitExam) error {
	defer e.r.lock()()
	s := e.r.s
	existing, ok := s.exams[exam.ID]
	if !ok {
		return fmt.Errorf("exam %d: %w", exam.ID, repositories.ErrNotFound)
	}
	exam.CreatedAt = existing.CreatedAt
	exam.UpdatedAt = e.r.now()
	s.exams[exam.ID] = cloneExam(*exam)
	return nil
}

func (e *examRepo) Delete(ctx context.Context, id uint) error {
	defer e.r.lock()()
	if _, ok := e.r.s.exams[id]; !ok {
		return fmt.Errorf("exam %d: %w", id, repositories.ErrNotFound)
	}
	deleteExam(e.r.s, id)
	return nil
}

// ===== TREE HELPERS (caller holds the lock) =====

func unitsOf(s *store, courseID uint) []*models.Unit {
	var out []*models.Unit
	for _, u := range s.units {
		if u.CourseID == courseID {
			unit := u
			out = append(out, &unit)
		}
	}
	sortByOrder(out, unitOrder)
	return out
}

func lessonsOf(s *store, unitID uint) []*models.Lesson {
	var out []*models.Lesson
	for _, l := range s.lessons {
		if l.UnitID == unitID {
			lesson := l
			out = append(out, &lesson)
		}
	}
	sortByOrder(out, lessonOrder)
	return out
}

func quizzesOf(s *store, lessonID uint) []*models.LessonQuiz {
	var out []*models.LessonQuiz
	for _, q := range s.quizzes {
		if q.LessonID == lessonID {
			quiz := cloneQuiz(q)
			out = append(out, &quiz)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func examsOf(s *store, unitID uint) []*models.UnitExam {
	var out []*models.UnitExam
	for _, e := range s.exams {
		if e.UnitID == unitID {
			exam := cloneExam(e)
			out = append(out, &exam)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func deleteUnit(s *store, unitID uint) {
	for id, l := range s.lessons {
		if l.UnitID == unitID {
			deleteLesson(s, id)
		}
	}
	for id, e := range s.exams {
		if e.UnitID == unitID {
			deleteExam(s, id)
		}
	}
	delete(s.units, unitID)
}

func deleteLesson(s *store, lessonID uint) {
	for id, q := range s.quizzes {
		if q.LessonID == lessonID {
			delete(s.quizzes, id)
		}
	}
	delete(s.lessons, lessonID)
}

func deleteExam(s *store, examID uint) {
	for id, a := range s.attempts {
		if a.ExamID == examID {
			delete(s.attempts, id)
		}
	}
	delete(s.exams, examID)
}
