package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/ordering"
)

// CourseRepository owns courses. Delete cascades to units, lessons, quizzes and exams.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	// GetWithContent loads units, lessons (with quizzes) and exams, each level
	// sorted by order then id.
	GetWithContent(ctx context.Context, id uint) (*models.Course, error)
	// LockByID reads the course row for update so sibling order changes under it
	// serialize. Only meaningful inside WithTransaction.
	LockByID(ctx context.Context, id uint) (*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	ListWithStats(ctx context.Context) ([]*models.CourseWithStats, error)
}

type UnitRepository interface {
	Create(ctx context.Context, unit *models.Unit) error
	GetByID(ctx context.Context, id uint) (*models.Unit, error)
	LockByID(ctx context.Context, id uint) (*models.Unit, error)
	ListByCourse(ctx context.Context, courseID uint) ([]*models.Unit, error)
	Update(ctx context.Context, unit *models.Unit) error
	Delete(ctx context.Context, id uint) error
	// UpdateOrders applies updates in slice order, restricted to units of courseID.
	UpdateOrders(ctx context.Context, courseID uint, updates []ordering.Update) error
}

type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
	ListByUnit(ctx context.Context, unitID uint) ([]*models.Lesson, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id uint) error
	UpdateOrders(ctx context.Context, unitID uint, updates []ordering.Update) error
}

type QuizRepository interface {
	Create(ctx context.Context, quiz *models.LessonQuiz) error
	GetByID(ctx context.Context, id uint) (*models.LessonQuiz, error)
	ListByLesson(ctx context.Context, lessonID uint) ([]*models.LessonQuiz, error)
	Update(ctx context.Context, quiz *models.LessonQuiz) error
	Delete(ctx context.Context, id uint) error
}

type ExamRepository interface {
	Create(ctx context.Context, exam *models.UnitExam) error
	GetByID(ctx context.Context, id uint) (*models.UnitExam, error)
	// GetWithCourse resolves the course that owns the exam's unit.
	GetWithCourse(ctx context.Context, id uint) (*models.ExamWithCourse, error)
	ListByUnit(ctx context.Context, unitID uint) ([]*models.UnitExam, error)
	Update(ctx context.Context, exam *models.UnitExam) error
	Delete(ctx context.Context, id uint) error
}

type EnrollmentRepository interface {
	// CreateIfAbsent inserts unless (user, course) already exists; created is
	// false in that case and enrollment is left untouched.
	CreateIfAbsent(ctx context.Context, enrollment *models.Enrollment) (created bool, err error)
	GetByUserAndCourse(ctx context.Context, userID string, courseID uint) (*models.Enrollment, error)
	LockByUserAndCourse(ctx context.Context, userID string, courseID uint) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID uint) ([]*models.Enrollment, error)
	CountByCourse(ctx context.Context, courseID uint) (int64, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error
}

type AttemptRepository interface {
	// Create returns ErrDuplicate when the user already has an in-flight attempt
	// for the exam.
	Create(ctx context.Context, attempt *models.ExamAttempt) error
	GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error)
	GetInProgress(ctx context.Context, examID uint, userID string) (*models.ExamAttempt, error)
	CountCompleted(ctx context.Context, examID uint, userID string) (int64, error)
	// ListByExamAndUser returns newest first.
	ListByExamAndUser(ctx context.Context, examID uint, userID string) ([]*models.ExamAttempt, error)
	// CompletedExamIDs returns the subset of examIDs with at least one completed
	// attempt by the user.
	CompletedExamIDs(ctx context.Context, userID string, examIDs []uint) (map[uint]bool, error)
	Update(ctx context.Context, attempt *models.ExamAttempt) error
}

type ActivityRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	ListByEntity(ctx context.Context, entityType string, entityID uint) ([]*models.ActivityLog, error)
}
