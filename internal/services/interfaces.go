package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/ordering"
	"github.com/SAP-F-2025/learning-service/internal/progress"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator types for requests
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type DuplicateCourseRequest = validator.CourseDuplicateRequest
type CourseSettingsRequest = validator.CourseSettingsRequest

type CreateUnitRequest = validator.UnitCreateRequest
type UpdateUnitRequest = validator.UnitUpdateRequest
type CreateLessonRequest = validator.LessonCreateRequest
type UpdateLessonRequest = validator.LessonUpdateRequest
type CreateQuizRequest = validator.QuizCreateRequest
type UpdateQuizRequest = validator.QuizUpdateRequest
type CreateExamRequest = validator.ExamCreateRequest
type UpdateExamRequest = validator.ExamUpdateRequest

type EnrollRequest = validator.EnrollRequest
type LessonProgressRequest = validator.LessonProgressRequest
type SaveAttemptRequest = validator.AttemptSaveRequest
type SubmitAttemptRequest = validator.AttemptSubmitRequest

// EnrollResponse either carries the new enrollment or asks for payment.
type EnrollResponse struct {
	RequiresPayment bool               `json:"requiresPayment"`
	CourseID        uint               `json:"courseId"`
	Price           float64            `json:"price,omitempty"`
	Enrollment      *models.Enrollment `json:"enrollment,omitempty"`
}

// AttemptSummary aggregates a user's attempts at one exam.
type AttemptSummary struct {
	TotalAttempts       int      `json:"totalAttempts"`
	CompletedAttempts   int      `json:"completedAttempts"`
	MaxAttempts         int      `json:"maxAttempts"`
	HasInProgress       bool     `json:"hasInProgress"`
	InProgressAttemptID *uint    `json:"inProgressAttemptId"`
	BestScore           *float64 `json:"bestScore"`
}

type AttemptListResponse struct {
	Attempts []*models.ExamAttempt `json:"attempts"`
	Summary  AttemptSummary        `json:"summary"`
}

// StartAttemptResponse is the new attempt plus its informational number.
type StartAttemptResponse struct {
	*models.ExamAttempt
	AttemptNumber int        `json:"attemptNumber"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

type LessonProgressResponse struct {
	LessonID       uint                   `json:"lessonId"`
	Lesson         models.CompletionState `json:"lesson"`
	Unit           models.CompletionState `json:"unit"`
	CourseProgress int                    `json:"courseProgress"`
	Status         progress.Status        `json:"status"`
	CompletedAt    *time.Time             `json:"completedAt,omitempty"`
}

// RosterExport is a rendered workbook.
type RosterExport struct {
	FileName string
	Data     []byte
}

// ===== SERVICE INTERFACES =====

type CourseService interface {
	Create(ctx context.Context, req *CreateCourseRequest, userID string) (*models.Course, error)
	List(ctx context.Context) ([]*models.CourseWithStats, error)
	// Get returns the course with its content tree.
	Get(ctx context.Context, id uint) (*models.Course, error)
	Update(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*models.Course, error)
	Delete(ctx context.Context, id uint, userID string) error
	SetPublished(ctx context.Context, id uint, published bool, userID string) (*models.Course, error)
	Duplicate(ctx context.Context, sourceID uint, req *DuplicateCourseRequest, userID string) (*models.Course, error)
}

type UnitService interface {
	List(ctx context.Context, courseID uint) ([]*models.Unit, error)
	Create(ctx context.Context, courseID uint, req *CreateUnitRequest, userID string) (*models.Unit, error)
	Get(ctx context.Context, courseID, unitID uint) (*models.Unit, error)
	Update(ctx context.Context, courseID, unitID uint, req *UpdateUnitRequest, userID string) (*models.Unit, error)
	Delete(ctx context.Context, courseID, unitID uint, userID string) error
	Reorder(ctx context.Context, courseID uint, updates []ordering.Update, userID string) ([]*models.Unit, error)
}

type LessonService interface {
	List(ctx context.Context, courseID, unitID uint) ([]*models.Lesson, error)
	Create(ctx context.Context, courseID, unitID uint, req *CreateLessonRequest, userID string) (*models.Lesson, error)
	Get(ctx context.Context, courseID, unitID, lessonID uint) (*models.Lesson, error)
	Update(ctx context.Context, courseID, unitID, lessonID uint, req *UpdateLessonRequest, userID string) (*models.Lesson, error)
	Delete(ctx context.Context, courseID, unitID, lessonID uint, userID string) error
	SetPublished(ctx context.Context, courseID, unitID, lessonID uint, published *bool, userID string) (*models.Lesson, error)
	Reorder(ctx context.Context, courseID, unitID uint, updates []ordering.Update, userID string) ([]*models.Lesson, error)
}

type QuizService interface {
	List(ctx context.Context, courseID, unitID, lessonID uint) ([]*models.LessonQuiz, error)
	Create(ctx context.Context, courseID, unitID, lessonID uint, req *CreateQuizRequest, userID string) (*models.LessonQuiz, error)
	Update(ctx context.Context, courseID, unitID, lessonID, quizID uint, req *UpdateQuizRequest, userID string) (*models.LessonQuiz, error)
	Delete(ctx context.Context, courseID, unitID, lessonID, quizID uint, userID string) error
}

type ExamService interface {
	List(ctx context.Context, courseID, unitID uint) ([]*models.UnitExam, error)
	Create(ctx context.Context, courseID, unitID uint, req *CreateExamRequest, userID string) (*models.UnitExam, error)
	Get(ctx context.Context, courseID, unitID, examID uint) (*models.UnitExam, error)
	Update(ctx context.Context, courseID, unitID, examID uint, req *UpdateExamRequest, userID string) (*models.UnitExam, error)
	Delete(ctx context.Context, courseID, unitID, examID uint, userID string) error
	SetPublished(ctx context.Context, courseID, unitID, examID uint, published bool, userID string) (*models.UnitExam, error)
}

type EnrollmentService interface {
	Enroll(ctx context.Context, req *EnrollRequest, userID string) (*EnrollResponse, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error)
}

type StudentService interface {
	// ListCourses returns one progress row per enrollment, filtered and sorted.
	ListCourses(ctx context.Context, userID string, status progress.Status, sortKey progress.SortKey) ([]progress.CourseProgress, error)
	MarkLessonProgress(ctx context.Context, userID string, courseID, lessonID uint, req *LessonProgressRequest) (*LessonProgressResponse, error)
}

type AttemptService interface {
	Start(ctx context.Context, examID uint, userID string) (*StartAttemptResponse, error)
	List(ctx context.Context, examID uint, userID string) (*AttemptListResponse, error)
	Save(ctx context.Context, examID, attemptID uint, req *SaveAttemptRequest, userID string) (*models.ExamAttempt, error)
	Submit(ctx context.Context, examID, attemptID uint, req *SubmitAttemptRequest, userID string) (*models.ExamAttempt, error)
}

type ExportService interface {
	CourseRoster(ctx context.Context, courseID uint) (*RosterExport, error)
}

// ServiceManager owns every service and their shared dependencies.
type ServiceManager interface {
	Course() CourseService
	Unit() UnitService
	Lesson() LessonService
	Quiz() QuizService
	Exam() ExamService
	Enrollment() EnrollmentService
	Student() StudentService
	Attempt() AttemptService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
