package validator

import (
	"encoding/json"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/ordering"
)

// CourseSettingsRequest carries the optional settings bundle. Absent fields keep
// their current (or default) value.
type CourseSettingsRequest struct {
	EnrollmentLimit       *int    `json:"enrollmentLimit" validate:"omitempty,min=1"`
	WaitlistEnabled       *bool   `json:"waitlistEnabled"`
	CertificateEnabled    *bool   `json:"certificateEnabled"`
	DiscussionEnabled     *bool   `json:"discussionEnabled"`
	DownloadsEnabled      *bool   `json:"downloadsEnabled"`
	AccessDurationDays    *int    `json:"accessDurationDays" validate:"omitempty,min=1"`
	ProgressTracking      *string `json:"progressTracking" validate:"omitempty,progress_tracking"`
	CompletionCriteria    *string `json:"completionCriteria" validate:"omitempty,completion_criteria"`
	PassingGrade          *int    `json:"passingGrade" validate:"omitempty,min=0,max=100"`
	PrerequisiteCourseIDs []uint  `json:"prerequisiteCourseIds" validate:"omitempty,max=20,dive,required"`
}

type CourseCreateRequest struct {
	Title       string                 `json:"title" validate:"required,course_title"`
	Description string                 `json:"description" validate:"max=5000"`
	APExamType  string                 `json:"apExamType" validate:"required,exam_type"`
	IsFree      *bool                  `json:"isFree"`
	Price       *float64               `json:"price" validate:"omitempty,gt=0"`
	ImageURL    *string                `json:"imageUrl" validate:"omitempty,url"`
	Settings    *CourseSettingsRequest `json:"settings"`
}

type CourseUpdateRequest struct {
	Title       *string                `json:"title" validate:"omitempty,course_title"`
	Description *string                `json:"description" validate:"omitempty,max=5000"`
	APExamType  *string                `json:"apExamType" validate:"omitempty,exam_type"`
	IsFree      *bool                  `json:"isFree"`
	Price       *float64               `json:"price" validate:"omitempty,gt=0"`
	ImageURL    *string                `json:"imageUrl" validate:"omitempty,url"`
	Settings    *CourseSettingsRequest `json:"settings"`
}

type CoursePublishRequest struct {
	IsPublished *bool `json:"isPublished" validate:"required"`
}

type CourseDuplicateRequest struct {
	Title              string   `json:"title" validate:"required,course_title"`
	Description        *string  `json:"description" validate:"omitempty,max=5000"`
	APExamType         *string  `json:"apExamType" validate:"omitempty,exam_type"`
	IsFree             *bool    `json:"isFree"`
	Price              *float64 `json:"price" validate:"omitempty,gt=0"`
	ImageURL           *string  `json:"imageUrl" validate:"omitempty,url"`
	DuplicateContent   bool     `json:"duplicateContent"`
	DuplicateQuizzes   bool     `json:"duplicateQuizzes"`
	DuplicateExams     bool     `json:"duplicateExams"`
	DuplicateSettings  bool     `json:"duplicateSettings"`
	PublishImmediately bool     `json:"publishImmediately"`
}

type UnitCreateRequest struct {
	Title       string `json:"title" validate:"required,lesson_title,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Order       *int   `json:"order" validate:"omitempty,min=0"`
}

type UnitUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,lesson_title,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

type UnitReorderRequest struct {
	UnitOrder []ordering.Update `json:"unitOrder" validate:"required,min=1,dive"`
}

type LessonCreateRequest struct {
	Title       string  `json:"title" validate:"required,lesson_title,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Content     string  `json:"content"`
	VideoURL    *string `json:"videoUrl" validate:"omitempty,url"`
	Order       *int    `json:"order" validate:"omitempty,min=0"`
	IsPublished bool    `json:"isPublished"`
}

type LessonUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,lesson_title,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Content     *string `json:"content"`
	VideoURL    *string `json:"videoUrl" validate:"omitempty,url"`
}

type LessonPublishRequest struct {
	IsPublished *bool `json:"isPublished"`
}

type LessonReorderRequest struct {
	LessonOrder []ordering.Update `json:"lessonOrder" validate:"required,min=1,dive"`
}

type QuizCreateRequest struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Questions    json.RawMessage `json:"questions"`
	PassingScore int             `json:"passingScore" validate:"min=0,max=100"`
	IsPublished  bool            `json:"isPublished"`
}

type QuizUpdateRequest struct {
	Title        *string         `json:"title" validate:"omitempty,min=1,max=200"`
	Questions    json.RawMessage `json:"questions"`
	PassingScore *int            `json:"passingScore" validate:"omitempty,min=0,max=100"`
	IsPublished  *bool           `json:"isPublished"`
}

type ExamCreateRequest struct {
	Title          string          `json:"title" validate:"required,max=200"`
	Description    string          `json:"description" validate:"max=5000"`
	Questions      json.RawMessage `json:"questions"`
	PassingScore   int             `json:"passingScore" validate:"min=0,max=100"`
	MaxAttempts    int             `json:"maxAttempts" validate:"required,min=1,max=100"`
	AvailableFrom  *time.Time      `json:"availableFrom"`
	AvailableUntil *time.Time      `json:"availableUntil"`
	TimeLimit      *int            `json:"timeLimit" validate:"omitempty,min=1,max=1440"`
	IsPublished    bool            `json:"isPublished"`
}

type ExamUpdateRequest struct {
	Title          *string         `json:"title" validate:"omitempty,min=1,max=200"`
	Description    *string         `json:"description" validate:"omitempty,max=5000"`
	Questions      json.RawMessage `json:"questions"`
	PassingScore   *int            `json:"passingScore" validate:"omitempty,min=0,max=100"`
	MaxAttempts    *int            `json:"maxAttempts" validate:"omitempty,min=1,max=100"`
	AvailableFrom  *time.Time      `json:"availableFrom"`
	AvailableUntil *time.Time      `json:"availableUntil"`
	TimeLimit      *int            `json:"timeLimit" validate:"omitempty,min=1,max=1440"`
}

type ExamPublishRequest struct {
	IsPublished *bool `json:"isPublished" validate:"required"`
}

type EnrollRequest struct {
	CourseID uint `json:"courseId" validate:"required"`
}

type LessonProgressRequest struct {
	Started   *bool `json:"started"`
	Completed *bool `json:"completed"`
}

type AttemptSaveRequest struct {
	Answers         map[string]interface{} `json:"answers"`
	CurrentSection  *int                   `json:"currentSection" validate:"omitempty,min=0"`
	CurrentQuestion *int                   `json:"currentQuestion" validate:"omitempty,min=0"`
}

type AttemptSubmitRequest struct {
	Answers map[string]interface{} `json:"answers"`
}
