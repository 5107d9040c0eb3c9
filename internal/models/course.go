package models

import (
	"time"

	"gorm.io/datatypes"
)

type ProgressTrackingMode string

const (
	ProgressTrackingFree   ProgressTrackingMode = "free"
	ProgressTrackingLinear ProgressTrackingMode = "linear"
)

type CompletionCriteria string

const (
	CompletionAllLessons CompletionCriteria = "all_lessons"
	CompletionAllContent CompletionCriteria = "all_content"
)

type Course struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index"`
	Description string  `json:"description" gorm:"type:text"`
	APExamType  string  `json:"apExamType" gorm:"column:ap_exam_type;not null;size:100;index"`
	IsFree      bool    `json:"isFree" gorm:"not null"`
	Price       float64 `json:"price" gorm:"not null;default:0"`
	ImageURL    *string `json:"imageUrl,omitempty" gorm:"size:500"`
	IsPublished bool    `json:"isPublished" gorm:"not null;default:false;index"`

	Settings CourseSettings `json:"settings" gorm:"embedded;embeddedPrefix:settings_"`

	CreatedBy string    `json:"createdBy" gorm:"size:255;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Units []Unit `json:"units,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

// CourseSettings is stored inline on the course row.
type CourseSettings struct {
	EnrollmentLimit       *int                      `json:"enrollmentLimit,omitempty"`
	WaitlistEnabled       bool                      `json:"waitlistEnabled" gorm:"not null;default:false"`
	CertificateEnabled    bool                      `json:"certificateEnabled" gorm:"not null;default:false"`
	DiscussionEnabled     bool                      `json:"discussionEnabled" gorm:"not null;default:false"`
	DownloadsEnabled      bool                      `json:"downloadsEnabled" gorm:"not null;default:false"`
	AccessDurationDays    *int                      `json:"accessDurationDays,omitempty"`
	ProgressTracking      ProgressTrackingMode      `json:"progressTracking" gorm:"size:20;not null;default:free"`
	CompletionCriteria    CompletionCriteria        `json:"completionCriteria" gorm:"size:30;not null;default:all_lessons"`
	PassingGrade          int                       `json:"passingGrade" gorm:"not null"`
	PrerequisiteCourseIDs datatypes.JSONSlice[uint] `json:"prerequisiteCourseIds" gorm:"type:jsonb"`
}

// DefaultCourseSettings is what a course gets when no settings are supplied or copied.
func DefaultCourseSettings() CourseSettings {
	return CourseSettings{
		ProgressTracking:      ProgressTrackingFree,
		CompletionCriteria:    CompletionAllLessons,
		PassingGrade:          70,
		PrerequisiteCourseIDs: datatypes.JSONSlice[uint]{},
	}
}

func (Course) TableName() string {
	return "courses"
}

// CourseWithStats is the admin list row.
type CourseWithStats struct {
	Course
	EnrollmentCount int64 `json:"enrollmentCount"`
	UnitCount       int64 `json:"unitCount"`
	LessonCount     int64 `json:"lessonCount"`
	ExamCount       int64 `json:"examCount"`
}
