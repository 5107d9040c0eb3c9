package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActivityCourseCreated    = "course.created"
	ActivityCourseUpdated    = "course.updated"
	ActivityCourseDeleted    = "course.deleted"
	ActivityCoursePublished  = "course.published"
	ActivityCourseDuplicated = "course.duplicated"
	ActivityUnitsReordered   = "units.reordered"
	ActivityLessonsReordered = "lessons.reordered"
	ActivityEnrolled         = "enrollment.created"
	ActivityLessonProgress   = "lesson.progress"
	ActivityAttemptStarted   = "exam_attempt.started"
	ActivityAttemptSubmitted = "exam_attempt.submitted"
)

const (
	EntityCourse  = "course"
	EntityUnit    = "unit"
	EntityLesson  = "lesson"
	EntityExam    = "exam"
	EntityAttempt = "exam_attempt"
)

// ActivityLog is append-only.
type ActivityLog struct {
	ID         uint              `json:"id" gorm:"primaryKey"`
	UserID     string            `json:"userId" gorm:"not null;size:255;index"`
	Action     string            `json:"action" gorm:"not null;size:100;index"`
	EntityType string            `json:"entityType" gorm:"not null;size:50"`
	EntityID   uint              `json:"entityId" gorm:"not null"`
	Details    datatypes.JSONMap `json:"details" gorm:"type:jsonb"`
	CreatedAt  time.Time         `json:"createdAt" gorm:"index"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
