package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptCompleted  AttemptStatus = "COMPLETED"
)

// ExamAttempt is one run of a unit exam by one user. A nil CompletedAt means the
// attempt is still in flight; the partial unique index keeps at most one of those
// per (exam, user).
type ExamAttempt struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	ExamID uint   `json:"examId" gorm:"not null;index;index:idx_attempt_in_flight,unique,where:completed_at IS NULL"`
	UserID string `json:"userId" gorm:"not null;size:255;index;index:idx_attempt_in_flight,unique,where:completed_at IS NULL"`

	// Timing
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	TimeUsed    int        `json:"timeUsed"` // seconds

	// Answers keyed by question id
	Answers datatypes.JSONType[AttemptAnswers] `json:"answers" gorm:"type:jsonb"`

	// Cursor
	CurrentSection  int `json:"currentSection"`
	CurrentQuestion int `json:"currentQuestion"`

	Status AttemptStatus `json:"status" gorm:"size:20;not null;default:IN_PROGRESS;index"`
	Score  *float64      `json:"score"`
	Passed *bool         `json:"passed"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

func (a *ExamAttempt) InProgress() bool {
	return a.CompletedAt == nil
}

// AttemptAnswers maps a question id to the learner's raw response.
type AttemptAnswers map[string]interface{}
