package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFree    PaymentStatus = "FREE"
	PaymentPending PaymentStatus = "PENDING"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentSuspended EnrollmentStatus = "SUSPENDED"
	EnrollmentExpired   EnrollmentStatus = "EXPIRED"
)

type Enrollment struct {
	ID            uint             `json:"id" gorm:"primaryKey"`
	UserID        string           `json:"userId" gorm:"not null;size:255;uniqueIndex:idx_enrollment_user_course"`
	CourseID      uint             `json:"courseId" gorm:"not null;uniqueIndex:idx_enrollment_user_course;index"`
	PaymentStatus PaymentStatus    `json:"paymentStatus" gorm:"size:20;not null;default:FREE"`
	Status        EnrollmentStatus `json:"status" gorm:"size:20;not null;default:ACTIVE;index"`

	Progress datatypes.JSONType[ProgressMap] `json:"progress" gorm:"type:jsonb"`

	EnrolledAt  time.Time  `json:"enrolledAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// IsActive reports whether the enrollment grants access at the given instant.
func (e *Enrollment) IsActive(now time.Time) bool {
	if e == nil || e.Status != EnrollmentActive {
		return false
	}
	return e.ExpiresAt == nil || now.Before(*e.ExpiresAt)
}

// CompletionState is the per-entity record kept in the progress map.
type CompletionState struct {
	Started   bool `json:"started"`
	Completed bool `json:"completed"`
}

// ProgressMap tracks a learner's lesson and unit state keyed by entity id.
type ProgressMap struct {
	Lessons map[uint]CompletionState `json:"lessons"`
	Units   map[uint]CompletionState `json:"units"`
}

func NewProgressMap() ProgressMap {
	return ProgressMap{
		Lessons: make(map[uint]CompletionState),
		Units:   make(map[uint]CompletionState),
	}
}

// Lesson returns the recorded state for a lesson, zero value if absent.
func (p ProgressMap) Lesson(id uint) CompletionState {
	if p.Lessons == nil {
		return CompletionState{}
	}
	return p.Lessons[id]
}

func (p ProgressMap) Unit(id uint) CompletionState {
	if p.Units == nil {
		return CompletionState{}
	}
	return p.Units[id]
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (p ProgressMap) Clone() ProgressMap {
	out := NewProgressMap()
	for k, v := range p.Lessons {
		out.Lessons[k] = v
	}
	for k, v := range p.Units {
		out.Units[k] = v
	}
	return out
}
