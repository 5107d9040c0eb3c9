package models

import (
	"time"

	"gorm.io/datatypes"
)

type Unit struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	CourseID    uint   `json:"courseId" gorm:"not null;index:idx_unit_course_order"`
	Title       string `json:"title" gorm:"not null;size:200"`
	Description string `json:"description" gorm:"type:text"`
	Order       int    `json:"order" gorm:"column:order;not null;index:idx_unit_course_order"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Lessons []Lesson   `json:"lessons,omitempty" gorm:"foreignKey:UnitID;constraint:OnDelete:CASCADE"`
	Exams   []UnitExam `json:"exams,omitempty" gorm:"foreignKey:UnitID;constraint:OnDelete:CASCADE"`
}

func (Unit) TableName() string {
	return "units"
}

type Lesson struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	UnitID      uint    `json:"unitId" gorm:"not null;index:idx_lesson_unit_order"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	Description string  `json:"description" gorm:"type:text"`
	Content     string  `json:"content" gorm:"type:text"`
	VideoURL    *string `json:"videoUrl,omitempty" gorm:"size:500"`
	Order       int     `json:"order" gorm:"column:order;not null;index:idx_lesson_unit_order"`
	IsPublished bool    `json:"isPublished" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Quizzes []LessonQuiz `json:"quizzes,omitempty" gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// LessonQuiz carries an opaque question payload; it is never scored server side.
type LessonQuiz struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	LessonID     uint           `json:"lessonId" gorm:"not null;index"`
	Title        string         `json:"title" gorm:"not null;size:200"`
	Questions    datatypes.JSON `json:"questions" gorm:"type:jsonb"`
	PassingScore int            `json:"passingScore" gorm:"not null"`
	IsPublished  bool           `json:"isPublished" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (LessonQuiz) TableName() string {
	return "lesson_quizzes"
}

type UnitExam struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UnitID       uint           `json:"unitId" gorm:"not null;index"`
	Title        string         `json:"title" gorm:"not null;size:200"`
	Description  string         `json:"description" gorm:"type:text"`
	Questions    datatypes.JSON `json:"questions" gorm:"type:jsonb"`
	PassingScore int            `json:"passingScore" gorm:"not null"`
	IsPublished  bool           `json:"isPublished" gorm:"not null;default:false"`
	MaxAttempts  int            `json:"maxAttempts" gorm:"not null;default:1"`

	// Availability window, both bounds optional
	AvailableFrom  *time.Time `json:"availableFrom,omitempty"`
	AvailableUntil *time.Time `json:"availableUntil,omitempty"`
	TimeLimit      *int       `json:"timeLimit,omitempty"` // minutes

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (UnitExam) TableName() string {
	return "unit_exams"
}

// ExamWithCourse is an exam resolved together with the course that owns its unit.
type ExamWithCourse struct {
	Exam     *UnitExam
	CourseID uint
}
