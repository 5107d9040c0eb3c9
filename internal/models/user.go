package models

import (
	"time"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleStudent UserRole = "STUDENT"
	RoleAdmin   UserRole = "ADMIN"
)

// User mirrors the identity provider account locally so enrollments, attempts and
// activity rows have something to join against.
type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"fullName" gorm:"size:100"`
	Email    string   `json:"email" gorm:"index;size:255"`
	Role     UserRole `json:"role" gorm:"size:20;not null;default:STUDENT"`

	AvatarURL *string `json:"avatarUrl,omitempty" gorm:"size:500"`

	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
