package services

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds. Every error a service returns either wraps one of these or is
// treated as internal.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")
)

// ServiceError carries a client facing message and optional details on top of
// one of the error kinds.
type ServiceError struct {
	Kind    error
	Message string
	Details map[string]interface{}
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) *ServiceError {
	return &ServiceError{Kind: kind, Message: message}
}

func NewForbiddenError(format string, args ...interface{}) *ServiceError {
	return newError(ErrForbidden, fmt.Sprintf(format, args...))
}

func NewConflictError(message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{Kind: ErrConflict, Message: message, Details: details}
}

func NewBusinessRuleError(message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{Kind: ErrValidationFailed, Message: message, Details: details}
}

// Not found
var (
	ErrCourseNotFound     = newError(ErrNotFound, "course not found")
	ErrUnitNotFound       = newError(ErrNotFound, "unit not found")
	ErrLessonNotFound     = newError(ErrNotFound, "lesson not found")
	ErrQuizNotFound       = newError(ErrNotFound, "quiz not found")
	ErrExamNotFound       = newError(ErrNotFound, "exam not found")
	ErrAttemptNotFound    = newError(ErrNotFound, "attempt not found")
	ErrEnrollmentNotFound = newError(ErrNotFound, "enrollment not found")
)

// Course rules
var (
	ErrCourseHasEnrollments = newError(ErrValidationFailed, "cannot delete a course with enrollments")
	ErrCourseHasNoUnits     = newError(ErrValidationFailed, "cannot publish a course without units")
	ErrCourseNotPublished   = newError(ErrForbidden, "course is not published")
	ErrAlreadyEnrolled      = newError(ErrConflict, "already enrolled")
	ErrCourseFull           = newError(ErrConflict, "course is full")
	ErrPrerequisitesMissing = newError(ErrForbidden, "prerequisite courses not completed")
	ErrNotEnrolled          = newError(ErrForbidden, "not enrolled")
	ErrLessonLocked         = newError(ErrForbidden, "previous lessons must be completed first")
)

// Attempt rules
var (
	ErrExamNotPublished        = newError(ErrForbidden, "exam is not published")
	ErrAttemptLimitExceeded    = newError(ErrForbidden, "maximum attempts reached")
	ErrAttemptAlreadySubmitted = newError(ErrConflict, "attempt already submitted")
	ErrAttemptTimeExpired      = newError(ErrForbidden, "attempt time limit has elapsed")
)

// NewAttemptInProgressError reports the attempt the caller should resume.
func NewAttemptInProgressError(attemptID uint) *ServiceError {
	return NewConflictError("an attempt is already in progress", map[string]interface{}{
		"attemptId": attemptID,
	})
}

// NewExamNotYetAvailableError names the availableFrom bound.
func NewExamNotYetAvailableError(from time.Time) *ServiceError {
	return &ServiceError{
		Kind:    ErrForbidden,
		Message: fmt.Sprintf("exam is not available until %s", from.UTC().Format(time.RFC3339)),
		Details: map[string]interface{}{"availableFrom": from},
	}
}

// NewExamNoLongerAvailableError names the availableUntil bound.
func NewExamNoLongerAvailableError(until time.Time) *ServiceError {
	return &ServiceError{
		Kind:    ErrForbidden,
		Message: fmt.Sprintf("exam was available until %s", until.UTC().Format(time.RFC3339)),
		Details: map[string]interface{}{"availableUntil": until},
	}
}
