package services

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/ordering"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

// mapRepoError turns a repository miss into notFound and wraps anything else.
func mapRepoError(err error, notFound error, action string) error {
	if err == nil {
		return nil
	}
	if repositories.IsNotFoundError(err) {
		return notFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func getCourse(ctx context.Context, repo repositories.Repository, courseID uint) (*models.Course, error) {
	course, err := repo.Course().GetByID(ctx, courseID)
	return course, mapRepoError(err, ErrCourseNotFound, "load course")
}

// getUnitInCourse returns the unit only when it belongs to courseID.
func getUnitInCourse(ctx context.Context, repo repositories.Repository, courseID, unitID uint) (*models.Unit, error) {
	unit, err := repo.Unit().GetByID(ctx, unitID)
	if err != nil {
		return nil, mapRepoError(err, ErrUnitNotFound, "load unit")
	}
	if unit.CourseID != courseID {
		return nil, ErrUnitNotFound
	}
	return unit, nil
}

// getLessonInUnit checks the whole course > unit > lesson chain.
func getLessonInUnit(ctx context.Context, repo repositories.Repository, courseID, unitID, lessonID uint) (*models.Lesson, error) {
	if _, err := getUnitInCourse(ctx, repo, courseID, unitID); err != nil {
		return nil, err
	}
	lesson, err := repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		return nil, mapRepoError(err, ErrLessonNotFound, "load lesson")
	}
	if lesson.UnitID != unitID {
		return nil, ErrLessonNotFound
	}
	return lesson, nil
}

func getExamInUnit(ctx context.Context, repo repositories.Repository, courseID, unitID, examID uint) (*models.UnitExam, error) {
	if _, err := getUnitInCourse(ctx, repo, courseID, unitID); err != nil {
		return nil, err
	}
	exam, err := repo.Exam().GetByID(ctx, examID)
	if err != nil {
		return nil, mapRepoError(err, ErrExamNotFound, "load exam")
	}
	if exam.UnitID != unitID {
		return nil, ErrExamNotFound
	}
	return exam, nil
}

// orderingError maps a rejected reorder plan to a validation failure.
func orderingError(err error) error {
	return &ServiceError{
		Kind:    ErrValidationFailed,
		Message: err.Error(),
	}
}

func unitSiblings(units []*models.Unit) []ordering.Sibling {
	out := make([]ordering.Sibling, len(units))
	for i, u := range units {
		out[i] = ordering.Sibling{ID: u.ID, Order: u.Order}
	}
	return out
}

func lessonSiblings(lessons []*models.Lesson) []ordering.Sibling {
	out := make([]ordering.Sibling, len(lessons))
	for i, l := range lessons {
		out[i] = ordering.Sibling{ID: l.ID, Order: l.Order}
	}
	return out
}

// insertTarget treats an absent or non-positive order as append.
func insertTarget(order *int) *int {
	if order == nil || *order <= 0 {
		return nil
	}
	return order
}

func boolValue(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}
