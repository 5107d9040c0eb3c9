package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/ordering"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

type unitService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	audit     *auditor
}

func NewUnitService(deps Dependencies, audit *auditor) UnitService {
	return &unitService{
		repo:      deps.Repo,
		logger:    deps.Logger,
		validator: deps.Validator,
		cache:     deps.Cache,
		audit:     audit,
	}
}

func (s *unitService) List(ctx context.Context, courseID uint) ([]*models.Unit, error) {
	if _, err := getCourse(ctx, s.repo, courseID); err != nil {
		return nil, err
	}
	units, err := s.repo.Unit().ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

// Create inserts the unit at req.Order, shifting siblings at or above it, or
// appends when no order is given.
func (s *unitService) Create(ctx context.Context, courseID uint, req *CreateUnitRequest, userID string) (*models.Unit, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	unit := &models.Unit{
		CourseID:    courseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := tx.Course().LockByID(ctx, courseID); err != nil {
			return mapRepoError(err, ErrCourseNotFound, "lock course")
		}

		siblings, err := tx.Unit().ListByCourse(ctx, courseID)
		if err != nil {
			return fmt.Errorf("failed to list units: %w", err)
		}

		plan, err := ordering.PlanInsert(unitSiblings(siblings), insertTarget(req.Order))
		if err != nil {
			return orderingError(err)
		}
		if plan.NeedsShift() {
			if err := tx.Unit().UpdateOrders(ctx, courseID, plan.Shifted); err != nil {
				return fmt.Errorf("failed to shift units: %w", err)
			}
		}

		unit.Order = plan.Order
		if err := tx.Unit().Create(ctx, unit); err != nil {
			return fmt.Errorf("failed to create unit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Unit created", "course_id", courseID, "unit_id", unit.ID, "order", unit.Order, "user_id", userID)
	return unit, nil
}

func (s *unitService) Get(ctx context.Context, courseID, unitID uint) (*models.Unit, error) {
	return getUnitInCourse(ctx, s.repo, courseID, unitID)
}

func (s *unitService) Update(ctx context.Context, courseID, unitID uint, req *UpdateUnitRequest, userID string) (*models.Unit, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	unit, err := getUnitInCourse(ctx, s.repo, courseID, unitID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		unit.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		unit.Description = *req.Description
	}

	if err := s.repo.Unit().Update(ctx, unit); err != nil {
		return nil, mapRepoError(err, ErrUnitNotFound, "update unit")
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Unit updated", "course_id", courseID, "unit_id", unitID, "user_id", userID)
	return unit, nil
}

// Delete removes the unit with its lessons, quizzes and exams. Remaining
// siblings keep their order values.
func (s *unitService) Delete(ctx context.Context, courseID, unitID uint, userID string) error {
	if _, err := getUnitInCourse(ctx, s.repo, courseID, unitID); err != nil {
		return err
	}

	if err := s.repo.Unit().Delete(ctx, unitID); err != nil {
		return mapRepoError(err, ErrUnitNotFound, "delete unit")
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Unit deleted", "course_id", courseID, "unit_id", unitID, "user_id", userID)
	return nil
}

// Reorder applies a caller supplied order assignment. Either every entry is
// applied or none.
func (s *unitService) Reorder(ctx context.Context, courseID uint, updates []ordering.Update, userID string) ([]*models.Unit, error) {
	var (
		units []*models.Unit
		entry *models.ActivityLog
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := tx.Course().LockByID(ctx, courseID); err != nil {
			return mapRepoError(err, ErrCourseNotFound, "lock course")
		}

		siblings, err := tx.Unit().ListByCourse(ctx, courseID)
		if err != nil {
			return fmt.Errorf("failed to list units: %w", err)
		}

		planned, err := ordering.PlanReorder(unitSiblings(siblings), updates)
		if err != nil {
			return orderingError(err)
		}
		if err := tx.Unit().UpdateOrders(ctx, courseID, planned); err != nil {
			return mapRepoError(err, ErrUnitNotFound, "reorder units")
		}

		entry, err = s.audit.record(ctx, tx, userID, models.ActivityUnitsReordered, models.EntityCourse, courseID, map[string]interface{}{
			"unitOrder": updates,
		})
		if err != nil {
			return err
		}

		units, err = tx.Unit().ListByCourse(ctx, courseID)
		if err != nil {
			return fmt.Errorf("failed to list units: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.publish(ctx, entry)
	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Units reordered", "course_id", courseID, "count", len(updates), "user_id", userID)
	return units, nil
}
