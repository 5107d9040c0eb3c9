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

type lessonService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	audit     *auditor
}

func NewLessonService(deps Dependencies, audit *auditor) LessonService {
	return &lessonService{
		repo:      deps.Repo,
		logger:    deps.Logger,
		validator: deps.Validator,
		cache:     deps.Cache,
		audit:     audit,
	}
}

func (s *lessonService) List(ctx context.Context, courseID, unitID uint) ([]*models.Lesson, error) {
	if _, err := getUnitInCourse(ctx, s.repo, courseID, unitID); err != nil {
		return nil, err
	}
	lessons, err := s.repo.Lesson().ListByUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

func (s *lessonService) Create(ctx context.Context, courseID, unitID uint, req *CreateLessonRequest, userID string) (*models.Lesson, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		UnitID:      unitID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Content:     req.Content,
		VideoURL:    req.VideoURL,
		IsPublished: req.IsPublished,
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		unit, err := tx.Unit().LockByID(ctx, unitID)
		if err != nil {
			return mapRepoError(err, ErrUnitNotFound, "lock unit")
		}
		if unit.CourseID != courseID {
			return ErrUnitNotFound
		}

		siblings, err := tx.Lesson().ListByUnit(ctx, unitID)
		if err != nil {
			return fmt.Errorf("failed to list lessons: %w", err)
		}

		plan, err := ordering.PlanInsert(lessonSiblings(siblings), insertTarget(req.Order))
		if err != nil {
			return orderingError(err)
		}
		if plan.NeedsShift() {
			if err := tx.Lesson().UpdateOrders(ctx, unitID, plan.Shifted); err != nil {
				return fmt.Errorf("failed to shift lessons: %w", err)
			}
		}

		lesson.Order = plan.Order
		if err := tx.Lesson().Create(ctx, lesson); err != nil {
			return fmt.Errorf("failed to create lesson: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Lesson created", "unit_id", unitID, "lesson_id", lesson.ID, "order", lesson.Order, "user_id", userID)
	return lesson, nil
}

func (s *lessonService) Get(ctx context.Context, courseID, unitID, lessonID uint) (*models.Lesson, error) {
	return getLessonInUnit(ctx, s.repo, courseID, unitID, lessonID)
}

func (s *lessonService) Update(ctx context.Context, courseID, unitID, lessonID uint, req *UpdateLessonRequest, userID string) (*models.Lesson, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	lesson, err := getLessonInUnit(ctx, s.repo, courseID, unitID, lessonID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		lesson.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		lesson.Description = *req.Description
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.VideoURL != nil {
		lesson.VideoURL = req.VideoURL
	}

	if err := s.repo.Lesson().Update(ctx, lesson); err != nil {
		return nil, mapRepoError(err, ErrLessonNotFound, "update lesson")
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Lesson updated", "lesson_id", lessonID, "user_id", userID)
	return lesson, nil
}

func (s *lessonService) Delete(ctx context.Context, courseID, unitID, lessonID uint, userID string) error {
	if _, err := getLessonInUnit(ctx, s.repo, courseID, unitID, lessonID); err != nil {
		return err
	}

	if err := s.repo.Lesson().Delete(ctx, lessonID); err != nil {
		return mapRepoError(err, ErrLessonNotFound, "delete lesson")
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Lesson deleted", "lesson_id", lessonID, "user_id", userID)
	return nil
}

// SetPublished sets the flag, or flips it when published is nil.
func (s *lessonService) SetPublished(ctx context.Context, courseID, unitID, lessonID uint, published *bool, userID string) (*models.Lesson, error) {
	lesson, err := getLessonInUnit(ctx, s.repo, courseID, unitID, lessonID)
	if err != nil {
		return nil, err
	}

	lesson.IsPublished = boolValue(published, !lesson.IsPublished)
	if err := s.repo.Lesson().Update(ctx, lesson); err != nil {
		return nil, mapRepoError(err, ErrLessonNotFound, "update lesson")
	}

	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Lesson publish state changed", "lesson_id", lessonID, "is_published", lesson.IsPublished, "user_id", userID)
	return lesson, nil
}

func (s *lessonService) Reorder(ctx context.Context, courseID, unitID uint, updates []ordering.Update, userID string) ([]*models.Lesson, error) {
	var (
		lessons []*models.Lesson
		entry   *models.ActivityLog
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		unit, err := tx.Unit().LockByID(ctx, unitID)
		if err != nil {
			return mapRepoError(err, ErrUnitNotFound, "lock unit")
		}
		if unit.CourseID != courseID {
			return ErrUnitNotFound
		}

		siblings, err := tx.Lesson().ListByUnit(ctx, unitID)
		if err != nil {
			return fmt.Errorf("failed to list lessons: %w", err)
		}

		planned, err := ordering.PlanReorder(lessonSiblings(siblings), updates)
		if err != nil {
			return orderingError(err)
		}
		if err := tx.Lesson().UpdateOrders(ctx, unitID, planned); err != nil {
			return mapRepoError(err, ErrLessonNotFound, "reorder lessons")
		}

		entry, err = s.audit.record(ctx, tx, userID, models.ActivityLessonsReordered, models.EntityUnit, unitID, map[string]interface{}{
			"courseId":    courseID,
			"lessonOrder": updates,
		})
		if err != nil {
			return err
		}

		lessons, err = tx.Lesson().ListByUnit(ctx, unitID)
		if err != nil {
			return fmt.Errorf("failed to list lessons: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.publish(ctx, entry)
	cache.InvalidateCourseCache(ctx, s.cache, courseID)

	s.logger.Info("Lessons reordered", "unit_id", unitID, "count", len(updates), "user_id", userID)
	return lessons, nil
}
