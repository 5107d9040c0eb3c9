package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

type courseService struct {
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	cache        *cache.CacheManager
	audit        *auditor
	cacheEnabled bool
}

func NewCourseService(deps Dependencies, audit *auditor, cacheEnabled bool) CourseService {
	return &courseService{
		repo:         deps.Repo,
		logger:       deps.Logger,
		validator:    deps.Validator,
		cache:        deps.Cache,
		audit:        audit,
		cacheEnabled: cacheEnabled,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, userID string) (*models.Course, error) {
	s.logger.Info("Creating course", "user_id", userID, "title", req.Title)

	if errors := s.validator.GetBusinessValidator().ValidateCourseCreate(req); len(errors) > 0 {
		return nil, errors
	}

	course := &models.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		APExamType:  strings.TrimSpace(req.APExamType),
		IsFree:      boolValue(req.IsFree, true),
		ImageURL:    req.ImageURL,
		Settings:    models.DefaultCourseSettings(),
		CreatedBy:   userID,
	}
	if !course.IsFree && req.Price != nil {
		course.Price = *req.Price
	}
	applySettings(&course.Settings, req.Settings)

	var entry *models.ActivityLog
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Course().Create(ctx, course); err != nil {
			return fmt.Errorf("failed to create course: %w", err)
		}
		var err error
		entry, err = s.audit.record(ctx, tx, userID, models.ActivityCourseCreated, models.EntityCourse, course.ID, map[string]interface{}{
			"title": course.Title,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.publish(ctx, entry)
	cache.InvalidateCourseCache(ctx, s.cache, 0)

	s.logger.Info("Course created successfully", "course_id", course.ID)
	return course, nil
}

func (s *courseService) List(ctx context.Context) ([]*models.CourseWithStats, error) {
	if !s.useCache() {
		return s.listFromStore(ctx)
	}

	var courses []*models.CourseWithStats
	err := s.cache.Course.CacheOrExecute(ctx, cache.CourseListKey, &courses, s.cache.TTL(), func() (interface{}, error) {
		return s.listFromStore(ctx)
	})
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (s *courseService) listFromStore(ctx context.Context) ([]*models.CourseWithStats, error) {
	courses, err := s.repo.Course().ListWithStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (s *courseService) Get(ctx context.Context, id uint) (*models.Course, error) {
	if !s.useCache() {
		return s.getFromStore(ctx, id)
	}

	var course models.Course
	err := s.cache.Course.CacheOrExecute(ctx, cache.CourseDetailKey(id), &course, s.cache.TTL(), func() (interface{}, error) {
		return s.getFromStore(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *courseService) getFromStore(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetWithContent(ctx, id)
	return course, mapRepoError(err, ErrCourseNotFound, "load course content")
}

func (s *courseService) Update(ctx context.Context, id uint, req *UpdateCourseRequest, userID string) (*models.Course, error) {
	s.logger.Info("Updating course", "course_id", id, "user_id", userID)

	var (
		course *models.Course
		entry  *models.ActivityLog
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		course, err = tx.Course().LockByID(ctx, id)
		if err != nil {
			return mapRepoError(err, ErrCourseNotFound, "load course")
		}

		enrolled, err := tx.Enrollment().CountByCourse(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count enrollments: %w", err)
		}

		if errors := s.validator.GetBusinessValidator().ValidateCourseUpdate(req, course, enrolled > 0); len(errors) > 0 {
			return errors
		}

		changed := applyCourseUpdate(course, req)
		if err := tx.Course().Update(ctx, course); err != nil {
			return mapRepoError(err, ErrCourseNotFound, "update course")
		}

		entry, err = s.audit.record(ctx, tx, userID, models.ActivityCourseUpdated, models.EntityCourse, course.ID, map[string]interface{}{
			"fields": changed,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.publish(ctx, entry)
	cache.InvalidateCourseCache(ctx, s.cache, id)

	s.logger.Info("Course updated successfully", "course_id", id)
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting course", "course_id", id, "user_id", userID)

	var entry *models.ActivityLog
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		course, err := tx.Course().LockByID(ctx, id)
		if err != nil {
			return mapRepoError(err, ErrCourseNotFound, "load course")
		}

		enrolled, err := tx.Enrollment().CountByCourse(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count enrollments: %w", err)
		}
		if enrolled > 0 {
			return ErrCourseHasEnrollments
		}

		if err := tx.Course().Delete(ctx, id); err != nil {
			return mapRepoError(err, ErrCourseNotFound, "delete course")
		}

		entry, err = s.audit.record(ctx, tx, userID, models.ActivityCourseDeleted, models.EntityCourse, id, map[string]interface{}{
			"title": course.Title,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.audit.publish(ctx, entry)
	cache.InvalidateCourseCache(ctx, s.cache, id)

	s.logger.Info("Course deleted successfully", "course_id", id)
	return nil
}

func (s *courseService) SetPublished(ctx context.Context, id uint, published bool, userID string) (*models.Course, error) {
	var (
		course *models.Course
		entry  *models.ActivityLog
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		course, err = tx.Course().LockByID(ctx, id)
		if err != nil {
			return mapRepoError(err, ErrCourseNotFound, "load course")
		}

		if published {
			units, err := tx.Unit().ListByCourse(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to list units: %w", err)
			}
			if len(units) == 0 {
				return ErrCourseHasNoUnits
			}
		}

		course.IsPublished = published
		if err := tx.Course().Update(ctx, course); err != nil {
			return mapRepoError(err, ErrCourseNotFound, "update course")
		}

		entry, err = s.audit.record(ctx, tx, userID, models.ActivityCoursePublished, models.EntityCourse, id, map[string]interface{}{
			"isPublished": published,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.publish(ctx, entry)
	cache.InvalidateCourseCache(ctx, s.cache, id)

	s.logger.Info("Course publish state changed", "course_id", id, "is_published", published)
	return course, nil
}

// ===== HELPERS =====

func (s *courseService) useCache() bool {
	return s.cacheEnabled && s.cache != nil && s.cache.Enabled()
}

// applyCourseUpdate copies the supplied fields and returns their names.
func applyCourseUpdate(course *models.Course, req *UpdateCourseRequest) []string {
	var changed []string
	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
		changed = append(changed, "title")
	}
	if req.Description != nil {
		course.Description = *req.Description
		changed = append(changed, "description")
	}
	if req.APExamType != nil {
		course.APExamType = strings.TrimSpace(*req.APExamType)
		changed = append(changed, "apExamType")
	}
	if req.IsFree != nil {
		course.IsFree = *req.IsFree
		changed = append(changed, "isFree")
	}
	if req.Price != nil {
		course.Price = *req.Price
		changed = append(changed, "price")
	}
	if course.IsFree {
		course.Price = 0
	}
	if req.ImageURL != nil {
		course.ImageURL = req.ImageURL
		changed = append(changed, "imageUrl")
	}
	if req.Settings != nil {
		applySettings(&course.Settings, req.Settings)
		changed = append(changed, "settings")
	}
	return changed
}

// applySettings overlays the supplied settings; absent fields keep their value.
func applySettings(settings *models.CourseSettings, req *CourseSettingsRequest) {
	if req == nil {
		return
	}
	if req.EnrollmentLimit != nil {
		settings.EnrollmentLimit = req.EnrollmentLimit
	}
	if req.WaitlistEnabled != nil {
		settings.WaitlistEnabled = *req.WaitlistEnabled
	}
	if req.CertificateEnabled != nil {
		settings.CertificateEnabled = *req.CertificateEnabled
	}
	if req.DiscussionEnabled != nil {
		settings.DiscussionEnabled = *req.DiscussionEnabled
	}
	if req.DownloadsEnabled != nil {
		settings.DownloadsEnabled = *req.DownloadsEnabled
	}
	if req.AccessDurationDays != nil {
		settings.AccessDurationDays = req.AccessDurationDays
	}
	if req.ProgressTracking != nil {
		settings.ProgressTracking = models.ProgressTrackingMode(*req.ProgressTracking)
	}
	if req.CompletionCriteria != nil {
		settings.CompletionCriteria = models.CompletionCriteria(*req.CompletionCriteria)
	}
	if req.PassingGrade != nil {
		settings.PassingGrade = *req.PassingGrade
	}
	if req.PrerequisiteCourseIDs != nil {
		settings.PrerequisiteCourseIDs = append(datatypes.JSONSlice[uint]{}, req.PrerequisiteCourseIDs...)
	}
}
