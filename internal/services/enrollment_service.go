package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

type enrollmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	audit     *auditor
	now       func() time.Time
}

func NewEnrollmentService(deps Dependencies, audit *auditor) EnrollmentService {
	return &enrollmentService{
		repo:      deps.Repo,
		logger:    deps.Logger,
		validator: deps.Validator,
		cache:     deps.Cache,
		audit:     audit,
		now:       deps.Now,
	}
}

// Enroll admits a learner into a published course. Paid courses are answered
// with a payment request and no row is written.
func (s *enrollmentService) Enroll(ctx context.Context, req *EnrollRequest, userID string) (*EnrollResponse, error) {
	s.logger.Info("Enrolling user", "user_id", userID, "course_id", req.CourseID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := getCourse(ctx, s.repo, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, ErrCourseNotPublished
	}

	_, err = s.repo.Enrollment().GetByUserAndCourse(ctx, userID, course.ID)
	switch {
	case err == nil:
		return nil, ErrAlreadyEnrolled
	case !repositories.IsNotFoundError(err):
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	if !course.IsFree {
		s.logger.Info("Paid course requires payment", "user_id", userID, "course_id", course.ID)
		return &EnrollResponse{
			RequiresPayment: true,
			CourseID:        course.ID,
			Price:           course.Price,
		}, nil
	}

	if err := s.checkPrerequisites(ctx, userID, course); err != nil {
		return nil, err
	}

	now := s.now()
	enrollment := &models.Enrollment{
		UserID:        userID,
		CourseID:      course.ID,
		PaymentStatus: models.PaymentFree,
		Status:        models.EnrollmentActive,
		Progress:      datatypes.NewJSONType(models.NewProgressMap()),
		EnrolledAt:    now,
	}
	if days := course.Settings.AccessDurationDays; days != nil && *days > 0 {
		expires := now.AddDate(0, 0, *days)
		enrollment.ExpiresAt = &expires
	}

	var entry *models.ActivityLog
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		locked, err := tx.Course().LockByID(ctx, course.ID)
		if err != nil {
			return mapRepoError(err, ErrCourseNotFound, "lock course")
		}

		if limit := locked.Settings.EnrollmentLimit; limit != nil {
			count, err := tx.Enrollment().CountByCourse(ctx, course.ID)
			if err != nil {
				return fmt.Errorf("failed to count enrollments: %w", err)
			}
			if count >= int64(*limit) {
				return ErrCourseFull
			}
		}

		created, err := tx.Enrollment().CreateIfAbsent(ctx, enrollment)
		if err != nil {
			return mapRepoError(err, ErrCourseNotFound, "create enrollment")
		}
		if !created {
			return ErrAlreadyEnrolled
		}

		entry, err = s.audit.record(ctx, tx, userID, models.ActivityEnrolled, models.EntityCourse, course.ID, map[string]interface{}{
			"enrollmentId":  enrollment.ID,
			"paymentStatus": enrollment.PaymentStatus,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.publish(ctx, entry)
	cache.InvalidateCourseCache(ctx, s.cache, course.ID)

	s.logger.Info("User enrolled successfully", "user_id", userID, "course_id", course.ID, "enrollment_id", enrollment.ID)
	return &EnrollResponse{CourseID: course.ID, Enrollment: enrollment}, nil
}

func (s *enrollmentService) ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	enrollments, err := s.repo.Enrollment().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

// checkPrerequisites requires a completed enrollment in every listed course.
func (s *enrollmentService) checkPrerequisites(ctx context.Context, userID string, course *models.Course) error {
	var missing []uint
	for _, prerequisiteID := range course.Settings.PrerequisiteCourseIDs {
		enrollment, err := s.repo.Enrollment().GetByUserAndCourse(ctx, userID, prerequisiteID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				missing = append(missing, prerequisiteID)
				continue
			}
			return fmt.Errorf("failed to check prerequisite %d: %w", prerequisiteID, err)
		}
		if enrollment.CompletedAt == nil {
			missing = append(missing, prerequisiteID)
		}
	}

	if len(missing) > 0 {
		return &ServiceError{
			Kind:    ErrForbidden,
			Message: ErrPrerequisitesMissing.Message,
			Details: map[string]interface{}{"missingCourseIds": missing},
		}
	}
	return nil
}
