package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

// CreateIfAbsent relies on idx_enrollment_user_course; a concurrent duplicate
// inserts nothing instead of failing the surrounding transaction.
func (e *EnrollmentPostgreSQL) CreateIfAbsent(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	res := e.db.WithContext(ctx).
		Omit("Course").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(enrollment)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create enrollment: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (e *EnrollmentPostgreSQL) GetByUserAndCourse(ctx context.Context, userID string, courseID uint) (*models.Enrollment, error) {
	return e.find(e.db.WithContext(ctx), userID, courseID)
}

func (e *EnrollmentPostgreSQL) LockByUserAndCourse(ctx context.Context, userID string, courseID uint) (*models.Enrollment, error) {
	return e.find(e.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID, courseID)
}

func (e *EnrollmentPostgreSQL) find(db *gorm.DB, userID string, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("enrollment of %s in course %d", userID, courseID))
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("enrolled_at DESC, id DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

func (e *EnrollmentPostgreSQL) ListByCourse(ctx context.Context, courseID uint) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := e.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("enrolled_at DESC, id DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list course enrollments: %w", err)
	}
	return enrollments, nil
}

func (e *EnrollmentPostgreSQL) CountByCourse(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := e.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

func (e *EnrollmentPostgreSQL) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return NewSharedHelpers(e.db).UpdateExisting(ctx, enrollment, "enrollment", enrollment.ID)
}
