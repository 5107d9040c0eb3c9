package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/ordering"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

type UnitPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewUnitPostgreSQL(db *gorm.DB) repositories.UnitRepository {
	return &UnitPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (u *UnitPostgreSQL) Create(ctx context.Context, unit *models.Unit) error {
	if err := u.db.WithContext(ctx).Omit("Lessons", "Exams").Create(unit).Error; err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

func (u *UnitPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Unit, error) {
	var unit models.Unit
	if err := u.helpers.First(ctx, &unit, id, "unit"); err != nil {
		return nil, err
	}
	return &unit, nil
}

func (u *UnitPostgreSQL) LockByID(ctx context.Context, id uint) (*models.Unit, error) {
	var unit models.Unit
	if err := u.helpers.LockFirst(ctx, &unit, id, "unit"); err != nil {
		return nil, err
	}
	return &unit, nil
}

func (u *UnitPostgreSQL) ListByCourse(ctx context.Context, courseID uint) ([]*models.Unit, error) {
	var units []*models.Unit
	if err := byOrder(u.db.WithContext(ctx).Where("course_id = ?", courseID)).Find(&units).Error; err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

func (u *UnitPostgreSQL) Update(ctx context.Context, unit *models.Unit) error {
	return u.helpers.UpdateExisting(ctx, unit, "unit", unit.ID)
}

func (u *UnitPostgreSQL) Delete(ctx context.Context, id uint) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lessons := tx.Model(&models.Lesson{}).Select("id").Where("unit_id = ?", id)
		exams := tx.Model(&models.UnitExam{}).Select("id").Where("unit_id = ?", id)

		if err := tx.Where("exam_id IN (?)", exams).Delete(&models.ExamAttempt{}).Error; err != nil {
			return fmt.Errorf("failed to delete unit attempts: %w", err)
		}
		if err := tx.Where("lesson_id IN (?)", lessons).Delete(&models.LessonQuiz{}).Error; err != nil {
			return fmt.Errorf("failed to delete unit quizzes: %w", err)
		}
		if err := tx.Where("unit_id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
			return fmt.Errorf("failed to delete unit lessons: %w", err)
		}
		if err := tx.Where("unit_id = ?", id).Delete(&models.UnitExam{}).Error; err != nil {
			return fmt.Errorf("failed to delete unit exams: %w", err)
		}
		return NewSharedHelpers(tx).DeleteExisting(ctx, &models.Unit{}, "unit", id)
	})
}

func (u *UnitPostgreSQL) UpdateOrders(ctx context.Context, courseID uint, updates []ordering.Update) error {
	return u.helpers.ApplyOrderUpdates(ctx, &models.Unit{}, "course_id", courseID, updates)
}
