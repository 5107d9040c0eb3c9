package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

type ExamPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewExamPostgreSQL(db *gorm.DB) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (e *ExamPostgreSQL) Create(ctx context.Context, exam *models.UnitExam) error {
	if err := e.db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.UnitExam, error) {
	var exam models.UnitExam
	if err := e.helpers.First(ctx, &exam, id, "exam"); err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) GetWithCourse(ctx context.Context, id uint) (*models.ExamWithCourse, error) {
	exam, err := e.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var courseID uint
	err = e.db.WithContext(ctx).
		Model(&models.Unit{}).
		Select("course_id").
		Where("id = ?", exam.UnitID).
		Take(&courseID).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("unit %d", exam.UnitID))
	}

	return &models.ExamWithCourse{Exam: exam, CourseID: courseID}, nil
}

func (e *ExamPostgreSQL) ListByUnit(ctx context.Context, unitID uint) ([]*models.UnitExam, error) {
	var exams []*models.UnitExam
	if err := e.db.WithContext(ctx).Where("unit_id = ?", unitID).Order("id").Find(&exams).Error; err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, exam *models.UnitExam) error {
	return e.helpers.UpdateExisting(ctx, exam, "exam", exam.ID)
}

func (e *ExamPostgreSQL) Delete(ctx context.Context, id uint) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exam_id = ?", id).Delete(&models.ExamAttempt{}).Error; err != nil {
			return fmt.Errorf("failed to delete exam attempts: %w", err)
		}
		return NewSharedHelpers(tx).DeleteExisting(ctx, &models.UnitExam{}, "exam", id)
	})
}
