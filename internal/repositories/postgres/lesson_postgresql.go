package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/ordering"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

type LessonPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewLessonPostgreSQL(db *gorm.DB) repositories.LessonRepository {
	return &LessonPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (l *LessonPostgreSQL) Create(ctx context.Context, lesson *models.Lesson) error {
	if err := l.db.WithContext(ctx).Omit("Quizzes").Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

func (l *LessonPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.helpers.First(ctx, &lesson, id, "lesson"); err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (l *LessonPostgreSQL) ListByUnit(ctx context.Context, unitID uint) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	if err := byOrder(l.db.WithContext(ctx).Where("unit_id = ?", unitID)).Find(&lessons).Error; err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

func (l *LessonPostgreSQL) Update(ctx context.Context, lesson *models.Lesson) error {
	return l.helpers.UpdateExisting(ctx, lesson, "lesson", lesson.ID)
}

func (l *LessonPostgreSQL) Delete(ctx context.Context, id uint) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&models.LessonQuiz{}).Error; err != nil {
			return fmt.Errorf("failed to delete lesson quizzes: %w", err)
		}
		return NewSharedHelpers(tx).DeleteExisting(ctx, &models.Lesson{}, "lesson", id)
	})
}

func (l *LessonPostgreSQL) UpdateOrders(ctx context.Context, unitID uint, updates []ordering.Update) error {
	return l.helpers.ApplyOrderUpdates(ctx, &models.Lesson{}, "unit_id", unitID, updates)
}
