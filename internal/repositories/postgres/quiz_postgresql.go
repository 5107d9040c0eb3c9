package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

type QuizPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.LessonQuiz) error {
	if err := q.db.WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.LessonQuiz, error) {
	var quiz models.LessonQuiz
	if err := q.helpers.First(ctx, &quiz, id, "quiz"); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) ListByLesson(ctx context.Context, lessonID uint) ([]*models.LessonQuiz, error) {
	var quizzes []*models.LessonQuiz
	if err := q.db.WithContext(ctx).Where("lesson_id = ?", lessonID).Order("id").Find(&quizzes).Error; err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, quiz *models.LessonQuiz) error {
	return q.helpers.UpdateExisting(ctx, quiz, "quiz", quiz.ID)
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, id uint) error {
	return q.helpers.DeleteExisting(ctx, &models.LessonQuiz{}, "quiz", id)
}
