package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

// Create targets the partial unique index idx_attempt_in_flight. Losing the race
// inserts nothing and yields ErrDuplicate without aborting the transaction.
func (a *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.ExamAttempt) error {
	res := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "exam_id"}, {Name: "user_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "completed_at IS NULL"}}},
			DoNothing:   true,
		}).
		Create(attempt)
	if res.Error != nil {
		return fmt.Errorf("failed to create attempt: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("attempt in flight for exam %d: %w", attempt.ExamID, repositories.ErrDuplicate)
	}
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := a.helpers.First(ctx, &attempt, id, "attempt"); err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetInProgress(ctx context.Context, examID uint, userID string) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	err := a.db.WithContext(ctx).
		Where("exam_id = ? AND user_id = ? AND completed_at IS NULL", examID, userID).
		First(&attempt).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("in-flight attempt for exam %d", examID))
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) CountCompleted(ctx context.Context, examID uint, userID string) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("exam_id = ? AND user_id = ? AND completed_at IS NOT NULL", examID, userID).
		Count(&count).Error
	return count, err
}

func (a *AttemptPostgreSQL) ListByExamAndUser(ctx context.Context, examID uint, userID string) ([]*models.ExamAttempt, error) {
	var attempts []*models.ExamAttempt
	err := a.db.WithContext(ctx).
		Where("exam_id = ? AND user_id = ?", examID, userID).
		Order("started_at DESC, id DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) CompletedExamIDs(ctx context.Context, userID string, examIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if len(examIDs) == 0 {
		return out, nil
	}

	var ids []uint
	err := a.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Distinct("exam_id").
		Where("user_id = ? AND exam_id IN ? AND completed_at IS NOT NULL", userID, examIDs).
		Pluck("exam_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load completed exams: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (a *AttemptPostgreSQL) Update(ctx context.Context, attempt *models.ExamAttempt) error {
	return a.helpers.UpdateExisting(ctx, attempt, "attempt", attempt.ID)
}
