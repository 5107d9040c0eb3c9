package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/learning-service/internal/ordering"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

// orderColumn is quoted by gorm; "order" is a reserved word.
var orderColumn = clause.Column{Name: "order"}

// byOrder sorts siblings by position then id.
func byOrder(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: orderColumn}).Order("id")
}

func byID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// First loads one row by primary key, mapping a miss to repositories.ErrNotFound.
func (h *SharedHelpers) First(ctx context.Context, dest interface{}, id interface{}, what string) error {
	if err := h.db.WithContext(ctx).First(dest, "id = ?", id).Error; err != nil {
		return notFound(err, fmt.Sprintf("%s %v", what, id))
	}
	return nil
}

// LockFirst is First with SELECT ... FOR UPDATE.
func (h *SharedHelpers) LockFirst(ctx context.Context, dest interface{}, id interface{}, what string) error {
	err := h.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(dest, "id = ?", id).Error
	if err != nil {
		return notFound(err, fmt.Sprintf("%s %v", what, id))
	}
	return nil
}

// ApplyOrderUpdates writes each update in slice order, restricted to rows whose
// parentColumn equals parentID. A row outside the scope aborts with ErrNotFound.
func (h *SharedHelpers) ApplyOrderUpdates(ctx context.Context, model interface{}, parentColumn string, parentID uint, updates []ordering.Update) error {
	for _, u := range updates {
		res := h.db.WithContext(ctx).
			Model(model).
			Where("id = ?", u.ID).
			Where(clause.Eq{Column: clause.Column{Name: parentColumn}, Value: parentID}).
			Update("order", u.Order)
		if res.Error != nil {
			return fmt.Errorf("failed to update order of %d: %w", u.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%d under %s=%d: %w", u.ID, parentColumn, parentID, repositories.ErrNotFound)
		}
	}
	return nil
}

// UpdateExisting writes every column of value except created_at and reports
// ErrNotFound when no row matched. Save is avoided because it upserts.
func (h *SharedHelpers) UpdateExisting(ctx context.Context, value interface{}, what string, id interface{}) error {
	res := h.db.WithContext(ctx).
		Model(value).
		Select("*").
		Omit("created_at", clause.Associations).
		Updates(value)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s: %w", what, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %v: %w", what, id, repositories.ErrNotFound)
	}
	return nil
}

// DeleteExisting deletes by primary key and reports ErrNotFound when no row matched.
func (h *SharedHelpers) DeleteExisting(ctx context.Context, model interface{}, what string, id uint) error {
	res := h.db.WithContext(ctx).Delete(model, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", what, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", what, id, repositories.ErrNotFound)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
