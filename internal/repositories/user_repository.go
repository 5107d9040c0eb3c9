package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

// UserRepository keeps the local mirror of identity provider accounts.
type UserRepository interface {
	// Upsert inserts or refreshes name, email, avatar, role and last seen time.
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}
