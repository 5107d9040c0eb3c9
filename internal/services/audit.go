package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

// auditor appends ActivityLog rows and mirrors them onto the event bus.
type auditor struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func newAuditor(deps Dependencies) *auditor {
	return &auditor{
		publisher: deps.Publisher,
		logger:    deps.Logger,
	}
}

// record writes the entry through repo, which may be bound to a transaction.
// The entry is returned so the caller can publish it once the write is durable.
func (a *auditor) record(ctx context.Context, repo repositories.Repository, userID, action, entityType string, entityID uint, details map[string]interface{}) (*models.ActivityLog, error) {
	entry := &models.ActivityLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    datatypes.JSONMap(details),
	}
	if err := repo.Activity().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record %s: %w", action, err)
	}
	return entry, nil
}

// publish sends committed entries to the bus. Failures are logged only; the
// activity row is the record of truth.
func (a *auditor) publish(ctx context.Context, entries ...*models.ActivityLog) {
	if a.publisher == nil {
		return
	}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		event := events.NewEvent(entry.Action, entry.UserID, map[string]interface{}{
			"activityId": entry.ID,
			"entityType": entry.EntityType,
			"entityId":   entry.EntityID,
			"details":    entry.Details,
		})
		if err := a.publisher.Publish(ctx, event); err != nil {
			a.logger.Warn("Failed to publish activity event",
				"action", entry.Action,
				"entity_id", entry.EntityID,
				"error", err)
		}
	}
}

// recordAndPublish is record followed by publish for writes outside a transaction.
func (a *auditor) recordAndPublish(ctx context.Context, repo repositories.Repository, userID, action, entityType string, entityID uint, details map[string]interface{}) error {
	entry, err := a.record(ctx, repo, userID, action, entityType, entityID, details)
	if err != nil {
		return err
	}
	a.publish(ctx, entry)
	return nil
}
