// Package events publishes domain activity to the message bus.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "learning-service"
	EventVersion = "1.0"
)

// Event is the envelope written to the bus. Data is marshalled as JSON.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	UserID    string      `json:"userId,omitempty"`
	Data      interface{} `json:"data"`
}

// NewEvent stamps id, source, version and time.
func NewEvent(eventType, userID string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Data:      data,
	}
}

// EventPublisher is implemented by the watermill publisher and the test mock.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
