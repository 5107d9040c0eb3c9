package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestNewEvent(t *testing.T) {
	e := NewEvent("course.created", "user-1", map[string]interface{}{"courseId": 7})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "course.created", e.Type)
	assert.Equal(t, EventSource, e.Source)
	assert.Equal(t, "1.0", e.Version)
	assert.Equal(t, "user-1", e.UserID)
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Minute)
}

func TestGoChannelPublisher_DeliversEnvelope(t *testing.T) {
	pub, ch := NewGoChannelPublisher("learning.activity", testLogger())
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := ch.Subscribe(ctx, "learning.activity")
	require.NoError(t, err)

	event := NewEvent("enrollment.created", "student-1", map[string]interface{}{"courseId": 3})
	require.NoError(t, pub.Publish(ctx, event))

	select {
	case msg := <-messages:
		defer msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, "enrollment.created", msg.Metadata.Get("type"))

		var got Event
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, "student-1", got.UserID)
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	require.NoError(t, mock.Publish(ctx, NewEvent("a", "", nil)))
	require.NoError(t, mock.Publish(ctx, NewEvent("b", "", nil)))
	assert.Len(t, mock.GetPublishedEvents(), 2)
	assert.Len(t, mock.EventsOfType("b"), 1)

	mock.ClearEvents()
	assert.Empty(t, mock.GetPublishedEvents())

	mock.FailWith(errors.New("broker down"))
	assert.Error(t, mock.Publish(ctx, NewEvent("c", "", nil)))
}
