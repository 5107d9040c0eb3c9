package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/repositories/memory"
)

func TestServiceManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	publisher := events.NewMockEventPublisher(testLogger())
	sm := NewDefaultServiceManager(Dependencies{
		Repo:      memory.NewRepository(),
		Logger:    testLogger(),
		Publisher: publisher,
	})

	assert.Panics(t, func() { sm.Course() })
	assert.Error(t, sm.HealthCheck(ctx))

	require.NoError(t, sm.Initialize(ctx))
	require.NoError(t, sm.Initialize(ctx))
	assert.NotNil(t, sm.Course())
	assert.NotNil(t, sm.Attempt())
	assert.NotNil(t, sm.Export())
	assert.NoError(t, sm.HealthCheck(ctx))

	require.NoError(t, sm.Shutdown(ctx))
	require.NoError(t, sm.Shutdown(ctx))
	assert.Error(t, sm.HealthCheck(ctx))
	assert.Panics(t, func() { sm.Enrollment() })
}

func TestServiceManager_RequiresRepository(t *testing.T) {
	sm := NewDefaultServiceManager(Dependencies{Logger: testLogger()})
	assert.Error(t, sm.Initialize(context.Background()))
}
