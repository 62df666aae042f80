package services

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/cleo/pkg/models"
	testdb "github.com/codeready-toolchain/cleo/test/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventService_CreateEvent(t *testing.T) {
	client := testdb.NewTestClient(t)
	eventService := NewEventService(client.Client)
	ctx := context.Background()

	run := testAgentRun(t, client.Client)

	t.Run("creates event successfully", func(t *testing.T) {
		req := models.CreateEventRequest{
			RunID:     run.ID,
			Channel:   "run:" + run.ID,
			EventType: "run.status",
			Payload:   map[string]any{"type": "update", "data": "test"},
		}

		event, err := eventService.CreateEvent(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, req.Channel, event.Channel)
		assert.NotNil(t, event.Payload)
		assert.NotNil(t, event.CreatedAt)
	})
}

func TestEventService_GetEventsSince(t *testing.T) {
	client := testdb.NewTestClient(t)
	eventService := NewEventService(client.Client)
	ctx := context.Background()

	run := testAgentRun(t, client.Client)
	channel := "run:" + run.ID

	evt1, err := eventService.CreateEvent(ctx, models.CreateEventRequest{
		RunID:     run.ID,
		Channel:   channel,
		EventType: "run.status",
		Payload:   map[string]any{"seq": 1},
	})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	evt2, err := eventService.CreateEvent(ctx, models.CreateEventRequest{
		RunID:     run.ID,
		Channel:   channel,
		EventType: "run.status",
		Payload:   map[string]any{"seq": 2},
	})
	require.NoError(t, err)

	t.Run("retrieves events since ID", func(t *testing.T) {
		events, err := eventService.GetEventsSince(ctx, channel, evt1.ID, 0)
		require.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, evt2.ID, events[0].ID)
	})

	t.Run("retrieves all events when sinceID is 0", func(t *testing.T) {
		events, err := eventService.GetEventsSince(ctx, channel, 0, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(events), 2)
	})
}

func TestEventService_CleanupRunEvents(t *testing.T) {
	client := testdb.NewTestClient(t)
	eventService := NewEventService(client.Client)
	ctx := context.Background()

	run := testAgentRun(t, client.Client)

	for i := 0; i < 3; i++ {
		_, err := eventService.CreateEvent(ctx, models.CreateEventRequest{
			RunID:     run.ID,
			Channel:   "run:" + run.ID,
			EventType: "run.status",
			Payload:   map[string]any{"seq": i},
		})
		require.NoError(t, err)
	}

	t.Run("cleans up all run events", func(t *testing.T) {
		count, err := eventService.CleanupRunEvents(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		events, err := eventService.GetEventsSince(ctx, "run:"+run.ID, 0, 0)
		require.NoError(t, err)
		assert.Len(t, events, 0)
	})
}

func TestEventService_CleanupOrphanedEvents(t *testing.T) {
	client := testdb.NewTestClient(t)
	eventService := NewEventService(client.Client)
	ctx := context.Background()

	run := testAgentRun(t, client.Client)

	oldTime := time.Now().Add(-8 * 24 * time.Hour)
	_, err := client.Event.Create().
		SetRunID(run.ID).
		SetChannel("test").
		SetEventType("run.status").
		SetPayload(map[string]any{}).
		SetCreatedAt(oldTime).
		Save(ctx)
	require.NoError(t, err)

	t.Run("cleans up old events", func(t *testing.T) {
		count, err := eventService.CleanupOrphanedEvents(ctx, 7*24*time.Hour)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, 1)
	})
}
