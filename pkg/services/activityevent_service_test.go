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

func TestActivityEventService_CreateEvents(t *testing.T) {
	client := testdb.NewTestClient(t)
	svc := NewActivityEventService(client.Client)
	ctx := context.Background()

	u := testUser(t, client.Client)
	now := time.Now()

	t.Run("ingests a batch", func(t *testing.T) {
		err := svc.CreateEvents(ctx, []models.CreateActivityEventRequest{
			{UserID: u.ID, IntervalID: 1, EventType: "foreground_switch", Application: "Safari", OccurredAt: now},
			{UserID: u.ID, IntervalID: 1, EventType: "mouse_click", OccurredAt: now.Add(time.Second)},
		})
		require.NoError(t, err)

		events, err := svc.ListForInterval(ctx, u.ID, 1)
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		err := svc.CreateEvents(ctx, nil)
		require.NoError(t, err)
	})

	t.Run("rejects missing user_id", func(t *testing.T) {
		err := svc.CreateEvents(ctx, []models.CreateActivityEventRequest{
			{EventType: "mouse_click", OccurredAt: now},
		})
		require.Error(t, err)
	})
}

func TestActivityEventService_ListForWindow(t *testing.T) {
	client := testdb.NewTestClient(t)
	svc := NewActivityEventService(client.Client)
	ctx := context.Background()

	u := testUser(t, client.Client)
	base := time.Now().Add(-time.Hour)

	err := svc.CreateEvents(ctx, []models.CreateActivityEventRequest{
		{UserID: u.ID, IntervalID: 1, EventType: "foreground_switch", Application: "Terminal", OccurredAt: base},
		{UserID: u.ID, IntervalID: 2, EventType: "mouse_click", OccurredAt: base.Add(30 * time.Minute)},
		{UserID: u.ID, IntervalID: 3, EventType: "mouse_click", OccurredAt: base.Add(3 * time.Hour)},
	})
	require.NoError(t, err)

	t.Run("returns events inside the window, newest first", func(t *testing.T) {
		events, err := svc.ListForWindow(ctx, u.ID, base, base.Add(time.Hour), 0)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.True(t, events[0].OccurredAt.After(events[1].OccurredAt))
	})

	t.Run("excludes events outside the window", func(t *testing.T) {
		events, err := svc.ListForWindow(ctx, u.ID, base, base.Add(time.Hour), 0)
		require.NoError(t, err)
		for _, e := range events {
			assert.NotEqual(t, int64(3), e.IntervalID)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		events, err := svc.ListForWindow(ctx, u.ID, base, base.Add(4*time.Hour), 1)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
}
