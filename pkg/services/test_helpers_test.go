package services

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// testUser creates a minimal user row for tests that need a valid user_id
// foreign key, returning the created user.
func testUser(t *testing.T, client *ent.Client) *ent.User {
	t.Helper()
	ctx := context.Background()

	u, err := client.User.Create().
		SetID(uuid.New().String()).
		SetExternalID(uuid.New().String()).
		SetUsername("test-user").
		SetAPIToken(uuid.New().String()).
		Save(ctx)
	require.NoError(t, err)

	return u
}

// testAgentRun creates a run for a fresh test user, returning the run.
func testAgentRun(t *testing.T, client *ent.Client) *ent.AgentRun {
	t.Helper()
	ctx := context.Background()

	u := testUser(t, client)
	now := time.Now()

	run, err := client.AgentRun.Create().
		SetID(uuid.New().String()).
		SetUserID(u.ID).
		SetWindowStart(now.Add(-5 * time.Minute)).
		SetWindowEnd(now).
		Save(ctx)
	require.NoError(t, err)

	return run
}
