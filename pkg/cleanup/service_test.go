package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/pkg/config"
	"github.com/codeready-toolchain/cleo/pkg/models"
	"github.com/codeready-toolchain/cleo/pkg/services"
	testdb "github.com/codeready-toolchain/cleo/test/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cleanupTestEnv struct {
	client         *ent.Client
	captureService *services.CaptureService
	eventService   *services.EventService
	oauthService   *services.OAuthService
	tokenService   *services.TokenService
	userID         string
}

func setupCleanupTest(t *testing.T) *cleanupTestEnv {
	t.Helper()
	client := testdb.NewTestClient(t)
	ctx := context.Background()

	user, err := client.User.Create().
		SetID(uuid.New().String()).
		SetExternalID(uuid.New().String()).
		SetUsername("cleanup-test").
		SetAPIToken(uuid.New().String()).
		Save(ctx)
	require.NoError(t, err)

	return &cleanupTestEnv{
		client:         client.Client,
		captureService: services.NewCaptureService(client.Client),
		eventService:   services.NewEventService(client.Client),
		oauthService:   services.NewOAuthService(client.Client),
		tokenService:   services.NewTokenService(client.Client),
		userID:         user.ID,
	}
}

func (env *cleanupTestEnv) service(cfg *config.RetentionConfig) *Service {
	return NewService(cfg, env.captureService, env.eventService, env.oauthService, env.tokenService)
}

func defaultTestRetentionConfig() *config.RetentionConfig {
	return &config.RetentionConfig{
		CaptureRetentionDays: 30,
		EventTTL:             1 * time.Hour,
		CleanupInterval:      1 * time.Hour,
	}
}

// createAgedCapture creates a capture with created_at backdated directly
// through the ent client, since created_at is immutable and the service
// layer always stamps the current time.
func (env *cleanupTestEnv) createAgedCapture(t *testing.T, storagePath string, intervalID int64, age time.Duration) *ent.Capture {
	t.Helper()
	cap, err := env.client.Capture.Create().
		SetID(uuid.New().String()).
		SetUserID(env.userID).
		SetMediaType("image").
		SetMimeType("image/png").
		SetStoragePath(storagePath).
		SetCapturedAt(time.Now().Add(-age)).
		SetIntervalID(intervalID).
		SetCreatedAt(time.Now().Add(-age)).
		Save(context.Background())
	require.NoError(t, err)
	return cap
}

func TestService_SoftDeletesOldProcessedCaptures(t *testing.T) {
	env := setupCleanupTest(t)
	ctx := context.Background()

	cap := env.createAgedCapture(t, "captures/old.png", 1, 40*24*time.Hour)
	require.NoError(t, env.captureService.CompleteFrames(ctx, cap.ID))

	svc := env.service(defaultTestRetentionConfig())
	svc.runAll(ctx)

	updated, err := env.captureService.GetCapture(ctx, cap.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.DeletedAt)
}

func TestService_PreservesRecentCaptures(t *testing.T) {
	env := setupCleanupTest(t)
	ctx := context.Background()

	cap, err := env.captureService.CreateCapture(ctx, models.CreateCaptureRequest{
		UserID:      env.userID,
		MediaType:   "image",
		MimeType:    "image/png",
		StoragePath: "captures/recent.png",
		CapturedAt:  time.Now(),
		IntervalID:  2,
	})
	require.NoError(t, err)
	require.NoError(t, env.captureService.CompleteFrames(ctx, cap.ID))

	svc := env.service(defaultTestRetentionConfig())
	svc.runAll(ctx)

	updated, err := env.captureService.GetCapture(ctx, cap.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.DeletedAt)
}

func TestService_PreservesUnprocessedCaptures(t *testing.T) {
	env := setupCleanupTest(t)
	ctx := context.Background()

	// Old but frames never extracted — must survive the sweep regardless of age.
	cap := env.createAgedCapture(t, "captures/unprocessed.png", 3, 40*24*time.Hour)

	svc := env.service(defaultTestRetentionConfig())
	svc.runAll(ctx)

	updated, err := env.captureService.GetCapture(ctx, cap.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.DeletedAt)
}

func TestService_CleansUpOldEvents(t *testing.T) {
	env := setupCleanupTest(t)
	ctx := context.Background()

	run, err := env.client.AgentRun.Create().
		SetID(uuid.New().String()).
		SetUserID(env.userID).
		SetWindowStart(time.Now().Add(-5 * time.Minute)).
		SetWindowEnd(time.Now()).
		Save(ctx)
	require.NoError(t, err)

	// Old event, well past the 1-hour TTL.
	_, err = env.client.Event.Create().
		SetRunID(run.ID).
		SetChannel("test").
		SetEventType("run.status").
		SetPayload(map[string]any{}).
		SetCreatedAt(time.Now().Add(-2 * time.Hour)).
		Save(ctx)
	require.NoError(t, err)

	// Recent event.
	_, err = env.eventService.CreateEvent(ctx, models.CreateEventRequest{
		RunID:     run.ID,
		Channel:   "test",
		EventType: "run.status",
		Payload:   map[string]any{},
	})
	require.NoError(t, err)

	svc := env.service(defaultTestRetentionConfig())
	svc.runAll(ctx)

	events, err := env.eventService.GetEventsSince(ctx, "test", 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1, "old event should be deleted, recent event preserved")
}

func TestService_CleansUpExpiredOAuthStates(t *testing.T) {
	env := setupCleanupTest(t)
	ctx := context.Background()

	state := uuid.New().String()
	require.NoError(t, env.oauthService.SaveState(ctx, state, "verifier"))

	svc := env.service(defaultTestRetentionConfig())
	svc.runAll(ctx)

	// A freshly saved state is within its 10-minute validity window and
	// must not have been removed by the sweep.
	count, err := env.oauthService.CleanupExpiredStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	verifier, err := env.oauthService.ConsumeState(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, "verifier", verifier)
}

func TestService_CleansUpExpiredRefreshTokens(t *testing.T) {
	env := setupCleanupTest(t)
	ctx := context.Background()

	_, err := env.tokenService.Issue(ctx, env.userID)
	require.NoError(t, err)

	svc := env.service(defaultTestRetentionConfig())
	svc.runAll(ctx)

	// A freshly issued token is nowhere near its 30-day expiry.
	count, err := env.tokenService.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
