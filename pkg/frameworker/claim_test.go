package frameworker

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	testdb "github.com/codeready-toolchain/cleo/test/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser(t *testing.T, client *ent.Client) *ent.User {
	t.Helper()
	user, err := client.User.Create().
		SetID(uuid.New().String()).
		SetExternalID(uuid.New().String()).
		SetUsername("frameworker-test").
		SetAPIToken(uuid.New().String()).
		Save(context.Background())
	require.NoError(t, err)
	return user
}

func createCapture(t *testing.T, client *ent.Client, userID string, opts func(*ent.CaptureCreate) *ent.CaptureCreate) *ent.Capture {
	t.Helper()
	builder := client.Capture.Create().
		SetID(uuid.New().String()).
		SetUserID(userID).
		SetMediaType("image").
		SetMimeType("image/png").
		SetStoragePath("image/user_" + userID + "/" + uuid.New().String() + ".png").
		SetCapturedAt(time.Now()).
		SetIntervalID(1)
	if opts != nil {
		builder = opts(builder)
	}
	cap, err := builder.Save(context.Background())
	require.NoError(t, err)
	return cap
}

func TestClaimBatch_ClaimsEligibleCaptures(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()
	user := testUser(t, client.Client)

	eligible := createCapture(t, client.Client, user.ID, nil)
	_ = createCapture(t, client.Client, user.ID, func(c *ent.CaptureCreate) *ent.CaptureCreate {
		return c.SetFramesExtracted(true)
	})

	spec := FrameClaimSpec(15*time.Minute, 5, 10)
	claimed, err := ClaimBatch(ctx, client.DB(), spec)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, eligible.ID, claimed[0].ID)
	assert.Equal(t, "image", claimed[0].MediaType)

	refreshed, err := client.Capture.Get(ctx, eligible.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.FramesProcessing)
	assert.Equal(t, 1, refreshed.FrameAttempts)
	require.NotNil(t, refreshed.FramesProcessingStartedAt)
}

func TestClaimBatch_SkipsActiveLease(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()
	user := testUser(t, client.Client)

	leased := createCapture(t, client.Client, user.ID, func(c *ent.CaptureCreate) *ent.CaptureCreate {
		return c.SetFramesProcessing(true).SetFramesProcessingStartedAt(time.Now())
	})

	spec := FrameClaimSpec(15*time.Minute, 5, 10)
	claimed, err := ClaimBatch(ctx, client.DB(), spec)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	unchanged, err := client.Capture.Get(ctx, leased.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unchanged.FrameAttempts)
}

func TestClaimBatch_ReclaimsExpiredLease(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()
	user := testUser(t, client.Client)

	stale := createCapture(t, client.Client, user.ID, func(c *ent.CaptureCreate) *ent.CaptureCreate {
		return c.SetFramesProcessing(true).
			SetFramesProcessingStartedAt(time.Now().Add(-20 * time.Minute)).
			AddFrameAttempts(1)
	})

	spec := FrameClaimSpec(15*time.Minute, 5, 10)
	claimed, err := ClaimBatch(ctx, client.DB(), spec)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, stale.ID, claimed[0].ID)

	refreshed, err := client.Capture.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed.FrameAttempts)
}

func TestClaimBatch_SkipsExhaustedAttempts(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()
	user := testUser(t, client.Client)

	tombstoned := createCapture(t, client.Client, user.ID, func(c *ent.CaptureCreate) *ent.CaptureCreate {
		return c.AddFrameAttempts(5)
	})

	spec := FrameClaimSpec(15*time.Minute, 5, 10)
	claimed, err := ClaimBatch(ctx, client.DB(), spec)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	unchanged, err := client.Capture.Get(ctx, tombstoned.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, unchanged.FrameAttempts)
}

func TestClaimBatch_RespectsBatchSize(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()
	user := testUser(t, client.Client)

	for i := 0; i < 3; i++ {
		createCapture(t, client.Client, user.ID, nil)
	}

	spec := FrameClaimSpec(15*time.Minute, 5, 2)
	claimed, err := ClaimBatch(ctx, client.DB(), spec)
	require.NoError(t, err)
	assert.Len(t, claimed, 2)
}

func TestThumbnailClaimSpec_ClaimsMissingThumbnails(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()
	user := testUser(t, client.Client)

	needsThumb := createCapture(t, client.Client, user.ID, nil)
	_ = createCapture(t, client.Client, user.ID, func(c *ent.CaptureCreate) *ent.CaptureCreate {
		return c.SetThumbnailPath("thumbnails/user_x/2026-07-30/1.jpg")
	})

	spec := ThumbnailClaimSpec(5, 10)
	claimed, err := ClaimBatch(ctx, client.DB(), spec)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, needsThumb.ID, claimed[0].ID)

	refreshed, err := client.Capture.Get(ctx, needsThumb.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed.ThumbnailAttempts)
}
