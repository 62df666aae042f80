package publish

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/pkg/config"
	"github.com/codeready-toolchain/cleo/pkg/models"
	"github.com/codeready-toolchain/cleo/pkg/notify"
	"github.com/codeready-toolchain/cleo/pkg/services"
	"github.com/codeready-toolchain/cleo/pkg/storage"
	testdb "github.com/codeready-toolchain/cleo/test/database"
)

// fakePlatformClient lets publish-flow tests assert on the request shape
// without talking to a real external API.
type fakePlatformClient struct {
	postCalls   []fakePostCall
	failPost    error
	nextTweetID int
}

type fakePostCall struct {
	text     string
	mediaIDs []string
	replyTo  string
}

func (f *fakePlatformClient) UploadImage(_ context.Context, _ string, _ []byte, _ string) (MediaUpload, error) {
	return MediaUpload{MediaID: "media-" + uuid.New().String()}, nil
}

func (f *fakePlatformClient) UploadVideo(_ context.Context, _ string, _ []byte, _ string, progress ProgressFunc) (MediaUpload, error) {
	if progress != nil {
		progress(1, 1)
	}
	return MediaUpload{MediaID: "media-" + uuid.New().String()}, nil
}

func (f *fakePlatformClient) PostTweet(_ context.Context, _, text string, mediaIDs []string, replyTo string) (PostResult, error) {
	f.postCalls = append(f.postCalls, fakePostCall{text: text, mediaIDs: mediaIDs, replyTo: replyTo})
	if f.failPost != nil {
		return PostResult{}, f.failPost
	}
	f.nextTweetID++
	return PostResult{ExternalID: uuid.New().String()}, nil
}

func newTestOrchestrator(t *testing.T, client *ent.Client, platform PlatformClient) *Orchestrator {
	t.Helper()
	return NewOrchestrator(
		services.NewTweetService(client),
		services.NewThreadService(client),
		services.NewUserService(client),
		services.NewCaptureService(client),
		storage.NewFileStore(t.TempDir()),
		platform,
		nil,
		notify.NewService(nil, ""),
		config.DefaultPublishConfig(),
	)
}

func testUserWithToken(t *testing.T, client *ent.Client) *ent.User {
	t.Helper()
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	u, err := client.User.Create().
		SetID(uuid.New().String()).
		SetExternalID(uuid.New().String()).
		SetUsername("publish-test-user").
		SetAPIToken(uuid.New().String()).
		SetAccessToken("access-token-1").
		SetTokenExpiresAt(future).
		Save(ctx)
	require.NoError(t, err)
	return u
}

func TestOrchestrator_PublishTweet_Success(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()

	user := testUserWithToken(t, client.Client)
	tweets := services.NewTweetService(client.Client)

	tw, err := tweets.CreateTweet(ctx, models.CreateTweetRequest{
		UserID: user.ID,
		Text:   "hello world",
	})
	require.NoError(t, err)

	platform := &fakePlatformClient{}
	o := newTestOrchestrator(t, client.Client, platform)

	err = o.PublishTweet(ctx, tw.ID)
	require.NoError(t, err)

	posted, err := tweets.GetTweet(ctx, tw.ID)
	require.NoError(t, err)
	assert.Equal(t, "posted", string(posted.PublishStatus))
	assert.NotNil(t, posted.TweetExternalID)
	assert.Len(t, platform.postCalls, 1)
	assert.Equal(t, "hello world", platform.postCalls[0].text)
}

func TestOrchestrator_PublishTweet_MarksFailedOnPostError(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()

	user := testUserWithToken(t, client.Client)
	tweets := services.NewTweetService(client.Client)

	tw, err := tweets.CreateTweet(ctx, models.CreateTweetRequest{
		UserID: user.ID,
		Text:   "will fail",
	})
	require.NoError(t, err)

	platform := &fakePlatformClient{failPost: assert.AnError}
	o := newTestOrchestrator(t, client.Client, platform)

	err = o.PublishTweet(ctx, tw.ID)
	require.Error(t, err)

	failed, err := tweets.GetTweet(ctx, tw.ID)
	require.NoError(t, err)
	assert.Equal(t, "failed", string(failed.PublishStatus))
	assert.NotNil(t, failed.PublishError)
}

func TestOrchestrator_PublishTweet_AlreadyPostedIsNotFound(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()

	user := testUserWithToken(t, client.Client)
	tweets := services.NewTweetService(client.Client)

	tw, err := tweets.CreateTweet(ctx, models.CreateTweetRequest{UserID: user.ID, Text: "posted already"})
	require.NoError(t, err)
	_, err = tweets.ClaimForPublish(ctx, tw.ID)
	require.NoError(t, err)
	require.NoError(t, tweets.MarkPosted(ctx, tw.ID, "ext-1", ""))

	o := newTestOrchestrator(t, client.Client, &fakePlatformClient{})
	err = o.PublishTweet(ctx, tw.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestOrchestrator_PublishThread_AllSucceed(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()

	user := testUserWithToken(t, client.Client)
	threads := services.NewThreadService(client.Client)

	th, err := threads.CreateThread(ctx, models.CreateThreadRequest{
		UserID: user.ID,
		Tweets: []models.CreateTweetRequest{
			{UserID: user.ID, Text: "part one"},
			{UserID: user.ID, Text: "part two"},
		},
	})
	require.NoError(t, err)

	platform := &fakePlatformClient{}
	o := newTestOrchestrator(t, client.Client, platform)

	err = o.PublishThread(ctx, th.ID)
	require.NoError(t, err)

	posted, err := threads.GetThread(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, "posted", string(posted.Status))
	require.Len(t, platform.postCalls, 2)
	assert.Empty(t, platform.postCalls[0].replyTo)
	assert.NotEmpty(t, platform.postCalls[1].replyTo)
}

func TestOrchestrator_PublishThread_PartialFailure(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()

	user := testUserWithToken(t, client.Client)
	threads := services.NewThreadService(client.Client)

	th, err := threads.CreateThread(ctx, models.CreateThreadRequest{
		UserID: user.ID,
		Tweets: []models.CreateTweetRequest{
			{UserID: user.ID, Text: "part one"},
			{UserID: user.ID, Text: "part two"},
		},
	})
	require.NoError(t, err)

	platform := &failAfterNPlatformClient{failAfter: 1}
	o := newTestOrchestrator(t, client.Client, platform)

	err = o.PublishThread(ctx, th.ID)
	require.NoError(t, err)

	updated, err := threads.GetThread(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, "partial_failed", string(updated.Status))
}

// failAfterNPlatformClient posts successfully failAfter times, then fails
// every subsequent call, to exercise the thread publish break-on-error path.
type failAfterNPlatformClient struct {
	failAfter int
	calls     int
}

func (f *failAfterNPlatformClient) UploadImage(context.Context, string, []byte, string) (MediaUpload, error) {
	return MediaUpload{}, nil
}

func (f *failAfterNPlatformClient) UploadVideo(context.Context, string, []byte, string, ProgressFunc) (MediaUpload, error) {
	return MediaUpload{}, nil
}

func (f *failAfterNPlatformClient) PostTweet(_ context.Context, _, _ string, _ []string, _ string) (PostResult, error) {
	f.calls++
	if f.calls > f.failAfter {
		return PostResult{}, assert.AnError
	}
	return PostResult{ExternalID: uuid.New().String()}, nil
}
