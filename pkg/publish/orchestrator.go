package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/pkg/config"
	"github.com/codeready-toolchain/cleo/pkg/models"
	"github.com/codeready-toolchain/cleo/pkg/notify"
	"github.com/codeready-toolchain/cleo/pkg/services"
	"github.com/codeready-toolchain/cleo/pkg/storage"
)

// staleRunningClaim is not read anywhere: TweetService.ClaimForPublish
// claims only pending tweets, so a tweet left in the posting state is not
// re-claimed, however old its claim.
const staleRunningClaim = 30 * time.Minute

// TokenRefresher exchanges a refresh token for a fresh access token against
// the external platform's OAuth endpoint.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken string, expiresInSecs int, err error)
}

// Orchestrator drives the publish state machines for single tweets and
// threads, wrapping TweetService/ThreadService's atomic claim/mark
// primitives around the external platform calls they don't perform.
type Orchestrator struct {
	tweets   *services.TweetService
	threads  *services.ThreadService
	users    *services.UserService
	captures *services.CaptureService
	store    storage.Store
	platform PlatformClient
	refresh  TokenRefresher
	notifier *notify.Service
	cfg      *config.PublishConfig
	logger   *slog.Logger
}

// NewOrchestrator wires an Orchestrator from its dependencies.
func NewOrchestrator(
	tweets *services.TweetService,
	threads *services.ThreadService,
	users *services.UserService,
	captures *services.CaptureService,
	store storage.Store,
	platform PlatformClient,
	refresh TokenRefresher,
	notifier *notify.Service,
	cfg *config.PublishConfig,
) *Orchestrator {
	return &Orchestrator{
		tweets:   tweets,
		threads:  threads,
		users:    users,
		captures: captures,
		store:    store,
		platform: platform,
		refresh:  refresh,
		notifier: notifier,
		cfg:      cfg,
		logger:   slog.Default().With("component", "publish-orchestrator"),
	}
}

// PublishTweet runs the single-tweet publish flow described at package
// level: validate, claim, ensure token, upload media, post, mark posted.
func (o *Orchestrator) PublishTweet(ctx context.Context, tweetID string) error {
	return o.publishOne(ctx, nil, tweetID, "")
}

// publishOne claims and posts a single tweet. If progress is non-nil, media
// upload progress is reported through it (used by the WebSocket variant).
// replyToExternalID, if non-empty, threads the post as a reply.
func (o *Orchestrator) publishOne(ctx context.Context, progress ProgressFunc, tweetID, replyToExternalID string) error {
	tw, err := o.tweets.GetTweet(ctx, tweetID)
	if err != nil {
		return fmt.Errorf("tweet lookup failed: %w", err)
	}
	if tw.PostedAt != nil || tw.DismissedAt != nil {
		return services.ErrNotFound
	}

	claimed, err := o.tweets.ClaimForPublish(ctx, tweetID)
	if err != nil {
		return err
	}

	user, err := o.users.GetUser(ctx, claimed.UserID)
	if err != nil {
		markErr := o.tweets.MarkFailed(ctx, tweetID, err.Error())
		return combineErrors(fmt.Errorf("user lookup failed: %w", err), markErr)
	}

	accessToken, err := o.ensureAccessToken(ctx, user)
	if err != nil {
		markErr := o.tweets.MarkFailed(ctx, tweetID, err.Error())
		return combineErrors(err, markErr)
	}

	mediaIDs, err := o.uploadTweetMedia(ctx, accessToken, claimed, progress)
	if err != nil {
		markErr := o.tweets.MarkFailed(ctx, tweetID, err.Error())
		return combineErrors(err, markErr)
	}

	result, err := o.platform.PostTweet(ctx, accessToken, claimed.Text, mediaIDs, replyToExternalID)
	if err != nil {
		markErr := o.tweets.MarkFailed(ctx, tweetID, err.Error())
		return combineErrors(err, markErr)
	}

	if err := o.tweets.MarkPosted(ctx, tweetID, result.ExternalID, replyToExternalID); err != nil {
		return fmt.Errorf("failed to record posted tweet (external id %s already created): %w", result.ExternalID, err)
	}

	return nil
}

// uploadTweetMedia uploads a tweet's video or up to 4 images, returning
// external media ids in attach order.
func (o *Orchestrator) uploadTweetMedia(ctx context.Context, accessToken string, tw *ent.Tweet, progress ProgressFunc) ([]string, error) {
	if tw.VideoSourceCaptureID != nil && *tw.VideoSourceCaptureID != "" {
		data, mimeType, err := o.readCapture(ctx, *tw.VideoSourceCaptureID)
		if err != nil {
			return nil, err
		}
		upload, err := o.platform.UploadVideo(ctx, accessToken, data, mimeType, progress)
		if err != nil {
			return nil, err
		}
		return []string{upload.MediaID}, nil
	}

	var mediaIDs []string
	for _, captureID := range tw.ImageCaptureIds {
		data, mimeType, err := o.readCapture(ctx, captureID)
		if err != nil {
			return nil, err
		}
		upload, err := o.platform.UploadImage(ctx, accessToken, data, mimeType)
		if err != nil {
			return nil, err
		}
		mediaIDs = append(mediaIDs, upload.MediaID)
	}
	return mediaIDs, nil
}

func (o *Orchestrator) readCapture(ctx context.Context, captureID string) (data []byte, mimeType string, err error) {
	row, err := o.captures.GetCapture(ctx, captureID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up capture %s: %w", captureID, err)
	}

	r, err := o.store.Get(ctx, row.StoragePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open capture %s: %w", captureID, err)
	}
	defer r.Close()

	data, err = io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read capture %s: %w", captureID, err)
	}
	return data, row.MimeType, nil
}

// ensureAccessToken returns a valid access token for user, refreshing it
// first if it has expired.
func (o *Orchestrator) ensureAccessToken(ctx context.Context, user *ent.User) (string, error) {
	if user.TokenExpiresAt == nil || user.TokenExpiresAt.After(time.Now()) {
		if user.AccessToken != nil {
			return *user.AccessToken, nil
		}
	}

	if user.RefreshToken == nil || *user.RefreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token on file")
	}

	accessToken, expiresIn, err := o.refresh.Refresh(ctx, *user.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}

	updateReq := models.UpdateUserTokensRequest{
		AccessToken:   accessToken,
		ExpiresInSecs: expiresIn,
	}
	if err := o.users.UpdateTokens(ctx, user.ID, updateReq); err != nil {
		o.logger.Warn("Failed to persist refreshed access token", "user_id", user.ID, "error", err)
	}

	return accessToken, nil
}

// PublishThread marks a draft thread posting, then posts its not-yet-posted
// tweets in position order, each as a reply to the one before it (the first
// replies to the last tweet already posted, if any), and stops at the first
// upload or post failure. It records every tweet that went out, then marks
// the thread posted if all of them did and partial_failed otherwise.
func (o *Orchestrator) PublishThread(ctx context.Context, threadID string) error {
	th, err := o.threads.GetThread(ctx, threadID)
	if err != nil {
		return fmt.Errorf("thread lookup failed: %w", err)
	}

	if err := o.threads.MarkPosting(ctx, threadID); err != nil {
		return err
	}

	user, err := o.users.GetUser(ctx, th.UserID)
	if err != nil {
		return o.failThread(ctx, threadID, fmt.Errorf("user lookup failed: %w", err))
	}
	accessToken, err := o.ensureAccessToken(ctx, user)
	if err != nil {
		return o.failThread(ctx, threadID, err)
	}

	pending := pendingTweetsInOrder(th)

	replyTo := lastPostedExternalID(th)
	type posted struct {
		tweetID    string
		externalID string
	}
	var succeeded []posted

	for _, tw := range pending {
		mediaIDs, err := o.uploadTweetMedia(ctx, accessToken, tw, nil)
		if err != nil {
			o.logger.Error("Thread media upload failed, halting thread publish", "thread_id", threadID, "tweet_id", tw.ID, "error", err)
			break
		}
		result, err := o.platform.PostTweet(ctx, accessToken, tw.Text, mediaIDs, replyTo)
		if err != nil {
			o.logger.Error("Thread tweet post failed, halting thread publish", "thread_id", threadID, "tweet_id", tw.ID, "error", err)
			break
		}
		succeeded = append(succeeded, posted{tweetID: tw.ID, externalID: result.ExternalID})
		replyTo = result.ExternalID
	}

	for _, p := range succeeded {
		if err := o.tweets.MarkPosted(ctx, p.tweetID, p.externalID, ""); err != nil {
			o.logger.Error("Failed to record posted thread tweet", "thread_id", threadID, "tweet_id", p.tweetID, "external_id", p.externalID, "error", err)
		}
	}

	if len(succeeded) == len(pending) {
		firstExternalID := th.FirstTweetExternalID
		if firstExternalID == nil || *firstExternalID == "" {
			if len(succeeded) > 0 {
				first := succeeded[0].externalID
				firstExternalID = &first
			}
		}
		var first string
		if firstExternalID != nil {
			first = *firstExternalID
		}
		if err := o.threads.MarkPosted(ctx, threadID, first); err != nil {
			return fmt.Errorf("failed to mark thread posted: %w", err)
		}
		return nil
	}

	if err := o.threads.MarkPartialFailed(ctx, threadID); err != nil {
		return fmt.Errorf("failed to mark thread partial failed: %w", err)
	}
	if len(succeeded) > 0 {
		o.notifier.NotifyOpsFailure(ctx, "thread-publish", th.UserID,
			fmt.Sprintf("thread %s partially failed after posting %d/%d tweets; external ids left in place require manual review", threadID, len(succeeded), len(pending)))
	}
	return nil
}

func (o *Orchestrator) failThread(ctx context.Context, threadID string, cause error) error {
	if err := o.threads.MarkPartialFailed(ctx, threadID); err != nil {
		o.logger.Error("Failed to mark thread partial failed after early error", "thread_id", threadID, "error", err)
	}
	return cause
}

func pendingTweetsInOrder(th *ent.Thread) []*ent.Tweet {
	var pending []*ent.Tweet
	for _, tw := range th.Edges.Tweets {
		if tw.PostedAt == nil {
			pending = append(pending, tw)
		}
	}
	return pending
}

func lastPostedExternalID(th *ent.Thread) string {
	var last string
	for _, tw := range th.Edges.Tweets {
		if tw.PostedAt != nil && tw.TweetExternalID != nil {
			last = *tw.TweetExternalID
		}
	}
	return last
}

func combineErrors(primary, secondary error) error {
	if secondary != nil {
		return fmt.Errorf("%w (also failed to mark failed: %v)", primary, secondary)
	}
	return primary
}

// httpTokenRefresher is the default TokenRefresher, exchanging a refresh
// token for an access token via a standard OAuth2 token endpoint POST. No
// repo in the retrieval pack imports golang.org/x/oauth2, and a single
// refresh-grant request doesn't warrant adding it as a dependency, so this
// is a direct net/http call.
type httpTokenRefresher struct {
	tokenURL     string
	clientID     string
	clientSecret string
}

// NewHTTPTokenRefresher creates a TokenRefresher against the external
// platform's OAuth token endpoint, reading the client secret from env.
func NewHTTPTokenRefresher(tokenURL, clientID, clientSecretEnv string) TokenRefresher {
	return &httpTokenRefresher{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: os.Getenv(clientSecretEnv),
	}
}

// Refresh exchanges refreshToken for a fresh access token via a standard
// OAuth2 refresh_token grant.
func (r *httpTokenRefresher) Refresh(ctx context.Context, refreshToken string) (string, int, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {r.clientID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if r.clientSecret != "" {
		req.SetBasicAuth(r.clientID, r.clientSecret)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", 0, fmt.Errorf("token refresh returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, fmt.Errorf("failed to decode token refresh response: %w", err)
	}

	return body.AccessToken, body.ExpiresIn, nil
}
