package services

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/tweet"
	"github.com/codeready-toolchain/cleo/pkg/models"
	"github.com/google/uuid"
)

// TweetService manages draft and posted tweets produced by the Collateral Agent.
type TweetService struct {
	client *ent.Client
}

// NewTweetService creates a new TweetService.
func NewTweetService(client *ent.Client) *TweetService {
	return &TweetService{client: client}
}

// CreateTweet persists a draft tweet from a write_tweet tool call.
func (s *TweetService) CreateTweet(httpCtx context.Context, req models.CreateTweetRequest) (*ent.Tweet, error) {
	if req.UserID == "" {
		return nil, NewValidationError("user_id", "required")
	}
	if req.Text == "" {
		return nil, NewValidationError("text", "required")
	}
	if len(req.Text) > 280 {
		return nil, NewValidationError("text", "must be at most 280 characters")
	}
	if len(req.ImageCaptureIDs) > 4 {
		return nil, NewValidationError("image_capture_ids", "at most 4 images per tweet")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	builder := s.client.Tweet.Create().
		SetID(uuid.New().String()).
		SetUserID(req.UserID).
		SetText(req.Text).
		SetCreatedAt(time.Now())

	if len(req.CopyOptions) > 0 {
		builder = builder.SetCopyOptions(req.CopyOptions)
	}
	if len(req.ImageCaptureIDs) > 0 {
		builder = builder.SetImageCaptureIds(req.ImageCaptureIDs)
	}
	if req.VideoSourceCaptureID != "" {
		builder = builder.SetVideoSourceCaptureID(req.VideoSourceCaptureID)
	}
	if req.VideoStartTimestamp != nil {
		builder = builder.SetVideoStartTimestamp(*req.VideoStartTimestamp)
	}
	if req.VideoDurationSecs != nil {
		builder = builder.SetVideoDurationSecs(*req.VideoDurationSecs)
	}
	if len(req.MediaOptions) > 0 {
		builder = builder.SetMediaOptions(req.MediaOptions)
	}
	if req.Rationale != "" {
		builder = builder.SetRationale(req.Rationale)
	}

	tw, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create tweet: %w", err)
	}

	return tw, nil
}

// GetTweet retrieves a tweet by ID.
func (s *TweetService) GetTweet(ctx context.Context, tweetID string) (*ent.Tweet, error) {
	tw, err := s.client.Tweet.Get(ctx, tweetID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tweet: %w", err)
	}
	return tw, nil
}

// ListTweets lists a user's tweets with optional publish-status filtering,
// for the Content Query feed.
func (s *TweetService) ListTweets(ctx context.Context, filters models.TweetFilters) (*models.TweetListResponse, error) {
	query := s.client.Tweet.Query()

	if filters.UserID != "" {
		query = query.Where(tweet.UserIDEQ(filters.UserID))
	}
	if filters.PublishStatus != "" {
		query = query.Where(tweet.PublishStatusEQ(tweet.PublishStatus(filters.PublishStatus)))
	}

	totalCount, err := query.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count tweets: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	tweets, err := query.
		Limit(limit).
		Offset(offset).
		Order(ent.Desc(tweet.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tweets: %w", err)
	}

	return &models.TweetListResponse{
		Tweets:     tweets,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// UpdateTweet edits a draft's text and image list. Only a tweet whose
// publish status is pending may be edited; whether it belongs to a thread,
// and that thread's status, are not checked.
func (s *TweetService) UpdateTweet(ctx context.Context, tweetID string, req models.UpdateTweetRequest) (*ent.Tweet, error) {
	existing, err := s.GetTweet(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if existing.PublishStatus != tweet.PublishStatusPending {
		return nil, ErrInvalidInput
	}

	update := existing.Update()
	if req.Text != nil {
		if len(*req.Text) > 280 {
			return nil, NewValidationError("text", "must be at most 280 characters")
		}
		update = update.SetText(*req.Text)
	}
	if req.ImageCaptureIDs != nil {
		if len(req.ImageCaptureIDs) > 4 {
			return nil, NewValidationError("image_capture_ids", "at most 4 images per tweet")
		}
		update = update.SetImageCaptureIds(req.ImageCaptureIDs)
	}

	updated, err := update.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update tweet: %w", err)
	}
	return updated, nil
}

// ClaimForPublish atomically transitions a pending tweet to posting, so the
// Publish Orchestrator claims it exclusively.
func (s *TweetService) ClaimForPublish(ctx context.Context, tweetID string) (*ent.Tweet, error) {
	claimCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := s.client.Tx(claimCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	count, err := tx.Tweet.Update().
		Where(
			tweet.IDEQ(tweetID),
			tweet.PublishStatusEQ(tweet.PublishStatusPending),
		).
		SetPublishStatus(tweet.PublishStatusPosting).
		AddPublishAttempts(1).
		Save(claimCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to claim tweet for publish: %w", err)
	}
	if count == 0 {
		return nil, ErrConcurrentModification
	}

	claimed, err := tx.Tweet.Get(claimCtx, tweetID)
	if err != nil {
		return nil, fmt.Errorf("failed to refetch claimed tweet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	return claimed, nil
}

// MarkPosted records a successful publish.
func (s *TweetService) MarkPosted(ctx context.Context, tweetID, externalID string, replyToTweetID string) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := s.client.Tweet.UpdateOneID(tweetID).
		SetPublishStatus(tweet.PublishStatusPosted).
		SetTweetExternalID(externalID).
		SetPostedAt(time.Now())
	if replyToTweetID != "" {
		update = update.SetReplyToTweetID(replyToTweetID)
	}

	if err := update.Exec(writeCtx); err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to mark tweet posted: %w", err)
	}
	return nil
}

// MarkFailed records a publish failure and releases the posting claim.
func (s *TweetService) MarkFailed(ctx context.Context, tweetID, errMsg string) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.client.Tweet.UpdateOneID(tweetID).
		SetPublishStatus(tweet.PublishStatusFailed).
		SetPublishError(errMsg).
		SetPublishErrorAt(time.Now()).
		Exec(writeCtx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to mark tweet failed: %w", err)
	}
	return nil
}

// Dismiss marks a draft tweet as dismissed by the user, removing it from
// the publish queue without posting it.
func (s *TweetService) Dismiss(ctx context.Context, tweetID string) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.client.Tweet.UpdateOneID(tweetID).
		SetPublishStatus(tweet.PublishStatusDismissed).
		SetDismissedAt(time.Now()).
		Exec(writeCtx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to dismiss tweet: %w", err)
	}
	return nil
}

// SearchTweets performs a full-text search over tweet text and rationale,
// backed by the GIN indexes pkg/database creates.
func (s *TweetService) SearchTweets(ctx context.Context, userID, query string, limit int) ([]*ent.Tweet, error) {
	if limit <= 0 {
		limit = 20
	}

	tweets, err := s.client.Tweet.Query().
		Where(
			tweet.UserIDEQ(userID),
			func(sel *sql.Selector) {
				sel.Where(sql.ExprP(
					"to_tsvector('english', text) @@ plainto_tsquery($1) OR to_tsvector('english', COALESCE(rationale, '')) @@ plainto_tsquery($1)",
					query,
				))
			},
		).
		Limit(limit).
		Order(ent.Desc(tweet.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search tweets: %w", err)
	}

	return tweets, nil
}
