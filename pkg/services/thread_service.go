package services

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/thread"
	"github.com/codeready-toolchain/cleo/ent/tweet"
	"github.com/codeready-toolchain/cleo/pkg/models"
	"github.com/google/uuid"
)

// ThreadService manages draft and posted threads: an ordered, dense
// sequence of tweets produced together by the Collateral Agent.
type ThreadService struct {
	client *ent.Client
}

// NewThreadService creates a new ThreadService.
func NewThreadService(client *ent.Client) *ThreadService {
	return &ThreadService{client: client}
}

// CreateThread persists a draft thread and its member tweets in order,
// from a write_thread tool call.
func (s *ThreadService) CreateThread(httpCtx context.Context, req models.CreateThreadRequest) (*ent.Thread, error) {
	if req.UserID == "" {
		return nil, NewValidationError("user_id", "required")
	}
	if len(req.Tweets) == 0 {
		return nil, NewValidationError("tweets", "a thread must contain at least one tweet")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	threadBuilder := tx.Thread.Create().
		SetID(uuid.New().String()).
		SetUserID(req.UserID).
		SetCreatedAt(time.Now())
	if req.Title != "" {
		threadBuilder = threadBuilder.SetTitle(req.Title)
	}
	if len(req.CopyOptions) > 0 {
		threadBuilder = threadBuilder.SetCopyOptions(req.CopyOptions)
	}

	th, err := threadBuilder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	for position, tweetReq := range req.Tweets {
		if len(tweetReq.Text) > 280 {
			return nil, NewValidationError("text", fmt.Sprintf("tweet at position %d must be at most 280 characters", position))
		}

		tweetBuilder := tx.Tweet.Create().
			SetID(uuid.New().String()).
			SetUserID(req.UserID).
			SetText(tweetReq.Text).
			SetThreadID(th.ID).
			SetThreadPosition(position).
			SetCreatedAt(time.Now())

		if len(tweetReq.CopyOptions) > 0 {
			tweetBuilder = tweetBuilder.SetCopyOptions(tweetReq.CopyOptions)
		}
		if len(tweetReq.ImageCaptureIDs) > 0 {
			tweetBuilder = tweetBuilder.SetImageCaptureIds(tweetReq.ImageCaptureIDs)
		}
		if tweetReq.VideoSourceCaptureID != "" {
			tweetBuilder = tweetBuilder.SetVideoSourceCaptureID(tweetReq.VideoSourceCaptureID)
		}
		if tweetReq.Rationale != "" {
			tweetBuilder = tweetBuilder.SetRationale(tweetReq.Rationale)
		}

		if _, err := tweetBuilder.Save(ctx); err != nil {
			return nil, fmt.Errorf("failed to create thread tweet at position %d: %w", position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit thread: %w", err)
	}

	return th, nil
}

// GetThread retrieves a thread with its ordered tweets.
func (s *ThreadService) GetThread(ctx context.Context, threadID string) (*ent.Thread, error) {
	th, err := s.client.Thread.Query().
		Where(thread.IDEQ(threadID)).
		WithTweets(func(q *ent.TweetQuery) {
			q.Order(ent.Asc(tweet.FieldThreadPosition))
		}).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return th, nil
}

// ListThreads lists a user's threads with optional status filtering.
func (s *ThreadService) ListThreads(ctx context.Context, filters models.ThreadFilters) (*models.ThreadListResponse, error) {
	query := s.client.Thread.Query()

	if filters.UserID != "" {
		query = query.Where(thread.UserIDEQ(filters.UserID))
	}
	if filters.Status != "" {
		query = query.Where(thread.StatusEQ(thread.Status(filters.Status)))
	}

	totalCount, err := query.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count threads: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	threads, err := query.
		Limit(limit).
		Offset(offset).
		Order(ent.Desc(thread.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	return &models.ThreadListResponse{
		Threads:    threads,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// Reorder rewrites the dense 0..N-1 position sequence for a draft thread's
// tweets. Only a draft thread may be reordered.
func (s *ThreadService) Reorder(httpCtx context.Context, threadID string, req models.ReorderThreadRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	th, err := s.client.Thread.Get(ctx, threadID)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get thread: %w", err)
	}
	if th.Status != thread.StatusDraft {
		return ErrInvalidInput
	}

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for position, tweetID := range req.TweetIDs {
		count, err := tx.Tweet.Update().
			Where(
				tweet.IDEQ(tweetID),
				tweet.ThreadIDEQ(threadID),
			).
			SetThreadPosition(position).
			Save(ctx)
		if err != nil {
			return fmt.Errorf("failed to reposition tweet %s: %w", tweetID, err)
		}
		if count == 0 {
			return ErrNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}

	return nil
}

// MarkPosting transitions a draft thread into the publishing state.
func (s *ThreadService) MarkPosting(ctx context.Context, threadID string) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := s.client.Thread.Update().
		Where(
			thread.IDEQ(threadID),
			thread.StatusEQ(thread.StatusDraft),
		).
		SetStatus(thread.StatusPosting).
		Save(writeCtx)
	if err != nil {
		return fmt.Errorf("failed to mark thread posting: %w", err)
	}
	if count == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// MarkPosted records a fully successful thread publish.
func (s *ThreadService) MarkPosted(ctx context.Context, threadID, firstTweetExternalID string) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.client.Thread.UpdateOneID(threadID).
		SetStatus(thread.StatusPosted).
		SetPostedAt(time.Now()).
		SetFirstTweetExternalID(firstTweetExternalID).
		Exec(writeCtx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to mark thread posted: %w", err)
	}
	return nil
}

// MarkPartialFailed records that some but not all tweets in the thread
// posted, leaving a gap the user must resolve manually.
func (s *ThreadService) MarkPartialFailed(ctx context.Context, threadID string) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.client.Thread.UpdateOneID(threadID).
		SetStatus(thread.StatusPartialFailed).
		Exec(writeCtx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to mark thread partial failed: %w", err)
	}
	return nil
}
