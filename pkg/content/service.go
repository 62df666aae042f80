// Package content implements the unified content feed: a single
// chronological list mixing standalone tweets and threads, backed by a
// UNION query so pagination happens at the database layer instead of in
// application code.
package content

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/thread"
	"github.com/codeready-toolchain/cleo/ent/tweet"
)

// Kind discriminates the two row types a feed item can wrap.
type Kind string

const (
	KindTweet  Kind = "tweet"
	KindThread Kind = "thread"
)

// Status is the caller-facing filter; it maps onto each table's own
// publish_status/status columns independently since the two don't share
// a vocabulary.
type Status string

const (
	StatusPending Status = "pending"
	StatusPosted  Status = "posted"
	StatusAll     Status = "all"
)

// Item is one row of the unified feed, resolved to its full backing record.
type Item struct {
	Kind      Kind
	CreatedAt time.Time
	Tweet     *ent.Tweet
	Thread    *ent.Thread
}

// Feed is a paginated page of the unified content feed.
type Feed struct {
	Items      []Item `json:"items"`
	TotalCount int    `json:"total_count"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// Service answers "all content" queries by issuing a raw SQL UNION across
// the tweets and threads tables, then batch-fetching the matched rows
// through ent so callers still get fully typed, edge-loaded records.
type Service struct {
	db     *stdsql.DB
	client *ent.Client
}

// NewService builds a content Service. db must share the same underlying
// connection as client; it is used only for the UNION/pagination query.
func NewService(db *stdsql.DB, client *ent.Client) *Service {
	return &Service{db: db, client: client}
}

type feedRow struct {
	id        string
	kind      Kind
	createdAt time.Time
}

// tweetStatusClause and threadStatusClause translate the caller's Status
// into each table's own vocabulary. A standalone tweet only ever reaches
// "posted" once posted_at is set; a thread counts as posted once it is
// fully posted OR partially posted, since both leave it out of the
// pending queue.
func tweetStatusClause(status Status) string {
	switch status {
	case StatusPending:
		return "publish_status = 'pending'"
	case StatusPosted:
		return "publish_status = 'posted'"
	default:
		return "TRUE"
	}
}

func threadStatusClause(status Status) string {
	switch status {
	case StatusPending:
		return "status = 'draft'"
	case StatusPosted:
		return "status IN ('posted', 'partial_failed')"
	default:
		return "TRUE"
	}
}

// ListContent returns a page of the unified feed for userID, newest first.
// Standalone tweets (thread_id IS NULL) and threads are unioned; tweets
// that belong to a thread are represented only through that thread.
func (s *Service) ListContent(ctx context.Context, userID string, status Status, limit, offset int) (*Feed, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	unionSQL := fmt.Sprintf(`
		SELECT tweet_id AS id, 'tweet' AS kind, created_at FROM tweets
			WHERE user_id = $1 AND thread_id IS NULL AND (%s)
		UNION ALL
		SELECT thread_id AS id, 'thread' AS kind, created_at FROM threads
			WHERE user_id = $1 AND (%s)
	`, tweetStatusClause(status), threadStatusClause(status))

	var total int
	countSQL := fmt.Sprintf(`SELECT count(*) FROM (%s) AS feed`, unionSQL)
	if err := s.db.QueryRowContext(ctx, countSQL, userID).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count content feed: %w", err)
	}

	pageSQL := fmt.Sprintf(`%s ORDER BY created_at DESC LIMIT $2 OFFSET $3`, unionSQL)
	rows, err := s.db.QueryContext(ctx, pageSQL, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query content feed: %w", err)
	}
	defer rows.Close()

	var ordered []feedRow
	for rows.Next() {
		var r feedRow
		if err := rows.Scan(&r.id, &r.kind, &r.createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan content feed row: %w", err)
		}
		ordered = append(ordered, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate content feed rows: %w", err)
	}

	items, err := s.hydrate(ctx, ordered)
	if err != nil {
		return nil, err
	}

	return &Feed{Items: items, TotalCount: total, Limit: limit, Offset: offset}, nil
}

// hydrate batch-fetches the full tweet/thread rows the UNION matched and
// reassembles them in the original, already-paginated order.
func (s *Service) hydrate(ctx context.Context, rows []feedRow) ([]Item, error) {
	var tweetIDs, threadIDs []string
	for _, r := range rows {
		switch r.kind {
		case KindTweet:
			tweetIDs = append(tweetIDs, r.id)
		case KindThread:
			threadIDs = append(threadIDs, r.id)
		}
	}

	tweetsByID := make(map[string]*ent.Tweet, len(tweetIDs))
	if len(tweetIDs) > 0 {
		tweets, err := s.client.Tweet.Query().Where(tweet.IDIn(tweetIDs...)).All(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to hydrate tweets: %w", err)
		}
		for _, tw := range tweets {
			tweetsByID[tw.ID] = tw
		}
	}

	threadsByID := make(map[string]*ent.Thread, len(threadIDs))
	if len(threadIDs) > 0 {
		threads, err := s.client.Thread.Query().
			Where(thread.IDIn(threadIDs...)).
			WithTweets().
			All(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to hydrate threads: %w", err)
		}
		for _, th := range threads {
			threadsByID[th.ID] = th
		}
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		switch r.kind {
		case KindTweet:
			tw, ok := tweetsByID[r.id]
			if !ok {
				continue
			}
			items = append(items, Item{Kind: KindTweet, CreatedAt: r.createdAt, Tweet: tw})
		case KindThread:
			th, ok := threadsByID[r.id]
			if !ok {
				continue
			}
			items = append(items, Item{Kind: KindThread, CreatedAt: r.createdAt, Thread: th})
		}
	}
	return items, nil
}
