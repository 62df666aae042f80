package models

import "github.com/codeready-toolchain/cleo/ent"

// CreateThreadRequest contains fields for the Collateral Agent's
// write_thread tool call.
type CreateThreadRequest struct {
	RunID       string   `json:"run_id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title,omitempty"`
	CopyOptions []string `json:"copy_options,omitempty"`
	Tweets      []CreateTweetRequest `json:"tweets"`
}

// ReorderThreadRequest gives the new tweet-id ordering for a draft thread.
type ReorderThreadRequest struct {
	TweetIDs []string `json:"tweet_ids"`
}

// ThreadFilters contains filtering options for the Content Query.
type ThreadFilters struct {
	UserID string `json:"user_id,omitempty"`
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ThreadResponse wraps a Thread with its ordered tweets.
type ThreadResponse struct {
	*ent.Thread
}

// ThreadListResponse contains a paginated thread list.
type ThreadListResponse struct {
	Threads    []*ent.Thread `json:"threads"`
	TotalCount int           `json:"total_count"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}
