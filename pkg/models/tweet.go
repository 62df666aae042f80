package models

import "github.com/codeready-toolchain/cleo/ent"

// CreateTweetRequest contains fields for the Collateral Agent's write_tweet
// tool call.
type CreateTweetRequest struct {
	RunID                string           `json:"run_id"`
	UserID               string           `json:"user_id"`
	Text                 string           `json:"text"`
	CopyOptions          []string         `json:"copy_options,omitempty"`
	ImageCaptureIDs      []string         `json:"image_capture_ids,omitempty"`
	VideoSourceCaptureID string           `json:"video_source_capture_id,omitempty"`
	VideoStartTimestamp  *float64         `json:"video_start_timestamp,omitempty"`
	VideoDurationSecs    *float64         `json:"video_duration_secs,omitempty"`
	MediaOptions         []map[string]any `json:"media_options,omitempty"`
	Rationale            string           `json:"rationale,omitempty"`
}

// UpdateTweetRequest allows a user to edit a pending draft's text/media.
type UpdateTweetRequest struct {
	Text            *string  `json:"text,omitempty"`
	ImageCaptureIDs []string `json:"image_capture_ids,omitempty"`
}

// TweetFilters contains filtering options for the Content Query.
type TweetFilters struct {
	UserID        string `json:"user_id,omitempty"`
	PublishStatus string `json:"publish_status,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// TweetResponse wraps a Tweet.
type TweetResponse struct {
	*ent.Tweet
}

// TweetListResponse contains a paginated tweet list.
type TweetListResponse struct {
	Tweets     []*ent.Tweet `json:"tweets"`
	TotalCount int          `json:"total_count"`
	Limit      int          `json:"limit"`
	Offset     int          `json:"offset"`
}
