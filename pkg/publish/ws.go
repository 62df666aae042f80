package publish

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

// progressMessage is one frame of the publish progress WebSocket variant:
// uploading{segment,total,percent} | processing | posting | complete{tweet_id,text} | error{message}.
type progressMessage struct {
	Type    string  `json:"type"`
	Segment int     `json:"segment,omitempty"`
	Total   int     `json:"total,omitempty"`
	Percent float64 `json:"percent,omitempty"`
	TweetID string  `json:"tweet_id,omitempty"`
	Text    string  `json:"text,omitempty"`
	Message string  `json:"message,omitempty"`
}

const wsWriteTimeout = 5 * time.Second

// PublishTweetWithProgress runs the single-tweet publish flow, streaming
// media-upload and posting progress over conn until the publish completes
// or fails.
func (o *Orchestrator) PublishTweetWithProgress(ctx context.Context, conn *websocket.Conn, tweetID string) {
	send := func(msg progressMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
		defer cancel()
		if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
			slog.Warn("Failed to write publish progress frame", "tweet_id", tweetID, "error", err)
		}
	}

	progress := func(segment, total int) {
		percent := 0.0
		if total > 0 {
			percent = float64(segment) / float64(total) * 100
		}
		if segment < total {
			send(progressMessage{Type: "uploading", Segment: segment, Total: total, Percent: percent})
		} else {
			send(progressMessage{Type: "processing"})
		}
	}

	tw, err := o.tweets.GetTweet(ctx, tweetID)
	if err != nil {
		send(progressMessage{Type: "error", Message: err.Error()})
		return
	}

	send(progressMessage{Type: "posting"})

	if err := o.publishOneWithProgress(ctx, progress, tweetID); err != nil {
		send(progressMessage{Type: "error", Message: err.Error()})
		return
	}

	posted, err := o.tweets.GetTweet(ctx, tweetID)
	if err != nil {
		send(progressMessage{Type: "error", Message: err.Error()})
		return
	}

	externalID := ""
	if posted.TweetExternalID != nil {
		externalID = *posted.TweetExternalID
	}
	send(progressMessage{Type: "complete", TweetID: externalID, Text: tw.Text})
}

// publishOneWithProgress is PublishTweet with a caller-supplied media
// progress callback, exported internally for the WebSocket handler.
func (o *Orchestrator) publishOneWithProgress(ctx context.Context, progress ProgressFunc, tweetID string) error {
	return o.publishOne(ctx, progress, tweetID, "")
}
