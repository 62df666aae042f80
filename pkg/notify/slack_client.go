// Package notify delivers two kinds of alert: an ops-channel Slack post for
// operational failures (a thread publish that stops after posting only some
// of its tweets) and a device push
// notification to the owning user when an agent run produces fresh drafts.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goslack "github.com/slack-go/slack"
)

// SlackClient is a thin wrapper around the slack-go SDK for posting ops
// alerts to a single configured channel.
type SlackClient struct {
	api       *goslack.Client
	channelID string
	logger    *slog.Logger
}

// NewSlackClient creates a Slack API client bound to channelID.
func NewSlackClient(token, channelID string) *SlackClient {
	return &SlackClient{
		api:       goslack.New(token),
		channelID: channelID,
		logger:    slog.Default().With("component", "notify-slack-client"),
	}
}

// NewSlackClientWithAPIURL targets a custom API URL, for testing against a mock server.
func NewSlackClientWithAPIURL(token, channelID, apiURL string) *SlackClient {
	return &SlackClient{
		api:       goslack.New(token, goslack.OptionAPIURL(apiURL)),
		channelID: channelID,
		logger:    slog.Default().With("component", "notify-slack-client"),
	}
}

// PostMessage sends blocks to the configured ops channel.
func (c *SlackClient) PostMessage(ctx context.Context, blocks []goslack.Block, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, _, err := c.api.PostMessageContext(ctx, c.channelID, goslack.MsgOptionBlocks(blocks...))
	if err != nil {
		return fmt.Errorf("chat.postMessage failed: %w", err)
	}
	return nil
}
