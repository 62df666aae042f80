package notify

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/codeready-toolchain/cleo/pkg/config"
)

// Service dispatches ops alerts and device push notifications. Both
// delivery paths are nil-safe: a Service built from a disabled config still
// satisfies callers, it just drops everything silently after logging.
type Service struct {
	ops          *SlackClient
	push         *WebhookClient
	dashboardURL string
	logger       *slog.Logger
}

// NewService builds a notification Service from resolved config. cfg.Channel
// doubles as the Slack channel ID for ops alerts and the webhook URL for
// device push; cfg.TokenEnv names the env var holding either credential.
func NewService(cfg *config.NotifyConfig, dashboardURL string) *Service {
	logger := slog.Default().With("component", "notify-service")

	if cfg == nil || !cfg.Enabled || cfg.Channel == "" {
		return &Service{dashboardURL: dashboardURL, logger: logger}
	}

	token := os.Getenv(cfg.TokenEnv)

	svc := &Service{dashboardURL: dashboardURL, logger: logger}
	if looksLikeURL(cfg.Channel) {
		svc.push = NewWebhookClient(cfg.Channel, token)
	} else {
		svc.ops = NewSlackClient(token, cfg.Channel)
	}
	return svc
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// NotifyDraftsReady enqueues a device push for userID after a scheduled run
// produces one or more drafts. Fail-open: delivery errors are logged, never
// returned, since a missed push must not fail the run that produced it.
func (s *Service) NotifyDraftsReady(ctx context.Context, userID string, draftCount int) {
	if s == nil || s.push == nil || draftCount < 1 {
		return
	}
	if err := s.push.Send(ctx, userID, draftCount, s.dashboardURL); err != nil {
		s.logger.Warn("Failed to send drafts-ready push", "user_id", userID, "draft_count", draftCount, "error", err)
	}
}

// NotifyOpsFailure posts an operational failure to the ops Slack channel.
// Fail-open: delivery errors are logged, never returned.
func (s *Service) NotifyOpsFailure(ctx context.Context, component, userID, message string) {
	if s == nil || s.ops == nil {
		return
	}
	blocks := BuildOpsAlertMessage(component, userID, message, s.dashboardURL)
	if err := s.ops.PostMessage(ctx, blocks, 10*time.Second); err != nil {
		s.logger.Error("Failed to send ops alert", "component", component, "error", err)
	}
}
