// Package cleanup provides data retention and cleanup services.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/cleo/pkg/config"
	"github.com/codeready-toolchain/cleo/pkg/services"
)

// Service periodically enforces retention policies:
//   - Soft-deletes old, fully processed captures
//   - Removes orphaned Event rows past their TTL
//   - Removes abandoned OAuth login states
//   - Removes expired refresh tokens
//
// All operations are idempotent and safe to run from multiple pods.
type Service struct {
	config         *config.RetentionConfig
	captureService *services.CaptureService
	eventService   *services.EventService
	oauthService   *services.OAuthService
	tokenService   *services.TokenService

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(
	cfg *config.RetentionConfig,
	captureService *services.CaptureService,
	eventService *services.EventService,
	oauthService *services.OAuthService,
	tokenService *services.TokenService,
) *Service {
	return &Service{
		config:         cfg,
		captureService: captureService,
		eventService:   eventService,
		oauthService:   oauthService,
		tokenService:   tokenService,
	}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started",
		"capture_retention_days", s.config.CaptureRetentionDays,
		"event_ttl", s.config.EventTTL,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.softDeleteOldCaptures(ctx)
	s.cleanupOrphanedEvents(ctx)
	s.cleanupExpiredOAuthStates(ctx)
	s.cleanupExpiredRefreshTokens(ctx)
}

func (s *Service) softDeleteOldCaptures(_ context.Context) {
	count, err := s.captureService.SoftDeleteOldCaptures(context.Background(), s.config.CaptureRetentionDays)
	if err != nil {
		slog.Error("Retention: soft-delete captures failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: soft-deleted old captures", "count", count)
	}
}

func (s *Service) cleanupOrphanedEvents(_ context.Context) {
	count, err := s.eventService.CleanupOrphanedEvents(context.Background(), s.config.EventTTL)
	if err != nil {
		slog.Error("Retention: event cleanup failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: cleaned up orphaned events", "count", count)
	}
}

func (s *Service) cleanupExpiredOAuthStates(_ context.Context) {
	count, err := s.oauthService.CleanupExpiredStates(context.Background())
	if err != nil {
		slog.Error("Retention: oauth state cleanup failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: cleaned up expired oauth states", "count", count)
	}
}

func (s *Service) cleanupExpiredRefreshTokens(_ context.Context) {
	count, err := s.tokenService.CleanupExpiredTokens(context.Background())
	if err != nil {
		slog.Error("Retention: refresh token cleanup failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: cleaned up expired refresh tokens", "count", count)
	}
}
