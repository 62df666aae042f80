// Package api wires cleo's HTTP surface: capture ingest, the unified
// content feed, and publish triggers (including the publish progress
// WebSocket), all under /api/v1, plus an unauthenticated /health route.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/codeready-toolchain/cleo/pkg/config"
	"github.com/codeready-toolchain/cleo/pkg/content"
	"github.com/codeready-toolchain/cleo/pkg/database"
	"github.com/codeready-toolchain/cleo/pkg/events"
	"github.com/codeready-toolchain/cleo/pkg/frameworker"
	"github.com/codeready-toolchain/cleo/pkg/ingest"
	"github.com/codeready-toolchain/cleo/pkg/publish"
	"github.com/codeready-toolchain/cleo/pkg/scheduler"
	"github.com/codeready-toolchain/cleo/pkg/services"
	"github.com/codeready-toolchain/cleo/pkg/thumbnail"
)

// Server hosts cleo's HTTP API. Core services (ingest, content, publish,
// users) are required at construction; the worker pools and scheduler are
// optional and only consulted for health reporting, so they're set later
// via SetFrameWorkerPool/SetThumbnailPool/SetScheduler once cmd/cleo-server
// has started them. The optional events manager backs GET /api/v1/runs/ws.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	cfg      *config.Config
	dbClient *database.Client

	ingest    *ingest.Handlers
	content   *content.Service
	publisher *publish.Orchestrator
	tweets    *services.TweetService
	threads   *services.ThreadService
	users     *services.UserService

	frameWorker   *frameworker.Pool          // nil until SetFrameWorkerPool
	scheduler     *scheduler.Scheduler       // nil until SetScheduler
	thumbnails    *thumbnail.Pool            // nil until SetThumbnailPool
	eventsManager *events.ConnectionManager  // nil until SetEventsManager
}

// NewServer constructs the server and registers all routes immediately,
// mirroring the rest of cleo's "build then wire" construction pattern.
func NewServer(
	cfg *config.Config,
	dbClient *database.Client,
	ingestHandlers *ingest.Handlers,
	contentService *content.Service,
	publisher *publish.Orchestrator,
	tweets *services.TweetService,
	threads *services.ThreadService,
	users *services.UserService,
) *Server {
	s := &Server{
		echo:      echo.New(),
		cfg:       cfg,
		dbClient:  dbClient,
		ingest:    ingestHandlers,
		content:   contentService,
		publisher: publisher,
		tweets:    tweets,
		threads:   threads,
		users:     users,
	}
	s.echo.HideBanner = true
	s.setupRoutes()
	return s
}

// SetFrameWorkerPool wires the frame extraction worker pool in for
// health reporting. Optional; health degrades gracefully without it.
func (s *Server) SetFrameWorkerPool(p *frameworker.Pool) {
	s.frameWorker = p
}

// SetScheduler wires the collateral agent scheduler in for health
// reporting. Optional; health degrades gracefully without it.
func (s *Server) SetScheduler(sch *scheduler.Scheduler) {
	s.scheduler = sch
}

// SetThumbnailPool wires the thumbnail worker pool in for health
// reporting. Optional; health degrades gracefully without it.
func (s *Server) SetThumbnailPool(p *thumbnail.Pool) {
	s.thumbnails = p
}

// SetEventsManager wires the run-events WebSocket connection manager in,
// enabling the live run-status feed at GET /api/v1/runs/ws. Left nil, that
// route still upgrades the connection and then closes it immediately with
// StatusGoingAway.
func (s *Server) SetEventsManager(m *events.ConnectionManager) {
	s.eventsManager = m
}

// ValidateWiring reports every required dependency that is still nil.
// Call this once, right before Start, so a misconfigured binary fails
// fast instead of 500ing on the first request that touches the gap.
func (s *Server) ValidateWiring() error {
	var errs []error
	if s.ingest == nil {
		errs = append(errs, fmt.Errorf("ingest handlers not set"))
	}
	if s.content == nil {
		errs = append(errs, fmt.Errorf("content service not set"))
	}
	if s.publisher == nil {
		errs = append(errs, fmt.Errorf("publish orchestrator not set"))
	}
	if s.users == nil {
		errs = append(errs, fmt.Errorf("user service not set"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("server wiring incomplete: %w", errors.Join(errs...))
}

func (s *Server) setupRoutes() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.Logger())
	s.echo.Use(securityHeaders())
	s.echo.Use(middleware.BodyLimit("64M")) // recording uploads dominate request size

	s.echo.GET("/health", s.healthHandler)

	v1 := s.echo.Group("/api/v1")
	s.ingest.Register(v1)

	v1.GET("/content", s.listContentHandler)
	v1.POST("/tweets/:id/publish", s.publishTweetHandler)
	v1.POST("/threads/:id/publish", s.publishThreadHandler)
	// Deferred auth/origin validation mirrors the ingest endpoints: this
	// stream carries the same bearer token as every other /api/v1 route.
	v1.GET("/tweets/:id/publish/ws", s.publishTweetWSHandler)
	v1.GET("/runs/ws", s.runsWSHandler)
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
