// cleo-server is the backend process: it exposes the capture ingest,
// content feed, and publish API, and runs the frame extraction worker
// pool, the Collateral Agent scheduler, and the retention cleanup loop in
// the background.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/cleo/pkg/api"
	"github.com/codeready-toolchain/cleo/pkg/cleanup"
	"github.com/codeready-toolchain/cleo/pkg/collateral"
	"github.com/codeready-toolchain/cleo/pkg/config"
	"github.com/codeready-toolchain/cleo/pkg/content"
	"github.com/codeready-toolchain/cleo/pkg/database"
	"github.com/codeready-toolchain/cleo/pkg/events"
	"github.com/codeready-toolchain/cleo/pkg/frameworker"
	"github.com/codeready-toolchain/cleo/pkg/ingest"
	"github.com/codeready-toolchain/cleo/pkg/llm"
	"github.com/codeready-toolchain/cleo/pkg/notify"
	"github.com/codeready-toolchain/cleo/pkg/ocr"
	"github.com/codeready-toolchain/cleo/pkg/publish"
	"github.com/codeready-toolchain/cleo/pkg/scheduler"
	"github.com/codeready-toolchain/cleo/pkg/services"
	"github.com/codeready-toolchain/cleo/pkg/storage"
	"github.com/codeready-toolchain/cleo/pkg/thumbnail"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// draftsReadyNotifier adapts notify.Service's (ctx, userID, count) shape,
// which doesn't report failure, to collateral.Notifier's error-returning
// contract: the notification path is fail-open by design, so there is
// never anything for the agent to react to here.
type draftsReadyNotifier struct {
	svc *notify.Service
}

func (n draftsReadyNotifier) NotifyDraftsReady(ctx context.Context, userID, runID string, count int) error {
	n.svc.NotifyDraftsReady(ctx, userID, count)
	return nil
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	addr := flag.String("addr", getEnv("HTTP_ADDR", ":8080"), "HTTP listen address")
	podID := flag.String("pod-id", getEnv("POD_ID", "cleo-server"), "identifier for this replica, used for run-slot claiming")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("no .env file at %s, continuing with process environment", envPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dbClient.Close()

	store := storage.NewFileStore(getEnv("STORAGE_BASE_DIR", "./data/storage"))

	users := services.NewUserService(dbClient.Client)
	captures := services.NewCaptureService(dbClient.Client)
	eventLog := services.NewEventService(dbClient.Client)
	activityEvents := services.NewActivityEventService(dbClient.Client)
	tweets := services.NewTweetService(dbClient.Client)
	threads := services.NewThreadService(dbClient.Client)
	runs := services.NewAgentRunService(dbClient.Client)
	timeline := services.NewTimelineService(dbClient.Client)
	oauth := services.NewOAuthService(dbClient.Client)
	tokens := services.NewTokenService(dbClient.Client)

	ingestHandlers := ingest.NewHandlers(store, captures, activityEvents, users, ingest.DefaultLimitsConfig())
	contentService := content.NewService(dbClient.DB(), dbClient.Client)

	notifier := notify.NewService(cfg.Notify, cfg.DashboardURL)

	platform := publish.NewHTTPPlatformClientFromConfig(getEnv("PLATFORM_BASE_URL", "https://api.twitter.com/2"), cfg.Publish)
	refresher := publish.NewHTTPTokenRefresher(
		getEnv("OAUTH_TOKEN_URL", "https://api.twitter.com/2/oauth2/token"),
		getEnv("OAUTH_CLIENT_ID", ""),
		getEnv("OAUTH_CLIENT_SECRET_ENV", "OAUTH_CLIENT_SECRET"),
	)
	orchestrator := publish.NewOrchestrator(tweets, threads, users, captures, store, platform, refresher, notifier, cfg.Publish)

	ocrClient := ocr.NewClient(cfg.OCR.ServiceURL, cfg.OCR.APIKeyEnv, cfg.OCR.RequestTimeout)
	ocrCache := ocr.NewCache(cfg.OCR.CacheTTL)
	ffmpeg := &frameworker.FFmpeg{}
	ocrService := ocr.NewService(ocrClient, ocrCache, store, ffmpeg)

	llmClient, err := llm.NewGRPCClient(cfg.LLM.SidecarAddr)
	if err != nil {
		log.Fatalf("failed to connect to LLM sidecar: %v", err)
	}

	eventPublisher := events.NewEventPublisher(dbClient.DB())
	connManager := events.NewConnectionManager(events.NewEventServiceAdapter(eventLog), 5*time.Second)
	notifyListener := events.NewNotifyListener(dbCfg.DSN(), connManager)
	connManager.SetListener(notifyListener)
	if err := notifyListener.Start(ctx); err != nil {
		log.Fatalf("failed to start run-events listener: %v", err)
	}
	if err := notifyListener.Subscribe(ctx, events.GlobalRunsChannel); err != nil {
		log.Fatalf("failed to subscribe to global runs channel: %v", err)
	}

	agent := collateral.New(dbClient.Client, llmClient, runs, captures, activityEvents, ocrService, draftsReadyNotifier{notifier}, timeline, eventPublisher, cfg.Collateral)
	sched := scheduler.New(dbClient.DB(), agent, cfg.Scheduler, *podID)

	processor := frameworker.NewProcessor(store, ffmpeg)
	pool := frameworker.NewPool(dbClient.DB(), captures, processor, cfg.FrameWorker)
	thumbnails := thumbnail.NewPool(dbClient.DB(), store, captures, ffmpeg, cfg.FrameWorker.PollInterval)

	cleanupSvc := cleanup.NewService(cfg.Retention, captures, eventLog, oauth, tokens)

	server := api.NewServer(cfg, dbClient, ingestHandlers, contentService, orchestrator, tweets, threads, users)
	server.SetFrameWorkerPool(pool)
	server.SetScheduler(sched)
	server.SetThumbnailPool(thumbnails)
	server.SetEventsManager(connManager)

	if err := server.ValidateWiring(); err != nil {
		log.Fatalf("server wiring incomplete: %v", err)
	}

	pool.Start(ctx)
	thumbnails.Start(ctx)
	sched.Start(ctx)
	cleanupSvc.Start(ctx)

	slog.Info("starting cleo-server", "addr", *addr, "pod_id", *podID)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(*addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			slog.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("error during http shutdown", "error", err)
	}
	pool.Stop()
	thumbnails.Stop()
	sched.Stop()
	cleanupSvc.Stop()
	notifyListener.Stop(shutdownCtx)
}
