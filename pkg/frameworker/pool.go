package frameworker

import (
	"context"
	stdsql "database/sql"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/codeready-toolchain/cleo/pkg/config"
	"github.com/codeready-toolchain/cleo/pkg/services"
)

// Pool is the frame extraction worker: it polls for claimable captures
// every poll interval and processes up to MaxConcurrentCaptures of them at
// once, bounded by an in-flight counter rather than one goroutine per slot.
type Pool struct {
	db             *stdsql.DB
	captureService *services.CaptureService
	processor      *Processor
	config         *config.FrameWorkerConfig

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu       sync.Mutex
	inFlight int
}

// NewPool creates a frame extraction worker pool.
func NewPool(db *stdsql.DB, captureService *services.CaptureService, processor *Processor, cfg *config.FrameWorkerConfig) *Pool {
	return &Pool{
		db:             db,
		captureService: captureService,
		processor:      processor,
		config:         cfg,
		stopCh:         make(chan struct{}),
	}
}

// Start launches the polling loop.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
	slog.Info("Frame worker pool started",
		"max_concurrent_captures", p.config.MaxConcurrentCaptures,
		"poll_interval", p.config.PollInterval,
		"lease_timeout", p.config.LeaseTimeout)
}

// Stop signals the polling loop to exit and waits for in-flight captures
// to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	slog.Info("Frame worker pool stopped")
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()

	for {
		wait := jitteredInterval(p.config.PollInterval, p.config.PollIntervalJitter)
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-time.After(wait):
			p.pollOnce(ctx)
		}
	}
}

func (p *Pool) pollOnce(ctx context.Context) {
	p.mu.Lock()
	capacity := p.config.MaxConcurrentCaptures - p.inFlight
	p.mu.Unlock()
	if capacity <= 0 {
		return
	}

	spec := FrameClaimSpec(p.config.LeaseTimeout, p.config.MaxAttempts, capacity)
	claimed, err := ClaimBatch(ctx, p.db, spec)
	if err != nil {
		slog.Error("Frame worker claim failed", "error", err)
		return
	}
	if len(claimed) == 0 {
		return
	}

	slog.Info("Frame worker claimed captures", "count", len(claimed))

	for _, c := range claimed {
		p.mu.Lock()
		p.inFlight++
		p.mu.Unlock()

		p.wg.Add(1)
		go func(c ClaimedCapture) {
			defer p.wg.Done()
			defer func() {
				p.mu.Lock()
				p.inFlight--
				p.mu.Unlock()
			}()
			p.processOne(ctx, c)
		}(c)
	}
}

func (p *Pool) processOne(ctx context.Context, c ClaimedCapture) {
	log := slog.With("capture_id", c.ID, "media_type", c.MediaType)

	count, err := p.processor.Process(ctx, c)
	if err != nil {
		log.Error("Frame extraction failed", "error", err)
		if failErr := p.captureService.FailFrames(context.Background(), c.ID, err.Error()); failErr != nil {
			log.Error("Failed to record frame extraction failure", "error", failErr)
		}
		return
	}

	if err := p.captureService.CompleteFrames(context.Background(), c.ID); err != nil {
		log.Error("Failed to mark frames extracted", "error", err)
		return
	}

	log.Info("Frames extracted", "frame_count", count)
}

func jitteredInterval(base, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return base
	}
	delta := time.Duration(rand.Int63n(int64(jitter)*2)) - jitter
	result := base + delta
	if result < 0 {
		return base
	}
	return result
}
