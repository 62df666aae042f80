// Package capture implements the desktop agent's Capture Pipeline: the
// recording state machine, the periodic screenshot loop, and the batch
// uploaders that dedup, classify, and upload spooled screenshots and
// recordings. It is the orchestrator that sits on top of
// pkg/observer (activity signals), pkg/phash (dedup), pkg/nsfw
// (safety filtering), pkg/spool (local queue), and pkg/agentclient
// (upload transport).
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/codeready-toolchain/cleo/pkg/observer"
	"github.com/codeready-toolchain/cleo/pkg/phash"
	"github.com/codeready-toolchain/cleo/pkg/spool"
)

// ErrAlreadyRecording is returned by TriggerRecording when a recording is
// already in progress.
var ErrAlreadyRecording = errors.New("capture: a recording is already in progress")

// UploadFile mirrors agentclient.File so this package doesn't need to
// import agentclient directly; cmd/cleo-agent adapts the real client.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadResult mirrors agentclient.BatchUploadResult.
type UploadResult struct {
	Uploaded          int
	Failed            int
	SuccessfulIndices []int
}

// Pipeline orchestrates the recording state machine, the screenshot
// loop, and the batch uploaders.
type Pipeline struct {
	obs        *observer.Observer
	spool      *spool.Spool
	classifier classifierFunc
	client     uploaderFunc
	shots      Screenshotter
	rec        Recorder
	sampler    FrameSampler
	cfg        Config
	logger     *slog.Logger

	burst *burstTracker

	mu               sync.Mutex
	state            State
	manual           bool
	recordingStarted time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	uploadMu     sync.Mutex
	prevHash     phash.Hash
	havePrevHash bool
}

// classifierFunc and uploaderFunc let New accept either the real
// *nsfw.Classifier / *agentclient.Client or a test double, without this
// package importing either concrete type (avoiding an import cycle risk
// between capture, nsfw and agentclient as all three grow).
type classifierFunc func(images [][]float32) ([]Result, error)
type uploaderFunc func(ctx context.Context, intervalID int64, files []UploadFile) (*UploadResult, error)

// Result is the pipeline's view of one classified image.
type Result struct {
	Unsafe bool
}

// New creates a Pipeline. classify and upload adapt the real
// nsfw.Classifier.Classify and agentclient.Client.UploadCaptureBatch
// methods; sampler may be nil if recording classification is not wired
// (recordings are then uploaded unclassified, logged as a warning).
func New(
	obs *observer.Observer,
	spl *spool.Spool,
	shots Screenshotter,
	rec Recorder,
	sampler FrameSampler,
	classify classifierFunc,
	upload uploaderFunc,
	cfg Config,
) *Pipeline {
	return &Pipeline{
		obs:        obs,
		spool:      spl,
		classifier: classify,
		client:     upload,
		shots:      shots,
		rec:        rec,
		sampler:    sampler,
		cfg:        cfg,
		logger:     slog.Default(),
		burst:      newBurstTracker(cfg.BurstWindow, cfg.BurstClickThreshold),
		stopCh:     make(chan struct{}),
	}
}

// State returns the pipeline's current recording state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start launches the event loop, screenshot loop, recording supervisor,
// and both upload loops.
func (p *Pipeline) Start(ctx context.Context) {
	loops := []func(context.Context){
		p.eventLoop,
		p.screenshotLoop,
		p.recordingSuperviseLoop,
		p.screenshotUploadLoop,
		p.recordingUploadLoop,
	}
	for _, loop := range loops {
		p.wg.Add(1)
		go func(fn func(context.Context)) {
			defer p.wg.Done()
			fn(ctx)
		}(loop)
	}
	p.logger.Info("capture pipeline started",
		"auto_capture", p.cfg.AutoCaptureEnabled,
		"screenshot_interval", p.cfg.ScreenshotInterval,
		"upload_interval", p.cfg.UploadInterval)
}

// Stop signals every loop to exit and waits for them to finish.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

// TriggerRecording starts a user-commanded recording (palette or menu).
func (p *Pipeline) TriggerRecording(ctx context.Context) error {
	return p.startRecording(ctx, true)
}

// StopRecording stops a user-commanded or auto-triggered recording.
func (p *Pipeline) StopRecording(ctx context.Context) error {
	return p.stopRecording(ctx, "user_stop")
}

func (p *Pipeline) startRecording(ctx context.Context, manual bool) error {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return ErrAlreadyRecording
	}
	p.state = StateRecording
	p.manual = manual
	p.recordingStarted = time.Now()
	p.mu.Unlock()

	p.burst.reset(time.Now())
	if err := p.rec.Start(ctx); err != nil {
		p.mu.Lock()
		p.state = StateIdle
		p.mu.Unlock()
		return fmt.Errorf("capture: start recording: %w", err)
	}
	p.logger.Info("recording started", "manual", manual)
	return nil
}

func (p *Pipeline) stopRecording(ctx context.Context, reason string) error {
	p.mu.Lock()
	if p.state == StateIdle {
		p.mu.Unlock()
		return nil
	}
	p.state = StateRecordingAutoStopPending
	p.mu.Unlock()

	path, err := p.rec.Stop(ctx)
	if err != nil {
		p.mu.Lock()
		p.state = StateIdle
		p.mu.Unlock()
		return fmt.Errorf("capture: stop recording: %w", err)
	}

	if _, err := p.spool.FinalizeFrom(spool.KindRecording, time.Now(), filepath.Ext(path), path); err != nil {
		p.mu.Lock()
		p.state = StateIdle
		p.mu.Unlock()
		return fmt.Errorf("capture: finalize recording into spool: %w", err)
	}

	p.mu.Lock()
	p.state = StateIdle
	p.mu.Unlock()
	p.logger.Info("recording stopped", "reason", reason)
	return nil
}

func (p *Pipeline) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case evt, ok := <-p.obs.Events():
			if !ok {
				return
			}
			switch evt.Type {
			case observer.EventForegroundSwitch:
				p.burst.recordForegroundSwitch(evt.Timestamp)
			case observer.EventMouseClick, observer.EventKeypress:
				p.burst.recordInput(evt.Timestamp)
			}
			p.maybeAutoTrigger(ctx, evt.Timestamp)
		}
	}
}

func (p *Pipeline) maybeAutoTrigger(ctx context.Context, at time.Time) {
	p.mu.Lock()
	idle := p.state != StateIdle
	p.mu.Unlock()
	if idle || !p.cfg.AutoCaptureEnabled {
		return
	}

	app, window := p.obs.CurrentForeground()
	if p.obs.Blocked(app, window) {
		return
	}
	if !p.burst.triggered(at) {
		return
	}
	if err := p.startRecording(ctx, false); err != nil && !errors.Is(err, ErrAlreadyRecording) {
		p.logger.Error("auto-trigger recording start failed", "error", err)
	}
}

func (p *Pipeline) recordingSuperviseLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case now := <-ticker.C:
			p.mu.Lock()
			state := p.state
			manual := p.manual
			started := p.recordingStarted
			p.mu.Unlock()
			if state != StateRecording {
				continue
			}
			if now.Sub(started) >= p.cfg.MaxRecordingDuration {
				p.asyncStop(ctx, "max_duration")
				continue
			}
			if !manual && p.burst.idleSince(now) >= p.cfg.AutoStopGrace {
				p.asyncStop(ctx, "auto_stop")
			}
		}
	}
}

func (p *Pipeline) asyncStop(ctx context.Context, reason string) {
	if err := p.stopRecording(ctx, reason); err != nil {
		p.logger.Error("recording auto-stop failed", "reason", reason, "error", err)
	}
}

func (p *Pipeline) screenshotLoop(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.ScreenshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case now := <-ticker.C:
			p.maybeScreenshot(ctx, now)
		}
	}
}

func (p *Pipeline) maybeScreenshot(ctx context.Context, now time.Time) {
	if !p.cfg.AutoCaptureEnabled {
		return
	}
	if p.obs.IdleSeconds(now) >= p.cfg.ScreenshotMaxIdle.Seconds() {
		return
	}
	app, window := p.obs.CurrentForeground()
	if p.obs.Blocked(app, window) {
		return
	}

	data, err := p.shots.CaptureScreen(ctx)
	if err != nil {
		p.logger.Error("screenshot capture failed", "error", err)
		return
	}
	if _, err := p.spool.Write(spool.KindScreenshot, now, ".png", data); err != nil {
		p.logger.Error("screenshot spool write failed", "error", err)
	}
}
