// Package thumbnail implements the thumbnail worker: a simpler variant of
// the frame worker that generates a single 320x180 JPEG per capture, reusing
// pkg/frameworker's claim-and-lease primitive as its second consumer.
package thumbnail

import (
	"bytes"
	"context"
	stdsql "database/sql"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codeready-toolchain/cleo/pkg/frameworker"
	"github.com/codeready-toolchain/cleo/pkg/phash"
	"github.com/codeready-toolchain/cleo/pkg/services"
	"github.com/codeready-toolchain/cleo/pkg/storage"
)

const (
	thumbnailWidth  = 320
	thumbnailHeight = 180
	jpegQuality     = 85
	maxAttempts     = 5
	batchSize       = 12
)

// Pool polls for captures still missing a thumbnail and generates one.
// Unlike the frame worker, a successful or exhausted attempt never needs
// to be reclaimed: there is no lease window, only an attempts ceiling.
type Pool struct {
	db             *stdsql.DB
	store          storage.Store
	captureService *services.CaptureService
	ffmpeg         *frameworker.FFmpeg
	pollInterval   time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPool creates a thumbnail worker pool.
func NewPool(db *stdsql.DB, store storage.Store, captureService *services.CaptureService, ffmpeg *frameworker.FFmpeg, pollInterval time.Duration) *Pool {
	return &Pool{
		db:             db,
		store:          store,
		captureService: captureService,
		ffmpeg:         ffmpeg,
		pollInterval:   pollInterval,
		stopCh:         make(chan struct{}),
	}
}

// Start launches the polling loop.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
	slog.Info("Thumbnail worker pool started", "poll_interval", p.pollInterval)
}

// Stop signals the polling loop to exit and waits for it to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	slog.Info("Thumbnail worker pool stopped")
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Pool) pollOnce(ctx context.Context) {
	spec := frameworker.ThumbnailClaimSpec(maxAttempts, batchSize)
	claimed, err := frameworker.ClaimBatch(ctx, p.db, spec)
	if err != nil {
		slog.Error("Thumbnail worker claim failed", "error", err)
		return
	}
	if len(claimed) == 0 {
		return
	}

	slog.Info("Thumbnail worker claimed captures", "count", len(claimed))
	for _, c := range claimed {
		p.processOne(ctx, c)
	}
}

func (p *Pool) processOne(ctx context.Context, c frameworker.ClaimedCapture) {
	log := slog.With("capture_id", c.ID)

	key, err := p.generate(ctx, c)
	if err != nil {
		log.Error("Thumbnail generation failed", "error", err)
		return
	}

	if err := p.captureService.CompleteThumbnail(ctx, c.ID, key); err != nil {
		log.Error("Failed to record thumbnail", "error", err)
		return
	}
	log.Info("Thumbnail generated", "key", key)
}

// generate produces a single downscaled JPEG representing the capture:
// the capture itself for images, or its first frame for videos.
func (p *Pool) generate(ctx context.Context, c frameworker.ClaimedCapture) (string, error) {
	var img image.Image

	if c.MediaType == "video" {
		decoded, err := p.decodeVideoFirstFrame(ctx, c.StoragePath)
		if err != nil {
			return "", err
		}
		img = decoded
	} else {
		src, err := p.store.Get(ctx, c.StoragePath)
		if err != nil {
			return "", fmt.Errorf("failed to fetch capture: %w", err)
		}
		defer src.Close()

		decoded, _, err := image.Decode(src)
		if err != nil {
			return "", fmt.Errorf("failed to decode capture image: %w", err)
		}
		img = decoded
	}

	resized := phash.Resize(img, thumbnailWidth, thumbnailHeight)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	key := storage.ThumbnailKey(c.StoragePath)
	if err := p.store.Put(ctx, key, &buf); err != nil {
		return "", fmt.Errorf("failed to upload thumbnail: %w", err)
	}
	return key, nil
}

func (p *Pool) decodeVideoFirstFrame(ctx context.Context, storagePath string) (image.Image, error) {
	src, err := p.store.Get(ctx, storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch capture: %w", err)
	}
	defer src.Close()

	localFile, err := os.CreateTemp("", "cleo-thumb-src-*"+filepath.Ext(storagePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(localFile.Name())

	if _, err := io.Copy(localFile, src); err != nil {
		localFile.Close()
		return nil, fmt.Errorf("failed to download capture: %w", err)
	}
	if err := localFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	frameFile, err := os.CreateTemp("", "cleo-thumb-frame-*.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp frame file: %w", err)
	}
	frameFile.Close()
	defer os.Remove(frameFile.Name())

	if err := p.ffmpeg.ExtractFrameAt(ctx, localFile.Name(), 0, frameFile.Name()); err != nil {
		return nil, fmt.Errorf("failed to extract video frame: %w", err)
	}

	f, err := os.Open(frameFile.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to open extracted frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode extracted frame: %w", err)
	}
	return img, nil
}
