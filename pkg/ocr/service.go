package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/codeready-toolchain/cleo/pkg/frameworker"
	"github.com/codeready-toolchain/cleo/pkg/storage"
)

// Service extracts text from a capture, caching results per capture+timestamp
// so the ExtractText tool can be called repeatedly within one run without
// re-downloading and re-OCRing the same frame.
type Service struct {
	client *Client
	cache  *Cache
	store  storage.Store
	ffmpeg *frameworker.FFmpeg
}

// NewService creates an OCR service.
func NewService(client *Client, cache *Cache, store storage.Store, ffmpeg *frameworker.FFmpeg) *Service {
	return &Service{client: client, cache: cache, store: store, ffmpeg: ffmpeg}
}

// ExtractImage OCRs a still-image capture directly, with no frame
// extraction step.
func (s *Service) ExtractImage(ctx context.Context, captureID, storagePath, mimeType string) (string, error) {
	key := Key(captureID, 0)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	src, err := s.store.Get(ctx, storagePath)
	if err != nil {
		return "", fmt.Errorf("failed to fetch capture: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read capture: %w", err)
	}

	text, err := s.client.ExtractText(ctx, data, mimeType)
	if err != nil {
		return "", err
	}

	s.cache.Set(key, text)
	return text, nil
}

// ExtractVideoFrame extracts a single frame from a video capture at the
// given offset, then OCRs it. Errors here are meant to be surfaced as
// recoverable tool-result text rather than aborting the agent loop.
func (s *Service) ExtractVideoFrame(ctx context.Context, captureID, storagePath string, at time.Duration) (string, error) {
	key := Key(captureID, at)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	src, err := s.store.Get(ctx, storagePath)
	if err != nil {
		return "", fmt.Errorf("failed to fetch capture: %w", err)
	}
	defer src.Close()

	localFile, err := os.CreateTemp("", "cleo-ocr-src-*"+filepath.Ext(storagePath))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(localFile.Name())

	if _, err := io.Copy(localFile, src); err != nil {
		localFile.Close()
		return "", fmt.Errorf("failed to download capture: %w", err)
	}
	if err := localFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	frameFile, err := os.CreateTemp("", "cleo-ocr-frame-*.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to create temp frame file: %w", err)
	}
	frameFile.Close()
	defer os.Remove(frameFile.Name())

	if err := s.ffmpeg.ExtractFrameAt(ctx, localFile.Name(), at, frameFile.Name()); err != nil {
		return "", fmt.Errorf("failed to extract frame at %s: %w", at, err)
	}

	frameBytes, err := os.ReadFile(frameFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read extracted frame: %w", err)
	}

	text, err := s.client.ExtractText(ctx, frameBytes, "image/jpeg")
	if err != nil {
		return "", err
	}

	s.cache.Set(key, text)
	return text, nil
}
