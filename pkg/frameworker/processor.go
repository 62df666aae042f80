package frameworker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for screenshot captures
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/codeready-toolchain/cleo/pkg/phash"
	"github.com/codeready-toolchain/cleo/pkg/storage"
)

const (
	frameWidth    = 960
	frameHeight   = 540
	jpegQuality   = 85
	dedupDistance = 10
)

// Processor implements the per-capture frame extraction pipeline: produce a
// set of unique 960x540 JPEG frames plus a manifest, keeping at most one
// frame in memory at a time.
type Processor struct {
	store  storage.Store
	ffmpeg *FFmpeg
}

// NewProcessor creates a Processor backed by store and ffmpeg.
func NewProcessor(store storage.Store, ffmpeg *FFmpeg) *Processor {
	return &Processor{store: store, ffmpeg: ffmpeg}
}

// Process extracts frames for one claimed capture and uploads them plus a
// manifest, returning the number of frames kept after deduplication.
func (p *Processor) Process(ctx context.Context, c ClaimedCapture) (int, error) {
	switch c.MediaType {
	case "video":
		return p.processVideo(ctx, c)
	case "image":
		return p.processImage(ctx, c)
	default:
		return 0, fmt.Errorf("unsupported media type %q", c.MediaType)
	}
}

func (p *Processor) processVideo(ctx context.Context, c ClaimedCapture) (int, error) {
	localPath, cleanup, err := p.materializeLocal(ctx, c.StoragePath)
	if err != nil {
		return 0, fmt.Errorf("failed to materialize video: %w", err)
	}
	defer cleanup()

	frameDir, err := os.MkdirTemp("", "cleo-frames-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create frame temp dir: %w", err)
	}
	defer os.RemoveAll(frameDir)

	if err := p.ffmpeg.ExtractFrames(ctx, localPath, frameDir); err != nil {
		return 0, fmt.Errorf("failed to extract frames: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(frameDir, "frame_*.jpg"))
	if err != nil {
		return 0, fmt.Errorf("failed to list extracted frames: %w", err)
	}
	sort.Strings(files)

	manifest := Manifest{}
	var lastHash phash.Hash
	haveLast := false

	for originalIndex, file := range files {
		kept, h, err := p.dedupFrame(file, lastHash, haveLast)
		if err != nil {
			return 0, fmt.Errorf("failed to process extracted frame %s: %w", file, err)
		}
		if !kept {
			continue
		}
		lastHash = h
		haveLast = true

		dedupIndex := len(manifest.Entries)
		filename := fmt.Sprintf("frame_%d.jpg", dedupIndex)

		if err := p.uploadFile(ctx, file, storage.FrameKey(c.StoragePath, dedupIndex)); err != nil {
			return 0, fmt.Errorf("failed to upload frame %d: %w", dedupIndex, err)
		}

		manifest.Entries = append(manifest.Entries, ManifestEntry{
			IndexAfterDedup: dedupIndex,
			Filename:        filename,
			TimestampSecs:   float64(originalIndex),
			PHashBase64:     h.Base64(),
		})
	}

	if err := p.uploadManifest(ctx, c.StoragePath, manifest); err != nil {
		return 0, err
	}

	return len(manifest.Entries), nil
}

// dedupFrame decodes file, hashes it, and reports whether it should be kept
// given the last accepted hash.
func (p *Processor) dedupFrame(file string, lastHash phash.Hash, haveLast bool) (bool, phash.Hash, error) {
	f, err := os.Open(file)
	if err != nil {
		return false, 0, fmt.Errorf("failed to open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return false, 0, fmt.Errorf("failed to decode frame: %w", err)
	}

	h, err := phash.Compute(img)
	if err != nil {
		return false, 0, fmt.Errorf("failed to hash frame: %w", err)
	}

	if haveLast && phash.Distance(h, lastHash) <= dedupDistance {
		return false, h, nil
	}
	return true, h, nil
}

func (p *Processor) uploadFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local frame: %w", err)
	}
	defer f.Close()

	if err := p.store.Put(ctx, key, f); err != nil {
		return fmt.Errorf("failed to upload frame: %w", err)
	}
	return nil
}

func (p *Processor) processImage(ctx context.Context, c ClaimedCapture) (int, error) {
	src, err := p.store.Get(ctx, c.StoragePath)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch capture: %w", err)
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return 0, fmt.Errorf("failed to decode capture image: %w", err)
	}

	resized := phash.Resize(img, frameWidth, frameHeight)

	h, err := phash.Compute(resized)
	if err != nil {
		return 0, fmt.Errorf("failed to hash capture image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return 0, fmt.Errorf("failed to encode frame: %w", err)
	}

	if err := p.store.Put(ctx, storage.FrameKey(c.StoragePath, 0), &buf); err != nil {
		return 0, fmt.Errorf("failed to upload frame: %w", err)
	}

	manifest := Manifest{Entries: []ManifestEntry{{
		IndexAfterDedup: 0,
		Filename:        "frame_0.jpg",
		TimestampSecs:   0,
		PHashBase64:     h.Base64(),
	}}}

	if err := p.uploadManifest(ctx, c.StoragePath, manifest); err != nil {
		return 0, err
	}

	return 1, nil
}

func (p *Processor) uploadManifest(ctx context.Context, captureStoragePath string, manifest Manifest) error {
	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if err := p.store.Put(ctx, storage.ManifestKey(captureStoragePath), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload manifest: %w", err)
	}
	return nil
}

// materializeLocal downloads a capture to a temp file and returns its path
// along with a cleanup func. The in-memory buffer is dropped by the time
// this returns; only the file handle remains live during processing.
func (p *Processor) materializeLocal(ctx context.Context, storagePath string) (string, func(), error) {
	src, err := p.store.Get(ctx, storagePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch capture: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "cleo-capture-*"+filepath.Ext(storagePath))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to download capture: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	path := tmp.Name()
	return path, func() { os.Remove(path) }, nil
}
