package capture

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/codeready-toolchain/cleo/pkg/phash"
	"github.com/codeready-toolchain/cleo/pkg/spool"
)

func (p *Pipeline) screenshotUploadLoop(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.UploadInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.runScreenshotUploadCycle(ctx)
		}
	}
}

func (p *Pipeline) recordingUploadLoop(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.UploadInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.runRecordingUploadCycle(ctx)
		}
	}
}

type pendingImage struct {
	path string
	data []byte
	chw  []float32
	mime string
}

// runScreenshotUploadCycle implements spec.md's screenshot batch uploader:
// dedup against the previous accepted hash, classify in batches, delete
// unsafe images, upload the rest, and only remove uploaded files once the
// server confirms them.
func (p *Pipeline) runScreenshotUploadCycle(ctx context.Context) {
	entries, err := p.spool.List(spool.KindScreenshot)
	if err != nil {
		p.logger.Error("screenshot spool list failed", "error", err)
		return
	}

	p.uploadMu.Lock()
	defer p.uploadMu.Unlock()

	var batch []pendingImage
	flush := func() {
		if len(batch) == 0 {
			return
		}
		p.classifyAndUpload(ctx, batch)
		batch = nil
	}

	for _, e := range entries {
		data, err := os.ReadFile(e.Path)
		if err != nil {
			p.logger.Error("screenshot read failed, dropping", "path", e.Path, "error", err)
			_ = p.spool.Remove(e.Path)
			continue
		}

		img, hash, err := decodeAndHash(data)
		if err != nil {
			p.logger.Warn("malformed screenshot, dropping", "path", e.Path, "error", err)
			_ = p.spool.Remove(e.Path)
			continue
		}

		if p.havePrevHash && phash.Distance(hash, p.prevHash) <= p.cfg.DuplicateHashDistance {
			_ = p.spool.Remove(e.Path)
			continue
		}
		p.prevHash = hash
		p.havePrevHash = true

		batch = append(batch, pendingImage{
			path: e.Path,
			data: data,
			chw:  toCHWNormalized(img),
			mime: "image/png",
		})
		if len(batch) >= p.cfg.MaxBatchSize {
			flush()
		}
	}
	flush()
}

// classifyAndUpload runs one classifier forward pass over batch, drops
// unsafe images, uploads the rest, and reconciles the upload result
// against the spool.
func (p *Pipeline) classifyAndUpload(ctx context.Context, batch []pendingImage) {
	images := make([][]float32, len(batch))
	for i, b := range batch {
		images[i] = b.chw
	}

	results, err := p.classifier(images)
	if err != nil {
		p.logger.Error("classifier forward pass failed, dropping batch", "count", len(batch), "error", err)
		for _, b := range batch {
			_ = p.spool.Remove(b.path)
		}
		return
	}

	var files []UploadFile
	var keepPaths []string
	for i, r := range results {
		if r.Unsafe {
			_ = p.spool.Remove(batch[i].path)
			continue
		}
		files = append(files, UploadFile{
			Name:        filepath.Base(batch[i].path),
			ContentType: batch[i].mime,
			Data:        batch[i].data,
		})
		keepPaths = append(keepPaths, batch[i].path)
	}
	if len(files) == 0 {
		return
	}

	p.reconcileUpload(ctx, files, keepPaths)
}

func (p *Pipeline) reconcileUpload(ctx context.Context, files []UploadFile, keepPaths []string) {
	intervalID := p.obs.IntervalID(time.Now())
	result, err := p.client(ctx, intervalID, files)
	if err != nil {
		p.logger.Warn("capture batch upload failed, retaining files for retry", "count", len(files), "error", err)
		return
	}

	switch {
	case result.Failed == 0:
		for _, path := range keepPaths {
			_ = p.spool.Remove(path)
		}
	case len(result.SuccessfulIndices) > 0:
		for _, idx := range result.SuccessfulIndices {
			if idx >= 0 && idx < len(keepPaths) {
				_ = p.spool.Remove(keepPaths[idx])
			}
		}
	default:
		p.logger.Warn("partial upload failure with no per-file detail, retaining all files", "count", len(files))
	}
}

// runRecordingUploadCycle implements spec.md's recording batch uploader:
// each recording is probed by sampling frames; classification runs once
// over the concatenation of all sampled frames from every recording in
// the cycle, and a recording is safe only if every one of its sampled
// frames is safe.
func (p *Pipeline) runRecordingUploadCycle(ctx context.Context) {
	entries, err := p.spool.List(spool.KindRecording)
	if err != nil {
		p.logger.Error("recording spool list failed", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	if p.sampler == nil {
		p.logger.Warn("no frame sampler configured, uploading recordings unclassified", "count", len(entries))
		p.uploadRecordingsUnclassified(ctx, entries)
		return
	}

	type recording struct {
		entry      spool.Entry
		frameStart int
		frameCount int
	}
	var recs []recording
	var allFrames [][]float32

	for _, e := range entries {
		frames, err := p.sampler.SampleFrames(ctx, e.Path, p.cfg.RecordingSampleInterval)
		if err != nil {
			p.logger.Warn("malformed recording, dropping", "path", e.Path, "error", err)
			_ = p.spool.Remove(e.Path)
			continue
		}
		start := len(allFrames)
		for _, f := range frames {
			allFrames = append(allFrames, toCHWNormalized(f))
		}
		recs = append(recs, recording{entry: e, frameStart: start, frameCount: len(frames)})
	}
	if len(recs) == 0 {
		return
	}

	results, err := p.classifyInChunks(allFrames)
	if err != nil {
		p.logger.Error("classifier forward pass failed, dropping all recordings this cycle", "count", len(recs), "error", err)
		for _, r := range recs {
			_ = p.spool.Remove(r.entry.Path)
		}
		return
	}

	var files []UploadFile
	var keepPaths []string
	for _, r := range recs {
		safe := true
		for i := r.frameStart; i < r.frameStart+r.frameCount; i++ {
			if results[i].Unsafe {
				safe = false
				break
			}
		}
		if !safe {
			_ = p.spool.Remove(r.entry.Path)
			continue
		}
		data, err := os.ReadFile(r.entry.Path)
		if err != nil {
			p.logger.Error("recording read failed", "path", r.entry.Path, "error", err)
			continue
		}
		files = append(files, UploadFile{
			Name:        filepath.Base(r.entry.Path),
			ContentType: "video/mp4",
			Data:        data,
		})
		keepPaths = append(keepPaths, r.entry.Path)
	}
	if len(files) == 0 {
		return
	}
	p.reconcileUpload(ctx, files, keepPaths)
}

func (p *Pipeline) uploadRecordingsUnclassified(ctx context.Context, entries []spool.Entry) {
	var files []UploadFile
	var keepPaths []string
	for _, e := range entries {
		data, err := os.ReadFile(e.Path)
		if err != nil {
			p.logger.Error("recording read failed", "path", e.Path, "error", err)
			continue
		}
		files = append(files, UploadFile{Name: filepath.Base(e.Path), ContentType: "video/mp4", Data: data})
		keepPaths = append(keepPaths, e.Path)
	}
	if len(files) == 0 {
		return
	}
	p.reconcileUpload(ctx, files, keepPaths)
}

// classifyInChunks runs the classifier over images in batches no larger
// than MaxBatchSize, concatenating the results back in order.
func (p *Pipeline) classifyInChunks(images [][]float32) ([]Result, error) {
	var all []Result
	for start := 0; start < len(images); start += p.cfg.MaxBatchSize {
		end := start + p.cfg.MaxBatchSize
		if end > len(images) {
			end = len(images)
		}
		chunk, err := p.classifier(images[start:end])
		if err != nil {
			return nil, err
		}
		all = append(all, chunk...)
	}
	return all, nil
}
