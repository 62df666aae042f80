package frameworker

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FFmpeg wraps the ffmpeg/ffprobe binaries used to probe video duration and
// extract downsampled frames for deduplication.
type FFmpeg struct {
	FFmpegBinary  string
	FFprobeBinary string
}

func (f *FFmpeg) ffmpegBin() string {
	if strings.TrimSpace(f.FFmpegBinary) == "" {
		return "ffmpeg"
	}
	return f.FFmpegBinary
}

func (f *FFmpeg) ffprobeBin() string {
	if strings.TrimSpace(f.FFprobeBinary) == "" {
		return "ffprobe"
	}
	return f.FFprobeBinary
}

// Probe returns a video's duration.
func (f *FFmpeg) Probe(ctx context.Context, path string) (time.Duration, error) {
	args := []string{"-v", "error", "-show_entries", "format=duration", "-of", "json", path}
	cmd := exec.CommandContext(ctx, f.ffprobeBin(), args...)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return 0, fmt.Errorf("ffprobe: failed to parse output: %w", err)
	}

	seconds, err := strconv.ParseFloat(payload.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: failed to parse duration: %w", err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// ExtractFrames samples srcPath at 1 fps, scaled to 960x540, writing JPEGs
// at quality level 4 into outDir as frame_000001.jpg, frame_000002.jpg, ...
func (f *FFmpeg) ExtractFrames(ctx context.Context, srcPath, outDir string) error {
	args := []string{
		"-y",
		"-i", srcPath,
		"-vf", "fps=1,scale=960:540",
		"-q:v", "4",
		outDir + "/frame_%06d.jpg",
	}
	cmd := exec.CommandContext(ctx, f.ffmpegBin(), args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract frames: %w: %s", err, string(out))
	}
	return nil
}

// ExtractFrameAt pulls a single frame from srcPath at timestamp `at`,
// scaled to 960x540, writing it to outPath. Used by the collateral agent's
// ExtractText tool to pull a frame for OCR at a model-chosen timestamp.
func (f *FFmpeg) ExtractFrameAt(ctx context.Context, srcPath string, at time.Duration, outPath string) error {
	args := []string{
		"-y",
		"-ss", formatTimestamp(at),
		"-i", srcPath,
		"-frames:v", "1",
		"-vf", "scale=960:540",
		outPath,
	}
	cmd := exec.CommandContext(ctx, f.ffmpegBin(), args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract frame at %s: %w: %s", at, err, string(out))
	}
	return nil
}

func formatTimestamp(d time.Duration) string {
	total := int(d.Seconds())
	hh := total / 3600
	mm := (total % 3600) / 60
	ss := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss)
}
