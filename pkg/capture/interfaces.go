package capture

import (
	"context"
	"image"
	"time"
)

// Screenshotter captures the current screen as PNG bytes. It is
// platform-specific and supplied by the desktop agent's main package;
// the pipeline only consumes it.
type Screenshotter interface {
	CaptureScreen(ctx context.Context) ([]byte, error)
}

// Recorder manages one screen recording at a time. Like Screenshotter,
// the actual encoder is platform-specific. Stop returns the path to the
// now-complete recording file on disk, ready for Spool.FinalizeFrom.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (path string, err error)
}

// FrameSampler extracts sampled frames from a completed recording file
// at the given interval, for NSFW classification. No example in the
// retrieval pack decodes a video container, so the decoder itself
// (ffmpeg, a platform media framework) is out of scope here; a nil
// sampler means recordings skip classification and are uploaded with a
// logged warning rather than blocked outright.
type FrameSampler interface {
	SampleFrames(ctx context.Context, path string, interval time.Duration) ([]image.Image, error)
}
