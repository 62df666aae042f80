package capture

import "time"

// Config tunes the capture pipeline's timers and batch sizes. Defaults
// match spec.md's stated constants; cmd/cleo-agent overrides
// MaxRecordingDuration from the server-provided /me/limits response at
// startup. AutoCaptureEnabled has no cleo.json setting and keeps its default.
type Config struct {
	AutoCaptureEnabled bool

	// MaxRecordingDuration caps a single recording; server-provided via
	// /me/limits, falling back to 300s if the server omits it.
	MaxRecordingDuration time.Duration

	// AutoStopGrace is how long a burst-triggered recording keeps
	// running with no further burst-window activity before it auto-stops.
	AutoStopGrace time.Duration

	// BurstWindow and BurstClickThreshold define the auto-trigger rule:
	// within a trailing BurstWindow, >=1 foreground switch or
	// >=BurstClickThreshold clicks/keypresses starts a recording.
	BurstWindow         time.Duration
	BurstClickThreshold int

	// ScreenshotInterval is how often the screenshot loop samples the
	// screen when auto-capture is eligible.
	ScreenshotInterval time.Duration
	// ScreenshotMaxIdle is the idle-time ceiling below which screenshots
	// are still taken; beyond it the user is assumed away.
	ScreenshotMaxIdle time.Duration

	// UploadInterval is how often the batch uploaders drain the spool.
	UploadInterval time.Duration
	// MaxBatchSize bounds one classifier forward pass / upload request.
	MaxBatchSize int
	// DuplicateHashDistance is the Hamming-distance threshold at or below
	// which a screenshot is treated as a duplicate of the previous accepted one.
	DuplicateHashDistance int
	// RecordingSampleInterval is how often a recording is probed for NSFW
	// classification by sampling frames.
	RecordingSampleInterval time.Duration
}

// DefaultConfig returns spec.md's stated defaults.
func DefaultConfig() Config {
	return Config{
		AutoCaptureEnabled:      true,
		MaxRecordingDuration:    300 * time.Second,
		AutoStopGrace:           30 * time.Second,
		BurstWindow:             5 * time.Second,
		BurstClickThreshold:     5,
		ScreenshotInterval:      5 * time.Second,
		ScreenshotMaxIdle:       60 * time.Second,
		UploadInterval:          60 * time.Second,
		MaxBatchSize:            30,
		DuplicateHashDistance:   10,
		RecordingSampleInterval: 2 * time.Second,
	}
}
