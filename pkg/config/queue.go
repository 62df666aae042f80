package config

import "time"

// FrameWorkerConfig contains the claim-and-lease worker pool configuration
// shared by the frame extraction and thumbnail generation workers. These
// values control how pending captures are polled, claimed, and processed.
type FrameWorkerConfig struct {
	// WorkerCount is the number of worker goroutines per replica/pod.
	// Each worker independently polls and processes captures.
	WorkerCount int `yaml:"worker_count"`

	// MaxConcurrentCaptures is the global limit of concurrent captures being
	// processed across ALL replicas/pods. Enforced by database COUNT(*) check.
	MaxConcurrentCaptures int `yaml:"max_concurrent_captures"`

	// PollInterval is the base interval for checking unprocessed captures.
	PollInterval time.Duration `yaml:"poll_interval"`

	// PollIntervalJitter is the random jitter added to PollInterval.
	// Actual interval: PollInterval ± PollIntervalJitter.
	PollIntervalJitter time.Duration `yaml:"poll_interval_jitter"`

	// LeaseTimeout is the maximum time a capture can remain claimed before
	// another worker is allowed to reclaim it.
	LeaseTimeout time.Duration `yaml:"lease_timeout"`

	// GracefulShutdownTimeout is the max time to wait for active captures
	// to finish processing during shutdown.
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`

	// OrphanDetectionInterval is how often to scan for claimed-but-stalled captures.
	OrphanDetectionInterval time.Duration `yaml:"orphan_detection_interval"`

	// OrphanThreshold is how long a capture can be claimed without progress
	// before it is considered orphaned and re-queued.
	OrphanThreshold time.Duration `yaml:"orphan_threshold"`

	// MaxAttempts is the number of processing attempts before a capture is
	// marked permanently failed (frame_error persists, frames_processing cleared).
	MaxAttempts int `yaml:"max_attempts"`
}

// DefaultFrameWorkerConfig returns the built-in frame worker defaults.
func DefaultFrameWorkerConfig() *FrameWorkerConfig {
	return &FrameWorkerConfig{
		WorkerCount:             3,
		MaxConcurrentCaptures:   12,
		PollInterval:            5 * time.Second,
		PollIntervalJitter:      500 * time.Millisecond,
		LeaseTimeout:            900 * time.Second,
		GracefulShutdownTimeout: 1 * time.Minute,
		OrphanDetectionInterval: 5 * time.Minute,
		OrphanThreshold:         10 * time.Minute,
		MaxAttempts:             5,
	}
}
