package config

import "testing"

func TestDefaultFrameWorkerConfig(t *testing.T) {
	cfg := DefaultFrameWorkerConfig()

	if cfg.WorkerCount != 3 {
		t.Errorf("WorkerCount = %d, want 3", cfg.WorkerCount)
	}
	if cfg.MaxConcurrentCaptures != 12 {
		t.Errorf("MaxConcurrentCaptures = %d, want 12", cfg.MaxConcurrentCaptures)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.MaxAttempts)
	}
	if cfg.LeaseTimeout <= cfg.PollInterval {
		t.Error("LeaseTimeout should be well above PollInterval to avoid premature reclaim")
	}
	if cfg.OrphanThreshold <= cfg.OrphanDetectionInterval {
		t.Error("OrphanThreshold should exceed OrphanDetectionInterval")
	}
}
