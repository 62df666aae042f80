package config

import "testing"

func TestDefaultPublishConfig(t *testing.T) {
	cfg := DefaultPublishConfig()

	if cfg.MediaChunkSizeBytes != 1<<20 {
		t.Errorf("MediaChunkSizeBytes = %d, want 1MiB", cfg.MediaChunkSizeBytes)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RateLimit <= 0 {
		t.Error("RateLimit must be positive")
	}
	if cfg.RateLimitBurst < 1 {
		t.Error("RateLimitBurst must be at least 1")
	}
}
