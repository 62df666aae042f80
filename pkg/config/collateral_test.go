package config

import "testing"

func TestDefaultCollateralConfig(t *testing.T) {
	cfg := DefaultCollateralConfig()

	if cfg.MaxTurns != 40 {
		t.Errorf("MaxTurns = %d, want 40", cfg.MaxTurns)
	}
	if cfg.IterationTimeout <= 0 {
		t.Error("IterationTimeout must be positive")
	}
	if cfg.MaxImagesPerTweet != 4 {
		t.Errorf("MaxImagesPerTweet = %d, want 4 (platform limit)", cfg.MaxImagesPerTweet)
	}
}
