package config

import "testing"

func TestDefaultRetentionConfig(t *testing.T) {
	cfg := DefaultRetentionConfig()

	if cfg.CaptureRetentionDays != 30 {
		t.Errorf("CaptureRetentionDays = %d, want 30", cfg.CaptureRetentionDays)
	}
	if cfg.EventTTL <= 0 {
		t.Error("EventTTL must be positive")
	}
	if cfg.CleanupInterval <= 0 {
		t.Error("CleanupInterval must be positive")
	}
}
