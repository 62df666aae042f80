package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeCleoYAML(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "cleo.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write cleo.yaml: %v", err)
	}
}

func TestInitialize_MinimalYAMLAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeCleoYAML(t, dir, `
llm:
  type: google
  model: gemini-2.5-flash
`)

	cfg, err := Initialize(context.Background(), dir)
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if cfg.LLM.APIKeyEnv != "GOOGLE_API_KEY" {
		t.Errorf("expected default APIKeyEnv to survive merge, got %q", cfg.LLM.APIKeyEnv)
	}
	if cfg.FrameWorker.WorkerCount != 3 {
		t.Errorf("expected default FrameWorker.WorkerCount, got %d", cfg.FrameWorker.WorkerCount)
	}
	if cfg.Collateral.MaxTurns != 40 {
		t.Errorf("expected default Collateral.MaxTurns, got %d", cfg.Collateral.MaxTurns)
	}
	if cfg.DashboardURL != "http://localhost:5173" {
		t.Errorf("expected default DashboardURL, got %q", cfg.DashboardURL)
	}
}

func TestInitialize_UserValueOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	writeCleoYAML(t, dir, `
llm:
  type: google
  model: gemini-2.5-flash
frame_worker:
  worker_count: 7
`)

	cfg, err := Initialize(context.Background(), dir)
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if cfg.FrameWorker.WorkerCount != 7 {
		t.Errorf("FrameWorker.WorkerCount = %d, want 7", cfg.FrameWorker.WorkerCount)
	}
	// Fields the user didn't override should still carry their defaults.
	if cfg.FrameWorker.MaxAttempts != 5 {
		t.Errorf("FrameWorker.MaxAttempts = %d, want default 5", cfg.FrameWorker.MaxAttempts)
	}
}

func TestInitialize_EnvVarExpansion(t *testing.T) {
	t.Setenv("CLEO_TEST_DASHBOARD_URL", "https://dash.example.com")

	dir := t.TempDir()
	writeCleoYAML(t, dir, `
llm:
  type: google
  model: gemini-2.5-flash
system:
  dashboard_url: ${CLEO_TEST_DASHBOARD_URL}
`)

	cfg, err := Initialize(context.Background(), dir)
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if cfg.DashboardURL != "https://dash.example.com" {
		t.Errorf("DashboardURL = %q, want expanded env value", cfg.DashboardURL)
	}
}

func TestInitialize_MissingFileReturnsLoadError(t *testing.T) {
	dir := t.TempDir()

	_, err := Initialize(context.Background(), dir)
	if err == nil {
		t.Fatal("expected error for missing cleo.yaml")
	}
}

func TestInitialize_InvalidConfigFailsValidation(t *testing.T) {
	dir := t.TempDir()
	writeCleoYAML(t, dir, `
llm:
  type: not-a-real-provider
  model: gemini-2.5-flash
`)

	_, err := Initialize(context.Background(), dir)
	if err == nil {
		t.Fatal("expected validation error for invalid llm type")
	}
}

func TestInitialize_NotifyAndOCRResolution(t *testing.T) {
	dir := t.TempDir()
	writeCleoYAML(t, dir, `
llm:
  type: google
  model: gemini-2.5-flash
system:
  notify:
    enabled: true
    channel: "#cleo-digests"
  ocr:
    service_url: "http://ocr.internal:8080"
    allowed_domains:
      - "cdn.example.com"
`)

	cfg, err := Initialize(context.Background(), dir)
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if !cfg.Notify.Enabled {
		t.Error("expected Notify.Enabled to be true")
	}
	if cfg.Notify.Channel != "#cleo-digests" {
		t.Errorf("Notify.Channel = %q, want #cleo-digests", cfg.Notify.Channel)
	}
	if cfg.OCR.ServiceURL != "http://ocr.internal:8080" {
		t.Errorf("OCR.ServiceURL = %q, want http://ocr.internal:8080", cfg.OCR.ServiceURL)
	}
	if len(cfg.OCR.AllowedDomains) != 1 || cfg.OCR.AllowedDomains[0] != "cdn.example.com" {
		t.Errorf("unexpected OCR.AllowedDomains: %v", cfg.OCR.AllowedDomains)
	}
}
