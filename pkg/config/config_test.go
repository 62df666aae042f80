package config

import "testing"

func TestConfig_ConfigDir(t *testing.T) {
	cfg := &Config{configDir: "/etc/cleo"}
	if got := cfg.ConfigDir(); got != "/etc/cleo" {
		t.Errorf("ConfigDir() = %q, want /etc/cleo", got)
	}
}

func validConfig() *Config {
	return &Config{
		configDir:   "/etc/cleo",
		Defaults:    &Defaults{NudgeMasking: &MaskingConfig{Enabled: true}},
		LLM:         DefaultLLMConfig(),
		FrameWorker: DefaultFrameWorkerConfig(),
		Scheduler:   DefaultSchedulerConfig(),
		Collateral:  DefaultCollateralConfig(),
		Publish:     DefaultPublishConfig(),
		Retention:   DefaultRetentionConfig(),
		OCR:         &OCRConfig{AllowedDomains: []string{"*"}},
		Notify:      &NotifyConfig{Enabled: false, TokenEnv: "NOTIFY_TOKEN"},
		DashboardURL:     "http://localhost:5173",
		AllowedWSOrigins: []string{"http://localhost:5173"},
	}
}
