package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// CleoYAMLConfig represents the complete cleo.yaml file structure.
type CleoYAMLConfig struct {
	System      *SystemYAMLConfig  `yaml:"system"`
	Defaults    *Defaults          `yaml:"defaults"`
	LLM         *LLMConfig         `yaml:"llm"`
	FrameWorker *FrameWorkerConfig `yaml:"frame_worker"`
	Scheduler   *SchedulerConfig   `yaml:"scheduler"`
	Collateral  *CollateralConfig  `yaml:"collateral"`
	Publish     *PublishConfig     `yaml:"publish"`
}

// SystemYAMLConfig groups system-wide infrastructure settings.
type SystemYAMLConfig struct {
	DashboardURL     string            `yaml:"dashboard_url"`
	AllowedWSOrigins []string          `yaml:"allowed_ws_origins"`
	OCR              *OCRYAMLConfig    `yaml:"ocr"`
	Notify           *NotifyYAMLConfig `yaml:"notify"`
	Retention        *RetentionConfig  `yaml:"retention"`
}

// OCRYAMLConfig holds OCR service settings from YAML.
type OCRYAMLConfig struct {
	ServiceURL     string   `yaml:"service_url,omitempty"`
	CacheTTL       string   `yaml:"cache_ttl,omitempty"` // Parsed to time.Duration
	AllowedDomains []string `yaml:"allowed_domains,omitempty"`
}

// NotifyYAMLConfig holds push notification settings from YAML.
type NotifyYAMLConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	TokenEnv string `yaml:"token_env,omitempty"`
	Channel  string `yaml:"channel,omitempty"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load cleo.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge user-provided values over built-in defaults
//  5. Validate all configuration
//  6. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized successfully",
		"llm_model", cfg.LLM.Model,
		"frame_worker_count", cfg.FrameWorker.WorkerCount,
		"collateral_max_turns", cfg.Collateral.MaxTurns)

	return cfg, nil
}

// load is the internal loader (not exported).
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlConfig, err := loader.loadCleoYAML()
	if err != nil {
		return nil, NewLoadError("cleo.yaml", err)
	}

	// Resolve each sub-config: start from built-in defaults, merge the
	// user-provided YAML on top (non-zero values override).
	llmCfg := DefaultLLMConfig()
	if yamlConfig.LLM != nil {
		if err := mergo.Merge(llmCfg, yamlConfig.LLM, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge llm config: %w", err)
		}
	}

	frameWorkerCfg := DefaultFrameWorkerConfig()
	if yamlConfig.FrameWorker != nil {
		if err := mergo.Merge(frameWorkerCfg, yamlConfig.FrameWorker, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge frame_worker config: %w", err)
		}
	}

	schedulerCfg := DefaultSchedulerConfig()
	if yamlConfig.Scheduler != nil {
		if err := mergo.Merge(schedulerCfg, yamlConfig.Scheduler, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge scheduler config: %w", err)
		}
	}

	collateralCfg := DefaultCollateralConfig()
	if yamlConfig.Collateral != nil {
		if err := mergo.Merge(collateralCfg, yamlConfig.Collateral, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge collateral config: %w", err)
		}
	}

	publishCfg := DefaultPublishConfig()
	if yamlConfig.Publish != nil {
		if err := mergo.Merge(publishCfg, yamlConfig.Publish, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge publish config: %w", err)
		}
	}

	defaults := yamlConfig.Defaults
	if defaults == nil {
		defaults = &Defaults{}
	}
	if defaults.NudgeMasking == nil {
		defaults.NudgeMasking = &MaskingConfig{
			Enabled:       true,
			PatternGroups: []string{"secrets", "pii"},
		}
	}

	return &Config{
		configDir:        configDir,
		Defaults:         defaults,
		LLM:              llmCfg,
		FrameWorker:      frameWorkerCfg,
		Scheduler:        schedulerCfg,
		Collateral:       collateralCfg,
		Publish:          publishCfg,
		OCR:              resolveOCRConfig(yamlConfig.System),
		Notify:           resolveNotifyConfig(yamlConfig.System),
		Retention:        resolveRetentionConfig(yamlConfig.System),
		DashboardURL:     resolveDashboardURL(yamlConfig.System),
		AllowedWSOrigins: resolveAllowedWSOrigins(yamlConfig.System),
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand environment variables (shell-style ${VAR}/$VAR syntax).
	// ExpandEnv has no error path: unset variables expand to the empty
	// string and the YAML parser sees the result.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadCleoYAML() (*CleoYAMLConfig, error) {
	var config CleoYAMLConfig
	if err := l.loadYAML("cleo.yaml", &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// resolveOCRConfig resolves OCR configuration from system YAML, applying defaults.
func resolveOCRConfig(sys *SystemYAMLConfig) *OCRConfig {
	cfg := DefaultOCRConfig()

	if sys == nil || sys.OCR == nil {
		return cfg
	}

	o := sys.OCR
	if o.ServiceURL != "" {
		cfg.ServiceURL = o.ServiceURL
	}
	if len(o.AllowedDomains) > 0 {
		cfg.AllowedDomains = o.AllowedDomains
	}
	if o.CacheTTL != "" {
		if d, err := time.ParseDuration(o.CacheTTL); err == nil {
			cfg.CacheTTL = d
		} else {
			slog.Warn("Invalid cache_ttl in ocr config, using default",
				"value", o.CacheTTL, "default", cfg.CacheTTL, "error", err)
		}
	}

	return cfg
}

// resolveNotifyConfig resolves push notification configuration from system YAML.
func resolveNotifyConfig(sys *SystemYAMLConfig) *NotifyConfig {
	cfg := &NotifyConfig{
		Enabled:  false,
		TokenEnv: "NOTIFY_TOKEN",
	}

	if sys == nil || sys.Notify == nil {
		return cfg
	}

	n := sys.Notify
	if n.Enabled != nil {
		cfg.Enabled = *n.Enabled
	}
	if n.TokenEnv != "" {
		cfg.TokenEnv = n.TokenEnv
	}
	if n.Channel != "" {
		cfg.Channel = n.Channel
	}

	return cfg
}

// resolveDashboardURL resolves the dashboard base URL from system YAML, applying defaults.
func resolveDashboardURL(sys *SystemYAMLConfig) string {
	if sys != nil && sys.DashboardURL != "" {
		return sys.DashboardURL
	}
	return "http://localhost:5173"
}

// resolveRetentionConfig resolves retention configuration from system YAML, applying defaults.
func resolveRetentionConfig(sys *SystemYAMLConfig) *RetentionConfig {
	cfg := DefaultRetentionConfig()

	if sys == nil || sys.Retention == nil {
		return cfg
	}

	r := sys.Retention
	if r.CaptureRetentionDays > 0 {
		cfg.CaptureRetentionDays = r.CaptureRetentionDays
	}
	if r.EventTTL > 0 {
		cfg.EventTTL = r.EventTTL
	}
	if r.CleanupInterval > 0 {
		cfg.CleanupInterval = r.CleanupInterval
	}

	return cfg
}

// resolveAllowedWSOrigins returns additional WebSocket origin patterns from system YAML.
func resolveAllowedWSOrigins(sys *SystemYAMLConfig) []string {
	if sys != nil {
		return sys.AllowedWSOrigins
	}
	return nil
}
