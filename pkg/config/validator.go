package config

import "fmt"

// Validator checks a loaded Config for internal consistency. Unlike the
// registry cross-reference checks a multi-agent system needs, cleo's
// validator only has to confirm the handful of scalar knobs that would
// otherwise fail confusingly deep inside a worker or the agent loop.
type Validator struct {
	cfg *Config
}

// NewValidator creates a Validator for the given config.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll runs every check and returns the first failure encountered.
func (v *Validator) ValidateAll() error {
	checks := []func() error{
		v.validateLLM,
		v.validateFrameWorker,
		v.validateScheduler,
		v.validateCollateral,
		v.validatePublish,
		v.validateRetention,
	}

	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}

	return nil
}

func (v *Validator) validateLLM() error {
	llm := v.cfg.LLM
	if llm == nil {
		return NewValidationError("llm", "", fmt.Errorf("%w: llm config is required", ErrMissingRequiredField))
	}
	if llm.Model == "" {
		return NewValidationError("llm", "model", ErrMissingRequiredField)
	}
	switch llm.Type {
	case LLMProviderTypeGoogle, LLMProviderTypeOpenAI, LLMProviderTypeAnthropic, LLMProviderTypeLocal:
	default:
		return NewValidationError("llm", "type", fmt.Errorf("%w: %q", ErrInvalidValue, llm.Type))
	}
	if llm.Type != LLMProviderTypeLocal && llm.APIKeyEnv == "" {
		return NewValidationError("llm", "api_key_env", ErrMissingRequiredField)
	}
	return nil
}

func (v *Validator) validateFrameWorker() error {
	fw := v.cfg.FrameWorker
	if fw.WorkerCount <= 0 {
		return NewValidationError("frame_worker", "worker_count", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if fw.MaxConcurrentCaptures <= 0 {
		return NewValidationError("frame_worker", "max_concurrent_captures", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if fw.LeaseTimeout <= 0 {
		return NewValidationError("frame_worker", "lease_timeout", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if fw.MaxAttempts <= 0 {
		return NewValidationError("frame_worker", "max_attempts", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateScheduler() error {
	s := v.cfg.Scheduler
	if s.CheckInterval <= 0 {
		return NewValidationError("scheduler", "check_interval", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if s.RunningRunTimeout <= 0 {
		return NewValidationError("scheduler", "running_run_timeout", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if s.IdleDuration <= 0 {
		return NewValidationError("scheduler", "idle_duration", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if s.MaxConcurrentTasks <= 0 {
		return NewValidationError("scheduler", "max_concurrent_tasks", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateCollateral() error {
	c := v.cfg.Collateral
	if c.MaxTurns <= 0 {
		return NewValidationError("collateral", "max_turns", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if c.IterationTimeout <= 0 {
		return NewValidationError("collateral", "iteration_timeout", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if c.MaxImagesPerTweet <= 0 {
		return NewValidationError("collateral", "max_images_per_tweet", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validatePublish() error {
	p := v.cfg.Publish
	if p.MediaChunkSizeBytes <= 0 {
		return NewValidationError("publish", "media_chunk_size_bytes", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if p.MaxRetries < 0 {
		return NewValidationError("publish", "max_retries", fmt.Errorf("%w: must not be negative", ErrInvalidValue))
	}
	if p.RateLimit <= 0 {
		return NewValidationError("publish", "rate_limit", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}

func (v *Validator) validateRetention() error {
	r := v.cfg.Retention
	if r.CaptureRetentionDays <= 0 {
		return NewValidationError("retention", "capture_retention_days", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}
