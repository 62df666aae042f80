package config

import "time"

// SchedulerConfig controls the cycle that wakes the Collateral Agent for
// idle users with unprocessed captures.
type SchedulerConfig struct {
	// CheckInterval is how often the scheduler scans for eligible users.
	CheckInterval time.Duration `yaml:"check_interval"`

	// RunningRunTimeout is how old a user's "running" AgentRun must be
	// before it no longer blocks a new dispatch for that user. Matches the
	// Collateral Agent's own stale-run sweep threshold.
	RunningRunTimeout time.Duration `yaml:"running_run_timeout"`

	// IdleDuration is how long a user must have gone without a new capture
	// before a run is dispatched, so a batch of captures still arriving
	// isn't split across two runs.
	IdleDuration time.Duration `yaml:"idle_duration"`

	// MaxConcurrentTasks bounds how many per-user agent tasks a single
	// scheduler cycle spawns at once.
	MaxConcurrentTasks int `yaml:"max_concurrent_tasks"`
}

// DefaultSchedulerConfig returns the built-in scheduler defaults.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		CheckInterval:      5 * time.Minute,
		RunningRunTimeout:  30 * time.Minute,
		IdleDuration:       30 * time.Minute,
		MaxConcurrentTasks: 10,
	}
}
