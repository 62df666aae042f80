package config

// Shared types used across configuration structs.

// MaskingConfig defines data masking configuration for text that leaves
// the process boundary: tool arguments sent to the LLM sidecar, push
// notification bodies, and published tweet/thread text. It is loaded and
// defaulted only; nothing in this repository applies the patterns.
type MaskingConfig struct {
	Enabled        bool             `yaml:"enabled"`
	PatternGroups  []string         `yaml:"pattern_groups,omitempty"`
	Patterns       []string         `yaml:"patterns,omitempty"`
	CustomPatterns []MaskingPattern `yaml:"custom_patterns,omitempty"`
}

// MaskingPattern defines a regex-based masking pattern.
type MaskingPattern struct {
	Pattern     string `yaml:"pattern" validate:"required"`
	Replacement string `yaml:"replacement" validate:"required"`
	Description string `yaml:"description,omitempty"`
}
