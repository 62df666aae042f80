package config

import "time"

// CollateralConfig controls the Collateral Agent's bounded tool-calling loop.
type CollateralConfig struct {
	// MaxTurns is the hard cap on ReAct iterations. When it is reached
	// without a mark_complete call, the loop ends and keeps whatever was
	// drafted. Matches the original implementation.
	MaxTurns int `yaml:"max_turns" validate:"required,min=1"`

	// IterationTimeout bounds a single LLM call within one turn.
	IterationTimeout time.Duration `yaml:"iteration_timeout"`

	// MaxImagesPerTweet caps how many image_capture_ids a single write_tweet
	// call may attach (Twitter's own limit is 4).
	MaxImagesPerTweet int `yaml:"max_images_per_tweet"`
}

// DefaultCollateralConfig returns the built-in collateral agent defaults.
func DefaultCollateralConfig() *CollateralConfig {
	return &CollateralConfig{
		MaxTurns:          40,
		IterationTimeout:  60 * time.Second,
		MaxImagesPerTweet: 4,
	}
}
