package config

import "time"

// PublishConfig controls the Publish Orchestrator's local-before-remote
// posting flow and chunked media upload behavior.
type PublishConfig struct {
	// MediaChunkSizeBytes is the chunk size used for Twitter's chunked media
	// upload endpoint.
	MediaChunkSizeBytes int `yaml:"media_chunk_size_bytes"`

	// MaxRetries is the number of attempts before publish_status transitions
	// to failed and publish_error is set.
	MaxRetries int `yaml:"max_retries"`

	// RetryBaseDelay is the base delay for exponential backoff between
	// publish attempts.
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`

	// RateLimit is the steady-state rate of publish calls allowed against
	// the platform API, in requests per second.
	RateLimit float64 `yaml:"rate_limit"`

	// RateLimitBurst is the token bucket burst size.
	RateLimitBurst int `yaml:"rate_limit_burst"`

	// StatusCheckInterval is how often the chunked video upload polls the
	// platform's STATUS endpoint while processing is in flight.
	StatusCheckInterval time.Duration `yaml:"status_check_interval"`
}

// DefaultPublishConfig returns the built-in publish defaults.
func DefaultPublishConfig() *PublishConfig {
	return &PublishConfig{
		MediaChunkSizeBytes: 1 << 20, // 1 MiB
		MaxRetries:          3,
		RetryBaseDelay:      2 * time.Second,
		RateLimit:           1,
		RateLimitBurst:      3,
		StatusCheckInterval: 5 * time.Second,
	}
}
