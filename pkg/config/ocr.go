package config

import "time"

// OCRConfig controls the external OCR service the ExtractText tool calls.
type OCRConfig struct {
	// ServiceURL is the base URL of the external OCR HTTP endpoint.
	ServiceURL string `yaml:"service_url"`

	// APIKeyEnv names the env var holding the OCR service's bearer token.
	APIKeyEnv string `yaml:"api_key_env"`

	// RequestTimeout bounds a single OCR call.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// CacheTTL controls how long an extracted frame's OCR text is cached,
	// keyed by capture ID and timestamp, to avoid re-OCRing the same frame
	// across tool calls within one run.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// AllowedDomains restricts which hosts ServiceURL may resolve to; "*"
	// disables the check. Guards against SSRF via an operator-editable URL.
	AllowedDomains []string `yaml:"allowed_domains"`
}

// DefaultOCRConfig returns the built-in OCR service defaults.
func DefaultOCRConfig() *OCRConfig {
	return &OCRConfig{
		ServiceURL:     "http://localhost:8090",
		APIKeyEnv:      "OCR_API_KEY",
		RequestTimeout: 15 * time.Second,
		CacheTTL:       10 * time.Minute,
		AllowedDomains: []string{"*"},
	}
}
