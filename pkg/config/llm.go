package config

// LLMConfig defines the single LLM backend the Collateral Agent calls
// through the pkg/llm gRPC sidecar client. Unlike the multi-agent chain
// systems this package is descended from, cleo has exactly one model in
// play per deployment — no per-agent provider selection.
type LLMConfig struct {
	// Provider type (required)
	Type LLMProviderType `yaml:"type" validate:"required"`

	// Model name (required), e.g. "gemini-2.5-flash"
	Model string `yaml:"model" validate:"required"`

	// Environment variable name for the API key
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// SidecarAddr is the gRPC address of the LLM sidecar process.
	SidecarAddr string `yaml:"sidecar_addr,omitempty"`

	// Maximum tokens to keep from a single tool result before truncation.
	MaxToolResultTokens int `yaml:"max_tool_result_tokens" validate:"required,min=1000"`
}

// DefaultLLMConfig returns the built-in LLM defaults.
func DefaultLLMConfig() *LLMConfig {
	return &LLMConfig{
		Type:                LLMProviderTypeGoogle,
		Model:               "gemini-2.5-flash",
		APIKeyEnv:           "GOOGLE_API_KEY",
		SidecarAddr:         "localhost:50051",
		MaxToolResultTokens: 4000,
	}
}
