// Package llm provides the gRPC client the Collateral Agent uses to reach
// the LLM sidecar process. cleo runs exactly one model per deployment, so
// unlike a multi-backend chain system this package exposes a single
// streaming Generate call rather than a provider registry.
package llm

import "context"

// Conversation message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ConversationMessage is one turn in the conversation sent to the sidecar.
type ConversationMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// ToolDefinition describes a tool available to the LLM for native function calling.
type ToolDefinition struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	ParametersSchema string `json:"parameters_schema"` // JSON Schema
}

// ToolCall represents the LLM's request to call a tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON
}

// GenerateInput is a single Generate request to the sidecar.
type GenerateInput struct {
	RunID    string                 `json:"run_id"`
	Messages []ConversationMessage  `json:"messages"`
	Model    string                 `json:"model"`
	Tools    []ToolDefinition       `json:"tools,omitempty"` // nil = no tools
	Extra    map[string]interface{} `json:"extra,omitempty"`
}

// TokenUsage reports token consumption for one Generate call.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ChunkType identifies the kind of streaming chunk.
type ChunkType string

const (
	ChunkTypeText     ChunkType = "text"
	ChunkTypeToolCall ChunkType = "tool_call"
	ChunkTypeUsage    ChunkType = "usage"
	ChunkTypeError    ChunkType = "error"
)

// Chunk is one frame of a streamed Generate response. Exactly one of the
// typed fields is populated, selected by Type — mirrors the wire shape the
// sidecar sends so no separate decode step is needed per chunk kind.
type Chunk struct {
	Type ChunkType `json:"type"`

	Text string `json:"text,omitempty"`

	ToolCallID        string `json:"tool_call_id,omitempty"`
	ToolCallName      string `json:"tool_call_name,omitempty"`
	ToolCallArguments string `json:"tool_call_arguments,omitempty"`

	Usage *TokenUsage `json:"usage,omitempty"`

	ErrorMessage   string `json:"error_message,omitempty"`
	ErrorRetryable bool   `json:"error_retryable,omitempty"`
}

// Client is the Go-side interface for calling the LLM sidecar.
type Client interface {
	// Generate streams a conversation to the LLM. The returned channel is
	// closed when the stream completes; errors are delivered as a Chunk
	// with Type == ChunkTypeError.
	Generate(ctx context.Context, input *GenerateInput) (<-chan Chunk, error)
	Close() error
}
