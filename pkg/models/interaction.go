package models

// CreateLLMInteractionRequest contains fields for creating an LLM interaction.
type CreateLLMInteractionRequest struct {
	RunID            string         `json:"run_id"`
	InteractionType  string         `json:"interaction_type"` // "iteration", "forced_conclusion"
	ModelName        string         `json:"model_name"`
	LastMessageID    *string        `json:"last_message_id,omitempty"`
	LLMRequest       map[string]any `json:"llm_request"`
	LLMResponse      map[string]any `json:"llm_response"`
	ThinkingContent  *string        `json:"thinking_content,omitempty"`
	ResponseMetadata map[string]any `json:"response_metadata,omitempty"`
	InputTokens      *int           `json:"input_tokens,omitempty"`
	OutputTokens     *int           `json:"output_tokens,omitempty"`
	TotalTokens      *int           `json:"total_tokens,omitempty"`
	DurationMs       *int           `json:"duration_ms,omitempty"`
	ErrorMessage     *string        `json:"error_message,omitempty"`
}

// CreateToolInteractionRequest contains fields for creating a tool interaction.
type CreateToolInteractionRequest struct {
	RunID         string         `json:"run_id"`
	ToolName      string         `json:"tool_name"`
	ToolArguments map[string]any `json:"tool_arguments,omitempty"`
	ToolResult    map[string]any `json:"tool_result,omitempty"`
	DurationMs    *int           `json:"duration_ms,omitempty"`
	ErrorMessage  *string        `json:"error_message,omitempty"`
}

// ────────────────────────────────────────────────────────────
// Trace List — GET /api/v1/runs/:id/trace
// ────────────────────────────────────────────────────────────

// TraceResponse is the top-level response for GET /trace.
type TraceResponse struct {
	RunID            string                   `json:"run_id"`
	LLMInteractions  []LLMInteractionListItem `json:"llm_interactions"`
	ToolInteractions []ToolInteractionListItem `json:"tool_interactions"`
}

// LLMInteractionListItem contains metadata for collapsed list view.
type LLMInteractionListItem struct {
	ID              string  `json:"id"`
	InteractionType string  `json:"interaction_type"`
	ModelName       string  `json:"model_name"`
	InputTokens     *int    `json:"input_tokens,omitempty"`
	OutputTokens    *int    `json:"output_tokens,omitempty"`
	TotalTokens     *int    `json:"total_tokens,omitempty"`
	DurationMs      *int    `json:"duration_ms,omitempty"`
	ErrorMessage    *string `json:"error_message,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// ToolInteractionListItem contains metadata for collapsed list view.
type ToolInteractionListItem struct {
	ID           string  `json:"id"`
	ToolName     string  `json:"tool_name"`
	DurationMs   *int    `json:"duration_ms,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// LLMInteractionDetailResponse is returned by GET /trace/llm/:interaction_id.
type LLMInteractionDetailResponse struct {
	ID               string                `json:"id"`
	InteractionType  string                `json:"interaction_type"`
	ModelName        string                `json:"model_name"`
	ThinkingContent  *string               `json:"thinking_content,omitempty"`
	InputTokens      *int                  `json:"input_tokens,omitempty"`
	OutputTokens     *int                  `json:"output_tokens,omitempty"`
	TotalTokens      *int                  `json:"total_tokens,omitempty"`
	DurationMs       *int                  `json:"duration_ms,omitempty"`
	ErrorMessage     *string               `json:"error_message,omitempty"`
	LLMRequest       map[string]any        `json:"llm_request"`
	LLMResponse      map[string]any        `json:"llm_response"`
	ResponseMetadata map[string]any        `json:"response_metadata,omitempty"`
	CreatedAt        string                `json:"created_at"`
	Conversation     []ConversationMessage `json:"conversation"`
}

// ConversationMessage is a single message in the reconstructed conversation.
type ConversationMessage struct {
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	ToolCalls  []MessageToolCall `json:"tool_calls,omitempty"`
	ToolCallID *string           `json:"tool_call_id,omitempty"`
	ToolName   *string           `json:"tool_name,omitempty"`
}

// MessageToolCall mirrors ent/schema's tool_calls JSON shape for API responses.
type MessageToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolInteractionDetailResponse is returned by GET /trace/tool/:interaction_id.
type ToolInteractionDetailResponse struct {
	ID            string         `json:"id"`
	ToolName      string         `json:"tool_name"`
	ToolArguments map[string]any `json:"tool_arguments,omitempty"`
	ToolResult    map[string]any `json:"tool_result,omitempty"`
	DurationMs    *int           `json:"duration_ms,omitempty"`
	ErrorMessage  *string        `json:"error_message,omitempty"`
	CreatedAt     string         `json:"created_at"`
}
