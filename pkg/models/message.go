package models

import "github.com/codeready-toolchain/cleo/ent"

// CreateMessageRequest contains fields for creating a conversation message
// within an agent run.
type CreateMessageRequest struct {
	RunID          string           `json:"run_id"`
	SequenceNumber int              `json:"sequence_number"`
	Role           string           `json:"role"` // "system", "user", "assistant", "tool"
	Content        string           `json:"content"`
	ToolCalls      []MessageToolCallRequest `json:"tool_calls,omitempty"`
	ToolCallID     string           `json:"tool_call_id,omitempty"`
	ToolName       string           `json:"tool_name,omitempty"`
}

// MessageToolCallRequest is one tool invocation attached to an assistant message.
type MessageToolCallRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// MessageResponse wraps a Message.
type MessageResponse struct {
	*ent.Message
}
