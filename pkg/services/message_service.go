package services

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/message"
	"github.com/codeready-toolchain/cleo/pkg/models"
	"github.com/google/uuid"
)

// MessageService manages the LLM conversation history for agent runs.
type MessageService struct {
	client *ent.Client
}

// NewMessageService creates a new MessageService.
func NewMessageService(client *ent.Client) *MessageService {
	return &MessageService{client: client}
}

// CreateMessage appends a message to a run's conversation history.
func (s *MessageService) CreateMessage(ctx context.Context, req models.CreateMessageRequest) (*ent.Message, error) {
	if req.RunID == "" {
		return nil, NewValidationError("run_id", "required")
	}
	role := message.Role(req.Role)
	if req.Role == "" {
		return nil, NewValidationError("role", "required")
	}
	if err := message.RoleValidator(role); err != nil {
		return nil, NewValidationError("role", fmt.Sprintf("invalid role %q: %v", req.Role, err))
	}
	// Assistant messages that only carry tool calls can legally have empty content.
	if req.Content == "" && !(role == message.RoleAssistant && len(req.ToolCalls) > 0) {
		return nil, NewValidationError("content", "required")
	}

	messageID := uuid.New().String()
	builder := s.client.Message.Create().
		SetID(messageID).
		SetRunID(req.RunID).
		SetSequenceNumber(req.SequenceNumber).
		SetRole(role).
		SetContent(req.Content).
		SetCreatedAt(time.Now())

	if len(req.ToolCalls) > 0 {
		toolCalls := make([]map[string]interface{}, len(req.ToolCalls))
		for i, tc := range req.ToolCalls {
			toolCalls[i] = map[string]interface{}{
				"id":        tc.ID,
				"name":      tc.Name,
				"arguments": tc.Arguments,
			}
		}
		builder = builder.SetToolCalls(toolCalls)
	}
	if req.ToolCallID != "" {
		builder = builder.SetToolCallID(req.ToolCallID)
	}
	if req.ToolName != "" {
		builder = builder.SetToolName(req.ToolName)
	}

	msg, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return msg, nil
}

// GetRunMessages retrieves all messages for a run in conversation order,
// i.e. the full transcript to replay into the next iteration's prompt.
func (s *MessageService) GetRunMessages(ctx context.Context, runID string) ([]*ent.Message, error) {
	messages, err := s.client.Message.Query().
		Where(message.RunIDEQ(runID)).
		Order(ent.Asc(message.FieldSequenceNumber)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get run messages: %w", err)
	}

	return messages, nil
}

// GetMessagesUpToSequence retrieves messages up to a specific sequence number,
// used to rebuild the prompt context for a retried tool call.
func (s *MessageService) GetMessagesUpToSequence(ctx context.Context, runID string, sequenceNumber int) ([]*ent.Message, error) {
	messages, err := s.client.Message.Query().
		Where(
			message.RunIDEQ(runID),
			message.SequenceNumberLTE(sequenceNumber),
		).
		Order(ent.Asc(message.FieldSequenceNumber)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	return messages, nil
}
