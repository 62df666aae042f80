package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/message"
	"github.com/codeready-toolchain/cleo/pkg/models"
	testdb "github.com/codeready-toolchain/cleo/test/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionService_CreateLLMInteraction(t *testing.T) {
	client := testdb.NewTestClient(t)
	messageService := NewMessageService(client.Client)
	interactionService := NewInteractionService(client.Client, messageService)
	ctx := context.Background()

	run := testAgentRun(t, client.Client)

	t.Run("creates LLM interaction with all fields", func(t *testing.T) {
		thinking := "Thinking content"
		inputTokens := 100
		outputTokens := 200
		totalTokens := 300
		durationMs := 1500

		req := models.CreateLLMInteractionRequest{
			RunID:            run.ID,
			InteractionType:  "iteration",
			ModelName:        "gemini-2.0-flash",
			LLMRequest:       map[string]any{"prompt": "test"},
			LLMResponse:      map[string]any{"text": "response"},
			ThinkingContent:  &thinking,
			ResponseMetadata: map[string]any{"grounding": true},
			InputTokens:      &inputTokens,
			OutputTokens:     &outputTokens,
			TotalTokens:      &totalTokens,
			DurationMs:       &durationMs,
		}

		interaction, err := interactionService.CreateLLMInteraction(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, req.ModelName, interaction.ModelName)
		assert.Equal(t, thinking, *interaction.ThinkingContent)
		assert.Equal(t, inputTokens, *interaction.InputTokens)
	})

	t.Run("creates interaction with no last_message_id", func(t *testing.T) {
		interaction, err := interactionService.CreateLLMInteraction(ctx, models.CreateLLMInteractionRequest{
			RunID:           run.ID,
			InteractionType: "executive_summary",
			ModelName:       "gemini-2.0-flash",
			LLMRequest:      map[string]any{"conversation": []any{}},
			LLMResponse:     map[string]any{"text_length": 42},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, interaction.ID)
		assert.Nil(t, interaction.LastMessageID)

		messages, err := interactionService.ReconstructConversation(ctx, interaction.ID)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})
}

func TestInteractionService_CreateToolInteraction(t *testing.T) {
	client := testdb.NewTestClient(t)
	messageService := NewMessageService(client.Client)
	interactionService := NewInteractionService(client.Client, messageService)
	ctx := context.Background()

	run := testAgentRun(t, client.Client)

	t.Run("creates tool interaction", func(t *testing.T) {
		durationMs := 500

		req := models.CreateToolInteractionRequest{
			RunID:         run.ID,
			ToolName:      "write_tweet",
			ToolArguments: map[string]any{"text": "hi"},
			ToolResult:    map[string]any{"tweet_id": "t-1"},
			DurationMs:    &durationMs,
		}

		interaction, err := interactionService.CreateToolInteraction(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, req.ToolName, interaction.ToolName)
		assert.Equal(t, durationMs, *interaction.DurationMs)
	})

	t.Run("creates tool interaction with error", func(t *testing.T) {
		errMsg := "capture not found"
		interaction, err := interactionService.CreateToolInteraction(ctx, models.CreateToolInteractionRequest{
			RunID:         run.ID,
			ToolName:      "get_more_context",
			ToolArguments: map[string]any{"capture_id": "missing"},
			ErrorMessage:  &errMsg,
		})
		require.NoError(t, err)
		assert.Equal(t, errMsg, *interaction.ErrorMessage)
	})
}

func TestInteractionService_GetInteractionsList(t *testing.T) {
	client := testdb.NewTestClient(t)
	messageService := NewMessageService(client.Client)
	interactionService := NewInteractionService(client.Client, messageService)
	ctx := context.Background()

	run := testAgentRun(t, client.Client)

	_, err := interactionService.CreateLLMInteraction(ctx, models.CreateLLMInteractionRequest{
		RunID:           run.ID,
		InteractionType: "iteration",
		ModelName:       "gemini-2.0-flash",
		LLMRequest:      map[string]any{},
		LLMResponse:     map[string]any{},
	})
	require.NoError(t, err)

	_, err = interactionService.CreateToolInteraction(ctx, models.CreateToolInteractionRequest{
		RunID:         run.ID,
		ToolName:      "write_tweet",
		ToolArguments: map[string]any{},
		ToolResult:    map[string]any{},
	})
	require.NoError(t, err)

	t.Run("retrieves LLM interactions list", func(t *testing.T) {
		interactions, err := interactionService.GetLLMInteractionsList(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, interactions, 1)
	})

	t.Run("retrieves tool interactions list", func(t *testing.T) {
		interactions, err := interactionService.GetToolInteractionsList(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, interactions, 1)
	})
}

func TestInteractionService_GetInteractionDetail(t *testing.T) {
	client := testdb.NewTestClient(t)
	messageService := NewMessageService(client.Client)
	interactionService := NewInteractionService(client.Client, messageService)
	ctx := context.Background()

	run := testAgentRun(t, client.Client)

	llmInt, err := interactionService.CreateLLMInteraction(ctx, models.CreateLLMInteractionRequest{
		RunID:           run.ID,
		InteractionType: "iteration",
		ModelName:       "gemini-2.0-flash",
		LLMRequest:      map[string]any{"key": "value"},
		LLMResponse:     map[string]any{"result": "data"},
	})
	require.NoError(t, err)

	toolInt, err := interactionService.CreateToolInteraction(ctx, models.CreateToolInteractionRequest{
		RunID:         run.ID,
		ToolName:      "write_tweet",
		ToolArguments: map[string]any{},
		ToolResult:    map[string]any{},
	})
	require.NoError(t, err)

	t.Run("gets LLM interaction detail", func(t *testing.T) {
		detail, err := interactionService.GetLLMInteractionDetail(ctx, llmInt.ID)
		require.NoError(t, err)
		assert.Equal(t, llmInt.ID, detail.ID)
		assert.NotNil(t, detail.LlmRequest)
	})

	t.Run("gets tool interaction detail", func(t *testing.T) {
		detail, err := interactionService.GetToolInteractionDetail(ctx, toolInt.ID)
		require.NoError(t, err)
		assert.Equal(t, toolInt.ID, detail.ID)
	})

	t.Run("returns ErrNotFound for missing LLM interaction", func(t *testing.T) {
		_, err := interactionService.GetLLMInteractionDetail(ctx, "nonexistent")
		require.Error(t, err)
		assert.Equal(t, ErrNotFound, err)
	})

	t.Run("returns ErrNotFound for missing tool interaction", func(t *testing.T) {
		_, err := interactionService.GetToolInteractionDetail(ctx, "nonexistent")
		require.Error(t, err)
		assert.Equal(t, ErrNotFound, err)
	})
}

func TestInteractionService_ReconstructConversation(t *testing.T) {
	client := testdb.NewTestClient(t)
	messageService := NewMessageService(client.Client)
	interactionService := NewInteractionService(client.Client, messageService)
	ctx := context.Background()

	run := testAgentRun(t, client.Client)

	t.Run("reconstructs conversation from last_message_id", func(t *testing.T) {
		_, err := messageService.CreateMessage(ctx, models.CreateMessageRequest{
			RunID:          run.ID,
			SequenceNumber: 1,
			Role:           message.RoleSystem,
			Content:        "System prompt",
		})
		require.NoError(t, err)

		msg2, err := messageService.CreateMessage(ctx, models.CreateMessageRequest{
			RunID:          run.ID,
			SequenceNumber: 2,
			Role:           message.RoleUser,
			Content:        "User message",
		})
		require.NoError(t, err)

		_, err = messageService.CreateMessage(ctx, models.CreateMessageRequest{
			RunID:          run.ID,
			SequenceNumber: 3,
			Role:           message.RoleAssistant,
			Content:        "Assistant response",
		})
		require.NoError(t, err)

		interaction, err := interactionService.CreateLLMInteraction(ctx, models.CreateLLMInteractionRequest{
			RunID:           run.ID,
			InteractionType: "iteration",
			ModelName:       "test-model",
			LastMessageID:   &msg2.ID,
			LLMRequest:      map[string]any{},
			LLMResponse:     map[string]any{},
		})
		require.NoError(t, err)

		conversation, err := interactionService.ReconstructConversation(ctx, interaction.ID)
		require.NoError(t, err)
		assert.Len(t, conversation, 2)
		assert.Equal(t, message.RoleSystem, conversation[0].Role)
		assert.Equal(t, message.RoleUser, conversation[1].Role)
	})

	t.Run("returns empty conversation when no last_message_id", func(t *testing.T) {
		interaction, err := interactionService.CreateLLMInteraction(ctx, models.CreateLLMInteractionRequest{
			RunID:           run.ID,
			InteractionType: "iteration",
			ModelName:       "test-model",
			LLMRequest:      map[string]any{},
			LLMResponse:     map[string]any{},
		})
		require.NoError(t, err)

		conversation, err := interactionService.ReconstructConversation(ctx, interaction.ID)
		require.NoError(t, err)
		assert.Len(t, conversation, 0)
	})

	t.Run("handles last_message_id pointing to first message", func(t *testing.T) {
		run2 := testAgentRun(t, client.Client)

		msg1, err := messageService.CreateMessage(ctx, models.CreateMessageRequest{
			RunID:          run2.ID,
			SequenceNumber: 1,
			Role:           message.RoleSystem,
			Content:        "First message",
		})
		require.NoError(t, err)

		interaction, err := interactionService.CreateLLMInteraction(ctx, models.CreateLLMInteractionRequest{
			RunID:           run2.ID,
			InteractionType: "iteration",
			ModelName:       "test-model",
			LastMessageID:   &msg1.ID,
			LLMRequest:      map[string]any{},
			LLMResponse:     map[string]any{},
		})
		require.NoError(t, err)

		conversation, err := interactionService.ReconstructConversation(ctx, interaction.ID)
		require.NoError(t, err)
		assert.Len(t, conversation, 1)
		assert.Equal(t, message.RoleSystem, conversation[0].Role)
	})

	t.Run("handles last_message_id pointing to middle of long conversation", func(t *testing.T) {
		run3 := testAgentRun(t, client.Client)

		var messages []*ent.Message
		for i := 1; i <= 10; i++ {
			role := message.RoleUser
			if i%2 == 0 {
				role = message.RoleAssistant
			}
			msg, err := messageService.CreateMessage(ctx, models.CreateMessageRequest{
				RunID:          run3.ID,
				SequenceNumber: i,
				Role:           role,
				Content:        fmt.Sprintf("Message %d", i),
			})
			require.NoError(t, err)
			messages = append(messages, msg)
		}

		interaction, err := interactionService.CreateLLMInteraction(ctx, models.CreateLLMInteractionRequest{
			RunID:           run3.ID,
			InteractionType: "iteration",
			ModelName:       "test-model",
			LastMessageID:   &messages[4].ID,
			LLMRequest:      map[string]any{},
			LLMResponse:     map[string]any{},
		})
		require.NoError(t, err)

		conversation, err := interactionService.ReconstructConversation(ctx, interaction.ID)
		require.NoError(t, err)
		assert.Len(t, conversation, 5)
		assert.Equal(t, "Message 1", conversation[0].Content)
		assert.Equal(t, "Message 5", conversation[4].Content)
	})

	t.Run("returns error for nonexistent interaction", func(t *testing.T) {
		_, err := interactionService.ReconstructConversation(ctx, "nonexistent-id")
		require.Error(t, err)
		assert.Equal(t, ErrNotFound, err)
	})

	t.Run("handles run with no messages at all", func(t *testing.T) {
		run4 := testAgentRun(t, client.Client)

		interaction, err := interactionService.CreateLLMInteraction(ctx, models.CreateLLMInteractionRequest{
			RunID:           run4.ID,
			InteractionType: "iteration",
			ModelName:       "test-model",
			LLMRequest:      map[string]any{},
			LLMResponse:     map[string]any{},
		})
		require.NoError(t, err)

		conversation, err := interactionService.ReconstructConversation(ctx, interaction.ID)
		require.NoError(t, err)
		assert.Len(t, conversation, 0)
	})
}
