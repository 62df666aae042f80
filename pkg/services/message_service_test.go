package services

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/cleo/pkg/models"
	testdb "github.com/codeready-toolchain/cleo/test/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageService_CreateAndRetrieve(t *testing.T) {
	client := testdb.NewTestClient(t)
	messageService := NewMessageService(client.Client)
	ctx := context.Background()

	run := testAgentRun(t, client.Client)

	t.Run("creates and retrieves messages", func(t *testing.T) {
		msg1, err := messageService.CreateMessage(ctx, models.CreateMessageRequest{
			RunID:          run.ID,
			SequenceNumber: 1,
			Role:           "system",
			Content:        "You are a helpful assistant",
		})
		require.NoError(t, err)
		assert.Equal(t, "system", string(msg1.Role))

		msg2, err := messageService.CreateMessage(ctx, models.CreateMessageRequest{
			RunID:          run.ID,
			SequenceNumber: 2,
			Role:           "user",
			Content:        "Hello",
		})
		require.NoError(t, err)

		messages, err := messageService.GetRunMessages(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, messages, 2)
		assert.Equal(t, msg1.ID, messages[0].ID)
		assert.Equal(t, msg2.ID, messages[1].ID)
	})

	t.Run("gets messages up to sequence", func(t *testing.T) {
		messages, err := messageService.GetMessagesUpToSequence(ctx, run.ID, 1)
		require.NoError(t, err)
		assert.Len(t, messages, 1)
		assert.Equal(t, "system", string(messages[0].Role))
	})

	t.Run("rejects assistant message with no content and no tool calls", func(t *testing.T) {
		_, err := messageService.CreateMessage(ctx, models.CreateMessageRequest{
			RunID:          run.ID,
			SequenceNumber: 3,
			Role:           "assistant",
			Content:        "",
		})
		require.Error(t, err)
	})

	t.Run("allows assistant message with tool calls and no content", func(t *testing.T) {
		msg, err := messageService.CreateMessage(ctx, models.CreateMessageRequest{
			RunID:          run.ID,
			SequenceNumber: 4,
			Role:           "assistant",
			Content:        "",
			ToolCalls: []models.MessageToolCallRequest{
				{ID: "call-1", Name: "write_tweet", Arguments: `{"text":"hi"}`},
			},
		})
		require.NoError(t, err)
		assert.Len(t, msg.ToolCalls, 1)
	})
}
