package services

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/cleo/ent/agentrun"
	"github.com/codeready-toolchain/cleo/ent/message"
	"github.com/codeready-toolchain/cleo/ent/timelineevent"
	"github.com/codeready-toolchain/cleo/pkg/models"
	testdb "github.com/codeready-toolchain/cleo/test/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServiceIntegration exercises the full capture-to-tweet pipeline across
// the run, message, timeline, interaction, tweet, and event services.
func TestServiceIntegration(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()

	user := testUser(t, client.Client)

	runService := NewAgentRunService(client.Client)
	messageService := NewMessageService(client.Client)
	timelineService := NewTimelineService(client.Client)
	interactionService := NewInteractionService(client.Client, messageService)
	tweetService := NewTweetService(client.Client)
	eventService := NewEventService(client.Client)

	t.Run("full agent run lifecycle", func(t *testing.T) {
		now := time.Now()
		run, err := runService.CreateRun(ctx, uuid.New().String(), models.CreateAgentRunRequest{
			UserID:      user.ID,
			WindowStart: now.Add(-5 * time.Minute),
			WindowEnd:   now,
		})
		require.NoError(t, err)
		assert.Equal(t, agentrun.StatusRunning, run.Status)

		_, err = messageService.CreateMessage(ctx, models.CreateMessageRequest{
			RunID:          run.ID,
			SequenceNumber: 1,
			Role:           message.RoleSystem,
			Content:        "You are a ghostwriter summarizing a work session",
		})
		require.NoError(t, err)

		msg2, err := messageService.CreateMessage(ctx, models.CreateMessageRequest{
			RunID:          run.ID,
			SequenceNumber: 2,
			Role:           message.RoleUser,
			Content:        "Summarize the last five minutes of captures",
		})
		require.NoError(t, err)

		thinkingEvent, err := timelineService.CreateTimelineEvent(ctx, models.CreateTimelineEventRequest{
			RunID:          run.ID,
			SequenceNumber: 1,
			EventType:      string(timelineevent.EventTypeLlmThinking),
			Content:        "Reviewing capture timeline...",
		})
		require.NoError(t, err)

		err = timelineService.UpdateTimelineEvent(ctx, thinkingEvent.ID, "Reviewing capture timeline... found a terminal session")
		require.NoError(t, err)

		llmInteraction, err := interactionService.CreateLLMInteraction(ctx, models.CreateLLMInteractionRequest{
			RunID:           run.ID,
			InteractionType: "iteration",
			ModelName:       "gemini-2.0-flash",
			LastMessageID:   &msg2.ID,
			LLMRequest:      map[string]any{"prompt": "summarize"},
			LLMResponse:     map[string]any{"text": "draft tweet text"},
			InputTokens:     intPtr(100),
			OutputTokens:    intPtr(200),
		})
		require.NoError(t, err)

		err = timelineService.CompleteTimelineEvent(ctx, models.CompleteTimelineEventRequest{
			Content:          "Drafted a tweet about the terminal session",
			LLMInteractionID: &llmInteraction.ID,
		}, thinkingEvent.ID)
		require.NoError(t, err)

		_, err = interactionService.CreateToolInteraction(ctx, models.CreateToolInteractionRequest{
			RunID:         run.ID,
			ToolName:      "write_tweet",
			ToolArguments: map[string]any{"text": "Shipped a gnarly fix today"},
			ToolResult:    map[string]any{"tweet_id": "pending"},
		})
		require.NoError(t, err)

		tw, err := tweetService.CreateTweet(ctx, models.CreateTweetRequest{
			RunID:     run.ID,
			UserID:    user.ID,
			Text:      "Shipped a gnarly fix today",
			Rationale: "terminal activity showed a multi-hour debugging session",
		})
		require.NoError(t, err)

		err = runService.IncrementTweetsGenerated(ctx, run.ID, 1)
		require.NoError(t, err)

		err = runService.UpdateRunStatus(ctx, run.ID, agentrun.StatusCompleted, nil)
		require.NoError(t, err)

		timeline, err := timelineService.GetRunTimeline(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, timeline, 1)

		messages, err := messageService.GetRunMessages(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, messages, 2)

		llmInteractions, err := interactionService.GetLLMInteractionsList(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, llmInteractions, 1)

		toolInteractions, err := interactionService.GetToolInteractionsList(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, toolInteractions, 1)

		conversation, err := interactionService.ReconstructConversation(ctx, llmInteraction.ID)
		require.NoError(t, err)
		assert.Len(t, conversation, 2)

		_, err = eventService.CreateEvent(ctx, models.CreateEventRequest{
			RunID:     run.ID,
			Channel:   "run:" + run.ID,
			EventType: "run.status",
			Payload:   map[string]any{"type": "status_update", "status": "completed"},
		})
		require.NoError(t, err)

		count, err := eventService.CleanupRunEvents(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		completed, err := runService.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, agentrun.StatusCompleted, completed.Status)
		assert.Equal(t, 1, completed.TweetsGenerated)

		lastCompleted, err := runService.LastCompletedRun(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, lastCompleted)
		assert.Equal(t, run.ID, lastCompleted.ID)

		_ = tw
	})
}

func intPtr(i int) *int {
	return &i
}
