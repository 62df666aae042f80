// Package collateral implements the Collateral Agent: a bounded
// tool-calling loop that turns one user's window of captures and activity
// events into draft tweets and threads.
package collateral

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/agentrun"
	"github.com/codeready-toolchain/cleo/pkg/config"
	"github.com/codeready-toolchain/cleo/pkg/events"
	"github.com/codeready-toolchain/cleo/pkg/llm"
	"github.com/codeready-toolchain/cleo/pkg/models"
	"github.com/codeready-toolchain/cleo/pkg/ocr"
	"github.com/codeready-toolchain/cleo/pkg/services"
	"github.com/google/uuid"
)

// staleRunTimeout matches the run-lifecycle "Start" step's sweep window.
const staleRunTimeout = 30 * time.Minute

// Notifier pushes a notification once a run ends with at least one draft.
type Notifier interface {
	NotifyDraftsReady(ctx context.Context, userID string, runID string, count int) error
}

// Agent runs the Collateral Agent loop for one user at a time.
type Agent struct {
	client    *ent.Client
	llmClient llm.Client
	runs      *services.AgentRunService
	captures  *services.CaptureService
	activity  *services.ActivityEventService
	ocr       *ocr.Service
	notifier  Notifier
	timeline  *services.TimelineService
	eventPub  *events.EventPublisher
	cfg       *config.CollateralConfig
}

// New creates a Collateral Agent. timeline and eventPub may be nil: a run
// persists and completes the same either way, it just doesn't get a
// browsable trace or a live WebSocket feed of its progress.
func New(
	client *ent.Client,
	llmClient llm.Client,
	runs *services.AgentRunService,
	captures *services.CaptureService,
	activityEvents *services.ActivityEventService,
	ocrSvc *ocr.Service,
	notifier Notifier,
	timeline *services.TimelineService,
	eventPub *events.EventPublisher,
	cfg *config.CollateralConfig,
) *Agent {
	if cfg == nil {
		cfg = config.DefaultCollateralConfig()
	}
	return &Agent{
		client:    client,
		llmClient: llmClient,
		runs:      runs,
		captures:  captures,
		activity:  activityEvents,
		ocr:       ocrSvc,
		notifier:  notifier,
		timeline:  timeline,
		eventPub:  eventPub,
		cfg:       cfg,
	}
}

// RunForUser executes one full run-lifecycle pass for userID: sweep stale
// runs, claim the run slot, draft over the computed window, persist, finish,
// notify, cleanup. Returns nil with no error when another scheduler tick
// already holds the slot — that is the expected "skip" outcome, not a
// failure.
func (a *Agent) RunForUser(ctx context.Context, userID, podID string) error {
	if _, err := a.runs.SweepStaleRuns(ctx, userID, staleRunTimeout); err != nil {
		return fmt.Errorf("failed to sweep stale runs: %w", err)
	}

	lastRun, err := a.runs.LastCompletedRun(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to look up last completed run: %w", err)
	}
	var lastEnd *time.Time
	if lastRun != nil {
		lastEnd = &lastRun.WindowEnd
	}
	start, end := computeWindow(lastEnd, time.Now())

	runID := uuid.New().String()
	run, err := a.runs.ClaimRunSlot(ctx, runID, podID, models.CreateAgentRunRequest{
		UserID:      userID,
		WindowStart: start,
		WindowEnd:   end,
	})
	if err != nil {
		if err == services.ErrConcurrentModification {
			return nil
		}
		return fmt.Errorf("failed to claim run slot: %w", err)
	}

	a.publishRunStatus(ctx, run.ID, "running")

	acc, runErr := a.body(ctx, run, start, end)

	if runErr != nil {
		errMsg := runErr.Error()
		if err := a.runs.UpdateRunStatus(ctx, run.ID, agentrun.StatusFailed, &errMsg); err != nil {
			slog.Error("failed to mark run failed", "run_id", run.ID, "error", err)
		}
		a.publishRunStatus(ctx, run.ID, "failed")
		return runErr
	}

	result, err := persist(ctx, a.client, userID, acc)
	if err != nil {
		errMsg := err.Error()
		_ = a.runs.UpdateRunStatus(ctx, run.ID, agentrun.StatusFailed, &errMsg)
		a.publishRunStatus(ctx, run.ID, "failed")
		return fmt.Errorf("failed to persist drafts: %w", err)
	}

	if result.TweetsGenerated > 0 {
		if err := a.runs.IncrementTweetsGenerated(ctx, run.ID, result.TweetsGenerated); err != nil {
			slog.Error("failed to record tweets_generated", "run_id", run.ID, "error", err)
		}
	}

	if err := a.runs.UpdateRunStatus(ctx, run.ID, agentrun.StatusCompleted, nil); err != nil {
		return fmt.Errorf("failed to mark run completed: %w", err)
	}
	a.publishRunStatus(ctx, run.ID, "completed")

	// Cleanup: nothing is uploaded to a provider file API yet in this
	// deployment (no tool or LLM call path inlines video today), so there
	// is nothing to delete. The hook exists so a future video-inlining
	// change has somewhere to register cleanup.
	if result.TweetsGenerated > 0 && a.notifier != nil {
		if err := a.notifier.NotifyDraftsReady(ctx, userID, run.ID, result.TweetsGenerated); err != nil {
			slog.Warn("failed to send drafts-ready notification", "run_id", run.ID, "error", err)
		}
	}

	return nil
}

// publishRunStatus broadcasts a run lifecycle transition. Best-effort: a
// dashboard watching the run live is a convenience, not a correctness
// requirement, so a publish failure only gets logged.
func (a *Agent) publishRunStatus(ctx context.Context, runID, status string) {
	if a.eventPub == nil {
		return
	}
	err := a.eventPub.PublishRunStatus(ctx, runID, events.RunStatusPayload{
		Type:      events.EventTypeRunStatus,
		RunID:     runID,
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	})
	if err != nil {
		slog.Warn("failed to publish run status", "run_id", runID, "status", status, "error", err)
	}
}

// recordTimelineEvent appends one step to a run's browsable trace and, if
// wired, streams it live. A timeline entry is created and published in the
// streaming state, then completed at once with the same content rather than
// left streaming: the Collateral Agent's tool calls and LLM turns arrive as
// whole messages, never as incremental deltas.
func (a *Agent) recordTimelineEvent(ctx context.Context, runID string, seq int, eventType, content string) {
	if a.timeline == nil {
		return
	}
	ev, err := a.timeline.CreateTimelineEvent(ctx, models.CreateTimelineEventRequest{
		RunID:          runID,
		SequenceNumber: seq,
		EventType:      eventType,
		Content:        content,
	})
	if err != nil {
		slog.Warn("failed to record timeline event", "run_id", runID, "event_type", eventType, "error", err)
		return
	}

	if a.eventPub != nil {
		if err := a.eventPub.PublishTimelineCreated(ctx, runID, events.TimelineCreatedPayload{
			Type:           events.EventTypeTimelineCreated,
			EventID:        ev.ID,
			RunID:          runID,
			EventType:      eventType,
			Status:         "streaming",
			Content:        content,
			SequenceNumber: seq,
			Timestamp:      time.Now().Format(time.RFC3339Nano),
		}); err != nil {
			slog.Warn("failed to publish timeline created", "run_id", runID, "event_id", ev.ID, "error", err)
		}
	}

	if err := a.timeline.CompleteTimelineEvent(ctx, models.CompleteTimelineEventRequest{Content: content}, ev.ID); err != nil {
		slog.Warn("failed to complete timeline event", "run_id", runID, "event_id", ev.ID, "error", err)
		return
	}

	if a.eventPub != nil {
		if err := a.eventPub.PublishTimelineCompleted(ctx, runID, events.TimelineCompletedPayload{
			Type:      events.EventTypeTimelineCompleted,
			EventID:   ev.ID,
			Content:   content,
			Status:    "completed",
			Timestamp: time.Now().Format(time.RFC3339Nano),
		}); err != nil {
			slog.Warn("failed to publish timeline completed", "run_id", runID, "event_id", ev.ID, "error", err)
		}
	}
}

// body runs the bounded tool-calling loop and returns everything the model
// drafted. Nothing is persisted here; persistence happens once, after the
// loop ends, in a single transaction.
func (a *Agent) body(ctx context.Context, run *ent.AgentRun, start, end time.Time) (*accumulator, error) {
	caps, err := a.captures.ListForWindow(ctx, run.UserID, start, end, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to load captures: %w", err)
	}
	evts, err := a.activity.ListForWindow(ctx, run.UserID, start, end, 500)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity events: %w", err)
	}

	// No per-user style-preference storage exists yet; systemPrompt already
	// knows how to fold one in once settings grow that field.
	messages := []llm.ConversationMessage{
		{Role: llm.RoleSystem, Content: systemPrompt("")},
		{Role: llm.RoleUser, Content: windowSummary(start, end, caps, evts)},
	}

	acc := &accumulator{}
	toolDefs := tools()
	seq := 0

	for turn := 0; turn < a.cfg.MaxTurns; turn++ {
		iterCtx, cancel := context.WithTimeout(ctx, a.cfg.IterationTimeout)
		text, toolCalls, err := a.generate(iterCtx, run.ID, messages, toolDefs)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("generate call failed on turn %d: %w", turn, err)
		}

		if len(toolCalls) == 0 {
			// No tool calls does not end the loop — only an explicit
			// MarkComplete call does. Append the text and give the model
			// another turn to call it.
			seq++
			a.recordTimelineEvent(ctx, run.ID, seq, "llm_response", text)
			messages = append(messages, llm.ConversationMessage{Role: llm.RoleAssistant, Content: text})
			continue
		}

		messages = append(messages, llm.ConversationMessage{Role: llm.RoleAssistant, Content: text, ToolCalls: toolCalls})

		for _, tc := range toolCalls {
			seq++
			a.recordTimelineEvent(ctx, run.ID, seq, "tool_call", fmt.Sprintf("%s(%s)", tc.Name, tc.Arguments))

			result, done := a.executeTool(ctx, run, tc, acc)

			seq++
			resultType := "tool_result"
			if done {
				resultType = "final_answer"
			}
			a.recordTimelineEvent(ctx, run.ID, seq, resultType, result)

			messages = append(messages, llm.ConversationMessage{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
			})
			if done {
				return acc, nil
			}
		}
	}

	// Exhausted MAX_TURNS without an explicit MarkComplete: keep whatever
	// was drafted rather than discarding it, since the accumulator is not
	// persisted until after this function returns.
	slog.Warn("collateral agent loop exhausted max turns without MarkComplete", "run_id", run.ID)
	return acc, nil
}

func (a *Agent) generate(ctx context.Context, runID string, messages []llm.ConversationMessage, toolDefs []llm.ToolDefinition) (string, []llm.ToolCall, error) {
	chunks, err := a.llmClient.Generate(ctx, &llm.GenerateInput{
		RunID:    runID,
		Messages: messages,
		Tools:    toolDefs,
	})
	if err != nil {
		return "", nil, err
	}

	var text strings.Builder
	var toolCalls []llm.ToolCall
	pending := map[string]*llm.ToolCall{}
	var order []string

	for chunk := range chunks {
		switch chunk.Type {
		case llm.ChunkTypeText:
			text.WriteString(chunk.Text)
		case llm.ChunkTypeToolCall:
			if existing, ok := pending[chunk.ToolCallID]; ok {
				existing.Arguments += chunk.ToolCallArguments
				continue
			}
			tc := &llm.ToolCall{ID: chunk.ToolCallID, Name: chunk.ToolCallName, Arguments: chunk.ToolCallArguments}
			pending[chunk.ToolCallID] = tc
			order = append(order, chunk.ToolCallID)
		case llm.ChunkTypeError:
			return "", nil, fmt.Errorf("llm sidecar error: %s", chunk.ErrorMessage)
		}
	}

	for _, id := range order {
		toolCalls = append(toolCalls, *pending[id])
	}

	return text.String(), toolCalls, nil
}

// executeTool runs one tool call and returns its tool-result text plus
// whether MarkComplete fired (ending the loop).
func (a *Agent) executeTool(ctx context.Context, run *ent.AgentRun, tc llm.ToolCall, acc *accumulator) (string, bool) {
	switch tc.Name {
	case ToolWriteTweet:
		return a.handleWriteTweet(tc, acc), false
	case ToolWriteThread:
		return a.handleWriteThread(tc, acc), false
	case ToolGetMoreContext:
		return a.handleGetMoreContext(ctx, run.UserID, tc), false
	case ToolExtractText:
		return a.handleExtractText(ctx, tc), false
	case ToolMarkComplete:
		return a.handleMarkComplete(tc), true
	default:
		return fmt.Sprintf("unknown tool %q", tc.Name), false
	}
}

type writeTweetArgs struct {
	Text                 string   `json:"text"`
	CopyOptions          []string `json:"copy_options"`
	ImageCaptureIDs      []string `json:"image_capture_ids"`
	VideoSourceCaptureID string   `json:"video_source_capture_id"`
	VideoStartTimestamp  *float64 `json:"video_start_timestamp"`
	VideoDurationSecs    *float64 `json:"video_duration_secs"`
	Rationale            string   `json:"rationale"`
}

func (a *Agent) handleWriteTweet(tc llm.ToolCall, acc *accumulator) string {
	var args writeTweetArgs
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return fmt.Sprintf("invalid arguments: %v", err)
	}
	if args.Text == "" {
		return "text is required"
	}
	if len(args.Text) > 280 {
		return "text must be at most 280 characters"
	}
	if len(args.ImageCaptureIDs) > 4 {
		return "image_capture_ids must have at most 4 entries"
	}

	acc.addTweet(draftTweet{
		Text:                 args.Text,
		CopyOptions:          args.CopyOptions,
		ImageCaptureIDs:      args.ImageCaptureIDs,
		VideoSourceCaptureID: args.VideoSourceCaptureID,
		VideoStartTimestamp:  args.VideoStartTimestamp,
		VideoDurationSecs:    args.VideoDurationSecs,
		Rationale:            args.Rationale,
	})
	return "tweet queued"
}

type writeThreadArgs struct {
	Title       string           `json:"title"`
	CopyOptions []string         `json:"copy_options"`
	Tweets      []writeTweetArgs `json:"tweets"`
}

func (a *Agent) handleWriteThread(tc llm.ToolCall, acc *accumulator) string {
	var args writeThreadArgs
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return fmt.Sprintf("invalid arguments: %v", err)
	}
	if len(args.Tweets) == 0 {
		return "a thread must contain at least one tweet"
	}

	dt := make([]draftTweet, 0, len(args.Tweets))
	for i, t := range args.Tweets {
		if t.Text == "" {
			return fmt.Sprintf("tweet at position %d is missing text", i)
		}
		if len(t.Text) > 280 {
			return fmt.Sprintf("tweet at position %d must be at most 280 characters", i)
		}
		dt = append(dt, draftTweet{
			Text:                 t.Text,
			ImageCaptureIDs:      t.ImageCaptureIDs,
			VideoSourceCaptureID: t.VideoSourceCaptureID,
			VideoStartTimestamp:  t.VideoStartTimestamp,
			VideoDurationSecs:    t.VideoDurationSecs,
			Rationale:            t.Rationale,
		})
	}

	acc.addThread(draftThread{
		TempID:      tc.ID,
		Title:       args.Title,
		CopyOptions: args.CopyOptions,
		Tweets:      dt,
	})
	return fmt.Sprintf("thread %s queued with %d tweets", tc.ID, len(dt))
}

type getMoreContextArgs struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	IntervalID *int64 `json:"interval_id"`
}

func (a *Agent) handleGetMoreContext(ctx context.Context, userID string, tc llm.ToolCall) string {
	var args getMoreContextArgs
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return fmt.Sprintf("invalid arguments: %v", err)
	}

	start, err := time.Parse(time.RFC3339, args.Start)
	if err != nil {
		return fmt.Sprintf("invalid start timestamp: %v", err)
	}
	end, err := time.Parse(time.RFC3339, args.End)
	if err != nil {
		return fmt.Sprintf("invalid end timestamp: %v", err)
	}

	caps, err := a.captures.ListForWindow(ctx, userID, start, end, 100)
	if err != nil {
		return fmt.Sprintf("failed to load captures: %v", err)
	}

	var evts []*ent.ActivityEvent
	if args.IntervalID != nil {
		evts, err = a.activity.ListForInterval(ctx, userID, *args.IntervalID)
	} else {
		evts, err = a.activity.ListForWindow(ctx, userID, start, end, 500)
	}
	if err != nil {
		return fmt.Sprintf("failed to load activity events: %v", err)
	}

	return windowSummary(start, end, caps, evts)
}

type extractTextArgs struct {
	CaptureID string `json:"capture_id"`
	Timestamp string `json:"timestamp"`
}

func (a *Agent) handleExtractText(ctx context.Context, tc llm.ToolCall) string {
	var args extractTextArgs
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return fmt.Sprintf("invalid arguments: %v", err)
	}

	cap, err := a.captures.GetCapture(ctx, args.CaptureID)
	if err != nil {
		return fmt.Sprintf("failed to load capture %s: %v", args.CaptureID, err)
	}

	if string(cap.MediaType) == "image" {
		text, err := a.ocr.ExtractImage(ctx, cap.ID, cap.StoragePath, cap.MimeType)
		if err != nil {
			return fmt.Sprintf("OCR failed: %v", err)
		}
		return text
	}

	if args.Timestamp == "" {
		return "timestamp is required for video captures (HH:MM or MM:SS)"
	}
	at, err := parseTimestamp(args.Timestamp)
	if err != nil {
		return fmt.Sprintf("invalid timestamp: %v", err)
	}

	text, err := a.ocr.ExtractVideoFrame(ctx, cap.ID, cap.StoragePath, at)
	if err != nil {
		return fmt.Sprintf("OCR failed: %v", err)
	}
	return text
}

type markCompleteArgs struct {
	Summary       string `json:"summary"`
	DraftsCreated int    `json:"drafts_created"`
}

func (a *Agent) handleMarkComplete(tc llm.ToolCall) string {
	var args markCompleteArgs
	_ = json.Unmarshal([]byte(tc.Arguments), &args)
	return fmt.Sprintf("run complete: %s", args.Summary)
}

// parseTimestamp accepts HH:MM or MM:SS and returns the offset as a duration.
func parseTimestamp(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM or MM:SS, got %q", s)
	}
	a, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid first component: %w", err)
	}
	b, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid second component: %w", err)
	}
	return time.Duration(a)*time.Minute + time.Duration(b)*time.Second, nil
}
