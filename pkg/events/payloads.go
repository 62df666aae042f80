package events

// TimelineCreatedPayload is the payload for timeline_event.created events.
// Published when a new timeline event is created (streaming or completed).
type TimelineCreatedPayload struct {
	Type           string         `json:"type"`       // always EventTypeTimelineCreated
	EventID        string         `json:"event_id"`   // timeline event UUID
	RunID          string         `json:"run_id"`      // owning agent run
	EventType      string         `json:"event_type"` // e.g. "llm_thinking", "tool_call"
	Status         string         `json:"status"`      // "streaming" or "completed"
	Content        string         `json:"content"`     // event content (may be empty for streaming)
	Metadata       map[string]any `json:"metadata,omitempty"`
	SequenceNumber int            `json:"sequence_number"` // order in timeline
	Timestamp      string         `json:"timestamp"`       // RFC3339Nano
}

// TimelineCompletedPayload is the payload for timeline_event.completed events.
// Published when a streaming timeline event transitions to a terminal status.
type TimelineCompletedPayload struct {
	Type      string         `json:"type"`     // always EventTypeTimelineCompleted
	EventID   string         `json:"event_id"` // timeline event UUID
	Content   string         `json:"content"`  // final content
	Status    string         `json:"status"`   // "completed" or "failed"
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp string         `json:"timestamp"` // RFC3339Nano
}

// StreamChunkPayload is the payload for stream.chunk transient events.
// Published for each LLM streaming token — high frequency, ephemeral.
type StreamChunkPayload struct {
	Type      string `json:"type"`      // always EventTypeStreamChunk
	EventID   string `json:"event_id"`  // parent timeline event UUID
	Delta     string `json:"delta"`     // incremental text chunk
	Timestamp string `json:"timestamp"` // RFC3339Nano
}

// RunStatusPayload is the payload for run.status events.
// Published when an agent run transitions between lifecycle states.
type RunStatusPayload struct {
	Type      string `json:"type"`   // always EventTypeRunStatus
	RunID     string `json:"run_id"` // agent run UUID
	Status    string `json:"status"` // new status ("running", "completed", "failed")
	Timestamp string `json:"timestamp"` // RFC3339Nano
}
