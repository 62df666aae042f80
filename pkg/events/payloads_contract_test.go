package events

import (
	"encoding/json"
	"testing"

	"github.com/codeready-toolchain/cleo/ent/timelineevent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunChannelPayloads_ContainRunID is a contract test between the Go
// backend and the dashboard's WebSocket client.
//
// The dashboard routes incoming WS events by inspecting `data.run_id` in
// the JSON payload, and silently drops a payload whose `run_id` is missing
// or empty.
//
// This test guards against:
//   - A new payload struct that forgets a run_id field
//   - A call site that forgets to populate it
func TestRunChannelPayloads_ContainRunID(t *testing.T) {
	const testRunID = "run-contract-test"

	// Payload types on RunChannel(runID) that carry a run_id field.
	// TimelineCompletedPayload and StreamChunkPayload also go out on the
	// run channel but have no run_id field; they name their timeline entry
	// by event_id only and are not listed here.
	tests := []struct {
		name    string
		payload any
	}{
		{
			name: "TimelineCreatedPayload",
			payload: TimelineCreatedPayload{
				Type:           EventTypeTimelineCreated,
				RunID:          testRunID,
				Timestamp:      "2026-01-01T00:00:00Z",
				EventID:        "evt-1",
				EventType:      string(timelineevent.EventTypeLlmThinking),
				Status:         string(timelineevent.StatusStreaming),
				Content:        "test",
				SequenceNumber: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.payload)
			require.NoError(t, err, "failed to marshal %s", tt.name)

			var parsed map[string]any
			require.NoError(t, json.Unmarshal(data, &parsed), "failed to unmarshal %s", tt.name)

			rid, ok := parsed["run_id"]
			assert.True(t, ok,
				"%s JSON is missing \"run_id\" field — dashboard WS routing will silently drop this event", tt.name)
			assert.Equal(t, testRunID, rid,
				"%s run_id has wrong value", tt.name)
		})
	}
}

// TestRunStatusPayload_ContainsRunID verifies the run.status payload, which
// is persisted on its run's channel and also broadcast to GlobalRunsChannel,
// and carries run_id for the dashboard to identify which run it belongs to.
func TestRunStatusPayload_ContainsRunID(t *testing.T) {
	payload := RunStatusPayload{
		Type:      EventTypeRunStatus,
		RunID:     "run-progress",
		Status:    "running",
		Timestamp: "2026-01-01T00:00:00Z",
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	rid, ok := parsed["run_id"]
	assert.True(t, ok, "RunStatusPayload is missing run_id")
	assert.Equal(t, "run-progress", rid)
}
