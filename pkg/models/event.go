package models

import "github.com/codeready-toolchain/cleo/ent"

// CreateEventRequest contains fields for creating a persisted pub/sub event.
type CreateEventRequest struct {
	RunID     string         `json:"run_id"`
	Channel   string         `json:"channel"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
}

// EventResponse wraps an Event.
type EventResponse struct {
	*ent.Event
}

// EventsResponse contains a list of events since a given cursor.
type EventsResponse struct {
	Events []*ent.Event `json:"events"`
}
