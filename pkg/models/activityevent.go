package models

import (
	"time"

	"github.com/codeready-toolchain/cleo/ent"
)

// CreateActivityEventRequest contains fields for ingesting a single activity
// event flushed from the desktop agent's Activity Observer.
type CreateActivityEventRequest struct {
	UserID      string    `json:"user_id"`
	IntervalID  int64     `json:"interval_id"`
	EventType   string    `json:"event_type"` // "foreground_switch", "mouse_click"
	Application string    `json:"application,omitempty"`
	Window      string    `json:"window,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ActivityEventListResponse contains activity events for a window query.
type ActivityEventListResponse struct {
	Events     []*ent.ActivityEvent `json:"events"`
	TotalCount int                  `json:"total_count"`
}
