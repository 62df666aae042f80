package models

import (
	"time"

	"github.com/codeready-toolchain/cleo/ent"
)

// CreateAgentRunRequest contains fields for creating a new agent run.
type CreateAgentRunRequest struct {
	UserID      string    `json:"user_id"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// AgentRunFilters contains filtering options for listing agent runs.
type AgentRunFilters struct {
	Status    string     `json:"status,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Offset    int        `json:"offset,omitempty"`
}

// AgentRunResponse wraps an AgentRun with optional loaded edges.
type AgentRunResponse struct {
	*ent.AgentRun
}

// AgentRunListResponse contains a paginated agent run list.
type AgentRunListResponse struct {
	Runs       []*ent.AgentRun `json:"runs"`
	TotalCount int             `json:"total_count"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}
