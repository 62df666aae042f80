package services

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/agentrun"
	"github.com/codeready-toolchain/cleo/pkg/models"
)

// AgentRunService manages the Agent Run lifecycle: claiming the next
// scheduled window, tracking status, and sweeping orphaned/stale runs.
type AgentRunService struct {
	client *ent.Client
}

// NewAgentRunService creates a new AgentRunService.
func NewAgentRunService(client *ent.Client) *AgentRunService {
	return &AgentRunService{client: client}
}

// CreateRun creates a new agent run for a user's capture window.
func (s *AgentRunService) CreateRun(httpCtx context.Context, runID string, req models.CreateAgentRunRequest) (*ent.AgentRun, error) {
	if req.UserID == "" {
		return nil, NewValidationError("user_id", "required")
	}
	if req.WindowStart.IsZero() || req.WindowEnd.IsZero() {
		return nil, NewValidationError("window", "window_start and window_end are required")
	}
	if !req.WindowEnd.After(req.WindowStart) {
		return nil, NewValidationError("window", "window_end must be after window_start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	run, err := s.client.AgentRun.Create().
		SetID(runID).
		SetUserID(req.UserID).
		SetWindowStart(req.WindowStart).
		SetWindowEnd(req.WindowEnd).
		SetStatus(agentrun.StatusRunning).
		SetStartedAt(time.Now()).
		SetLastInteractionAt(time.Now()).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create agent run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *AgentRunService) GetRun(ctx context.Context, runID string) (*ent.AgentRun, error) {
	run, err := s.client.AgentRun.Get(ctx, runID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get agent run: %w", err)
	}
	return run, nil
}

// ListRuns lists runs with filtering and pagination.
func (s *AgentRunService) ListRuns(ctx context.Context, filters models.AgentRunFilters) (*models.AgentRunListResponse, error) {
	query := s.client.AgentRun.Query()

	if filters.Status != "" {
		query = query.Where(agentrun.StatusEQ(agentrun.Status(filters.Status)))
	}
	if filters.UserID != "" {
		query = query.Where(agentrun.UserIDEQ(filters.UserID))
	}
	if filters.StartedAt != nil {
		query = query.Where(agentrun.StartedAtGTE(*filters.StartedAt))
	}

	totalCount, err := query.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count agent runs: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	runs, err := query.
		Limit(limit).
		Offset(offset).
		Order(ent.Desc(agentrun.FieldStartedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent runs: %w", err)
	}

	return &models.AgentRunListResponse{
		Runs:       runs,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// UpdateRunStatus transitions a run's status, setting completed_at on terminal states.
func (s *AgentRunService) UpdateRunStatus(ctx context.Context, runID string, status agentrun.Status, errMsg *string) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := s.client.AgentRun.UpdateOneID(runID).
		SetStatus(status).
		SetLastInteractionAt(time.Now())

	if status == agentrun.StatusCompleted || status == agentrun.StatusFailed {
		update = update.SetCompletedAt(time.Now())
	}
	if errMsg != nil {
		update = update.SetErrorMessage(*errMsg)
	}

	if err := update.Exec(writeCtx); err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update agent run status: %w", err)
	}

	return nil
}

// IncrementTweetsGenerated bumps the run's counter after a successful write_tweet/write_thread call.
func (s *AgentRunService) IncrementTweetsGenerated(ctx context.Context, runID string, n int) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.client.AgentRun.UpdateOneID(runID).
		AddTweetsGenerated(n).
		SetLastInteractionAt(time.Now()).
		Exec(writeCtx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to increment tweets_generated: %w", err)
	}
	return nil
}

// ClaimRunSlot atomically claims the "one running run per user" slot: if the
// user has no run in the running state, one is created and claimed by podID
// in a single transaction; otherwise ErrConcurrentModification signals the
// scheduler to skip this user this tick.
func (s *AgentRunService) ClaimRunSlot(ctx context.Context, runID, podID string, req models.CreateAgentRunRequest) (*ent.AgentRun, error) {
	claimCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := s.client.Tx(claimCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := tx.AgentRun.Query().
		Where(
			agentrun.UserIDEQ(req.UserID),
			agentrun.StatusEQ(agentrun.StatusRunning),
		).
		Exist(claimCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for running run: %w", err)
	}
	if existing {
		return nil, ErrConcurrentModification
	}

	run, err := tx.AgentRun.Create().
		SetID(runID).
		SetUserID(req.UserID).
		SetWindowStart(req.WindowStart).
		SetWindowEnd(req.WindowEnd).
		SetStatus(agentrun.StatusRunning).
		SetStartedAt(time.Now()).
		SetPodID(podID).
		SetLastInteractionAt(time.Now()).
		Save(claimCtx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, ErrConcurrentModification
		}
		return nil, fmt.Errorf("failed to claim run slot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	return run, nil
}

// SweepStaleRuns fails any run still `running` for userID whose started_at
// is older than timeout, ahead of ClaimRunSlot — spec-mandated distinct from
// FindOrphanedRuns below: this is a per-user pre-claim check keyed on
// started_at (a run that has been open too long regardless of activity),
// while FindOrphanedRuns is a fleet-wide sweep keyed on last_interaction_at
// (a run that has gone silent, even if recently started).
func (s *AgentRunService) SweepStaleRuns(ctx context.Context, userID string, timeout time.Duration) (int, error) {
	threshold := time.Now().Add(-timeout)

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := "stale run swept on next claim attempt"
	count, err := s.client.AgentRun.Update().
		Where(
			agentrun.UserIDEQ(userID),
			agentrun.StatusEQ(agentrun.StatusRunning),
			agentrun.StartedAtLT(threshold),
		).
		SetStatus(agentrun.StatusFailed).
		SetCompletedAt(time.Now()).
		SetErrorMessage(msg).
		Save(writeCtx)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale runs: %w", err)
	}

	return count, nil
}

// FindOrphanedRuns finds runs stuck in the running state past the timeout.
func (s *AgentRunService) FindOrphanedRuns(ctx context.Context, timeoutDuration time.Duration) ([]*ent.AgentRun, error) {
	threshold := time.Now().Add(-timeoutDuration)

	runs, err := s.client.AgentRun.Query().
		Where(
			agentrun.StatusEQ(agentrun.StatusRunning),
			agentrun.LastInteractionAtNotNil(),
			agentrun.LastInteractionAtLT(threshold),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find orphaned runs: %w", err)
	}

	return runs, nil
}

// LastCompletedRun returns the user's most recently completed run, if any,
// used by the Scheduler's capture-since-last-run eligibility check.
func (s *AgentRunService) LastCompletedRun(ctx context.Context, userID string) (*ent.AgentRun, error) {
	run, err := s.client.AgentRun.Query().
		Where(
			agentrun.UserIDEQ(userID),
			agentrun.StatusEQ(agentrun.StatusCompleted),
		).
		Order(ent.Desc(agentrun.FieldCompletedAt)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last completed run: %w", err)
	}
	return run, nil
}

// SearchRuns performs a full-text search over recorded failure messages,
// for support/debug lookups, following the same to_tsvector pattern the
// teacher uses for alert_data search.
func (s *AgentRunService) SearchRuns(ctx context.Context, query string, limit int) ([]*ent.AgentRun, error) {
	if limit <= 0 {
		limit = 20
	}

	runs, err := s.client.AgentRun.Query().
		Where(func(sel *sql.Selector) {
			sel.Where(sql.ExprP("to_tsvector('english', COALESCE(error_message, '')) @@ plainto_tsquery($1)", query))
		}).
		Limit(limit).
		Order(ent.Desc(agentrun.FieldStartedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search agent runs: %w", err)
	}

	return runs, nil
}
