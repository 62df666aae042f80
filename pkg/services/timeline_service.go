package services

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/timelineevent"
	"github.com/codeready-toolchain/cleo/pkg/models"
	"github.com/google/uuid"
)

// TimelineService manages the user-facing timeline of a run: thinking,
// tool calls, tool results, and the final answer.
type TimelineService struct {
	client *ent.Client
}

// NewTimelineService creates a new TimelineService.
func NewTimelineService(client *ent.Client) *TimelineService {
	return &TimelineService{client: client}
}

// CreateTimelineEvent creates a new timeline event in the streaming state.
func (s *TimelineService) CreateTimelineEvent(httpCtx context.Context, req models.CreateTimelineEventRequest) (*ent.TimelineEvent, error) {
	if req.RunID == "" {
		return nil, NewValidationError("RunID", "required")
	}
	if req.SequenceNumber <= 0 {
		return nil, NewValidationError("SequenceNumber", "must be positive")
	}
	if req.EventType == "" {
		return nil, NewValidationError("EventType", "required")
	}
	if req.Content == "" {
		return nil, NewValidationError("Content", "required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	eventID := uuid.New().String()
	event, err := s.client.TimelineEvent.Create().
		SetID(eventID).
		SetRunID(req.RunID).
		SetSequenceNumber(req.SequenceNumber).
		SetEventType(timelineevent.EventType(req.EventType)).
		SetStatus(timelineevent.StatusStreaming).
		SetContent(req.Content).
		SetMetadata(req.Metadata).
		SetCreatedAt(time.Now()).
		SetUpdatedAt(time.Now()).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create timeline event: %w", err)
	}

	return event, nil
}

// UpdateTimelineEvent updates event content during streaming.
func (s *TimelineService) UpdateTimelineEvent(ctx context.Context, eventID string, content string) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.client.TimelineEvent.UpdateOneID(eventID).
		SetContent(content).
		SetUpdatedAt(time.Now()).
		Exec(writeCtx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update timeline event: %w", err)
	}

	return nil
}

// CompleteTimelineEvent marks an event as completed and links its debug trace.
func (s *TimelineService) CompleteTimelineEvent(ctx context.Context, req models.CompleteTimelineEventRequest, eventID string) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := s.client.TimelineEvent.UpdateOneID(eventID).
		SetContent(req.Content).
		SetStatus(timelineevent.StatusCompleted).
		SetUpdatedAt(time.Now())

	if req.LLMInteractionID != nil {
		update = update.SetLlmInteractionID(*req.LLMInteractionID)
	}
	if req.ToolInteractionID != nil {
		update = update.SetToolInteractionID(*req.ToolInteractionID)
	}

	err := update.Exec(writeCtx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to complete timeline event: %w", err)
	}

	return nil
}

// GetRunTimeline retrieves all events for a run, in sequence order.
func (s *TimelineService) GetRunTimeline(ctx context.Context, runID string) ([]*ent.TimelineEvent, error) {
	events, err := s.client.TimelineEvent.Query().
		Where(timelineevent.RunIDEQ(runID)).
		Order(ent.Asc(timelineevent.FieldSequenceNumber)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get run timeline: %w", err)
	}

	return events, nil
}
