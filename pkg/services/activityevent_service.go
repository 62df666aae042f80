package services

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/activityevent"
	"github.com/codeready-toolchain/cleo/pkg/models"
	"github.com/google/uuid"
)

// ActivityEventService records the append-only stream of foreground-switch
// and mouse-click events produced by the desktop agent's Activity Observer.
type ActivityEventService struct {
	client *ent.Client
}

// NewActivityEventService creates a new ActivityEventService.
func NewActivityEventService(client *ent.Client) *ActivityEventService {
	return &ActivityEventService{client: client}
}

// CreateEvents ingests one flushed batch of activity events in a single
// bulk insert. The agent buffers events locally and flushes periodically,
// so a batch is the normal unit of ingest rather than a single event.
func (s *ActivityEventService) CreateEvents(ctx context.Context, reqs []models.CreateActivityEventRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	builders := make([]*ent.ActivityEventCreate, 0, len(reqs))
	for _, req := range reqs {
		if req.UserID == "" {
			return NewValidationError("user_id", "required")
		}
		if req.EventType == "" {
			return NewValidationError("event_type", "required")
		}

		builder := s.client.ActivityEvent.Create().
			SetID(uuid.New().String()).
			SetUserID(req.UserID).
			SetIntervalID(req.IntervalID).
			SetEventType(activityevent.EventType(req.EventType)).
			SetOccurredAt(req.OccurredAt)

		if req.Application != "" {
			builder = builder.SetApplication(req.Application)
		}
		if req.Window != "" {
			builder = builder.SetWindow(req.Window)
		}

		builders = append(builders, builder)
	}

	if err := s.client.ActivityEvent.CreateBulk(builders...).Exec(writeCtx); err != nil {
		return fmt.Errorf("failed to ingest activity events: %w", err)
	}

	return nil
}

// ListForWindow returns a user's activity events inside [start, end),
// newest first, clamped to limit. Used by the Collateral Agent to build
// its prompt context alongside CaptureService.ListForWindow.
func (s *ActivityEventService) ListForWindow(ctx context.Context, userID string, start, end time.Time, limit int) ([]*ent.ActivityEvent, error) {
	if limit <= 0 {
		limit = 500
	}

	events, err := s.client.ActivityEvent.Query().
		Where(
			activityevent.UserIDEQ(userID),
			activityevent.OccurredAtGTE(start),
			activityevent.OccurredAtLT(end),
		).
		Order(ent.Desc(activityevent.FieldOccurredAt)).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity events for window: %w", err)
	}

	return events, nil
}

// ListForInterval returns all events recorded for one observation interval,
// used by GetMoreContext to drill into a specific interval_id.
func (s *ActivityEventService) ListForInterval(ctx context.Context, userID string, intervalID int64) ([]*ent.ActivityEvent, error) {
	events, err := s.client.ActivityEvent.Query().
		Where(
			activityevent.UserIDEQ(userID),
			activityevent.IntervalIDEQ(intervalID),
		).
		Order(ent.Asc(activityevent.FieldOccurredAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity events for interval: %w", err)
	}

	return events, nil
}
