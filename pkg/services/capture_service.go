package services

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/codeready-toolchain/cleo/ent"
	"github.com/codeready-toolchain/cleo/ent/capture"
	"github.com/codeready-toolchain/cleo/pkg/models"
	"github.com/google/uuid"
)

// CaptureService manages captured media artifacts and records the results
// of the frame extraction and thumbnail workers, which claim captures
// through pkg/frameworker.ClaimBatch.
type CaptureService struct {
	client *ent.Client
}

// NewCaptureService creates a new CaptureService.
func NewCaptureService(client *ent.Client) *CaptureService {
	return &CaptureService{client: client}
}

// CreateCapture ingests a new capture reported by the desktop agent.
func (s *CaptureService) CreateCapture(httpCtx context.Context, req models.CreateCaptureRequest) (*ent.Capture, error) {
	if req.UserID == "" {
		return nil, NewValidationError("user_id", "required")
	}
	if req.MediaType == "" {
		return nil, NewValidationError("media_type", "required")
	}
	if req.StoragePath == "" {
		return nil, NewValidationError("storage_path", "required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	builder := s.client.Capture.Create().
		SetID(uuid.New().String()).
		SetUserID(req.UserID).
		SetMediaType(capture.MediaType(req.MediaType)).
		SetMimeType(req.MimeType).
		SetStoragePath(req.StoragePath).
		SetCapturedAt(req.CapturedAt).
		SetIntervalID(req.IntervalID)

	if req.SourceCaptureID != "" {
		builder = builder.SetSourceCaptureID(req.SourceCaptureID)
	}
	if req.EditParams != nil {
		builder = builder.SetEditParams(req.EditParams)
	}

	cap, err := builder.Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create capture: %w", err)
	}

	return cap, nil
}

// GetCapture retrieves a capture by ID.
func (s *CaptureService) GetCapture(ctx context.Context, captureID string) (*ent.Capture, error) {
	cap, err := s.client.Capture.Get(ctx, captureID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get capture: %w", err)
	}
	return cap, nil
}

// ListCaptures lists a user's captures with pagination, optionally
// restricted to captures still pending frame extraction or thumbnailing.
func (s *CaptureService) ListCaptures(ctx context.Context, filters models.CaptureFilters) (*models.CaptureListResponse, error) {
	query := s.client.Capture.Query().
		Where(capture.DeletedAtIsNil())

	if filters.UserID != "" {
		query = query.Where(capture.UserIDEQ(filters.UserID))
	}
	if filters.IntervalID != nil {
		query = query.Where(capture.IntervalIDEQ(*filters.IntervalID))
	}
	if filters.PendingFrames {
		query = query.Where(capture.FramesExtractedEQ(false))
	}
	if filters.PendingThumbnail {
		query = query.Where(capture.ThumbnailPathIsNil())
	}

	totalCount, err := query.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count captures: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	captures, err := query.
		Limit(limit).
		Offset(offset).
		Order(ent.Desc(capture.FieldCapturedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list captures: %w", err)
	}

	return &models.CaptureListResponse{
		Captures:   captures,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// ListForWindow returns a user's non-deleted captures inside [start, end),
// newest first, clamped to limit. Used by the Collateral Agent to build its
// prompt context and by GetMoreContext to fetch a finer-grained sub-range.
func (s *CaptureService) ListForWindow(ctx context.Context, userID string, start, end time.Time, limit int) ([]*ent.Capture, error) {
	if limit <= 0 {
		limit = 100
	}

	captures, err := s.client.Capture.Query().
		Where(
			capture.DeletedAtIsNil(),
			capture.UserIDEQ(userID),
			capture.CapturedAtGTE(start),
			capture.CapturedAtLT(end),
		).
		Order(ent.Desc(capture.FieldCapturedAt)).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list captures for window: %w", err)
	}

	return captures, nil
}

// CompleteFrames marks frame extraction as finished.
func (s *CaptureService) CompleteFrames(ctx context.Context, captureID string) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.client.Capture.UpdateOneID(captureID).
		SetFramesExtracted(true).
		SetFramesProcessing(false).
		ClearFrameError().
		Exec(writeCtx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to complete frames: %w", err)
	}
	return nil
}

// FailFrames records a frame extraction failure and releases the lease so
// it can be retried (or permanently abandoned once frame_attempts is spent).
func (s *CaptureService) FailFrames(ctx context.Context, captureID, errMsg string) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.client.Capture.UpdateOneID(captureID).
		SetFramesProcessing(false).
		SetFrameError(errMsg).
		Exec(writeCtx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to record frame failure: %w", err)
	}
	return nil
}

// CompleteThumbnail records the generated thumbnail's storage path.
func (s *CaptureService) CompleteThumbnail(ctx context.Context, captureID, thumbnailPath string) error {
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.client.Capture.UpdateOneID(captureID).
		SetThumbnailPath(thumbnailPath).
		Exec(writeCtx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to complete thumbnail: %w", err)
	}
	return nil
}

// FindOrphanedFrameLeases finds captures whose frame lease is stale,
// used by an orphan-detection sweep independent of the claim path.
func (s *CaptureService) FindOrphanedFrameLeases(ctx context.Context, leaseTimeout time.Duration) ([]*ent.Capture, error) {
	threshold := time.Now().Add(-leaseTimeout)

	captures, err := s.client.Capture.Query().
		Where(
			capture.FramesProcessingEQ(true),
			capture.FramesProcessingStartedAtNotNil(),
			capture.FramesProcessingStartedAtLT(threshold),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find orphaned frame leases: %w", err)
	}

	return captures, nil
}

// SoftDeleteOldCaptures soft-deletes fully processed captures older than
// retentionDays, so they stop appearing in listings while their storage
// objects are reclaimed by a separate out-of-band sweep.
func (s *CaptureService) SoftDeleteOldCaptures(ctx context.Context, retentionDays int) (int, error) {
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	writeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.client.Capture.Update().
		Where(
			capture.DeletedAtIsNil(),
			capture.CreatedAtLT(cutoff),
			capture.FramesExtractedEQ(true),
		).
		SetDeletedAt(time.Now()).
		Save(writeCtx)
	if err != nil {
		return 0, fmt.Errorf("failed to soft-delete old captures: %w", err)
	}

	return count, nil
}

// SearchCaptures performs a full-text search over frame extraction error
// messages, for debugging a stuck pipeline.
func (s *CaptureService) SearchCaptures(ctx context.Context, query string, limit int) ([]*ent.Capture, error) {
	if limit <= 0 {
		limit = 20
	}

	captures, err := s.client.Capture.Query().
		Where(func(sel *sql.Selector) {
			sel.Where(sql.ExprP("to_tsvector('english', COALESCE(frame_error, '')) @@ plainto_tsquery($1)", query))
		}).
		Limit(limit).
		Order(ent.Desc(capture.FieldCapturedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search captures: %w", err)
	}

	return captures, nil
}
