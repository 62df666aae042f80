// Package frameworker implements the frame extraction worker pool and the
// claim-and-lease primitive it shares with the thumbnail worker.
package frameworker

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"time"
)

// ClaimSpec parameterizes one claim-and-lease query over the captures
// table by column set, so the frame worker and the thumbnail worker share
// a single atomic batch-claim statement instead of each hand-rolling its
// own. Predicate selects the rows still eligible for work; Claim is the
// SET clause applied to every row the predicate matches. Both run inside
// one UPDATE ... WHERE id IN (SELECT ... FOR UPDATE SKIP LOCKED) RETURNING
// statement, so the select-then-mark is atomic without an explicit
// transaction.
type ClaimSpec struct {
	// Predicate is the WHERE clause selecting claimable rows. Placeholders
	// start at $1 and must line up with Args.
	Predicate string
	Args      []any
	// Claim is the SET clause applied to claimed rows, e.g.
	// "frames_processing = true, frames_processing_started_at = now(),
	// frame_attempts = frame_attempts + 1".
	Claim string
	// BatchSize bounds how many rows a single call may claim.
	BatchSize int
}

// ClaimedCapture is one row returned by a claim-and-lease query.
type ClaimedCapture struct {
	ID          string
	MediaType   string
	StoragePath string
	CapturedAt  time.Time
}

// ClaimBatch executes spec against db and returns the rows it claimed. The
// underlying claimable set is ordered by captured_at so the oldest pending
// work is always claimed first.
func ClaimBatch(ctx context.Context, db *stdsql.DB, spec ClaimSpec) ([]ClaimedCapture, error) {
	if spec.BatchSize <= 0 {
		return nil, nil
	}

	args := append(append([]any{}, spec.Args...), spec.BatchSize)
	limitPos := len(args)

	query := fmt.Sprintf(`
		UPDATE captures SET %s
		WHERE id IN (
			SELECT id FROM captures
			WHERE %s
			ORDER BY captured_at ASC
			LIMIT $%d
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, media_type, storage_path, captured_at
	`, spec.Claim, spec.Predicate, limitPos)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to claim batch: %w", err)
	}
	defer rows.Close()

	var claimed []ClaimedCapture
	for rows.Next() {
		var c ClaimedCapture
		if err := rows.Scan(&c.ID, &c.MediaType, &c.StoragePath, &c.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan claimed capture: %w", err)
		}
		claimed = append(claimed, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claimed captures: %w", err)
	}

	return claimed, nil
}

// FrameClaimSpec builds the claim-and-lease query for the frame worker:
// captures with frames_extracted = false, frame_attempts under maxAttempts,
// and either no lease or an expired one.
func FrameClaimSpec(leaseTTL time.Duration, maxAttempts, batchSize int) ClaimSpec {
	return ClaimSpec{
		Predicate: `deleted_at IS NULL AND frames_extracted = false AND frame_attempts < $1 ` +
			`AND (frames_processing = false OR frames_processing_started_at < $2)`,
		Args:      []any{maxAttempts, time.Now().Add(-leaseTTL)},
		Claim:     `frames_processing = true, frames_processing_started_at = now(), frame_attempts = frame_attempts + 1`,
		BatchSize: batchSize,
	}
}

// ThumbnailClaimSpec builds the claim-and-lease query for the thumbnail
// worker. Thumbnails are generated once with no lease window: a single
// attempts counter guards against endless retry of a broken source.
func ThumbnailClaimSpec(maxAttempts, batchSize int) ClaimSpec {
	return ClaimSpec{
		Predicate: `deleted_at IS NULL AND thumbnail_path IS NULL AND thumbnail_attempts < $1`,
		Args:      []any{maxAttempts},
		Claim:     `thumbnail_attempts = thumbnail_attempts + 1`,
		BatchSize: batchSize,
	}
}
