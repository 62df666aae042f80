package scheduler

import (
	"context"
	stdsql "database/sql"
	"fmt"
)

// eligibleUserIDs returns the ids of every user who, right now, meets all
// three dispatch predicates in one query rather than one round trip per
// user:
//
//  1. has a capture newer than their last completed AgentRun (or has never
//     completed one),
//  2. has no running AgentRun younger than runningTimeout,
//  3. has gone idle: no capture newer than now - idleDuration.
func eligibleUserIDs(ctx context.Context, db *stdsql.DB, runningTimeoutSecs, idleDurationSecs int) ([]string, error) {
	const query = `
		SELECT DISTINCT c.user_id
		FROM captures c
		WHERE c.captured_at > COALESCE(
			(SELECT max(ar.completed_at) FROM agent_runs ar
				WHERE ar.user_id = c.user_id AND ar.status = 'completed'),
			'-infinity'::timestamptz
		)
		AND NOT EXISTS (
			SELECT 1 FROM agent_runs ar2
			WHERE ar2.user_id = c.user_id
				AND ar2.status = 'running'
				AND ar2.started_at > now() - ($1 || ' seconds')::interval
		)
		AND NOT EXISTS (
			SELECT 1 FROM captures c2
			WHERE c2.user_id = c.user_id
				AND c2.captured_at > now() - ($2 || ' seconds')::interval
		)
	`

	rows, err := db.QueryContext(ctx, query, runningTimeoutSecs, idleDurationSecs)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan eligible user row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate eligible user rows: %w", err)
	}
	return ids, nil
}
