package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

// CreateGINIndexes creates full-text search GIN indexes for PostgreSQL.
// These indexes back Content Query's text search over drafted/posted tweets.
func CreateGINIndexes(ctx context.Context, driver *sql.Driver) error {
	db := driver.DB()

	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_tweets_text_gin
		ON tweets USING gin(to_tsvector('english', text))`)
	if err != nil {
		return fmt.Errorf("failed to create tweet text GIN index: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_tweets_rationale_gin
		ON tweets USING gin(to_tsvector('english', COALESCE(rationale, '')))`)
	if err != nil {
		return fmt.Errorf("failed to create tweet rationale GIN index: %w", err)
	}

	return nil
}
