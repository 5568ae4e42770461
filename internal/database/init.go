package database

import (
	"context"
	"fmt"

	"github.com/yourusername/prop-edge/internal/config"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS evaluation_snapshots (
	id         UUID PRIMARY KEY,
	sport      TEXT NOT NULL,
	scope      TEXT NOT NULL,
	results    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_snapshots_sport_scope_created
	ON evaluation_snapshots (sport, scope, created_at DESC);
`

// Initialize creates a database connection pool and ensures the snapshot
// schema exists. Schema creation is idempotent so restarts are safe.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.Exec(ctx, snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure snapshot schema: %w", err)
	}

	return db, nil
}
