package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/prop-edge/internal/database"
	"github.com/yourusername/prop-edge/internal/models"
)

// PostgresSnapshotRepository implements SnapshotRepository for PostgreSQL
type PostgresSnapshotRepository struct {
	db *database.DB
}

// NewPostgresSnapshotRepository creates a new snapshot repository
func NewPostgresSnapshotRepository(db *database.DB) SnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// Save stores one snapshot with its results as a JSONB payload
func (r *PostgresSnapshotRepository) Save(ctx context.Context, snapshot *models.EvaluationSnapshot) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(snapshot.Results)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot results: %w", err)
	}

	query := `
		INSERT INTO evaluation_snapshots (id, sport, scope, results, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if err := r.db.Exec(ctx, query,
		snapshot.ID, snapshot.Sport, snapshot.Scope, payload, snapshot.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent snapshot for a sport and scope
func (r *PostgresSnapshotRepository) GetLatest(ctx context.Context, sport, scope string) (*models.EvaluationSnapshot, error) {
	query := `
		SELECT id, sport, scope, results, created_at
		FROM evaluation_snapshots
		WHERE sport = $1 AND scope = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	snapshot := &models.EvaluationSnapshot{}
	var payload []byte
	err := r.db.QueryRow(ctx, query, sport, scope).Scan(
		&snapshot.ID, &snapshot.Sport, &snapshot.Scope, &payload, &snapshot.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	if err := json.Unmarshal(payload, &snapshot.Results); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot results: %w", err)
	}

	return snapshot, nil
}

// List retrieves snapshot metadata for a sport, newest first
func (r *PostgresSnapshotRepository) List(ctx context.Context, sport string, limit int) ([]*models.EvaluationSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, sport, scope, created_at
		FROM evaluation_snapshots
		WHERE sport = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, sport, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.EvaluationSnapshot
	for rows.Next() {
		s := &models.EvaluationSnapshot{}
		if err := rows.Scan(&s.ID, &s.Sport, &s.Scope, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}

// Prune deletes all but the newest keep snapshots per sport and scope
func (r *PostgresSnapshotRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		keep = 1
	}

	query := `
		DELETE FROM evaluation_snapshots
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY sport, scope ORDER BY created_at DESC
				) AS rn
				FROM evaluation_snapshots
			) ranked
			WHERE ranked.rn > $1
		)
	`

	tag, err := r.db.GetPool().Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	return tag.RowsAffected(), nil
}
