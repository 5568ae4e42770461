// Package repository provides persistence for evaluated board snapshots.
package repository

import (
	"context"

	"github.com/yourusername/prop-edge/internal/models"
)

// SnapshotRepository persists and retrieves evaluated board snapshots.
type SnapshotRepository interface {
	// Save stores one snapshot. The snapshot id is assigned if zero.
	Save(ctx context.Context, snapshot *models.EvaluationSnapshot) error

	// GetLatest returns the most recent snapshot for (sport, scope), or
	// models.ErrNotFound when none exists.
	GetLatest(ctx context.Context, sport, scope string) (*models.EvaluationSnapshot, error)

	// List returns up to limit snapshots for a sport, newest first, without
	// their result payloads.
	List(ctx context.Context, sport string, limit int) ([]*models.EvaluationSnapshot, error)

	// Prune deletes all but the newest keep snapshots per (sport, scope).
	Prune(ctx context.Context, keep int) (int64, error)
}
