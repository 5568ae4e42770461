// Package cache provides short-lived memoization of evaluated boards keyed
// by (sport, scope). It is the only component in the engine with
// process-wide shared mutable state; all mutation goes through the Store
// interface.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/prop-edge/internal/models"
)

// Key identifies one cached board.
type Key struct {
	Sport string
	Scope string
}

// String returns the storage key representation.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", strings.ToUpper(k.Sport), k.Scope)
}

// Entry is one cached board. An entry older than its TTL is
// indistinguishable from a miss and is purged lazily on the next read.
type Entry struct {
	Results   []models.EvaluatedMarket `json:"results"`
	FetchedAt time.Time                `json:"fetched_at"`
	TTL       time.Duration            `json:"ttl"`
}

// Expired reports whether the entry has outlived its TTL at the given time.
func (e *Entry) Expired(now time.Time) bool {
	return now.Sub(e.FetchedAt) > e.TTL
}

// Store is the narrow interface through which all cache state is touched.
// Set replaces the whole entry atomically; there is no partial invalidation.
type Store interface {
	Get(ctx context.Context, key Key) (*Entry, bool)
	Set(ctx context.Context, key Key, entry Entry) error
	Flush(ctx context.Context) error
}
