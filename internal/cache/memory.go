package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/prop-edge/internal/metrics"
)

// MemoryStore is an in-process Store backed by go-cache. Expiry is checked
// against the entry's own TTL with an injectable clock so tests can advance
// time; the backing store's janitor is only a backstop for abandoned keys.
type MemoryStore struct {
	backing *gocache.Cache
	now     func() time.Time

	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewMemoryStore creates an in-memory store. A nil clock uses time.Now.
func NewMemoryStore(defaultTTL time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		// Backstop expiry at twice the default TTL; real staleness is
		// decided per entry in Get.
		backing: gocache.New(defaultTTL*2, defaultTTL),
		now:     now,
	}
}

// Get returns the entry for key, treating a stale entry as a miss and
// deleting it.
func (s *MemoryStore) Get(ctx context.Context, key Key) (*Entry, bool) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found := s.backing.Get(key.String())
	if !found {
		s.missLocked()
		return nil, false
	}

	entry, ok := raw.(*Entry)
	if !ok || entry.Expired(s.now()) {
		s.backing.Delete(key.String())
		s.missLocked()
		return nil, false
	}

	s.hitLocked()
	return entry, true
}

// Set stores the entry, replacing any previous board for the key.
func (s *MemoryStore) Set(ctx context.Context, key Key, entry Entry) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.backing.Set(key.String(), &entry, entry.TTL*2)
	return nil
}

// Flush drops every entry and resets counters.
func (s *MemoryStore) Flush(ctx context.Context) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.backing.Flush()
	s.hitCount = 0
	s.missCount = 0
	return nil
}

// Stats returns hit/miss counts and the hit ratio.
func (s *MemoryStore) Stats() (hits, misses uint64, ratio float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits = s.hitCount
	misses = s.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

func (s *MemoryStore) hitLocked() {
	s.hitCount++
	metrics.CacheHitsTotal.Inc()
	s.publishRatioLocked()
}

func (s *MemoryStore) missLocked() {
	s.missCount++
	metrics.CacheMissesTotal.Inc()
	s.publishRatioLocked()
}

func (s *MemoryStore) publishRatioLocked() {
	if total := s.hitCount + s.missCount; total > 0 {
		metrics.CacheHitRatio.Set(float64(s.hitCount) / float64(total))
	}
}
