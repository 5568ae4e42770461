package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/metrics"
)

// RedisStore is a Store backed by Redis, for deployments where several
// instances should share one board cache. Entries are JSON-encoded; the
// server-side expiry is a backstop and the entry's own age check still
// applies, so a stale read behaves identically to a miss.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
	logger *logrus.Logger
}

// NewRedisStore creates a Redis-backed store. A nil clock uses time.Now.
func NewRedisStore(client *redis.Client, prefix string, now func() time.Time, logger *logrus.Logger) *RedisStore {
	if prefix == "" {
		prefix = "propedge:board"
	}
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, prefix: prefix, now: now, logger: logger}
}

// Get returns the entry for key, treating stale or undecodable entries as
// misses.
func (s *RedisStore) Get(ctx context.Context, key Key) (*Entry, bool) {
	raw, err := s.client.Get(ctx, s.storageKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WithError(err).Warn("Redis cache read failed")
		}
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.WithError(err).Warn("Dropping undecodable cache entry")
		s.client.Del(ctx, s.storageKey(key))
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}

	if entry.Expired(s.now()) {
		s.client.Del(ctx, s.storageKey(key))
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}

	metrics.CacheHitsTotal.Inc()
	return &entry, true
}

// Set stores the entry with a server-side expiry slightly past the TTL.
func (s *RedisStore) Set(ctx context.Context, key Key, entry Entry) error {
	raw, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, s.storageKey(key), raw, entry.TTL*2).Err(); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Flush removes every board entry under this store's prefix.
func (s *RedisStore) Flush(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("delete cache entry: %w", err)
		}
	}
	return iter.Err()
}

func (s *RedisStore) storageKey(key Key) string {
	return s.prefix + ":" + key.String()
}
