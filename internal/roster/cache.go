package roster

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds short-lived roster snapshots keyed by batch and section.
type Cache interface {
	GetRoster(ctx context.Context, batch, section string) ([]StudentRecord, bool)
	SetRoster(ctx context.Context, batch, section string, recs []StudentRecord)
	Invalidate(ctx context.Context, batch, section string)
}

// RedisCache caches rosters in Redis with a TTL. Misses and transport errors
// both read as a miss; the store stays authoritative.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache builds a cache; a non-positive ttl falls back to 30s.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCache{client: client, ttl: ttl}
}

func rosterKey(batch, section string) string {
	return "roster:" + batch + ":" + section
}

// GetRoster returns a cached roster if present.
func (c *RedisCache) GetRoster(ctx context.Context, batch, section string) ([]StudentRecord, bool) {
	raw, err := c.client.Get(ctx, rosterKey(batch, section)).Bytes()
	if err != nil {
		return nil, false
	}
	var recs []StudentRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, false
	}
	return recs, true
}

// SetRoster stores a roster snapshot.
func (c *RedisCache) SetRoster(ctx context.Context, batch, section string, recs []StudentRecord) {
	raw, err := json.Marshal(recs)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, rosterKey(batch, section), raw, c.ttl).Err()
}

// Invalidate drops the snapshot after a mark so the next read is fresh.
func (c *RedisCache) Invalidate(ctx context.Context, batch, section string) {
	_ = c.client.Del(ctx, rosterKey(batch, section)).Err()
}
