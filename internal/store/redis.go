package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs the roster cache and the alert-outcome queue. Read and write
// timeouts are kept tight so a Redis stall degrades to cache misses instead
// of slowing marking actions.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis. A non-positive dialTimeout falls back to 2s;
// per-command timeouts are fixed at 1s.
func NewRedis(addr string, dialTimeout time.Duration) *Redis {
	if dialTimeout <= 0 {
		dialTimeout = 2 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  dialTimeout,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
