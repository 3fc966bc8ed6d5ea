// Package ratelimit implements fixed-window request limiting backed by Redis
// or process memory.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rl:"

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int64
	RetryAfter time.Duration
}

// Limiter counts hits per key and decides whether the current one is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter shares counters across instances through Redis.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisLimiter allows limit hits per key within window.
func NewRedisLimiter(client *redis.Client, limit int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

// Allow increments the key's counter. The expiry is only set by the first hit
// in a window so the window does not slide.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := keyPrefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	n := incr.Val()
	d := Decision{Allowed: n <= l.limit, Count: n, Limit: l.limit}
	if !d.Allowed {
		d.RetryAfter = ttl.Val()
		if d.RetryAfter <= 0 {
			d.RetryAfter = l.window
		}
	}
	return d, nil
}

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryLimiter keeps counters in process. Used when Redis is not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int64
	window  time.Duration
	now     func() time.Time
	windows map[string]*window
}

// NewMemoryLimiter allows limit hits per key within window.
func NewMemoryLimiter(limit int64, period time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		l.sweep(now)
		w = &window{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}
	w.count++

	d := Decision{Allowed: w.count <= l.limit, Count: w.count, Limit: l.limit}
	if !d.Allowed {
		d.RetryAfter = w.resetAt.Sub(now)
	}
	return d, nil
}

// sweep drops expired windows. Caller holds mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*MemoryLimiter)(nil)
)
