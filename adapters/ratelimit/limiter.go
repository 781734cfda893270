package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/layer-3/walletauth/ports"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	keyPrefix = "walletauth:rate:"

	// how often MemoryLimiter drops buckets of clients that went quiet
	sweepInterval = time.Minute
)

// RedisLimiter shares request budgets across instances through redis
type RedisLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

// NewRedisLimiter allows perMinute requests per key and minute
func NewRedisLimiter(client redis.UniversalClient, perMinute int) ports.RateLimiter {
	return &RedisLimiter{
		limiter: redis_rate.NewLimiter(client),
		limit:   redis_rate.PerMinute(perMinute),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := l.limiter.Allow(ctx, keyPrefix+key, l.limit)
	if err != nil {
		return false, 0, err
	}
	if res.Allowed == 0 {
		return false, res.RetryAfter, nil
	}
	return true, 0, nil
}

// MemoryLimiter keeps a token bucket per key in process. Buckets that refilled
// completely are dropped, a new bucket behaves the same.
type MemoryLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*rate.Limiter
	every     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryLimiter allows perMinute requests per key and minute
func NewMemoryLimiter(perMinute int) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*rate.Limiter),
		every:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= sweepInterval {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.every, l.burst)
		l.buckets[key] = b
	}

	r := b.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if b.TokensAt(now) >= float64(l.burst) {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
