package ports

import (
	"context"
	"time"
)

// RateLimiter counts requests per key
type RateLimiter interface {
	// Allow records one request for key. When the request is over the limit it returns
	// false and how long the caller should wait.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}
