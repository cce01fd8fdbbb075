package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// MemoryLimiter implements Limiter on top of an in-process store. Counts
// reset on restart, which is acceptable for single-instance deployments.
type MemoryLimiter struct {
	store limiter.Store
}

// NewMemoryLimiter constructs a limiter backed by an in-memory store.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{store: memory.NewStore()}
}

// Allow registers an event for the given key and returns whether it is within the limit.
func (l *MemoryLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l == nil || l.store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}

	rate := limiter.Rate{Period: window, Limit: int64(max)}
	lctx, err := l.store.Get(ctx, key, rate)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}

	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}
