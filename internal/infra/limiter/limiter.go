package limiter

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter bounds both the start rate and the number of in-flight deck builds.
type Limiter struct {
	semaphore   *semaphore.Weighted
	rateLimiter *rate.Limiter
}

func New(maxConcurrent int, ratePerSecond float64) *Limiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(ratePerSecond)
	if ratePerSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{
		semaphore:   semaphore.NewWeighted(int64(maxConcurrent)),
		rateLimiter: rate.NewLimiter(limit, burst),
	}
}

func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := l.semaphore.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { l.semaphore.Release(1) }, nil
}
