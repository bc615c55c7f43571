package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles repeated work such as watch-mode re-runs.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter allows perSecond events per second with a burst of one.
// A non-positive rate disables throttling.
func NewLimiter(perSecond float64) *Limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{inner: rate.NewLimiter(limit, 1)}
}

func (l *Limiter) Allow() bool {
	return l.inner.AllowN(time.Now(), 1)
}

// Wait blocks until the next event is permitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.inner.Wait(ctx)
}
