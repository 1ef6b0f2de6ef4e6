// Package ratelimit paces sequential dispatch toward a target rate.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with a zero-means-unpaced convention and
// run-time rate adjustment.
type Limiter struct {
	limiter *rate.Limiter
	mu      sync.RWMutex
}

func New(perSecond int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), max(perSecond, 1)),
	}
}

// Wait blocks until the next send is allowed. A zero rate never waits.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.RLock()
	limiter := l.limiter
	limit := limiter.Limit()
	l.mu.RUnlock()

	if limit == 0 {
		return nil
	}
	return limiter.Wait(ctx)
}

// SetRate adjusts the target rate mid-run.
func (l *Limiter) SetRate(perSecond int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiter.SetLimit(rate.Limit(perSecond))
	l.limiter.SetBurst(max(perSecond, 1))
}
