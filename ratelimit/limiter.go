// Package ratelimit provides a token-bucket rate limiter backed by
// golang.org/x/time/rate. The server uses it to gate incoming RPCs and the
// CLI uses it to pace outgoing lookups.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket limiter.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a Limiter that permits rps events per second with the
// given burst size. A non-positive rps means no limit.
func NewLimiter(rps float64, burst int) *Limiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &Limiter{lim: rate.NewLimiter(limit, max(burst, 1))}
}

// Allow reports whether a single event may proceed now.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}

// Wait blocks until an event may proceed or ctx ends.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.lim.Wait(ctx)
}
