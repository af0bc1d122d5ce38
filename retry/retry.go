package retry

import (
	"context"
	"slices"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config controls [Do].
type Config struct {
	MaxAttempts int           // total calls including the first; <= 1 disables retries
	BaseDelay   time.Duration // wait before the first retry, doubled after each
	MaxDelay    time.Duration // ceiling for the doubled wait
	Jitter      float64       // 0.2 spreads each wait by up to 20% either way

	// Retryable decides whether err earns another attempt. Nil retries
	// nothing.
	Retryable func(err error) bool

	// OnRetry, when set, is told about every failed attempt that will be
	// retried, together with the wait before the next one.
	OnRetry func(attempt int, err error, wait time.Duration)
}

func (c Config) attempts() int { return max(c.MaxAttempts, 1) }

func (c Config) shouldRetry(err error) bool {
	return c.Retryable != nil && c.Retryable(err)
}

// Codes builds a Retryable for gRPC status errors with one of cs.
func Codes(cs ...codes.Code) func(error) bool {
	return func(err error) bool {
		if st, ok := status.FromError(err); ok {
			return slices.Contains(cs, st.Code())
		}
		return false
	}
}

// Do runs fn until it succeeds, returns an error cfg.Retryable rejects, or
// cfg.MaxAttempts is used up. A done ctx ends the wait between attempts with
// ctx.Err().
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var (
		zero T
		last error
	)
	for attempt := range cfg.attempts() {
		if attempt > 0 {
			wait := backoff(cfg, attempt-1)
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, last, wait)
			}
			if err := sleep(ctx, wait); err != nil {
				return zero, err
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !cfg.shouldRetry(err) {
			return zero, err
		}
		last = err
	}
	return zero, last
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
