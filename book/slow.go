package book

import (
	"context"
	"time"
)

// DefaultDelay is the simulated latency of [SlowRepository].
const DefaultDelay = 3 * time.Second

// SlowRepository derives a book from its ISBN after an artificial delay,
// standing in for an expensive backend call. It holds no state.
type SlowRepository struct {
	delay time.Duration
}

// NewSlowRepository creates a SlowRepository. A non-positive delay selects
// [DefaultDelay].
func NewSlowRepository(delay time.Duration) *SlowRepository {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &SlowRepository{delay: delay}
}

// Delay reports the configured latency.
func (r *SlowRepository) Delay() time.Duration { return r.delay }

// GetByISBN blocks for the configured delay and returns
// Book{ISBN: isbn, Title: TitlePrefix + isbn}. An empty isbn fails fast with
// [ErrInvalidKey]; a context that ends during the delay aborts with its error.
func (r *SlowRepository) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	if isbn == "" {
		return Book{}, ErrInvalidKey
	}

	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Book{}, ctx.Err()
	case <-timer.C:
	}

	return Book{ISBN: isbn, Title: TitlePrefix + isbn}, nil
}
