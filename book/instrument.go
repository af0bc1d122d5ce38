package book

import (
	"context"
	"errors"
	"time"

	"github.com/Keksclan/goRawrBooks/internal/metrics"
)

// Instrument wraps src so that every lookup reaching it is counted and timed
// under the given source name.
func Instrument(src Repository, name string) Repository {
	return RepositoryFunc(func(ctx context.Context, isbn string) (Book, error) {
		start := time.Now()
		b, err := src.GetByISBN(ctx, isbn)
		metrics.SourceLookupDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		metrics.SourceLookups.WithLabelValues(name, outcome(err)).Inc()
		return b, err
	})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidKey):
		return "invalid"
	default:
		return "error"
	}
}
