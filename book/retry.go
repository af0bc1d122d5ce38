package book

import (
	"context"
	"errors"

	"github.com/Keksclan/goRawrBooks/retry"
)

// WithRetry wraps src so that lookups failing with [ErrSourceUnavailable] are
// retried according to cfg. When cfg.Retryable is nil it defaults to exactly
// that check, so invalid keys and missing books are never retried.
func WithRetry(src Repository, cfg retry.Config) Repository {
	if cfg.Retryable == nil {
		cfg.Retryable = func(err error) bool { return errors.Is(err, ErrSourceUnavailable) }
	}
	return RepositoryFunc(func(ctx context.Context, isbn string) (Book, error) {
		return retry.Do(ctx, cfg, func(ctx context.Context) (Book, error) {
			return src.GetByISBN(ctx, isbn)
		})
	})
}
