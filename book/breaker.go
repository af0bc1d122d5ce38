package book

import (
	"context"
	"errors"
	"fmt"

	"github.com/Keksclan/goRawrBooks/breaker"
)

// WithBreaker wraps src in a circuit breaker. Only [ErrSourceUnavailable]
// counts as a failure unless cfg.IsFailure says otherwise. While the breaker
// is open lookups fail immediately with an error matching both
// ErrSourceUnavailable and [breaker.ErrOpen].
func WithBreaker(src Repository, cfg breaker.Config) Repository {
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return errors.Is(err, ErrSourceUnavailable) }
	}
	br := breaker.New(cfg)
	return RepositoryFunc(func(ctx context.Context, isbn string) (Book, error) {
		var b Book
		err := br.Do(func() error {
			var err error
			b, err = src.GetByISBN(ctx, isbn)
			return err
		})
		if errors.Is(err, breaker.ErrOpen) {
			return Book{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		return b, err
	})
}
