// Package book defines the Book record, the Repository contract used to look
// books up by ISBN, and the repositories and decorators built on it: a
// deliberately slow in-process source, a SQL-backed source, and wrappers for
// caching, retries and metrics.
package book

import (
	"context"
	"errors"

	"github.com/Keksclan/goRawrBooks/cache"
)

// TitlePrefix is prepended to the ISBN to derive a simulated title.
const TitlePrefix = "BookTitle_"

var (
	// ErrInvalidKey is returned for an empty ISBN. It is the same value as
	// [cache.ErrInvalidKey] so callers can match either.
	ErrInvalidKey = cache.ErrInvalidKey

	// ErrNotFound is returned when a source has no book for the ISBN.
	ErrNotFound = errors.New("book: not found")

	// ErrSourceUnavailable is wrapped around failures of the backing
	// resource. It is the only error [WithRetry] retries.
	ErrSourceUnavailable = errors.New("book: source unavailable")
)

// Book is an immutable lookup result. Two books are equal iff all fields are
// equal, so values compare with ==.
type Book struct {
	ISBN  string `json:"isbn"`
	Title string `json:"title"`
}

// String mirrors the record form printed by the demo runner.
func (b Book) String() string {
	return "Book{isbn='" + b.ISBN + "', title='" + b.Title + "'}"
}

// Repository looks books up by ISBN.
type Repository interface {
	GetByISBN(ctx context.Context, isbn string) (Book, error)
}

// RepositoryFunc adapts a function to [Repository].
type RepositoryFunc func(ctx context.Context, isbn string) (Book, error)

// GetByISBN calls f(ctx, isbn).
func (f RepositoryFunc) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	return f(ctx, isbn)
}
