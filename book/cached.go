package book

import (
	"context"

	"github.com/Keksclan/goRawrBooks/cache"
)

// Cached decorates a Repository with a read-through cache. It satisfies the
// same contract as the source it wraps, so callers compose it explicitly:
//
//	repo := book.NewCached(book.NewSlowRepository(0))
//	b, err := repo.GetByISBN(ctx, "isbn-1234") // slow
//	b, err = repo.GetByISBN(ctx, "isbn-1234")  // cached
type Cached struct {
	rt *cache.ReadThrough[Book]
}

// NewCached wraps src. Options configure the underlying [cache.ReadThrough].
func NewCached(src Repository, opts ...cache.ReadThroughOption[Book]) *Cached {
	return &Cached{rt: cache.NewReadThrough(src.GetByISBN, opts...)}
}

// GetByISBN returns the cached book or loads it from the source.
func (c *Cached) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	return c.rt.Get(ctx, isbn)
}

// Peek returns the cached book without consulting the source.
func (c *Cached) Peek(ctx context.Context, isbn string) (Book, bool) {
	return c.rt.Peek(ctx, isbn)
}

// Evict drops the cached book for isbn.
func (c *Cached) Evict(ctx context.Context, isbn string) error {
	return c.rt.Clear(ctx, isbn)
}

// EvictAll drops every cached book.
func (c *Cached) EvictAll(ctx context.Context) error {
	return c.rt.ClearAll(ctx)
}
