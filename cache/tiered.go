package cache

import (
	"context"
	"errors"
)

// Tiered combines a near store (usually in-process) and a far store (usually
// Redis). Reads check the near store first and copy far hits into it.
// Writes and deletes go to both.
//
// The copy-up is a write that happens during Load. Callers that also delete
// must not let a Load overlap a Delete or Purge, or the copy can put a
// removed entry back into the near level. [ReadThrough] serialises them.
type Tiered[V any] struct {
	l1 Store[V]
	l2 Store[V]
}

// NewTiered creates a two-level store.
func NewTiered[V any](l1, l2 Store[V]) *Tiered[V] {
	return &Tiered[V]{l1: l1, l2: l2}
}

// Load checks l1, then l2. An l2 hit is copied into l1.
func (t *Tiered[V]) Load(ctx context.Context, key string) (V, bool, error) {
	if v, ok, err := t.l1.Load(ctx, key); err != nil || ok {
		return v, ok, err
	}
	v, ok, err := t.l2.Load(ctx, key)
	if err != nil || !ok {
		var zero V
		return zero, false, err
	}
	// A failed copy only means the next Load reads l2 again.
	_ = t.l1.Save(ctx, key, v)
	return v, true, nil
}

// Save writes the value to l2, then l1.
func (t *Tiered[V]) Save(ctx context.Context, key string, val V) error {
	if err := t.l2.Save(ctx, key, val); err != nil {
		return err
	}
	return t.l1.Save(ctx, key, val)
}

// Delete removes key from both levels. l1 is cleared even when l2 fails.
func (t *Tiered[V]) Delete(ctx context.Context, key string) error {
	return errors.Join(t.l2.Delete(ctx, key), t.l1.Delete(ctx, key))
}

// Purge empties both levels. l1 is emptied even when l2 fails.
func (t *Tiered[V]) Purge(ctx context.Context) error {
	return errors.Join(t.l2.Purge(ctx), t.l1.Purge(ctx))
}
