// Package cache provides a read-through cache with single-flight loading on
// top of pluggable entry stores: an unbounded in-process map, a bounded L1
// backed by ristretto, a Redis-backed L2 and a tiered combination of two
// stores.
package cache

import (
	"context"
	"errors"
)

// ErrInvalidKey is returned when a lookup is attempted with an empty key.
var ErrInvalidKey = errors.New("cache: invalid key")

// Store is the contract every entry store satisfies. Entries never expire on
// their own; they leave a store only through Delete or Purge (or, for a
// bounded store, through its admission policy).
type Store[V any] interface {
	// Load retrieves a value by key. The boolean indicates a hit.
	Load(ctx context.Context, key string) (V, bool, error)

	// Save stores val under key, replacing any previous value.
	Save(ctx context.Context, key string, val V) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Purge removes every entry held by the store.
	Purge(ctx context.Context) error
}
