package cache

import (
	"context"

	"github.com/dgraph-io/ristretto/v2"
)

// L1 is a bounded in-process store backed by ristretto. Every entry has a
// cost of 1, so maxCost is the number of entries the store holds before its
// admission policy starts rejecting or evicting. Use it only when a bound
// matters more than a guaranteed hit.
type L1[V any] struct {
	rc *ristretto.Cache[string, V]
}

// NewL1 creates a new L1 store holding at most maxCost entries.
func NewL1[V any](maxCost int64) (*L1[V], error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &L1[V]{rc: rc}, nil
}

// Load retrieves a value by key.
func (l *L1[V]) Load(_ context.Context, key string) (V, bool, error) {
	v, ok := l.rc.Get(key)
	return v, ok, nil
}

// Save stores val under key and waits for the write buffer to drain so that
// an immediate Load observes it. A write dropped by the admission policy is
// not an error; the next lookup simply misses.
func (l *L1[V]) Save(_ context.Context, key string, val V) error {
	l.rc.Set(key, val, 1)
	l.rc.Wait()
	return nil
}

// Delete removes key.
func (l *L1[V]) Delete(_ context.Context, key string) error {
	l.rc.Del(key)
	return nil
}

// Purge removes all entries.
func (l *L1[V]) Purge(_ context.Context) error {
	l.rc.Clear()
	return nil
}

// Close stops the ristretto background goroutines.
func (l *L1[V]) Close() {
	l.rc.Close()
}
