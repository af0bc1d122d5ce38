package cache

import (
	"context"
	"sync"
)

// Map is an unbounded in-process store guarded by a RWMutex. It is the
// default store of [ReadThrough].
type Map[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

// NewMap creates an empty Map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{entries: make(map[string]V)}
}

// Load retrieves a value by key.
func (m *Map[V]) Load(_ context.Context, key string) (V, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

// Save stores val under key.
func (m *Map[V]) Save(_ context.Context, key string, val V) error {
	m.mu.Lock()
	m.entries[key] = val
	m.mu.Unlock()
	return nil
}

// Delete removes key.
func (m *Map[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Purge removes all entries.
func (m *Map[V]) Purge(_ context.Context) error {
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries.
func (m *Map[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
