package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces L2 keys when no prefix is configured.
const DefaultPrefix = "rawrbooks:"

// purgeBatch bounds the number of keys fetched per SCAN and removed per DEL.
const purgeBatch = 256

// L2 is a Redis-backed store holding JSON-encoded values under a key prefix.
// Load and Save fail soft: with Redis unavailable, reads miss and writes are
// dropped. Delete and Purge report Redis errors, since a removal that did not
// happen would let the entry come back once Redis recovers.
type L2[V any] struct {
	rdb    *redis.Client
	prefix string
}

// NewL2 creates a new Redis-backed store. An empty prefix selects
// [DefaultPrefix].
func NewL2[V any](addr, password string, db int, prefix string) *L2[V] {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &L2[V]{rdb: rdb, prefix: prefix}
}

func (l *L2[V]) key(k string) string { return l.prefix + k }

// Load retrieves a value by key. Unreachable Redis and undecodable payloads
// both read as a miss.
func (l *L2[V]) Load(ctx context.Context, key string) (V, bool, error) {
	var v V
	raw, err := l.rdb.Get(ctx, l.key(key)).Bytes()
	if err != nil {
		// redis.Nil and connection errors alike.
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero V
		return zero, false, nil
	}
	return v, true, nil
}

// Save stores val under key without expiration. Only an encoding failure is
// reported; Redis errors are discarded.
func (l *L2[V]) Save(ctx context.Context, key string, val V) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}
	_ = l.rdb.Set(ctx, l.key(key), raw, 0).Err()
	return nil
}

// Delete removes key.
func (l *L2[V]) Delete(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("cache: delete %q: %w", key, err)
	}
	return nil
}

// Purge removes every key under the store's prefix, in SCAN-sized batches.
func (l *L2[V]) Purge(ctx context.Context) error {
	iter := l.rdb.Scan(ctx, 0, l.prefix+"*", purgeBatch).Iterator()
	batch := make([]string, 0, purgeBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := l.rdb.Del(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == purgeBatch {
			if err := flush(); err != nil {
				return fmt.Errorf("cache: purge %q: %w", l.prefix, err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: purge %q: %w", l.prefix, err)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("cache: purge %q: %w", l.prefix, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (l *L2[V]) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (l *L2[V]) Close() error {
	return l.rdb.Close()
}
