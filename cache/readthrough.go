package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/apex/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/Keksclan/goRawrBooks/cache"

// LoaderFunc computes the value for key on a cache miss.
type LoaderFunc[V any] func(ctx context.Context, key string) (V, error)

// ReadThrough memoizes a LoaderFunc by key. On a miss the loader runs at most
// once per key no matter how many callers ask concurrently; every waiter
// receives the same result. Loader errors are returned to the waiters and
// never stored.
//
// A clear bumps the generation of the affected keys. A load that started
// under an older generation still answers its waiters but does not store its
// result, so an entry present in the store always comes from a load that
// began after the last clear of its key.
type ReadThrough[V any] struct {
	load   LoaderFunc[V]
	store  Store[V]
	logger log.Interface
	tracer trace.Tracer

	group singleflight.Group

	// mu orders saves (read side) against clears (write side).
	mu    sync.RWMutex
	epoch uint64            // bumped by ClearAll
	gens  map[string]uint64 // bumped by Clear, reset by ClearAll
}

// ReadThroughOption configures a ReadThrough.
type ReadThroughOption[V any] func(*ReadThrough[V])

// WithStore selects the entry store. The default is an unbounded [Map].
func WithStore[V any](s Store[V]) ReadThroughOption[V] {
	return func(c *ReadThrough[V]) {
		c.store = s
	}
}

// WithLogger sets the logger used for fill and clear events.
func WithLogger[V any](l log.Interface) ReadThroughOption[V] {
	return func(c *ReadThrough[V]) {
		c.logger = l
	}
}

// WithTracerProvider sets the provider used to create cache spans. When unset
// the global otel provider is used.
func WithTracerProvider[V any](tp trace.TracerProvider) ReadThroughOption[V] {
	return func(c *ReadThrough[V]) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// NewReadThrough creates an empty cache in front of load.
func NewReadThrough[V any](load LoaderFunc[V], opts ...ReadThroughOption[V]) *ReadThrough[V] {
	c := &ReadThrough[V]{
		load: load,
		gens: make(map[string]uint64),
	}
	for _, o := range opts {
		o(c)
	}
	if c.store == nil {
		c.store = NewMap[V]()
	}
	if c.logger == nil {
		c.logger = log.Log
	}
	if c.tracer == nil {
		c.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	return c
}

// generation identifies the state of a key between two clears.
type generation struct {
	epoch uint64
	gen   uint64
}

func (g generation) flightKey(key string) string {
	return key + "\x00" + strconv.FormatUint(g.epoch, 10) + "." + strconv.FormatUint(g.gen, 10)
}

// generationLocked must be called with c.mu held.
func (c *ReadThrough[V]) generationLocked(key string) generation {
	return generation{epoch: c.epoch, gen: c.gens[key]}
}

func (c *ReadThrough[V]) generationOf(key string) generation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generationLocked(key)
}

// Get returns the cached value for key, loading and storing it on a miss.
//
// If ctx ends while the caller waits for a shared load, Get returns ctx.Err();
// the load itself keeps running and still populates the cache for the other
// waiters.
func (c *ReadThrough[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	if key == "" {
		return zero, ErrInvalidKey
	}

	ctx, span := c.tracer.Start(ctx, "cache.Get", trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	v, ok, err := c.lookup(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache load failed, treating as miss")
	}
	if ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return v, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	g := c.generationOf(key)
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(g.flightKey(key), func() (any, error) {
		return c.fill(loadCtx, key, g)
	})

	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		span.SetStatus(codes.Error, ctx.Err().Error())
		return zero, ctx.Err()
	case res := <-ch:
		span.SetAttributes(attribute.Bool("cache.shared", res.Shared))
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// fill runs inside the single-flight group. It re-checks the store so that a
// caller whose miss raced with a just-finished load does not load again.
func (c *ReadThrough[V]) fill(ctx context.Context, key string, g generation) (val V, err error) {
	if v, ok, _ := c.lookup(ctx, key); ok {
		return v, nil
	}

	defer func() {
		if r := recover(); r != nil {
			var zero V
			val, err = zero, fmt.Errorf("cache: loader panicked for %q: %v", key, r)
		}
	}()

	start := time.Now()
	val, err = c.load(ctx, key)
	entry := c.logger.WithFields(log.Fields{
		"key":      key,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("cache fill failed")
		return val, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.generationLocked(key) != g {
		entry.Debug("key cleared during fill, result not stored")
		return val, nil
	}
	if serr := c.store.Save(ctx, key, val); serr != nil {
		entry.WithError(serr).Warn("cache save failed")
		return val, nil
	}
	entry.Debug("cache filled")
	return val, nil
}

// lookup reads key from the store under the read lock. Stores may write on
// read (Tiered copies far hits into its near level), and such a write must
// not land after a Clear that ran in between.
func (c *ReadThrough[V]) lookup(ctx context.Context, key string) (V, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Load(ctx, key)
}

// Peek returns the stored value for key without triggering a load.
func (c *ReadThrough[V]) Peek(ctx context.Context, key string) (V, bool) {
	v, ok, err := c.lookup(ctx, key)
	if err != nil || !ok {
		var zero V
		return zero, false
	}
	return v, true
}

// Clear removes the entry for key. Clearing an absent key is not an error.
// The next Get for key misses and loads again, even if a load for the key was
// in flight when Clear ran.
func (c *ReadThrough[V]) Clear(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("cache: clear %q: %w", key, err)
	}
	c.logger.WithField("key", key).Debug("cache entry cleared")
	return nil
}

// ClearAll removes every entry.
func (c *ReadThrough[V]) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	clear(c.gens)
	if err := c.store.Purge(ctx); err != nil {
		return fmt.Errorf("cache: clear all: %w", err)
	}
	c.logger.Debug("cache cleared")
	return nil
}
