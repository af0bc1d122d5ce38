package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/Keksclan/goRawrBooks/book"
	"github.com/Keksclan/goRawrBooks/breaker"
	"github.com/Keksclan/goRawrBooks/cache"
	"github.com/Keksclan/goRawrBooks/internal/config"
	"github.com/Keksclan/goRawrBooks/retry"
)

// cleanup releases resources acquired while wiring.
type cleanup []func() error

func (c cleanup) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i]())
	}
	return errors.Join(errs...)
}

// sourceRetry retries transient source failures.
var sourceRetry = retry.Config{
	MaxAttempts: 3,
	BaseDelay:   50 * time.Millisecond,
	MaxDelay:    500 * time.Millisecond,
	Jitter:      0.2,
	OnRetry: func(attempt int, err error, wait time.Duration) {
		log.WithError(err).WithFields(log.Fields{
			"attempt": attempt,
			"wait":    wait.String(),
		}).Warn("source lookup failed, retrying")
	},
}

// sourceBreaker fails lookups fast while the SQL source keeps failing.
var sourceBreaker = breaker.Config{
	Threshold: 5,
	Cooldown:  5 * time.Second,
}

// openSQL opens the SQL repository selected by cfg. It is shared by the
// source builder and the put command.
func openSQL(cfg *config.Config) (*book.SQLRepository, error) {
	switch cfg.Source.Kind {
	case config.SourceSQLite:
		return book.OpenSQLite(cfg.Source.DSN)
	case config.SourcePostgres:
		return book.OpenPostgres(cfg.Source.DSN)
	default:
		return nil, fmt.Errorf("source kind %q is not a SQL source", cfg.Source.Kind)
	}
}

// buildSource returns the instrumented book repository selected by cfg.
func buildSource(cfg *config.Config) (book.Repository, cleanup, error) {
	kind := cfg.Source.Kind
	if kind == "" {
		kind = config.SourceSlow
	}

	var (
		src  book.Repository
		done cleanup
	)
	switch kind {
	case config.SourceSlow:
		delay, err := cfg.DelayDuration()
		if err != nil {
			return nil, nil, err
		}
		src = book.NewSlowRepository(delay)
	case config.SourceSQLite, config.SourcePostgres:
		repo, err := openSQL(cfg)
		if err != nil {
			return nil, nil, err
		}
		done = append(done, repo.Close)
		src = book.WithBreaker(book.WithRetry(repo, sourceRetry), sourceBreaker)
	default:
		return nil, nil, fmt.Errorf("unknown source kind: %q", kind)
	}
	return book.Instrument(src, kind), done, nil
}

// buildStore returns the cache store selected by cfg.
func buildStore(ctx context.Context, cfg *config.Config) (cache.Store[book.Book], cleanup, error) {
	maxEntries := cfg.Store.MaxEntries
	if maxEntries <= 0 {
		maxEntries = config.DefaultMaxEntries
	}
	redis := cfg.Store.Redis

	switch cfg.Store.Kind {
	case "", config.StoreMemory:
		return cache.NewMap[book.Book](), nil, nil
	case config.StoreRistretto:
		l1, err := cache.NewL1[book.Book](maxEntries)
		if err != nil {
			return nil, nil, err
		}
		return l1, cleanup{closeL1(l1)}, nil
	case config.StoreRedis:
		l2 := cache.NewL2[book.Book](redis.Addr, redis.Password, redis.DB, redis.Prefix)
		pingRedis(ctx, l2, redis.Addr)
		return l2, cleanup{l2.Close}, nil
	case config.StoreTiered:
		l1, err := cache.NewL1[book.Book](maxEntries)
		if err != nil {
			return nil, nil, err
		}
		l2 := cache.NewL2[book.Book](redis.Addr, redis.Password, redis.DB, redis.Prefix)
		pingRedis(ctx, l2, redis.Addr)
		return cache.NewTiered[book.Book](l1, l2), cleanup{closeL1(l1), l2.Close}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store kind: %q", cfg.Store.Kind)
	}
}

func closeL1(l1 *cache.L1[book.Book]) func() error {
	return func() error {
		l1.Close()
		return nil
	}
}

// pingRedis only warns: the L2 store degrades to misses while redis is down.
func pingRedis(ctx context.Context, l2 *cache.L2[book.Book], addr string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := l2.Ping(ctx); err != nil {
		log.WithError(err).WithField("addr", addr).Warn("redis unreachable, cache will miss until it recovers")
	}
}

// buildCached wires source and store into a cached repository.
func buildCached(ctx context.Context, cfg *config.Config, opts ...cache.ReadThroughOption[book.Book]) (*book.Cached, cleanup, error) {
	src, srcDone, err := buildSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, storeDone, err := buildStore(ctx, cfg)
	if err != nil {
		_ = srcDone.Close()
		return nil, nil, err
	}
	opts = append([]cache.ReadThroughOption[book.Book]{cache.WithStore(store)}, opts...)
	return book.NewCached(src, opts...), append(srcDone, storeDone...), nil
}
