package cache

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func redisL2(t *testing.T) *L2[testBook] {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis integration test")
	}
	l2 := NewL2[testBook](addr, "", 0, "test:"+t.Name()+":")
	t.Cleanup(func() {
		_ = l2.Purge(context.Background())
		_ = l2.Close()
	})
	if err := l2.Ping(t.Context()); err != nil {
		t.Fatalf("cannot reach Redis at %s: %v", addr, err)
	}
	return l2
}

func TestL2_Contract(t *testing.T) {
	exerciseStore(t, redisL2(t))
}

func TestReadThrough_TieredOverRedis(t *testing.T) {
	l2 := redisL2(t)

	var calls atomic.Int32
	loader := func(_ context.Context, key string) (testBook, error) {
		calls.Add(1)
		return testBook{ISBN: key, Title: "BookTitle_" + key}, nil
	}

	rt := NewReadThrough(loader, WithStore[testBook](NewTiered[testBook](mustNewL1(t), l2)))
	if _, err := rt.Get(t.Context(), "isbn-1"); err != nil {
		t.Fatalf("Get 1: %v", err)
	}

	// A second process with a cold L1 is served from Redis.
	rt2 := NewReadThrough(loader, WithStore[testBook](NewTiered[testBook](mustNewL1(t), l2)))
	got, err := rt2.Get(t.Context(), "isbn-1")
	if err != nil {
		t.Fatalf("Get 2: %v", err)
	}
	if got.Title != "BookTitle_isbn-1" {
		t.Fatalf("got %+v", got)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("loader called %d times, want 1", n)
	}
}

func unreachableL2(t *testing.T) *L2[testBook] {
	t.Helper()
	l2 := NewL2[testBook]("localhost:1", "", 0, "")
	t.Cleanup(func() { _ = l2.Close() })
	return l2
}

func TestL2_ReadsAndWritesFailSoft(t *testing.T) {
	l2 := unreachableL2(t)
	ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
	defer cancel()

	if _, ok, err := l2.Load(ctx, "no-such-key"); err != nil || ok {
		t.Fatalf("Load on unreachable Redis = (%v, %v), want quiet miss", ok, err)
	}
	if err := l2.Save(ctx, "k", testBook{ISBN: "k"}); err != nil {
		t.Fatalf("Save on unreachable Redis: %v", err)
	}
}

func TestL2_RemovalsReportUnreachableRedis(t *testing.T) {
	l2 := unreachableL2(t)
	ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
	defer cancel()

	if err := l2.Delete(ctx, "k"); err == nil {
		t.Fatal("Delete must fail when Redis is unreachable")
	}
	if err := l2.Purge(ctx); err == nil {
		t.Fatal("Purge must fail when Redis is unreachable")
	}
}

func TestReadThrough_ClearFailsWhenRedisUnreachable(t *testing.T) {
	var calls atomic.Int32
	loader := func(_ context.Context, key string) (testBook, error) {
		calls.Add(1)
		return testBook{ISBN: key}, nil
	}
	rt := newTestReadThrough(loader, WithStore[testBook](NewTiered[testBook](NewMap[testBook](), unreachableL2(t))))
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	if _, err := rt.Get(ctx, "isbn-1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := rt.Clear(ctx, "isbn-1"); err == nil {
		t.Fatal("Clear must fail when the entry could not be removed from Redis")
	}
	if err := rt.ClearAll(ctx); err == nil {
		t.Fatal("ClearAll must fail when Redis could not be purged")
	}
	if _, ok := rt.Peek(ctx, "isbn-1"); ok {
		t.Fatal("in-process copy must be gone after a failed Clear")
	}
}
