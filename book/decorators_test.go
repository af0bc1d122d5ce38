package book

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Keksclan/goRawrBooks/breaker"
	"github.com/Keksclan/goRawrBooks/internal/metrics"
	"github.com/Keksclan/goRawrBooks/retry"
)

func TestWithRetry_RetriesUnavailableOnly(t *testing.T) {
	cfg := retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	calls := 0
	flaky := RepositoryFunc(func(_ context.Context, isbn string) (Book, error) {
		calls++
		if calls < 3 {
			return Book{}, ErrSourceUnavailable
		}
		return Book{ISBN: isbn}, nil
	})
	b, err := WithRetry(flaky, cfg).GetByISBN(t.Context(), "isbn-1")
	if err != nil {
		t.Fatalf("GetByISBN: %v", err)
	}
	if b.ISBN != "isbn-1" || calls != 3 {
		t.Fatalf("got %+v after %d calls", b, calls)
	}

	calls = 0
	missing := RepositoryFunc(func(_ context.Context, _ string) (Book, error) {
		calls++
		return Book{}, ErrNotFound
	})
	if _, err := WithRetry(missing, cfg).GetByISBN(t.Context(), "isbn-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if calls != 1 {
		t.Fatalf("not-found retried: %d calls", calls)
	}
}

func TestInstrument_CountsOutcomes(t *testing.T) {
	const name = "test-instrument"
	src := RepositoryFunc(func(_ context.Context, isbn string) (Book, error) {
		if isbn == "missing" {
			return Book{}, ErrNotFound
		}
		return Book{ISBN: isbn}, nil
	})
	repo := Instrument(src, name)

	_, _ = repo.GetByISBN(t.Context(), "isbn-1")
	_, _ = repo.GetByISBN(t.Context(), "isbn-2")
	_, _ = repo.GetByISBN(t.Context(), "missing")

	if got := testutil.ToFloat64(metrics.SourceLookups.WithLabelValues(name, "success")); got != 2 {
		t.Fatalf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.SourceLookups.WithLabelValues(name, "not_found")); got != 1 {
		t.Fatalf("not_found count = %v, want 1", got)
	}
}

func TestWithBreaker_OpensOnUnavailable(t *testing.T) {
	calls := 0
	down := RepositoryFunc(func(_ context.Context, _ string) (Book, error) {
		calls++
		return Book{}, ErrSourceUnavailable
	})
	repo := WithBreaker(down, breaker.Config{Threshold: 2, Cooldown: time.Hour})

	for range 2 {
		if _, err := repo.GetByISBN(t.Context(), "isbn-1"); !errors.Is(err, ErrSourceUnavailable) {
			t.Fatalf("error = %v, want ErrSourceUnavailable", err)
		}
	}
	_, err := repo.GetByISBN(t.Context(), "isbn-1")
	if !errors.Is(err, ErrSourceUnavailable) || !errors.Is(err, breaker.ErrOpen) {
		t.Fatalf("error = %v, want ErrSourceUnavailable and breaker.ErrOpen", err)
	}
	if calls != 2 {
		t.Fatalf("source called %d times while open", calls)
	}
}

func TestWithBreaker_IgnoresNotFound(t *testing.T) {
	missing := RepositoryFunc(func(_ context.Context, _ string) (Book, error) {
		return Book{}, ErrNotFound
	})
	repo := WithBreaker(missing, breaker.Config{Threshold: 1, Cooldown: time.Hour})

	for range 3 {
		if _, err := repo.GetByISBN(t.Context(), "isbn-1"); !errors.Is(err, ErrNotFound) || errors.Is(err, breaker.ErrOpen) {
			t.Fatalf("error = %v, want plain ErrNotFound", err)
		}
	}
}
