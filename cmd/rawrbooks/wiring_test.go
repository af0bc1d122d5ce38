package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Keksclan/goRawrBooks/book"
	"github.com/Keksclan/goRawrBooks/cache"
	"github.com/Keksclan/goRawrBooks/internal/config"
)

func TestBuildStore_Kinds(t *testing.T) {
	tests := []struct {
		kind string
		want any
	}{
		{"", &cache.Map[book.Book]{}},
		{config.StoreMemory, &cache.Map[book.Book]{}},
		{config.StoreRistretto, &cache.L1[book.Book]{}},
	}
	for _, tt := range tests {
		t.Run("kind="+tt.kind, func(t *testing.T) {
			cfg := config.Default()
			cfg.Store.Kind = tt.kind
			store, done, err := buildStore(t.Context(), &cfg)
			if err != nil {
				t.Fatalf("buildStore: %v", err)
			}
			t.Cleanup(func() { _ = done.Close() })

			switch tt.want.(type) {
			case *cache.Map[book.Book]:
				if _, ok := store.(*cache.Map[book.Book]); !ok {
					t.Fatalf("expected *cache.Map, got %T", store)
				}
			case *cache.L1[book.Book]:
				if _, ok := store.(*cache.L1[book.Book]); !ok {
					t.Fatalf("expected *cache.L1, got %T", store)
				}
			}
		})
	}
}

func TestBuildStore_TieredWithoutRedisDegrades(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = config.StoreTiered
	cfg.Store.Redis.Addr = "localhost:1"

	store, done, err := buildStore(t.Context(), &cfg)
	if err != nil {
		t.Fatalf("buildStore: %v", err)
	}
	t.Cleanup(func() { _ = done.Close() })

	b := book.Book{ISBN: "isbn-1234", Title: "BookTitle_isbn-1234"}
	if err := store.Save(t.Context(), b.ISBN, b); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := store.Load(t.Context(), b.ISBN)
	if err != nil || !ok || got != b {
		t.Fatalf("expected near hit, got %v ok=%v err=%v", got, ok, err)
	}
}

func TestBuildStore_UnknownKind(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = "memcached"
	if _, _, err := buildStore(t.Context(), &cfg); err == nil {
		t.Fatal("expected error for unknown store kind")
	}
}

func TestBuildSource_Slow(t *testing.T) {
	cfg := config.Default()
	cfg.Delay = "1ms"
	src, done, err := buildSource(&cfg)
	if err != nil {
		t.Fatalf("buildSource: %v", err)
	}
	t.Cleanup(func() { _ = done.Close() })

	b, err := src.GetByISBN(t.Context(), "isbn-8569")
	if err != nil {
		t.Fatalf("GetByISBN: %v", err)
	}
	if b.Title != "BookTitle_isbn-8569" {
		t.Fatalf("unexpected title %q", b.Title)
	}
}

func TestBuildSource_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Source = config.SourceConfig{Kind: config.SourceSQLite, DSN: filepath.Join(t.TempDir(), "books.db")}

	repo, err := openSQL(&cfg)
	if err != nil {
		t.Fatalf("openSQL: %v", err)
	}
	if err := repo.Put(t.Context(), book.Book{ISBN: "isbn-1", Title: "Rawr"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_ = repo.Close()

	src, done, err := buildSource(&cfg)
	if err != nil {
		t.Fatalf("buildSource: %v", err)
	}
	t.Cleanup(func() { _ = done.Close() })

	b, err := src.GetByISBN(t.Context(), "isbn-1")
	if err != nil || b.Title != "Rawr" {
		t.Fatalf("expected stored book, got %v err=%v", b, err)
	}
	if _, err := src.GetByISBN(t.Context(), "isbn-missing"); !errors.Is(err, book.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenSQL_RejectsSlowSource(t *testing.T) {
	cfg := config.Default()
	if _, err := openSQL(&cfg); err == nil {
		t.Fatal("expected error for non-SQL source")
	}
}

func TestBuildCached_ServesFromStore(t *testing.T) {
	cfg := config.Default()
	cfg.Delay = "1ms"
	repo, done, err := buildCached(t.Context(), &cfg)
	if err != nil {
		t.Fatalf("buildCached: %v", err)
	}
	t.Cleanup(func() { _ = done.Close() })

	if _, ok := repo.Peek(t.Context(), "isbn-1234"); ok {
		t.Fatal("expected empty cache")
	}
	if _, err := repo.GetByISBN(t.Context(), "isbn-1234"); err != nil {
		t.Fatalf("GetByISBN: %v", err)
	}
	if _, ok := repo.Peek(t.Context(), "isbn-1234"); !ok {
		t.Fatal("expected cached book after lookup")
	}
}
