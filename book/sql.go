package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLRepository serves books from a SQLite or Postgres table. It is the
// drop-in replacement for [SlowRepository] when a real backend exists.
type SQLRepository struct {
	db      *sql.DB
	dialect string
}

// OpenSQLite opens (and if needed creates) a SQLite-backed repository. An
// empty dsn selects "rawrbooks.db" in the working directory.
func OpenSQLite(dsn string) (*SQLRepository, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "rawrbooks.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite book repository: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	r := &SQLRepository{db: db, dialect: "sqlite"}
	if err := r.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// OpenPostgres opens a Postgres-backed repository.
func OpenPostgres(dsn string) (*SQLRepository, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres book repository: %w", err)
	}
	r := &SQLRepository{db: db, dialect: "postgres"}
	if err := r.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLRepository) init() error {
	if err := r.db.Ping(); err != nil {
		return fmt.Errorf("ping %s book repository: %w", r.dialect, err)
	}
	ddl := `
CREATE TABLE IF NOT EXISTS books (
	isbn TEXT PRIMARY KEY,
	title TEXT NOT NULL
);`
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize book schema: %w", err)
	}
	return nil
}

// Put inserts or replaces a book.
func (r *SQLRepository) Put(ctx context.Context, b Book) error {
	if b.ISBN == "" {
		return ErrInvalidKey
	}
	query := `INSERT INTO books(isbn, title) VALUES(?, ?)
	ON CONFLICT(isbn) DO UPDATE SET title = excluded.title`
	if r.dialect == "postgres" {
		query = `INSERT INTO books(isbn, title) VALUES($1, $2)
		ON CONFLICT(isbn) DO UPDATE SET title = excluded.title`
	}
	if _, err := r.db.ExecContext(ctx, query, b.ISBN, b.Title); err != nil {
		return fmt.Errorf("%w: put %q: %w", ErrSourceUnavailable, b.ISBN, err)
	}
	return nil
}

// GetByISBN looks the book up. A missing row yields [ErrNotFound]; driver
// failures are wrapped in [ErrSourceUnavailable].
func (r *SQLRepository) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	if isbn == "" {
		return Book{}, ErrInvalidKey
	}
	query := `SELECT isbn, title FROM books WHERE isbn = ?`
	if r.dialect == "postgres" {
		query = `SELECT isbn, title FROM books WHERE isbn = $1`
	}

	var b Book
	err := r.db.QueryRowContext(ctx, query, isbn).Scan(&b.ISBN, &b.Title)
	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, sql.ErrNoRows):
		return Book{}, fmt.Errorf("%w: %q", ErrNotFound, isbn)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Book{}, err
	default:
		return Book{}, fmt.Errorf("%w: lookup %q: %w", ErrSourceUnavailable, isbn, err)
	}
}

// Close closes the database handle.
func (r *SQLRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
