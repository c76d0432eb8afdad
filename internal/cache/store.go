// Package cache persists fetched remote sources in SQLite so that repeated
// loads can be served locally or revalidated with an ETag.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no entry exists for a URL.
var ErrNotFound = errors.New("cache entry not found")

// MemoryPath opens a private in-memory cache.
const MemoryPath = ":memory:"

// Entry is one cached response body.
type Entry struct {
	URL       string
	Body      []byte
	ETag      string
	FetchedAt time.Time
}

// Age returns how long ago the entry was fetched or revalidated.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Store is a SQLite-backed response cache.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the cache at path and migrates it.
// Use ":memory:" for a throwaway cache.
func Open(path string) (*Store, error) {
	dsn := path
	if path == MemoryPath {
		dsn = MemoryPath
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create cache directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if path == MemoryPath {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the cached entry for url or ErrNotFound.
func (s *Store) Get(ctx context.Context, url string) (Entry, error) {
	e := Entry{URL: url}
	var fetched int64

	err := s.db.QueryRowContext(ctx,
		`SELECT body, etag, fetched_at FROM fetch_cache WHERE url = ?`, url,
	).Scan(&e.Body, &e.ETag, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get cache entry: %w", err)
	}

	e.FetchedAt = time.UnixMilli(fetched).UTC()
	return e, nil
}

// Put stores or replaces the entry for e.URL.
func (s *Store) Put(ctx context.Context, e Entry) error {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now()
	}
	if e.Body == nil {
		e.Body = []byte{}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fetch_cache (url, body, etag, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, etag = excluded.etag, fetched_at = excluded.fetched_at`,
		e.URL, e.Body, e.ETag, e.FetchedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

// Touch marks an entry as revalidated at the given time.
func (s *Store) Touch(ctx context.Context, url string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE fetch_cache SET fetched_at = ? WHERE url = ?`, at.UnixMilli(), url,
	)
	if err != nil {
		return fmt.Errorf("failed to touch cache entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Len returns the number of cached entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fetch_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}
