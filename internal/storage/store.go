// Package storage persists users, their libraries and analysis results in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateBook = errors.New("book already in library")
	ErrEmailTaken    = errors.New("email already registered")
)

// Store is the SQLite-backed persistence layer.
// Writes are serialized; WAL mode lets reads proceed alongside them.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// Open creates or opens the database at path and applies the schema
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("Database ready", "path", path)
	return s, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var schema = []struct {
	name  string
	query string
}{
	{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		photo_url TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		last_seen_at INTEGER
	);`},
	{"books", `
	CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		genre TEXT NOT NULL DEFAULT '',
		recommendation_reason TEXT NOT NULL DEFAULT '',
		rating INTEGER NOT NULL DEFAULT 0 CHECK (rating BETWEEN 0 AND 5),
		status TEXT NOT NULL DEFAULT 'unread',
		thumbnail TEXT NOT NULL DEFAULT '',
		publication_year TEXT,
		title_key TEXT NOT NULL,
		author_key TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (user_id, title_key, author_key)
	);`},
	{"books_user_index", `CREATE INDEX IF NOT EXISTS idx_books_user ON books (user_id, created_at);`},
	{"analyses", `
	CREATE TABLE IF NOT EXISTS analyses (
		user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`},
	{"analysis_cache", `
	CREATE TABLE IF NOT EXISTS analysis_cache (
		cache_key TEXT PRIMARY KEY,
		response TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`},
}

func (s *Store) init() error {
	for _, t := range schema {
		if _, err := s.db.Exec(t.query); err != nil {
			return fmt.Errorf("failed to create %s: %w", t.name, err)
		}
	}
	return nil
}

// isUniqueConstraintErr reports whether err is a UNIQUE violation
func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
