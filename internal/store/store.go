// Package store persists projects, committees, releases, revisions,
// tasks, and check results via database/sql over modernc.org/sqlite,
// grounded on jra3-linear-fuse/internal/db/store.go's Open/WithTx
// pattern.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps the database connection and schema lifecycle.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at dbPath and applies the
// embedded schema.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	escapedPath := strings.ReplaceAll(dbPath, " ", "%20")
	connStr := "file:" + escapedPath
	if dbPath != ":memory:" {
		connStr += "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection for callers needing raw access
// (e.g. the Query Surface).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Querier is satisfied by both *sql.DB and *sql.Tx, letting Session
// methods run against either a transaction or the pooled connection.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session is a Querier bound set of CRUD/query methods, constructed
// either over the pooled DB (read paths) or a *sql.Tx (write paths via
// WithTx).
type Session struct {
	q Querier
}

// NewSession wraps any Querier (the DB itself, or an open transaction).
func NewSession(q Querier) *Session {
	return &Session{q: q}
}

// WithTx runs fn inside one transaction, committing on success and
// rolling back on error or panic, mirroring the teacher's WithTx helper
// (jra3-linear-fuse/internal/db/store.go).
func (s *Store) WithTx(ctx context.Context, fn func(*Session) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(NewSession(tx)); err != nil {
		return err
	}

	return tx.Commit()
}

// Reader returns a read-only Session over the pooled connection, for
// callers (e.g. the Query Surface) that don't need transactional
// isolation across multiple statements.
func (s *Store) Reader() *Session {
	return NewSession(s.db)
}
