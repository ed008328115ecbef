// Package store is the persistence boundary: SQLite-backed adapters for
// fuel and maintenance records plus the user, session, reset-token and
// audit tables the auth provider and worker rely on.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when an update or delete targets a row that
	// does not exist (or is owned by another user).
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when a user registration collides with an
	// existing email.
	ErrEmailTaken = errors.New("email already registered")
)

// Store wraps the SQLite connection shared by all adapters.
type Store struct {
	db *sql.DB
}

// New opens the database at dbPath, creating the parent directory and
// running migrations first.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// isUniqueViolation matches the sqlite unique-constraint error text; the
// driver exposes no typed error for it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
