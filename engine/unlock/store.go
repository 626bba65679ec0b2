// Package unlock persists the ids of premium avatars the player has purchased.
package unlock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrStoreClosed is returned by operations on a nil or closed Store.
var ErrStoreClosed = errors.New("unlock store is not open")

// ErrEmptyID is returned when an unlock is recorded without an id.
var ErrEmptyID = errors.New("avatar id is required")

const schema = `CREATE TABLE IF NOT EXISTS unlocked_avatars (
	id          TEXT PRIMARY KEY,
	unlocked_at INTEGER NOT NULL
)`

// Store is the sqlite-backed unlocked-avatar list.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens (creating if necessary) the sqlite database at path and applies the schema.
// The special path ":memory:" opens a private in-memory database.
//
// Parameters:
//   - ctx: bounds the ping and migration
//   - path: the database file path
//
// Returns:
//   - *Store: the opened store
//   - error: error if the path is empty or the database cannot be opened
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the sqlite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	err := s.sqlDB.Close()
	s.sqlDB = nil
	return err
}

// Load reads every unlocked id into a new Set.
//
// Parameters:
//   - ctx: bounds the query
//
// Returns:
//   - *Set: the unlocked ids
//   - error: error if the query fails
func (s *Store) Load(ctx context.Context) (*Set, error) {
	if s == nil || s.sqlDB == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id FROM unlocked_avatars ORDER BY unlocked_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query unlocked avatars: %w", err)
	}
	defer rows.Close()

	set := NewSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan unlocked avatar: %w", err)
		}
		set.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unlocked avatars: %w", err)
	}
	return set, nil
}

// Add records id as unlocked. Recording an id twice keeps the first timestamp.
//
// Parameters:
//   - ctx: bounds the insert
//   - id: the avatar id
//
// Returns:
//   - error: error if id is empty or the insert fails
func (s *Store) Add(ctx context.Context, id string) error {
	if s == nil || s.sqlDB == nil {
		return ErrStoreClosed
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEmptyID
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO unlocked_avatars (id, unlocked_at) VALUES (?, ?)`,
		id, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert unlocked avatar %q: %w", id, err)
	}
	return nil
}
