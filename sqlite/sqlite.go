// Package sqlite persists chatter snapshots in a SQLite key-value table.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/chatter"
	"github.com/fwojciec/chatter/json"
	_ "modernc.org/sqlite"
)

// Key is the row under which the session snapshot is stored.
const Key = "chatter.sessions"

// Store is a Persister backed by a SQLite database file. The snapshot is
// kept as one JSON envelope so the layout matches json.File.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ chatter.Persister = (*Store)(nil)

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("sqlite: create database directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// Saves are already serialized by the chatter.Store lock.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("sqlite: create schema: %w", err)
	}
	return nil
}

// Save upserts the snapshot under Key.
func (s *Store) Save(snap chatter.Snapshot) error {
	data, err := json.MarshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("sqlite: marshal: %w", err)
	}
	query := `
	INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at`
	if _, err := s.db.Exec(query, Key, data, s.now().Unix()); err != nil {
		return fmt.Errorf("sqlite: save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot stored under Key, or chatter.ErrNoSnapshot.
func (s *Store) Load() (chatter.Snapshot, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, Key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return chatter.Snapshot{}, fmt.Errorf("sqlite: %s: %w", Key, chatter.ErrNoSnapshot)
	}
	if err != nil {
		return chatter.Snapshot{}, fmt.Errorf("sqlite: load snapshot: %w", err)
	}
	snap, err := json.UnmarshalSnapshot(data)
	if err != nil {
		return chatter.Snapshot{}, fmt.Errorf("sqlite: %w", err)
	}
	return snap, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
