// Package cache persists discovery payloads between runs. It is the
// persistence collaborator for the discovery loader: the cache tier
// reads from it, and server-tier results are written back through it.
// Storage is a single SQLite database in the user's data directory.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/samermassoud/eduvpn-client/common"
)

const schema = `
CREATE TABLE IF NOT EXISTS discovery_cache (
	directory TEXT PRIMARY KEY,
	payload   BLOB NOT NULL,
	stored_at INTEGER NOT NULL
);`

// Store is a SQLite-backed discovery cache. It implements both
// common.CacheReader and common.CacheWriter.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenDefault opens the cache database in the application data directory.
func OpenDefault() (*Store, error) {
	dataDir, err := common.GetDataDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(dataDir, common.CacheFileName))
}

// Read returns the stored payload and storage time for a directory
// type. Returns common.ErrNotFound when no entry exists.
func (s *Store) Read(ctx context.Context, dt common.DirectoryType) ([]byte, time.Time, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload, stored_at FROM discovery_cache WHERE directory = ?`, dt.String())

	var payload []byte
	var storedAt int64
	if err := row.Scan(&payload, &storedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, common.ErrNotFound
		}
		return nil, time.Time{}, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return payload, time.Unix(storedAt, 0), nil
}

// Write stores (or replaces) the payload for a directory type.
func (s *Store) Write(ctx context.Context, dt common.DirectoryType, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO discovery_cache (directory, payload, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(directory) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		dt.String(), payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for a directory type, if present.
func (s *Store) Delete(ctx context.Context, dt common.DirectoryType) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM discovery_cache WHERE directory = ?`, dt.String())
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
