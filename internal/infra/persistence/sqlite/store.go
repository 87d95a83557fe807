// Package sqlite persists catalogs to an embedded SQLite file as JSON
// payloads, one row per catalog, while serving reads from an in-memory copy.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"halomock/internal/catalog"
	"halomock/internal/infra/persistence/memory"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ catalog.PersistentStore = (*Store)(nil)

// Store layers SQLite durability over the in-memory store. Every successful
// write is mirrored to the catalogs table; reads never touch the database.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path, defaulting to
// ./halomock.db, and hydrates the in-memory copy from any existing rows.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "halomock.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS catalogs (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create catalogs table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT payload FROM catalogs`)
	if err != nil {
		return fmt.Errorf("select catalogs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var catalogs []catalog.Catalog
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		var c catalog.Catalog
		if err := json.Unmarshal(payload, &c); err != nil {
			return fmt.Errorf("decode catalog: %w", err)
		}
		catalogs = append(catalogs, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate catalogs: %w", err)
	}
	s.ImportState(catalogs)
	return nil
}

// SaveCatalog writes through the in-memory store and upserts the row.
func (s *Store) SaveCatalog(ctx context.Context, c catalog.Catalog) error {
	if err := s.Store.SaveCatalog(ctx, c); err != nil {
		return err
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode catalog %q: %w", c.Name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO catalogs(name,payload) VALUES(?,?) ON CONFLICT(name) DO UPDATE SET payload=excluded.payload`,
		c.Name, payload); err != nil {
		return fmt.Errorf("upsert catalog %q: %w", c.Name, err)
	}
	return nil
}

// DeleteCatalog removes the catalog from memory and from the table.
func (s *Store) DeleteCatalog(ctx context.Context, name string) (bool, error) {
	existed, err := s.Store.DeleteCatalog(ctx, name)
	if err != nil || !existed {
		return existed, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM catalogs WHERE name=?`, name); err != nil {
		return true, fmt.Errorf("delete catalog %q: %w", name, err)
	}
	return true, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
