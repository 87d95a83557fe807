// Package postgres provides a Postgres-backed catalog store that mirrors the
// in-memory semantics while snapshotting each catalog into a JSONB column.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"halomock/internal/catalog"
	"halomock/internal/infra/persistence/memory"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

var _ catalog.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenPersistentStore defaults while
	// allowing overrides via env.
	defaultDSN = "postgres://localhost/halomock?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists catalogs to Postgres while reusing the in-memory
// implementation for reads.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the catalogs table exists, and hydrates the
// in-memory copy from existing rows.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureCatalogsTable(ctx, db); err != nil {
		return nil, err
	}
	catalogs, err := loadCatalogs(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(catalogs)
	return &Store{Store: mem, db: db}, nil
}

func ensureCatalogsTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS catalogs (
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure catalogs table: %w", err)
	}
	return nil
}

func loadCatalogs(ctx context.Context, db *sql.DB) ([]catalog.Catalog, error) {
	rows, err := db.QueryContext(ctx, `SELECT payload FROM catalogs`)
	if err != nil {
		return nil, fmt.Errorf("select catalogs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var catalogs []catalog.Catalog
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan catalogs: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		var c catalog.Catalog
		if err := json.Unmarshal(payload, &c); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		catalogs = append(catalogs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalogs: %w", err)
	}
	return catalogs, nil
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
		`INSERT INTO catalogs(name,payload) VALUES($1,$2) ON CONFLICT(name) DO UPDATE SET payload=EXCLUDED.payload`,
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
	if _, err := s.db.ExecContext(ctx, `DELETE FROM catalogs WHERE name=$1`, name); err != nil {
		return true, fmt.Errorf("delete catalog %q: %w", name, err)
	}
	return true, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
