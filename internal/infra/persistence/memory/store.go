// Package memory provides an in-memory catalog store used directly in tests
// and embedded by the durable backends.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"halomock/internal/catalog"
)

var _ catalog.PersistentStore = (*Store)(nil)

// Store keeps catalogs in a map guarded by a RWMutex. All reads and writes
// exchange defensive copies so callers cannot alias internal state.
type Store struct {
	mu       sync.RWMutex
	catalogs map[string]catalog.Catalog
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{catalogs: map[string]catalog.Catalog{}}
}

// SaveCatalog inserts or replaces the catalog keyed by its name.
func (s *Store) SaveCatalog(_ context.Context, c catalog.Catalog) error {
	if c.Name == "" {
		return fmt.Errorf("catalog name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogs[c.Name] = c.Clone()
	return nil
}

// GetCatalog returns the named catalog or catalog.ErrNotFound.
func (s *Store) GetCatalog(_ context.Context, name string) (catalog.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.catalogs[name]
	if !ok {
		return catalog.Catalog{}, catalog.ErrNotFound{Name: name}
	}
	return c.Clone(), nil
}

// ListCatalogs returns every stored catalog ordered by name.
func (s *Store) ListCatalogs(_ context.Context) ([]catalog.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Catalog, 0, len(s.catalogs))
	for _, c := range s.catalogs {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteCatalog removes the named catalog, reporting whether it existed.
func (s *Store) DeleteCatalog(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.catalogs[name]; !ok {
		return false, nil
	}
	delete(s.catalogs, name)
	return true, nil
}

// ExportState snapshots the full store contents, ordered by name.
func (s *Store) ExportState() []catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Catalog, 0, len(s.catalogs))
	for _, c := range s.catalogs {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ImportState replaces the store contents with the supplied catalogs.
func (s *Store) ImportState(catalogs []catalog.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogs = make(map[string]catalog.Catalog, len(catalogs))
	for _, c := range catalogs {
		if c.Name == "" {
			continue
		}
		s.catalogs[c.Name] = c.Clone()
	}
}
