// Package catalog persists and exports populated galaxy catalogs. A
// catalog record snapshots one population run: the galaxy table, the
// parameter values it was generated with, and the Monte Carlo seed.
package catalog

import (
	"context"
	"fmt"
	"time"

	"halomock/pkg/table"
)

// ColumnSnapshot is the serializable form of one table column.
type ColumnSnapshot struct {
	Name    string    `json:"name"`
	Kind    string    `json:"kind"` // "float" or "string"
	Floats  []float64 `json:"floats,omitempty"`
	Strings []string  `json:"strings,omitempty"`
}

// TableSnapshot is the serializable form of a table.
type TableSnapshot struct {
	Rows    int              `json:"rows"`
	Columns []ColumnSnapshot `json:"columns"`
}

// Snapshot converts a table into its serializable form, preserving column
// order.
func Snapshot(t *table.Table) (TableSnapshot, error) {
	snap := TableSnapshot{Rows: t.Len()}
	for _, name := range t.Columns() {
		if t.IsStringColumn(name) {
			col, err := t.Strings(name)
			if err != nil {
				return TableSnapshot{}, err
			}
			snap.Columns = append(snap.Columns, ColumnSnapshot{Name: name, Kind: "string", Strings: col})
			continue
		}
		col, err := t.Floats(name)
		if err != nil {
			return TableSnapshot{}, err
		}
		snap.Columns = append(snap.Columns, ColumnSnapshot{Name: name, Kind: "float", Floats: col})
	}
	return snap, nil
}

// Table reconstructs a table from the snapshot.
func (s TableSnapshot) Table() (*table.Table, error) {
	t := table.New(s.Rows)
	for _, col := range s.Columns {
		switch col.Kind {
		case "float":
			if err := t.SetFloats(col.Name, col.Floats); err != nil {
				return nil, err
			}
		case "string":
			if err := t.SetStrings(col.Name, col.Strings); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown column kind %q", col.Kind)
		}
	}
	return t, nil
}

// Catalog is one persisted population run.
type Catalog struct {
	Name        string             `json:"name"`
	CreatedAt   time.Time          `json:"created_at"`
	Seed        int64              `json:"seed"`
	GalaxyCount int                `json:"galaxy_count"`
	Params      map[string]float64 `json:"params,omitempty"`
	Galaxies    TableSnapshot      `json:"galaxies"`
}

// Clone returns an independent copy of the catalog record.
func (c Catalog) Clone() Catalog {
	out := c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	out.Galaxies.Columns = make([]ColumnSnapshot, len(c.Galaxies.Columns))
	for i, col := range c.Galaxies.Columns {
		cp := col
		cp.Floats = append([]float64(nil), col.Floats...)
		cp.Strings = append([]string(nil), col.Strings...)
		out.Galaxies.Columns[i] = cp
	}
	return out
}

// PersistentStore stores catalog records.
type PersistentStore interface {
	SaveCatalog(ctx context.Context, c Catalog) error
	GetCatalog(ctx context.Context, name string) (Catalog, error)
	ListCatalogs(ctx context.Context) ([]Catalog, error)
	DeleteCatalog(ctx context.Context, name string) (bool, error)
}

// ErrNotFound is returned when a named catalog does not exist.
type ErrNotFound struct {
	Name string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("catalog %q not found", e.Name)
}
