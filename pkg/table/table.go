// Package table implements the column-oriented record collection shared by
// halo catalogs and populated galaxy catalogs. Columns hold either float64
// or string values; all rows of a table share one length. Accessors return
// defensive copies so callers cannot mutate table state behind its back.
package table

import (
	"fmt"
	"sort"
)

type columnKind int

const (
	kindFloat columnKind = iota
	kindString
)

type column struct {
	kind    columnKind
	floats  []float64
	strings []string
}

func (c column) length() int {
	if c.kind == kindFloat {
		return len(c.floats)
	}
	return len(c.strings)
}

// Table is an ordered collection of equal-length named columns. The zero
// value is not usable; construct with New or FromColumns.
type Table struct {
	names   []string
	columns map[string]column
	length  int
}

// New returns an empty table expecting columns of the given row count.
func New(rows int) *Table {
	return &Table{columns: make(map[string]column), length: rows}
}

// FromColumns builds a table from float columns, in sorted name order.
// All columns must share one length.
func FromColumns(cols map[string][]float64) (*Table, error) {
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := -1
	for _, name := range names {
		if rows == -1 {
			rows = len(cols[name])
		} else if len(cols[name]) != rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", name, len(cols[name]), rows)
		}
	}
	if rows == -1 {
		rows = 0
	}
	t := New(rows)
	for _, name := range names {
		if err := t.SetFloats(name, cols[name]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.length }

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// IsStringColumn reports whether the named column holds string values.
func (t *Table) IsStringColumn(name string) bool {
	col, ok := t.columns[name]
	return ok && col.kind == kindString
}

func (t *Table) set(name string, col column) error {
	if name == "" {
		return fmt.Errorf("empty column name")
	}
	if col.length() != t.length {
		return fmt.Errorf("column %q has %d rows, want %d", name, col.length(), t.length)
	}
	if _, exists := t.columns[name]; !exists {
		t.names = append(t.names, name)
	}
	t.columns[name] = col
	return nil
}

// SetFloats adds or replaces a float column. The slice is copied.
func (t *Table) SetFloats(name string, values []float64) error {
	cp := make([]float64, len(values))
	copy(cp, values)
	return t.set(name, column{kind: kindFloat, floats: cp})
}

// SetStrings adds or replaces a string column. The slice is copied.
func (t *Table) SetStrings(name string, values []string) error {
	cp := make([]string, len(values))
	copy(cp, values)
	return t.set(name, column{kind: kindString, strings: cp})
}

// Floats returns a copy of the named float column.
func (t *Table) Floats(name string) ([]float64, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	if col.kind != kindFloat {
		return nil, fmt.Errorf("column %q is not a float column", name)
	}
	out := make([]float64, len(col.floats))
	copy(out, col.floats)
	return out, nil
}

// Strings returns a copy of the named string column.
func (t *Table) Strings(name string) ([]string, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	if col.kind != kindString {
		return nil, fmt.Errorf("column %q is not a string column", name)
	}
	out := make([]string, len(col.strings))
	copy(out, col.strings)
	return out, nil
}

// Filter removes every row whose mask entry is false, preserving row order.
// The mask length must equal the row count.
func (t *Table) Filter(mask []bool) error {
	if len(mask) != t.length {
		return fmt.Errorf("mask has %d entries, want %d", len(mask), t.length)
	}
	kept := 0
	for _, keep := range mask {
		if keep {
			kept++
		}
	}
	for name, col := range t.columns {
		if col.kind == kindFloat {
			out := make([]float64, 0, kept)
			for i, keep := range mask {
				if keep {
					out = append(out, col.floats[i])
				}
			}
			t.columns[name] = column{kind: kindFloat, floats: out}
		} else {
			out := make([]string, 0, kept)
			for i, keep := range mask {
				if keep {
					out = append(out, col.strings[i])
				}
			}
			t.columns[name] = column{kind: kindString, strings: out}
		}
	}
	t.length = kept
	return nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.length)
	out.names = make([]string, len(t.names))
	copy(out.names, t.names)
	for name, col := range t.columns {
		switch col.kind {
		case kindFloat:
			cp := make([]float64, len(col.floats))
			copy(cp, col.floats)
			out.columns[name] = column{kind: kindFloat, floats: cp}
		case kindString:
			cp := make([]string, len(col.strings))
			copy(cp, col.strings)
			out.columns[name] = column{kind: kindString, strings: cp}
		}
	}
	return out
}

// Gather returns the values of a float column at the given row indices.
func (t *Table) Gather(name string, indices []int) ([]float64, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	if col.kind != kindFloat {
		return nil, fmt.Errorf("column %q is not a float column", name)
	}
	out := make([]float64, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= t.length {
			return nil, fmt.Errorf("row index %d out of range [0,%d)", i, t.length)
		}
		out = append(out, col.floats[i])
	}
	return out, nil
}
