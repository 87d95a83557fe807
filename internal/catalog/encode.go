package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"halomock/pkg/table"
)

// Format identifies an export encoding.
type Format string

const (
	// FormatCSV encodes one header row plus one record per galaxy.
	FormatCSV Format = "csv"
	// FormatJSON encodes the column-oriented table snapshot.
	FormatJSON Format = "json"
)

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// EncodeCSV writes the table as CSV: a header of column names followed by
// one record per row, columns in table order.
func EncodeCSV(w io.Writer, t *table.Table) error {
	names := t.Columns()
	floatCols := make(map[string][]float64)
	stringCols := make(map[string][]string)
	for _, name := range names {
		if t.IsStringColumn(name) {
			col, err := t.Strings(name)
			if err != nil {
				return err
			}
			stringCols[name] = col
			continue
		}
		col, err := t.Floats(name)
		if err != nil {
			return err
		}
		floatCols[name] = col
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(names); err != nil {
		return err
	}
	record := make([]string, len(names))
	for row := 0; row < t.Len(); row++ {
		for i, name := range names {
			if col, ok := stringCols[name]; ok {
				record[i] = col[row]
				continue
			}
			record[i] = strconv.FormatFloat(floatCols[name][row], 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeJSON writes the table as its column-oriented snapshot.
func EncodeJSON(w io.Writer, t *table.Table) error {
	snap, err := Snapshot(t)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	return enc.Encode(snap)
}

// Encode dispatches on format.
func Encode(w io.Writer, t *table.Table, format Format) error {
	switch format {
	case FormatCSV:
		return EncodeCSV(w, t)
	case FormatJSON:
		return EncodeJSON(w, t)
	}
	return fmt.Errorf("unsupported export format %q", format)
}
