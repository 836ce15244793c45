// Package dataset loads the campus catalog: the available sports,
// associations and events, as three independent columns.
package dataset

import (
	"strings"

	"github.com/samber/oops"
)

// Required column names, after trimming and lowercasing.
const (
	ColumnSports       = "sports"
	ColumnAssociations = "associations"
	ColumnEvents       = "events"
)

// Columns lists the required columns in canonical order.
var Columns = []string{ColumnSports, ColumnAssociations, ColumnEvents}

// Source names a catalog backend.
type Source string

const (
	SourceCSV    Source = "csv"
	SourceSQLite Source = "sqlite"
)

// DefaultTable is the SQLite table read when none is configured.
const DefaultTable = "catalog"

// Catalog is the loaded dataset. Every cell is a trimmed, non-empty string.
// It is read-only once loaded.
type Catalog struct {
	Sports       []string
	Associations []string
	Events       []string
}

// SportSet returns the lowercased sport names, without duplicates, in
// catalog order.
func (c *Catalog) SportSet() []string {
	seen := make(map[string]struct{}, len(c.Sports))
	out := make([]string, 0, len(c.Sports))
	for _, s := range c.Sports {
		s = strings.ToLower(s)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Load reads the catalog from the configured source. path is a CSV file or
// a SQLite database; table only applies to SQLite.
func Load(source Source, path, table string) (*Catalog, error) {
	switch source {
	case SourceCSV, "":
		return LoadCSV(path)
	case SourceSQLite:
		return LoadSQLite(path, table)
	default:
		return nil, oops.In("dataset").With("source", source).Errorf("unknown dataset source %q", source)
	}
}

// add appends a trimmed cell to the column it belongs to, dropping empties.
func (c *Catalog) add(column, cell string) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return
	}
	switch column {
	case ColumnSports:
		c.Sports = append(c.Sports, cell)
	case ColumnAssociations:
		c.Associations = append(c.Associations, cell)
	case ColumnEvents:
		c.Events = append(c.Events, cell)
	}
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// missingColumns returns the required columns absent from index.
func missingColumns(index map[string]int) []string {
	var missing []string
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
