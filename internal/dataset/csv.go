package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
)

// LoadCSV reads a catalog from a CSV file with a header row. Column names
// are matched after trimming and lowercasing; extra columns are ignored and
// rows may be ragged, since the three columns are independent lists.
func LoadCSV(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, oops.In("dataset").With("path", path).Wrapf(err, "failed to open dataset")
	}
	defer f.Close()

	c, err := ReadCSV(f)
	if err != nil {
		return nil, oops.In("dataset").With("path", path).Wrap(err)
	}
	return c, nil
}

// ReadCSV reads a catalog from CSV data.
func ReadCSV(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, oops.In("dataset").Errorf("dataset is empty")
	}
	if err != nil {
		return nil, oops.In("dataset").Wrapf(err, "failed to read dataset header")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = normalizeColumn(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	if missing := missingColumns(index); len(missing) > 0 {
		return nil, oops.In("dataset").
			With("missing", missing).
			Errorf("dataset is missing required columns: %s", strings.Join(missing, ", "))
	}

	c := &Catalog{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, oops.In("dataset").Wrapf(err, "failed to read dataset row")
		}
		for _, col := range Columns {
			if i := index[col]; i < len(row) {
				c.add(col, row[i])
			}
		}
	}
	return c, nil
}
