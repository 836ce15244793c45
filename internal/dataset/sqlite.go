package dataset

import (
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/samber/oops"
	_ "modernc.org/sqlite"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadSQLite reads a catalog from a table of a SQLite database. Column names
// are matched after trimming and lowercasing; NULL and empty cells are
// dropped.
func LoadSQLite(path, table string) (*Catalog, error) {
	if table == "" {
		table = DefaultTable
	}
	errb := oops.In("dataset").With("path", path).With("table", table)

	if !tableName.MatchString(table) {
		return nil, errb.Errorf("invalid table name %q", table)
	}
	// sql.Open would create an empty database for a missing file.
	if _, err := os.Stat(path); err != nil {
		return nil, errb.Wrapf(err, "failed to open dataset")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errb.Wrapf(err, "opening database")
	}
	defer db.Close()

	index, names, err := tableColumns(db, table)
	if err != nil {
		return nil, errb.Wrap(err)
	}
	if len(names) == 0 {
		return nil, errb.Errorf("table %q not found", table)
	}
	if missing := missingColumns(index); len(missing) > 0 {
		return nil, errb.With("missing", missing).
			Errorf("dataset is missing required columns: %s", strings.Join(missing, ", "))
	}

	cols := make([]string, len(Columns))
	for i, col := range Columns {
		cols[i] = quoteIdent(names[index[col]])
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(cols, ", "), quoteIdent(table))

	rows, err := db.Query(query)
	if err != nil {
		return nil, errb.Wrapf(err, "querying catalog")
	}
	defer rows.Close()

	c := &Catalog{}
	for rows.Next() {
		var sports, assocs, events sql.NullString
		if err := rows.Scan(&sports, &assocs, &events); err != nil {
			return nil, errb.Wrapf(err, "scanning catalog row")
		}
		c.add(ColumnSports, sports.String)
		c.add(ColumnAssociations, assocs.String)
		c.add(ColumnEvents, events.String)
	}
	if err := rows.Err(); err != nil {
		return nil, errb.Wrapf(err, "iterating catalog rows")
	}
	return c, nil
}

// tableColumns returns the normalized column index and the raw names.
func tableColumns(db *sql.DB, table string) (map[string]int, []string, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, nil, fmt.Errorf("reading table info: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	var names []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, nil, fmt.Errorf("scanning table info: %w", err)
		}
		if _, dup := index[normalizeColumn(name)]; !dup {
			index[normalizeColumn(name)] = len(names)
		}
		names = append(names, name)
	}
	return index, names, rows.Err()
}

// WriteSQLite stores a catalog into table, replacing its contents. Columns
// of different lengths are padded with NULL.
func WriteSQLite(path, table string, c *Catalog) error {
	if table == "" {
		table = DefaultTable
	}
	errb := oops.In("dataset").With("path", path).With("table", table)
	if !tableName.MatchString(table) {
		return errb.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return errb.Wrapf(err, "opening database")
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return errb.Wrapf(err, "beginning transaction")
	}
	defer tx.Rollback()

	t := quoteIdent(table)
	stmts := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", t),
		fmt.Sprintf("CREATE TABLE %s (sports TEXT, associations TEXT, events TEXT)", t),
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return errb.Wrapf(err, "preparing table")
		}
	}

	insert, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (sports, associations, events) VALUES (?, ?, ?)", t))
	if err != nil {
		return errb.Wrapf(err, "preparing insert")
	}
	defer insert.Close()

	n := max(len(c.Sports), len(c.Associations), len(c.Events))
	for i := 0; i < n; i++ {
		if _, err := insert.Exec(cell(c.Sports, i), cell(c.Associations, i), cell(c.Events, i)); err != nil {
			return errb.Wrapf(err, "inserting row %d", i)
		}
	}
	if err := tx.Commit(); err != nil {
		return errb.Wrapf(err, "committing catalog")
	}
	return nil
}

func cell(col []string, i int) interface{} {
	if i < len(col) {
		return col[i]
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
