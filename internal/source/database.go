package source

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// DatabaseOptions selects what to read. Exactly one of Table or Query must
// be set.
type DatabaseOptions struct {
	Table   string
	Query   string
	MaxRows int
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// LoadDatabase reads a table or query result into a DataSource through
// database/sql. The driver must be registered by the caller (the CLI
// registers postgres and sqlite). Column categories come from driver type
// names where they are unambiguous; text columns fall back to inference.
func LoadDatabase(driver, dsn string, opts DatabaseOptions) (*DataSource, error) {
	if (opts.Table == "") == (opts.Query == "") {
		return nil, loadError(dsn, "exactly one of table or query must be set", nil)
	}

	query := opts.Query
	label := "query"
	if opts.Table != "" {
		if !identifierPattern.MatchString(opts.Table) {
			return nil, loadError(dsn, fmt.Sprintf("invalid table name %q", opts.Table), nil)
		}
		query = "SELECT * FROM " + opts.Table
		label = opts.Table
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, loadError(label, "connection failed", err)
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return nil, loadError(label, "query failed", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, loadError(label, "column listing failed", err)
	}
	if len(names) == 0 {
		return nil, loadError(label, "no columns found", nil)
	}

	types := make(map[string]TypeCategory, len(names))
	if columnTypes, err := rows.ColumnTypes(); err == nil {
		for _, ct := range columnTypes {
			if cat, ok := sqlCategory(ct.DatabaseTypeName()); ok {
				types[ct.Name()] = cat
			}
		}
	}

	columns := make(map[string][]Cell, len(names))
	for _, name := range names {
		columns[name] = []Cell{}
	}

	values := make([]any, len(names))
	pointers := make([]any, len(names))
	for i := range values {
		pointers[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, loadError(label, fmt.Sprintf("scan failed at row %d", count+1), err)
		}
		for i, name := range names {
			columns[name] = append(columns[name], driverCell(values[i]))
		}
		count++
		if opts.MaxRows > 0 && count >= opts.MaxRows {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, loadError(label, "row iteration failed", err)
	}

	return New(label, names, columns, types)
}

// driverCell normalizes a scanned driver value. Text drivers hand back
// []byte; NULL arrives as nil.
func driverCell(v any) Cell {
	switch v := v.(type) {
	case nil:
		return MissingCell()
	case []byte:
		return CellFromString(string(v))
	default:
		return NewCell(v)
	}
}

func sqlCategory(typeName string) (TypeCategory, bool) {
	switch strings.ToUpper(typeName) {
	case "INT", "INT2", "INT4", "INT8", "INTEGER", "SMALLINT", "BIGINT",
		"DECIMAL", "NUMERIC", "REAL", "FLOAT", "FLOAT4", "FLOAT8",
		"DOUBLE", "DOUBLE PRECISION", "MONEY":
		return TypeNumeric, true
	case "DATE", "TIME", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return TypeDatetime, true
	case "BOOL", "BOOLEAN":
		return TypeBoolean, true
	default:
		return "", false
	}
}
