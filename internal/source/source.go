package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// TypeCategory classifies the values a column holds.
type TypeCategory string

const (
	TypeNumeric     TypeCategory = "numeric"
	TypeText        TypeCategory = "text"
	TypeDatetime    TypeCategory = "datetime"
	TypeBoolean     TypeCategory = "boolean"
	TypeCategorical TypeCategory = "categorical"
	TypeMixed       TypeCategory = "mixed"
)

// Cell is a single table value. Missing is the one sentinel for absent
// values; Value is undefined when Missing is set.
type Cell struct {
	Value   any
	Missing bool
}

// NewCell normalizes a raw loader value. nil becomes a missing cell.
func NewCell(v any) Cell {
	if v == nil {
		return Cell{Missing: true}
	}
	return Cell{Value: v}
}

// CellFromString treats the empty string as missing, matching how CSV and
// spreadsheet loaders surface blank fields.
func CellFromString(s string) Cell {
	if s == "" {
		return Cell{Missing: true}
	}
	return Cell{Value: s}
}

// MissingCell returns the missing sentinel.
func MissingCell() Cell {
	return Cell{Missing: true}
}

// String renders the cell for display and pattern checks. Missing cells
// render empty.
func (c Cell) String() string {
	if c.Missing {
		return ""
	}
	return cast.ToString(c.Value)
}

// Float reports the cell as a float64 when it is numeric or parses as one.
func (c Cell) Float() (float64, bool) {
	if c.Missing {
		return 0, false
	}
	f, err := cast.ToFloat64E(c.Value)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Bool reports the cell as a boolean, accepting yes/no style tokens on top
// of the usual true/false forms.
func (c Cell) Bool() (bool, bool) {
	if c.Missing {
		return false, false
	}
	if s, ok := c.Value.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "y":
			return true, true
		case "no", "n":
			return false, true
		}
	}
	b, err := cast.ToBoolE(c.Value)
	if err != nil {
		return false, false
	}
	return b, true
}

// dateLayouts are tried in order before falling back to cast's parsing.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02-Jan-2006",
}

// Time reports the cell as a timestamp. String cells are parsed against the
// known layouts, then handed to cast, which also covers epoch numbers.
func (c Cell) Time() (time.Time, bool) {
	if c.Missing {
		return time.Time{}, false
	}
	if t, ok := c.Value.(time.Time); ok {
		return t, true
	}
	if s, ok := c.Value.(string); ok {
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	t, err := cast.ToTimeE(c.Value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DataLoadError reports a source that could not be normalized into a
// DataSource. It is fatal: grading never starts on a bad load.
type DataLoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Source, e.Reason)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

func loadError(source, reason string, err error) *DataLoadError {
	return &DataLoadError{Source: source, Reason: reason, Err: err}
}

// DataSource is an immutable snapshot of one table: ordered column names,
// equal-length cell columns, and a type category per column.
type DataSource struct {
	name     string
	names    []string
	columns  map[string][]Cell
	types    map[string]TypeCategory
	rowCount int
}

// New validates and assembles a DataSource. Column names must be unique and
// every named column must be present with the same length. Types may be nil,
// in which case each column's category is inferred from its cells.
func New(name string, columnNames []string, columns map[string][]Cell, types map[string]TypeCategory) (*DataSource, error) {
	seen := make(map[string]struct{}, len(columnNames))
	rows := -1
	for _, col := range columnNames {
		if col == "" {
			return nil, loadError(name, "empty column name", nil)
		}
		if _, dup := seen[col]; dup {
			return nil, loadError(name, fmt.Sprintf("duplicate column %q", col), nil)
		}
		seen[col] = struct{}{}

		cells, ok := columns[col]
		if !ok {
			return nil, loadError(name, fmt.Sprintf("column %q has no values", col), nil)
		}
		if rows == -1 {
			rows = len(cells)
		} else if len(cells) != rows {
			return nil, loadError(name, fmt.Sprintf("column %q has %d values, want %d", col, len(cells), rows), nil)
		}
	}
	if len(columns) > len(columnNames) {
		return nil, loadError(name, "columns not listed in column names", nil)
	}
	if rows == -1 {
		rows = 0
	}

	resolved := make(map[string]TypeCategory, len(columnNames))
	for _, col := range columnNames {
		if t, ok := types[col]; ok && t != "" {
			resolved[col] = t
			continue
		}
		resolved[col] = InferType(columns[col])
	}

	return &DataSource{
		name:     name,
		names:    columnNames,
		columns:  columns,
		types:    resolved,
		rowCount: rows,
	}, nil
}

// FromRecords builds a DataSource from a header row plus string records, the
// shape CSV and spreadsheet readers produce. Short records are padded with
// missing cells; empty fields become missing cells.
func FromRecords(name string, header []string, records [][]string) (*DataSource, error) {
	if len(header) == 0 {
		return nil, loadError(name, "no columns found", nil)
	}
	names := make([]string, len(header))
	columns := make(map[string][]Cell, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		names[i] = h
	}
	for _, h := range names {
		columns[h] = make([]Cell, 0, len(records))
	}
	for _, record := range records {
		for i, h := range names {
			if i < len(record) {
				columns[h] = append(columns[h], CellFromString(strings.TrimSpace(record[i])))
			} else {
				columns[h] = append(columns[h], MissingCell())
			}
		}
	}
	return New(name, names, columns, nil)
}

// Name identifies the source (file path, table name, or DSN label).
func (ds *DataSource) Name() string {
	return ds.name
}

// ColumnNames returns the ordered column names. Callers must not modify the
// returned slice.
func (ds *DataSource) ColumnNames() []string {
	return ds.names
}

// Column returns the cells of one column. Callers must not modify the
// returned slice.
func (ds *DataSource) Column(name string) ([]Cell, bool) {
	cells, ok := ds.columns[name]
	return cells, ok
}

// HasColumn reports whether the column exists.
func (ds *DataSource) HasColumn(name string) bool {
	_, ok := ds.columns[name]
	return ok
}

// TypeOf returns the column's type category, TypeMixed for unknown columns.
func (ds *DataSource) TypeOf(name string) TypeCategory {
	if t, ok := ds.types[name]; ok {
		return t
	}
	return TypeMixed
}

// RowCount returns the number of rows in the snapshot.
func (ds *DataSource) RowCount() int {
	return ds.rowCount
}

// ColumnCount returns the number of columns in the snapshot.
func (ds *DataSource) ColumnCount() int {
	return len(ds.names)
}
