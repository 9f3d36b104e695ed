package source

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadJSON reads a file holding an array of flat objects into a DataSource.
// The union of keys forms the columns in first-seen order; keys absent from
// a record become missing cells, as do JSON nulls.
func LoadJSON(path string) (*DataSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, loadError(path, "open failed", err)
	}
	defer file.Close()

	dec := json.NewDecoder(file)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, loadError(path, "not valid JSON", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, loadError(path, "top-level value must be an array of objects", nil)
	}

	var names []string
	seen := make(map[string]struct{})
	var rows []map[string]Cell

	for dec.More() {
		open, err := dec.Token()
		if err != nil {
			return nil, loadError(path, "truncated array", err)
		}
		if delim, ok := open.(json.Delim); !ok || delim != '{' {
			return nil, loadError(path, fmt.Sprintf("record %d is not an object", len(rows)+1), nil)
		}

		row := make(map[string]Cell)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, loadError(path, "truncated record", err)
			}
			key := keyTok.(string)
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				names = append(names, key)
			}

			var raw any
			if err := dec.Decode(&raw); err != nil {
				return nil, loadError(path, fmt.Sprintf("bad value for key %q", key), err)
			}
			row[key] = jsonCell(raw)
		}
		if _, err := dec.Token(); err != nil { // closing brace
			return nil, loadError(path, "truncated record", err)
		}
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil { // closing bracket
		return nil, loadError(path, "truncated array", err)
	}

	if len(names) == 0 {
		return nil, loadError(path, "no columns found", nil)
	}

	columns := make(map[string][]Cell, len(names))
	for _, name := range names {
		cells := make([]Cell, len(rows))
		for i, row := range rows {
			if cell, ok := row[name]; ok {
				cells[i] = cell
			} else {
				cells[i] = MissingCell()
			}
		}
		columns[name] = cells
	}

	return New(path, names, columns, nil)
}

// jsonCell normalizes a decoded JSON value. Numbers keep their integer or
// float identity; nested structures are re-encoded as their JSON text.
func jsonCell(raw any) Cell {
	switch v := raw.(type) {
	case nil:
		return MissingCell()
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Cell{Value: i}
		}
		if f, err := v.Float64(); err == nil {
			return Cell{Value: f}
		}
		return Cell{Value: v.String()}
	case string:
		return CellFromString(v)
	case bool:
		return Cell{Value: v}
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return MissingCell()
		}
		return Cell{Value: string(encoded)}
	}
}
