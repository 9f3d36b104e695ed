package source

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func createTestDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE events (id INTEGER, name TEXT, amount REAL, at TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO events VALUES
		(1, 'signup', 9.5, '2024-01-01 00:00:00'),
		(2, NULL, 3.25, '2024-01-02 00:00:00'),
		(3, 'purchase', NULL, '2024-01-03 00:00:00')`)
	require.NoError(t, err)
	return path
}

func TestLoadDatabaseTable(t *testing.T) {
	path := createTestDatabase(t)

	ds, err := LoadDatabase("sqlite", path, DatabaseOptions{Table: "events"})
	require.NoError(t, err)

	assert.Equal(t, "events", ds.Name())
	assert.Equal(t, []string{"id", "name", "amount", "at"}, ds.ColumnNames())
	assert.Equal(t, 3, ds.RowCount())

	assert.Equal(t, TypeNumeric, ds.TypeOf("id"))
	assert.Equal(t, TypeNumeric, ds.TypeOf("amount"))
	assert.Equal(t, TypeDatetime, ds.TypeOf("at"))

	name, _ := ds.Column("name")
	assert.True(t, name[1].Missing, "SQL NULL is a missing cell")
	amount, _ := ds.Column("amount")
	assert.True(t, amount[2].Missing)

	f, ok := amount[0].Float()
	require.True(t, ok)
	assert.Equal(t, 9.5, f)
}

func TestLoadDatabaseQuery(t *testing.T) {
	path := createTestDatabase(t)

	ds, err := LoadDatabase("sqlite", path, DatabaseOptions{
		Query: "SELECT id, name FROM events WHERE id <= 2",
	})
	require.NoError(t, err)

	assert.Equal(t, "query", ds.Name())
	assert.Equal(t, []string{"id", "name"}, ds.ColumnNames())
	assert.Equal(t, 2, ds.RowCount())
}

func TestLoadDatabaseMaxRows(t *testing.T) {
	path := createTestDatabase(t)

	ds, err := LoadDatabase("sqlite", path, DatabaseOptions{Table: "events", MaxRows: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.RowCount())
}

func TestLoadDatabaseOptionErrors(t *testing.T) {
	_, err := LoadDatabase("sqlite", "any.db", DatabaseOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of table or query")

	_, err = LoadDatabase("sqlite", "any.db", DatabaseOptions{Table: "t", Query: "SELECT 1"})
	require.Error(t, err)

	_, err = LoadDatabase("sqlite", "any.db", DatabaseOptions{Table: "events; DROP TABLE x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}

func TestLoadDatabaseBadTable(t *testing.T) {
	path := createTestDatabase(t)

	_, err := LoadDatabase("sqlite", path, DatabaseOptions{Table: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query failed")
}

func TestSQLCategory(t *testing.T) {
	tests := []struct {
		typeName string
		want     TypeCategory
		ok       bool
	}{
		{"INTEGER", TypeNumeric, true},
		{"bigint", TypeNumeric, true},
		{"DOUBLE PRECISION", TypeNumeric, true},
		{"TIMESTAMPTZ", TypeDatetime, true},
		{"BOOLEAN", TypeBoolean, true},
		{"TEXT", "", false},
		{"VARCHAR", "", false},
	}
	for _, tc := range tests {
		got, ok := sqlCategory(tc.typeName)
		assert.Equal(t, tc.ok, ok, tc.typeName)
		assert.Equal(t, tc.want, got, tc.typeName)
	}
}
