package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekknuf/sage/internal/source"
)

func TestProfile(t *testing.T) {
	ds, err := source.FromRecords("orders", []string{"n", "name"}, [][]string{
		{"1", "alice"},
		{"2", "bob"},
		{"3", "alice"},
		{"4", ""},
		{"", "carol"},
	})
	require.NoError(t, err)

	profile := Profile(ds)
	assert.Equal(t, 5, profile.RowCount)
	assert.Equal(t, 2, profile.ColumnCount)
	assert.InDelta(t, 0.2, profile.MissingRatio, 1e-9)
	require.Len(t, profile.Columns, 2)

	n := profile.Columns[0]
	assert.Equal(t, "n", n.Name)
	assert.Equal(t, source.TypeNumeric, n.Type)
	assert.InDelta(t, 0.8, n.Completeness, 1e-9)
	assert.Equal(t, 4, n.Distinct)
	assert.Equal(t, "1", n.Min)
	assert.Equal(t, "4", n.Max)
	assert.InDelta(t, 2.5, n.Mean, 1e-9)
	assert.InDelta(t, 1.2909944, n.Std, 1e-6)
	assert.Equal(t, []string{"1", "2", "3", "4"}, n.Samples)

	name := profile.Columns[1]
	assert.Equal(t, source.TypeText, name.Type)
	assert.Equal(t, 3, name.Distinct)
	assert.Equal(t, "alice", name.Min)
	assert.Equal(t, "carol", name.Max)
	assert.Zero(t, name.Mean)
}

func TestProfileBoundsSamples(t *testing.T) {
	rows := [][]string{
		{"a"}, {"b"}, {"c"}, {"d"}, {"e"}, {"f"}, {"g"}, {"h"},
	}
	ds, err := source.FromRecords("letters", []string{"v"}, rows)
	require.NoError(t, err)

	profile := Profile(ds)
	assert.Len(t, profile.Columns[0].Samples, 5)
	assert.Equal(t, 8, profile.Columns[0].Distinct)
}

func TestProfileSingleNumericValue(t *testing.T) {
	ds, err := source.FromRecords("one", []string{"v"}, [][]string{{"7"}})
	require.NoError(t, err)

	col := Profile(ds).Columns[0]
	assert.Equal(t, 7.0, col.Mean)
	assert.Zero(t, col.Std, "one observation has no spread")
	assert.Equal(t, "7", col.Min)
	assert.Equal(t, "7", col.Max)
}

func TestProfileFractionalNumbers(t *testing.T) {
	ds, err := source.FromRecords("fractions", []string{"v"}, [][]string{
		{"0.5"}, {"1.25"},
	})
	require.NoError(t, err)

	col := Profile(ds).Columns[0]
	assert.Equal(t, "0.5", col.Min)
	assert.Equal(t, "1.25", col.Max)
	assert.InDelta(t, 0.875, col.Mean, 1e-9)
}

func TestProfileEmptySource(t *testing.T) {
	ds, err := source.FromRecords("empty", []string{"v"}, nil)
	require.NoError(t, err)

	profile := Profile(ds)
	assert.Equal(t, 0, profile.RowCount)
	assert.Zero(t, profile.MissingRatio)
	assert.Zero(t, profile.Columns[0].Completeness)
}

func TestTopValues(t *testing.T) {
	cells := []source.Cell{
		source.CellFromString("a"),
		source.CellFromString("b"),
		source.CellFromString("a"),
		source.CellFromString("c"),
		source.CellFromString("a"),
		source.CellFromString("b"),
		source.MissingCell(),
	}

	all := TopValues(cells, 10)
	assert.Equal(t, []ValueCount{{"a", 3}, {"b", 2}, {"c", 1}}, all)

	top2 := TopValues(cells, 2)
	assert.Equal(t, []ValueCount{{"a", 3}, {"b", 2}}, top2)
}

func TestTopValuesBreaksTiesLexically(t *testing.T) {
	cells := []source.Cell{
		source.CellFromString("y"),
		source.CellFromString("x"),
	}
	assert.Equal(t, []ValueCount{{"x", 1}, {"y", 1}}, TopValues(cells, 2))
}
