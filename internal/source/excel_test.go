package source

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTestWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	book := excelize.NewFile()
	defer book.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, book.SaveAs(path))
	return path
}

func TestLoadExcel(t *testing.T) {
	path := writeTestWorkbook(t, [][]any{
		{"id", "name", "amount"},
		{1, "alice", 10.5},
		{2, "bob", nil},
		{3, "", 7},
	})

	ds, err := LoadExcel(path, ExcelOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "amount"}, ds.ColumnNames())
	assert.Equal(t, 3, ds.RowCount())
	assert.Contains(t, ds.Name(), "Sheet1")

	amount, _ := ds.Column("amount")
	assert.False(t, amount[0].Missing)
	assert.True(t, amount[1].Missing, "empty cell becomes missing")

	name, _ := ds.Column("name")
	assert.True(t, name[2].Missing)
}

func TestLoadExcelDropsBlankTrailingRows(t *testing.T) {
	path := writeTestWorkbook(t, [][]any{
		{"a", "b"},
		{"1", "2"},
		{"", ""},
		{"", ""},
	})

	ds, err := LoadExcel(path, ExcelOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.RowCount())
}

func TestLoadExcelMaxRows(t *testing.T) {
	path := writeTestWorkbook(t, [][]any{
		{"n"},
		{"1"},
		{"2"},
		{"3"},
	})

	ds, err := LoadExcel(path, ExcelOptions{MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.RowCount())
}

func TestLoadExcelMissingSheet(t *testing.T) {
	path := writeTestWorkbook(t, [][]any{{"a"}, {"1"}})

	_, err := LoadExcel(path, ExcelOptions{Sheet: "Nope"})
	require.Error(t, err)

	_, err = LoadExcel(filepath.Join(t.TempDir(), "nope.xlsx"), ExcelOptions{})
	require.Error(t, err)
}
