package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelOptions controls spreadsheet loading.
type ExcelOptions struct {
	Sheet   string // empty means the first sheet
	MaxRows int
}

// LoadExcel reads one sheet of an xlsx workbook into a DataSource. The first
// row is the header; rows are ragged in excelize output, so short rows pad
// with missing cells.
func LoadExcel(path string, opts ExcelOptions) (*DataSource, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, loadError(path, "open failed", err)
	}
	defer book.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, loadError(path, "workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, loadError(path, fmt.Sprintf("sheet %q read failed", sheet), err)
	}
	if len(rows) == 0 {
		return nil, loadError(path, fmt.Sprintf("sheet %q is empty", sheet), nil)
	}

	header := rows[0]
	records := rows[1:]

	// Drop fully blank trailing rows, common in exported workbooks.
	for len(records) > 0 && blankRecord(records[len(records)-1]) {
		records = records[:len(records)-1]
	}
	if opts.MaxRows > 0 && len(records) > opts.MaxRows {
		records = records[:opts.MaxRows]
	}

	name := fmt.Sprintf("%s#%s", path, sheet)
	return FromRecords(name, header, records)
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if field != "" {
			return false
		}
	}
	return true
}
