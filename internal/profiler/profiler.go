package profiler

import (
	"math"
	"sort"
	"strconv"

	"github.com/peekknuf/sage/internal/source"
)

const maxSampleValues = 5

// ColumnProfile holds descriptive statistics for one column.
type ColumnProfile struct {
	Name         string              `json:"name"`
	Type         source.TypeCategory `json:"type"`
	Completeness float64             `json:"completeness"`
	Distinct     int                 `json:"distinct"`
	Samples      []string            `json:"samples,omitempty"`
	Min          string              `json:"min,omitempty"`
	Max          string              `json:"max,omitempty"`
	Mean         float64             `json:"mean,omitempty"`
	Std          float64             `json:"std,omitempty"`
}

// DatasetProfile summarizes a whole data source.
type DatasetProfile struct {
	RowCount     int             `json:"row_count"`
	ColumnCount  int             `json:"column_count"`
	MissingRatio float64         `json:"missing_ratio"`
	Columns      []ColumnProfile `json:"columns"`
}

// Profile computes per-column statistics over every column of ds.
// Columns appear in source order.
func Profile(ds *source.DataSource) *DatasetProfile {
	profile := &DatasetProfile{
		RowCount:    ds.RowCount(),
		ColumnCount: ds.ColumnCount(),
		Columns:     make([]ColumnProfile, 0, ds.ColumnCount()),
	}

	totalCells := 0
	totalMissing := 0
	for _, name := range ds.ColumnNames() {
		cells, _ := ds.Column(name)
		col, populated := profileColumn(name, ds.TypeOf(name), cells)
		totalCells += len(cells)
		totalMissing += len(cells) - populated
		profile.Columns = append(profile.Columns, col)
	}
	if totalCells > 0 {
		profile.MissingRatio = float64(totalMissing) / float64(totalCells)
	}
	return profile
}

func profileColumn(name string, typ source.TypeCategory, cells []source.Cell) (ColumnProfile, int) {
	col := ColumnProfile{Name: name, Type: typ}

	distinct := make(map[string]struct{})
	populated := 0
	numeric := typ == source.TypeNumeric
	var sum, sumSq float64
	var numCount int
	var minNum, maxNum float64
	var minStr, maxStr string

	for _, cell := range cells {
		if cell.Missing {
			continue
		}
		populated++
		text := cell.String()
		distinct[text] = struct{}{}
		if len(col.Samples) < maxSampleValues {
			col.Samples = append(col.Samples, text)
		}

		if numeric {
			if v, ok := cell.Float(); ok {
				if numCount == 0 || v < minNum {
					minNum = v
				}
				if numCount == 0 || v > maxNum {
					maxNum = v
				}
				sum += v
				sumSq += v * v
				numCount++
			}
			continue
		}
		if minStr == "" || text < minStr {
			minStr = text
		}
		if maxStr == "" || text > maxStr {
			maxStr = text
		}
	}

	col.Distinct = len(distinct)
	if len(cells) > 0 {
		col.Completeness = float64(populated) / float64(len(cells))
	}

	if numeric && numCount > 0 {
		col.Min = formatNumber(minNum)
		col.Max = formatNumber(maxNum)
		col.Mean = sum / float64(numCount)
		if numCount > 1 {
			variance := (sumSq - sum*sum/float64(numCount)) / float64(numCount-1)
			if variance > 0 {
				col.Std = math.Sqrt(variance)
			}
		}
	} else if !numeric {
		col.Min = minStr
		col.Max = maxStr
	}
	return col, populated
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// TopValues returns the up-to-n most frequent populated values of one
// column, ties broken lexically.
func TopValues(cells []source.Cell, n int) []ValueCount {
	counts := make(map[string]int)
	for _, cell := range cells {
		if cell.Missing {
			continue
		}
		counts[cell.String()]++
	}
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ValueCount pairs a value with its occurrence count.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}
