package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/peekknuf/sage/internal/engine"
)

// RenderCSV produces one row per metric in presentation order, preceded by a
// header row.
func RenderCSV(result *engine.GradeResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"metric", "kind", "score", "status", "message"}); err != nil {
		return nil, fmt.Errorf("report: csv write: %w", err)
	}
	for _, name := range result.MetricOrder {
		m, ok := result.Metrics[name]
		if !ok {
			continue
		}
		row := []string{
			name,
			string(m.Kind),
			strconv.FormatFloat(m.Score, 'f', 4, 64),
			string(m.Status),
			m.Message,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("report: csv write: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("report: csv flush: %w", err)
	}
	return buf.Bytes(), nil
}
