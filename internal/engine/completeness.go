package engine

import (
	"fmt"

	"github.com/peekknuf/sage/internal/source"
)

// ConditionalCheck requires then_column to be populated on rows where
// if_column compares true against if_value.
type ConditionalCheck struct {
	IfColumn   string
	Comparison string
	IfValue    string
	ThenColumn string
}

// CompletenessConfig scopes the completeness metric. With no required
// columns, every column of the source is scored.
type CompletenessConfig struct {
	RequiredColumns   []string
	ConditionalChecks []ConditionalCheck
}

// CompletenessMetric scores the share of populated cells per column, plus
// any conditional checks.
type CompletenessMetric struct {
	cfg CompletenessConfig
}

func NewCompletenessMetric(cfg CompletenessConfig) *CompletenessMetric {
	return &CompletenessMetric{cfg: cfg}
}

func (m *CompletenessMetric) Kind() Kind {
	return KindCompleteness
}

func (m *CompletenessMetric) Validate() error {
	for i, check := range m.cfg.ConditionalChecks {
		if check.IfColumn == "" || check.ThenColumn == "" {
			return errConfigf("", "conditional check %d: if_column and then_column are required", i+1)
		}
		if !validComparison(check.Comparison) {
			return errConfigf("", "conditional check %d: unknown comparison %q", i+1, check.Comparison)
		}
	}
	return nil
}

func (m *CompletenessMetric) Compute(ds *source.DataSource, th Thresholds) MetricResult {
	if ds.RowCount() == 0 {
		return unknownResult(KindCompleteness, "data source has no rows")
	}

	scored := m.cfg.RequiredColumns
	if len(scored) == 0 {
		scored = ds.ColumnNames()
	}

	needed := make([]string, 0, len(scored)+2*len(m.cfg.ConditionalChecks))
	needed = append(needed, scored...)
	for _, check := range m.cfg.ConditionalChecks {
		needed = append(needed, check.IfColumn, check.ThenColumn)
	}
	if missing := missingColumns(ds, needed); len(missing) > 0 {
		return missingColumnsResult(KindCompleteness, missing)
	}

	rows := ds.RowCount()
	columns := make(map[string]ColumnScore, len(scored))
	var scores []float64
	incomplete := 0

	for _, name := range scored {
		cells, _ := ds.Column(name)
		populated := 0
		for _, c := range cells {
			if !c.Missing {
				populated++
			}
		}
		score := float64(populated) / float64(rows)
		columns[name] = ColumnScore{
			Score:     score,
			Status:    th.Status(score),
			Evaluated: rows,
			Failed:    rows - populated,
		}
		scores = append(scores, score)
		if populated < rows {
			incomplete++
		}
	}

	var checks []CheckResult
	for _, check := range m.cfg.ConditionalChecks {
		ifCells, _ := ds.Column(check.IfColumn)
		thenCells, _ := ds.Column(check.ThenColumn)

		matching := 0
		complete := 0
		for i := range ifCells {
			if ifCells[i].Missing || !compareToValue(ifCells[i], check.Comparison, check.IfValue) {
				continue
			}
			matching++
			if !thenCells[i].Missing {
				complete++
			}
		}

		// No matching rows satisfies the rule vacuously.
		score := 1.0
		if matching > 0 {
			score = float64(complete) / float64(matching)
		}
		checks = append(checks, CheckResult{
			IfColumn:   check.IfColumn,
			Comparison: check.Comparison,
			IfValue:    check.IfValue,
			ThenColumn: check.ThenColumn,
			Matching:   matching,
			Complete:   complete,
			Score:      score,
		})
		scores = append(scores, score)
	}

	overall := mean(scores)
	message := fmt.Sprintf("%.1f%% complete across %d columns", overall*100, len(scored))
	if incomplete > 0 {
		message = fmt.Sprintf("%s; %d with gaps", message, incomplete)
	}
	if len(checks) > 0 {
		message = fmt.Sprintf("%s; %d conditional checks", message, len(checks))
	}

	return MetricResult{
		Kind:    KindCompleteness,
		Score:   overall,
		Status:  th.Status(overall),
		Message: message,
		Columns: columns,
		Details: Details{Completeness: &CompletenessDetails{Checks: checks}},
	}
}
