package engine

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/peekknuf/sage/internal/source"
)

// ColumnValidator is one validation rule. Kind selects the rule family and
// the matching fields:
//
//	regex: Pattern
//	range: Min and/or Max
//	enum:  Allowed
//	type:  Type (numeric, integer, datetime, boolean)
type ColumnValidator struct {
	Kind    string
	Pattern string
	Min     *float64
	Max     *float64
	Allowed []string
	Type    string
}

// AccuracyConfig maps columns to validators. MaxExamples bounds collected
// invalid examples per column (default 5).
type AccuracyConfig struct {
	Validators  map[string]ColumnValidator
	MaxExamples int
}

const defaultMaxExamples = 5

// AccuracyMetric scores valid / (valid + invalid) over populated cells.
type AccuracyMetric struct {
	cfg AccuracyConfig
}

func NewAccuracyMetric(cfg AccuracyConfig) *AccuracyMetric {
	if cfg.MaxExamples == 0 {
		cfg.MaxExamples = defaultMaxExamples
	}
	return &AccuracyMetric{cfg: cfg}
}

func (m *AccuracyMetric) Kind() Kind {
	return KindAccuracy
}

func (m *AccuracyMetric) Validate() error {
	if len(m.cfg.Validators) == 0 {
		return errConfigf("", "accuracy metric requires at least one column validator")
	}
	if m.cfg.MaxExamples < 0 {
		return errConfigf("", "max_examples cannot be negative")
	}
	for _, column := range sortedValidatorColumns(m.cfg.Validators) {
		if _, err := buildValidator(m.cfg.Validators[column]); err != nil {
			return errConfigf("", "column %q: %v", column, err)
		}
	}
	return nil
}

func (m *AccuracyMetric) Compute(ds *source.DataSource, th Thresholds) MetricResult {
	if ds.RowCount() == 0 {
		return unknownResult(KindAccuracy, "data source has no rows")
	}

	ordered := sortedValidatorColumns(m.cfg.Validators)
	if missing := missingColumns(ds, ordered); len(missing) > 0 {
		return missingColumnsResult(KindAccuracy, missing)
	}

	columns := make(map[string]ColumnScore, len(ordered))
	findings := make([]ColumnAccuracy, 0, len(ordered))
	var scores []float64
	totalInvalid := 0

	for _, column := range ordered {
		valid, err := buildValidator(m.cfg.Validators[column])
		if err != nil {
			return unknownResult(KindAccuracy, "column %q has an unusable validator: %v", column, err)
		}

		cells, _ := ds.Column(column)
		finding := ColumnAccuracy{Column: column}
		for _, c := range cells {
			if c.Missing {
				continue
			}
			if valid(c) {
				finding.Valid++
			} else {
				finding.Invalid++
				if len(finding.Examples) < m.cfg.MaxExamples {
					finding.Examples = append(finding.Examples, c.String())
				}
			}
		}

		// A column with no populated cells has nothing to invalidate.
		score := 1.0
		evaluated := finding.Valid + finding.Invalid
		if evaluated > 0 {
			score = float64(finding.Valid) / float64(evaluated)
		}
		columns[column] = ColumnScore{
			Score:     score,
			Status:    th.Status(score),
			Evaluated: evaluated,
			Failed:    finding.Invalid,
		}
		findings = append(findings, finding)
		scores = append(scores, score)
		totalInvalid += finding.Invalid
	}

	overall := mean(scores)
	message := fmt.Sprintf("%.1f%% of validated values conform across %d columns", overall*100, len(ordered))
	if totalInvalid > 0 {
		message = fmt.Sprintf("%s; %d invalid values", message, totalInvalid)
	}

	return MetricResult{
		Kind:    KindAccuracy,
		Score:   overall,
		Status:  th.Status(overall),
		Message: message,
		Columns: columns,
		Details: Details{Accuracy: &AccuracyDetails{Columns: findings}},
	}
}

func sortedValidatorColumns(validators map[string]ColumnValidator) []string {
	ordered := make([]string, 0, len(validators))
	for column := range validators {
		ordered = append(ordered, column)
	}
	sort.Strings(ordered)
	return ordered
}

// buildValidator turns a rule into a predicate, rejecting structural
// problems (bad regex, inverted range, empty enum, unknown type).
func buildValidator(v ColumnValidator) (func(source.Cell) bool, error) {
	switch v.Kind {
	case "regex":
		if v.Pattern == "" {
			return nil, fmt.Errorf("regex validator requires a pattern")
		}
		re, err := regexp.Compile(v.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %v", err)
		}
		return func(c source.Cell) bool {
			return re.MatchString(c.String())
		}, nil

	case "range":
		if v.Min == nil && v.Max == nil {
			return nil, fmt.Errorf("range validator requires min or max")
		}
		if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
			return nil, fmt.Errorf("range min %v above max %v", *v.Min, *v.Max)
		}
		return func(c source.Cell) bool {
			f, ok := c.Float()
			if !ok {
				return false
			}
			if v.Min != nil && f < *v.Min {
				return false
			}
			if v.Max != nil && f > *v.Max {
				return false
			}
			return true
		}, nil

	case "enum":
		if len(v.Allowed) == 0 {
			return nil, fmt.Errorf("enum validator requires allowed values")
		}
		allowed := make(map[string]struct{}, len(v.Allowed))
		for _, value := range v.Allowed {
			allowed[value] = struct{}{}
		}
		return func(c source.Cell) bool {
			_, ok := allowed[c.String()]
			return ok
		}, nil

	case "type":
		switch v.Type {
		case "numeric":
			return func(c source.Cell) bool {
				_, ok := c.Float()
				return ok
			}, nil
		case "integer":
			return func(c source.Cell) bool {
				f, ok := c.Float()
				return ok && f == float64(int64(f))
			}, nil
		case "datetime":
			return func(c source.Cell) bool {
				_, ok := c.Time()
				return ok
			}, nil
		case "boolean":
			return func(c source.Cell) bool {
				_, ok := c.Bool()
				return ok
			}, nil
		default:
			return nil, fmt.Errorf("unknown type %q", v.Type)
		}

	case "":
		return nil, fmt.Errorf("validator kind is required")
	default:
		return nil, fmt.Errorf("unknown validator kind %q", v.Kind)
	}
}
