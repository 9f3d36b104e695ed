package engine

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/peekknuf/sage/internal/source"
)

// Relationship declares an expected cross-column rule. Kinds: lte and gte
// compare left against right; not_null_implies requires right to be
// populated wherever left is.
type Relationship struct {
	Left  string
	Right string
	Kind  string
}

// ConsistencyConfig enables any of the three sub-checks: per-column format
// homogeneity, cross-column relationships, and composite-key uniqueness.
type ConsistencyConfig struct {
	FormatColumns []string
	Relationships []Relationship
	CompositeKeys [][]string
}

// ConsistencyMetric averages the configured sub-checks; an absent sub-check
// does not penalize the score.
type ConsistencyMetric struct {
	cfg ConsistencyConfig
}

func NewConsistencyMetric(cfg ConsistencyConfig) *ConsistencyMetric {
	return &ConsistencyMetric{cfg: cfg}
}

func (m *ConsistencyMetric) Kind() Kind {
	return KindConsistency
}

var relationshipKinds = map[string]struct{}{
	"lte": {}, "gte": {}, "not_null_implies": {},
}

func (m *ConsistencyMetric) Validate() error {
	if len(m.cfg.FormatColumns) == 0 && len(m.cfg.Relationships) == 0 && len(m.cfg.CompositeKeys) == 0 {
		return errConfigf("", "consistency metric requires at least one of format_columns, relationships, composite_keys")
	}
	for i, column := range m.cfg.FormatColumns {
		if column == "" {
			return errConfigf("", "format column %d is empty", i+1)
		}
	}
	for i, rel := range m.cfg.Relationships {
		if rel.Left == "" || rel.Right == "" {
			return errConfigf("", "relationship %d: left and right columns are required", i+1)
		}
		if _, ok := relationshipKinds[rel.Kind]; !ok {
			return errConfigf("", "relationship %d: unknown kind %q", i+1, rel.Kind)
		}
	}
	for i, key := range m.cfg.CompositeKeys {
		if len(key) == 0 {
			return errConfigf("", "composite key %d has no columns", i+1)
		}
		for _, column := range key {
			if column == "" {
				return errConfigf("", "composite key %d has an empty column name", i+1)
			}
		}
	}
	return nil
}

func (m *ConsistencyMetric) Compute(ds *source.DataSource, th Thresholds) MetricResult {
	if ds.RowCount() == 0 {
		return unknownResult(KindConsistency, "data source has no rows")
	}

	var needed []string
	needed = append(needed, m.cfg.FormatColumns...)
	for _, rel := range m.cfg.Relationships {
		needed = append(needed, rel.Left, rel.Right)
	}
	for _, key := range m.cfg.CompositeKeys {
		needed = append(needed, key...)
	}
	if missing := missingColumns(ds, needed); len(missing) > 0 {
		return missingColumnsResult(KindConsistency, missing)
	}

	details := &ConsistencyDetails{}
	columns := make(map[string]ColumnScore)
	var subScores []float64
	var summary []string

	if len(m.cfg.FormatColumns) > 0 {
		var formatScores []float64
		for _, column := range m.cfg.FormatColumns {
			finding := formatHomogeneity(ds, column)
			details.Formats = append(details.Formats, finding)
			formatScores = append(formatScores, finding.Coverage)
			cells, _ := ds.Column(column)
			populated := 0
			for _, c := range cells {
				if !c.Missing {
					populated++
				}
			}
			columns[column] = ColumnScore{
				Score:     finding.Coverage,
				Status:    th.Status(finding.Coverage),
				Evaluated: populated,
				Failed:    populated - int(finding.Coverage*float64(populated)+0.5),
			}
		}
		sub := mean(formatScores)
		subScores = append(subScores, sub)
		summary = append(summary, fmt.Sprintf("format %.1f%%", sub*100))
	}

	if len(m.cfg.Relationships) > 0 {
		var relScores []float64
		for _, rel := range m.cfg.Relationships {
			finding := evaluateRelationship(ds, rel)
			details.Relationships = append(details.Relationships, finding)
			relScores = append(relScores, finding.Score)
		}
		sub := mean(relScores)
		subScores = append(subScores, sub)
		summary = append(summary, fmt.Sprintf("relationships %.1f%%", sub*100))
	}

	if len(m.cfg.CompositeKeys) > 0 {
		var keyScores []float64
		for _, key := range m.cfg.CompositeKeys {
			finding := evaluateCompositeKey(ds, key)
			details.Keys = append(details.Keys, finding)
			keyScores = append(keyScores, finding.Score)
		}
		sub := mean(keyScores)
		subScores = append(subScores, sub)
		summary = append(summary, fmt.Sprintf("uniqueness %.1f%%", sub*100))
	}

	overall := mean(subScores)

	return MetricResult{
		Kind:    KindConsistency,
		Score:   overall,
		Status:  th.Status(overall),
		Message: strings.Join(summary, ", "),
		Columns: columns,
		Details: Details{Consistency: details},
	}
}

// formatSignature folds a value to its shape: digits become 9, letters
// become a, everything else is kept.
func formatSignature(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune('9')
		case unicode.IsLetter(r):
			b.WriteRune('a')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func formatHomogeneity(ds *source.DataSource, column string) FormatFinding {
	cells, _ := ds.Column(column)
	signatures := make(map[string]int)
	populated := 0
	for _, c := range cells {
		if c.Missing {
			continue
		}
		populated++
		signatures[formatSignature(c.String())]++
	}

	finding := FormatFinding{Column: column, Coverage: 1.0}
	if populated == 0 {
		return finding
	}

	dominantCount := 0
	for signature, count := range signatures {
		if count > dominantCount || (count == dominantCount && signature < finding.Dominant) {
			dominantCount = count
			finding.Dominant = signature
		}
	}
	finding.Coverage = float64(dominantCount) / float64(populated)
	finding.Variants = len(signatures)
	return finding
}

func evaluateRelationship(ds *source.DataSource, rel Relationship) RelationshipFinding {
	left, _ := ds.Column(rel.Left)
	right, _ := ds.Column(rel.Right)

	finding := RelationshipFinding{Left: rel.Left, Right: rel.Right, Kind: rel.Kind}
	for i := range left {
		switch rel.Kind {
		case "not_null_implies":
			if left[i].Missing {
				continue
			}
			finding.Applicable++
			if !right[i].Missing {
				finding.Satisfied++
			}
		default: // lte, gte
			if left[i].Missing || right[i].Missing {
				continue
			}
			finding.Applicable++
			if compareCells(left[i], rel.Kind, right[i]) {
				finding.Satisfied++
			}
		}
	}

	// No applicable rows satisfies the rule vacuously.
	finding.Score = 1.0
	if finding.Applicable > 0 {
		finding.Score = float64(finding.Satisfied) / float64(finding.Applicable)
	}
	return finding
}

// compareCells orders two cells numerically when both parse, then as
// timestamps, then lexically.
func compareCells(a source.Cell, op string, b source.Cell) bool {
	if af, ok := a.Float(); ok {
		if bf, ok := b.Float(); ok {
			return compareFloats(af, op, bf)
		}
	}
	if at, ok := a.Time(); ok {
		if bt, ok := b.Time(); ok {
			switch op {
			case "lte":
				return !at.After(bt)
			case "gte":
				return !at.Before(bt)
			}
		}
	}
	return compareStrings(a.String(), op, b.String())
}

const keySeparator = "\x1f"

func evaluateCompositeKey(ds *source.DataSource, key []string) KeyFinding {
	rows := ds.RowCount()
	keyColumns := make([][]source.Cell, len(key))
	for i, column := range key {
		keyColumns[i], _ = ds.Column(column)
	}

	distinct := make(map[string]struct{}, rows)
	parts := make([]string, len(key))
	for row := 0; row < rows; row++ {
		for i := range keyColumns {
			parts[i] = keyColumns[i][row].String()
		}
		distinct[strings.Join(parts, keySeparator)] = struct{}{}
	}

	score := float64(len(distinct)) / float64(rows)
	return KeyFinding{
		Columns:             append([]string(nil), key...),
		DistinctTuples:      len(distinct),
		DuplicatePercentage: 1 - score,
		Score:               score,
	}
}
