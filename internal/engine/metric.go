package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/peekknuf/sage/internal/source"
)

// Kind enumerates the built-in quality dimensions. The set is closed: every
// metric implementation reports one of these.
type Kind string

const (
	KindCompleteness Kind = "completeness"
	KindAccuracy     Kind = "accuracy"
	KindConsistency  Kind = "consistency"
	KindTimeliness   Kind = "timeliness"
)

// Kinds returns the closed set of metric kinds in canonical order.
func Kinds() []Kind {
	return []Kind{KindCompleteness, KindAccuracy, KindConsistency, KindTimeliness}
}

// ParseKind resolves a kind name from configuration.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errConfigf("", "unknown metric kind %q", s)
}

// Metric scores one quality dimension over a data source. Implementations
// are configured at construction and stateless across runs; Compute must not
// mutate the data source. Structural configuration problems are reported by
// Validate; data-shape problems (absent columns, zero rows) yield a result
// with StatusUnknown instead of an error.
type Metric interface {
	Kind() Kind
	Validate() error
	Compute(ds *source.DataSource, th Thresholds) MetricResult
}

// ConfigurationError reports a structurally invalid metric configuration.
// Grade returns it before any metric runs.
type ConfigurationError struct {
	Metric string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Metric == "" {
		return e.Reason
	}
	return fmt.Sprintf("metric %q: %s", e.Metric, e.Reason)
}

func errConfigf(metric, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Metric: metric, Reason: fmt.Sprintf(format, args...)}
}

// unknownResult builds the non-evaluable outcome shared by all metrics.
func unknownResult(kind Kind, format string, args ...any) MetricResult {
	return MetricResult{
		Kind:    kind,
		Status:  StatusUnknown,
		Message: fmt.Sprintf(format, args...),
	}
}

// missingColumns lists configured columns absent from the data source, in
// sorted order for stable messages.
func missingColumns(ds *source.DataSource, names []string) []string {
	var missing []string
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if !ds.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

func missingColumnsResult(kind Kind, missing []string) MetricResult {
	return unknownResult(kind, "columns not found in data source: %s", strings.Join(missing, ", "))
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// mean averages a non-empty score slice.
func mean(scores []float64) float64 {
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// compareToValue evaluates cell <op> value. Both sides are compared
// numerically when they both parse as numbers, otherwise as strings.
func compareToValue(c source.Cell, op, value string) bool {
	if cf, ok := c.Float(); ok {
		if vf, ok := source.CellFromString(value).Float(); ok {
			return compareFloats(cf, op, vf)
		}
	}
	return compareStrings(c.String(), op, value)
}

func compareFloats(a float64, op string, b float64) bool {
	switch op {
	case "eq":
		return a == b
	case "ne":
		return a != b
	case "gt":
		return a > b
	case "gte":
		return a >= b
	case "lt":
		return a < b
	case "lte":
		return a <= b
	}
	return false
}

func compareStrings(a, op, b string) bool {
	switch op {
	case "eq":
		return a == b
	case "ne":
		return a != b
	case "gt":
		return a > b
	case "gte":
		return a >= b
	case "lt":
		return a < b
	case "lte":
		return a <= b
	}
	return false
}

var comparisonOps = map[string]struct{}{
	"eq": {}, "ne": {}, "gt": {}, "gte": {}, "lt": {}, "lte": {},
}

func validComparison(op string) bool {
	_, ok := comparisonOps[op]
	return ok
}
