package engine

import "time"

// Status is the graded state of a metric or of a whole run.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusUnknown Status = "unknown"
)

// statusSeverity orders evaluated statuses for the worst-metric policy.
// Lower is worse.
func statusSeverity(s Status) int {
	switch s {
	case StatusFailed:
		return 0
	case StatusWarning:
		return 1
	case StatusPassed:
		return 2
	default:
		return 3
	}
}

// Evaluated reports whether the status carries a meaningful score.
func (s Status) Evaluated() bool {
	return s == StatusPassed || s == StatusWarning || s == StatusFailed
}

// Thresholds derive a status from a score: passed at or above Passed,
// warning at or above Warning, failed below.
type Thresholds struct {
	Passed  float64 `json:"passed"`
	Warning float64 `json:"warning"`
}

// DefaultThresholds returns the standard 0.9/0.7 split.
func DefaultThresholds() Thresholds {
	return Thresholds{Passed: 0.9, Warning: 0.7}
}

func (t Thresholds) Validate() error {
	if t.Passed < 0 || t.Passed > 1 {
		return errConfigf("", "passed threshold %v outside [0,1]", t.Passed)
	}
	if t.Warning < 0 || t.Warning > 1 {
		return errConfigf("", "warning threshold %v outside [0,1]", t.Warning)
	}
	if t.Warning > t.Passed {
		return errConfigf("", "warning threshold %v above passed threshold %v", t.Warning, t.Passed)
	}
	return nil
}

// Status maps a score in [0,1] to passed, warning, or failed.
func (t Thresholds) Status(score float64) Status {
	switch {
	case score >= t.Passed:
		return StatusPassed
	case score >= t.Warning:
		return StatusWarning
	default:
		return StatusFailed
	}
}

// ColumnScore is the per-column slice of a metric result.
type ColumnScore struct {
	Score     float64 `json:"score"`
	Status    Status  `json:"status"`
	Evaluated int     `json:"evaluated"`
	Failed    int     `json:"failed"`
}

// MetricResult is the outcome of one metric over one data source. Details
// carries the kind-specific findings; exactly one of its cases is set, keyed
// by Kind.
type MetricResult struct {
	Kind    Kind                   `json:"kind"`
	Score   float64                `json:"score"`
	Status  Status                 `json:"status"`
	Message string                 `json:"message"`
	Columns map[string]ColumnScore `json:"columns,omitempty"`
	Details Details                `json:"details,omitempty"`
}

// Details is the tagged union of metric findings. MetricResult.Kind names
// the populated case; renderers and tests can match exhaustively.
type Details struct {
	Completeness *CompletenessDetails `json:"completeness,omitempty"`
	Accuracy     *AccuracyDetails     `json:"accuracy,omitempty"`
	Consistency  *ConsistencyDetails  `json:"consistency,omitempty"`
	Timeliness   *TimelinessDetails   `json:"timeliness,omitempty"`
	Generic      map[string]string    `json:"generic,omitempty"`
}

// CompletenessDetails reports conditional-check outcomes.
type CompletenessDetails struct {
	Checks []CheckResult `json:"checks,omitempty"`
}

// CheckResult is one evaluated conditional completeness rule.
type CheckResult struct {
	IfColumn   string  `json:"if_column"`
	Comparison string  `json:"comparison"`
	IfValue    string  `json:"if_value"`
	ThenColumn string  `json:"then_column"`
	Matching   int     `json:"matching"`
	Complete   int     `json:"complete"`
	Score      float64 `json:"score"`
}

// AccuracyDetails reports per-column validation outcomes with bounded
// invalid examples.
type AccuracyDetails struct {
	Columns []ColumnAccuracy `json:"columns"`
}

type ColumnAccuracy struct {
	Column   string   `json:"column"`
	Valid    int      `json:"valid"`
	Invalid  int      `json:"invalid"`
	Examples []string `json:"examples,omitempty"`
}

// ConsistencyDetails reports the three consistency sub-checks.
type ConsistencyDetails struct {
	Formats       []FormatFinding       `json:"formats,omitempty"`
	Relationships []RelationshipFinding `json:"relationships,omitempty"`
	Keys          []KeyFinding          `json:"keys,omitempty"`
}

type FormatFinding struct {
	Column   string  `json:"column"`
	Dominant string  `json:"dominant"`
	Coverage float64 `json:"coverage"`
	Variants int     `json:"variants"`
}

type RelationshipFinding struct {
	Left       string  `json:"left"`
	Right      string  `json:"right"`
	Kind       string  `json:"kind"`
	Applicable int     `json:"applicable"`
	Satisfied  int     `json:"satisfied"`
	Score      float64 `json:"score"`
}

type KeyFinding struct {
	Columns             []string `json:"columns"`
	DistinctTuples      int      `json:"distinct_tuples"`
	DuplicatePercentage float64  `json:"duplicate_percentage"`
	Score               float64  `json:"score"`
}

// TimelinessDetails reports per-column gap findings. Durations marshal as
// nanoseconds; renderers format them.
type TimelinessDetails struct {
	Columns []TimelinessFinding `json:"columns"`
}

type TimelinessFinding struct {
	Column      string            `json:"column"`
	Parsed      int               `json:"parsed"`
	MeanGap     time.Duration     `json:"mean_gap"`
	MaxGap      time.Duration     `json:"max_gap"`
	ExpectedGap time.Duration     `json:"expected_gap"`
	GapExceeded bool              `json:"gap_exceeded"`
	Score       float64           `json:"score"`
	Staleness   *StalenessFinding `json:"staleness,omitempty"`
}

type StalenessFinding struct {
	Latest time.Time     `json:"latest"`
	Age    time.Duration `json:"age"`
	MaxAge time.Duration `json:"max_age"`
	Stale  bool          `json:"stale"`
}
