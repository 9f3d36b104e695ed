package engine

import (
	"fmt"
	"sort"
)

// Priority ranks recommendations.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Recommendation is a rule-derived remediation suggestion.
type Recommendation struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Priority        Priority `json:"priority"`
	Steps           []string `json:"steps"`
	AffectedColumns []string `json:"affected_columns,omitempty"`
	Impact          string   `json:"impact,omitempty"`
	Effort          string   `json:"effort,omitempty"`
}

// recommendationRule matches one detail signature of one metric kind and
// builds the corresponding recommendation.
type recommendationRule struct {
	kind    Kind
	matches func(MetricResult) bool
	build   func(name string, r MetricResult) Recommendation
}

// RecommendationEngine derives recommendations from warning and failed
// metric results through a fixed rule table.
type RecommendationEngine struct {
	rules []recommendationRule
}

func NewRecommendationEngine() *RecommendationEngine {
	return &RecommendationEngine{rules: builtinRules()}
}

// statusPriority maps the triggering status to the default priority.
func statusPriority(s Status) Priority {
	if s == StatusFailed {
		return PriorityHigh
	}
	return PriorityMedium
}

// Derive walks results in presentation order, applies every matching rule,
// de-duplicates by title (first discovery wins, affected columns merged),
// and orders high to low, stable within a tier.
func (e *RecommendationEngine) Derive(result *GradeResult) []Recommendation {
	var found []Recommendation
	byTitle := make(map[string]int)

	add := func(rec Recommendation) {
		if i, ok := byTitle[rec.Title]; ok {
			found[i].AffectedColumns = mergeColumns(found[i].AffectedColumns, rec.AffectedColumns)
			return
		}
		byTitle[rec.Title] = len(found)
		found = append(found, rec)
	}

	for _, name := range result.MetricOrder {
		r, ok := result.Metrics[name]
		if !ok || (r.Status != StatusWarning && r.Status != StatusFailed) {
			continue
		}

		matched := false
		for _, rule := range e.rules {
			if rule.kind != r.Kind || !rule.matches(r) {
				continue
			}
			matched = true
			add(rule.build(name, r))
		}
		if !matched {
			add(fallbackRecommendation(name, r))
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return priorityRank(found[i].Priority) < priorityRank(found[j].Priority)
	})
	return found
}

func mergeColumns(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, col := range append(append([]string{}, a...), b...) {
		if _, dup := seen[col]; dup {
			continue
		}
		seen[col] = struct{}{}
		merged = append(merged, col)
	}
	sort.Strings(merged)
	return merged
}

// columnsBelow lists breakdown columns that did not pass, sorted.
func columnsBelow(r MetricResult) []string {
	var cols []string
	for name, cs := range r.Columns {
		if cs.Status != StatusPassed {
			cols = append(cols, name)
		}
	}
	sort.Strings(cols)
	return cols
}

func builtinRules() []recommendationRule {
	return []recommendationRule{
		{
			kind:    KindCompleteness,
			matches: func(MetricResult) bool { return true },
			build: func(name string, r MetricResult) Recommendation {
				return Recommendation{
					Title:       "Improve Data Completeness",
					Description: fmt.Sprintf("Metric %q found missing values: %s.", name, r.Message),
					Priority:    statusPriority(r.Status),
					Steps: []string{
						"Identify source systems leaving mandatory fields blank",
						"Add not-null validation at the point of data entry",
						"Define default or backfill policies for historical gaps",
					},
					AffectedColumns: columnsBelow(r),
					Impact:          "Raises trust in every downstream aggregate",
					Effort:          "medium",
				}
			},
		},
		{
			kind: KindCompleteness,
			matches: func(r MetricResult) bool {
				if r.Details.Completeness == nil {
					return false
				}
				for _, check := range r.Details.Completeness.Checks {
					if check.Score < 1 {
						return true
					}
				}
				return false
			},
			build: func(name string, r MetricResult) Recommendation {
				var cols []string
				for _, check := range r.Details.Completeness.Checks {
					if check.Score < 1 {
						cols = append(cols, check.ThenColumn)
					}
				}
				return Recommendation{
					Title:       "Enforce Conditional Field Rules",
					Description: fmt.Sprintf("Metric %q found rows violating conditional completeness rules.", name),
					Priority:    statusPriority(r.Status),
					Steps: []string{
						"Review the business rules tying dependent fields together",
						"Reject or quarantine records that breach a conditional rule",
						"Alert owning teams when violation rates trend upward",
					},
					AffectedColumns: mergeColumns(nil, cols),
					Effort:          "medium",
				}
			},
		},
		{
			kind:    KindAccuracy,
			matches: func(MetricResult) bool { return true },
			build: func(name string, r MetricResult) Recommendation {
				var cols []string
				if r.Details.Accuracy != nil {
					for _, col := range r.Details.Accuracy.Columns {
						if col.Invalid > 0 {
							cols = append(cols, col.Column)
						}
					}
				}
				return Recommendation{
					Title:       "Fix Data Accuracy Issues",
					Description: fmt.Sprintf("Metric %q found values failing validation: %s.", name, r.Message),
					Priority:    statusPriority(r.Status),
					Steps: []string{
						"Apply the failing validators at the point of data capture",
						"Cleanse existing invalid values using the collected examples",
						"Normalize formats before loading into shared storage",
					},
					AffectedColumns: mergeColumns(nil, cols),
					Impact:          "Prevents invalid values from reaching reports",
					Effort:          "high",
				}
			},
		},
		{
			kind: KindConsistency,
			matches: func(r MetricResult) bool {
				if r.Details.Consistency == nil {
					return false
				}
				for _, rel := range r.Details.Consistency.Relationships {
					if rel.Score < 1 {
						return true
					}
				}
				return false
			},
			build: func(name string, r MetricResult) Recommendation {
				var cols []string
				for _, rel := range r.Details.Consistency.Relationships {
					if rel.Score < 1 {
						cols = append(cols, rel.Left, rel.Right)
					}
				}
				return Recommendation{
					Title:       "Enforce Data Relationships",
					Description: fmt.Sprintf("Metric %q found rows violating declared column relationships.", name),
					Priority:    statusPriority(r.Status),
					Steps: []string{
						"Add cross-field checks mirroring the declared relationships",
						"Trace violating rows back to their producing system",
						"Document the relationship contract for data producers",
					},
					AffectedColumns: mergeColumns(nil, cols),
					Effort:          "medium",
				}
			},
		},
		{
			kind: KindConsistency,
			matches: func(r MetricResult) bool {
				if r.Details.Consistency == nil {
					return false
				}
				for _, key := range r.Details.Consistency.Keys {
					if key.DuplicatePercentage > 0 {
						return true
					}
				}
				return false
			},
			build: func(name string, r MetricResult) Recommendation {
				worst := 0.0
				var cols []string
				for _, key := range r.Details.Consistency.Keys {
					if key.DuplicatePercentage > worst {
						worst = key.DuplicatePercentage
					}
					if key.DuplicatePercentage > 0 {
						cols = append(cols, key.Columns...)
					}
				}
				priority := PriorityLow
				if worst > 0.05 {
					priority = PriorityHigh
				} else if worst > 0.01 {
					priority = PriorityMedium
				}
				return Recommendation{
					Title:       "Remove Duplicate Records",
					Description: fmt.Sprintf("Metric %q found %.1f%% duplicate rows on a declared key.", name, worst*100),
					Priority:    priority,
					Steps: []string{
						"Deduplicate existing rows on the declared key columns",
						"Add a uniqueness constraint or merge step in the pipeline",
						"Investigate why producers emit the same record twice",
					},
					AffectedColumns: mergeColumns(nil, cols),
					Impact:          "Stops double counting in downstream metrics",
					Effort:          "medium",
				}
			},
		},
		{
			kind: KindConsistency,
			matches: func(r MetricResult) bool {
				if r.Details.Consistency == nil {
					return false
				}
				for _, f := range r.Details.Consistency.Formats {
					if f.Coverage < 1 {
						return true
					}
				}
				return false
			},
			build: func(name string, r MetricResult) Recommendation {
				var cols []string
				for _, f := range r.Details.Consistency.Formats {
					if f.Coverage < 1 {
						cols = append(cols, f.Column)
					}
				}
				return Recommendation{
					Title:       "Standardize Value Formats",
					Description: fmt.Sprintf("Metric %q found columns mixing value formats.", name),
					Priority:    statusPriority(r.Status),
					Steps: []string{
						"Pick one canonical format per column and document it",
						"Convert existing values to the canonical format",
						"Validate the format on ingest to stop regressions",
					},
					AffectedColumns: mergeColumns(nil, cols),
					Effort:          "low",
				}
			},
		},
		{
			kind:    KindTimeliness,
			matches: func(MetricResult) bool { return true },
			build: func(name string, r MetricResult) Recommendation {
				var cols []string
				if r.Details.Timeliness != nil {
					for _, f := range r.Details.Timeliness.Columns {
						if f.GapExceeded || (f.Staleness != nil && f.Staleness.Stale) || f.Score < 1 {
							cols = append(cols, f.Column)
						}
					}
				}
				return Recommendation{
					Title:       "Investigate Data Gaps",
					Description: fmt.Sprintf("Metric %q found records arriving slower than expected: %s.", name, r.Message),
					Priority:    statusPriority(r.Status),
					Steps: []string{
						"Check the producing job's schedule against the expected frequency",
						"Backfill the periods covered by the largest gaps",
						"Add freshness monitoring with alerts on missed intervals",
					},
					AffectedColumns: mergeColumns(nil, cols),
					Impact:          "Keeps time-sensitive decisions on fresh data",
					Effort:          "medium",
				}
			},
		},
	}
}

func fallbackRecommendation(name string, r MetricResult) Recommendation {
	return Recommendation{
		Title:       "Review Data Quality Issues",
		Description: fmt.Sprintf("Metric %q reported %s: %s.", name, r.Status, r.Message),
		Priority:    statusPriority(r.Status),
		Steps: []string{
			"Inspect the metric's detail payload for affected columns",
			"Confirm the metric configuration matches the data contract",
			"Schedule a follow-up assessment after fixes land",
		},
	}
}
