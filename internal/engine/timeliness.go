package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/peekknuf/sage/internal/source"
)

// TimelinessConfig controls gap analysis. With no datetime columns listed,
// columns typed datetime are analyzed. ExpectedFrequency defaults to 24h,
// MaxGapMultiplier to 3. MaxAge of zero disables the staleness check. Now is
// an injectable clock for the staleness check.
type TimelinessConfig struct {
	DatetimeColumns   []string
	ExpectedFrequency time.Duration
	MaxGapMultiplier  float64
	MaxAge            time.Duration
	Now               func() time.Time
}

const (
	defaultExpectedFrequency = 24 * time.Hour
	defaultMaxGapMultiplier  = 3.0
)

// TimelinessMetric scores record cadence against an expected frequency and
// optionally the age of the newest record.
type TimelinessMetric struct {
	cfg TimelinessConfig
}

func NewTimelinessMetric(cfg TimelinessConfig) *TimelinessMetric {
	if cfg.ExpectedFrequency == 0 {
		cfg.ExpectedFrequency = defaultExpectedFrequency
	}
	if cfg.MaxGapMultiplier == 0 {
		cfg.MaxGapMultiplier = defaultMaxGapMultiplier
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TimelinessMetric{cfg: cfg}
}

func (m *TimelinessMetric) Kind() Kind {
	return KindTimeliness
}

func (m *TimelinessMetric) Validate() error {
	if m.cfg.ExpectedFrequency < 0 {
		return errConfigf("", "expected_frequency cannot be negative")
	}
	if m.cfg.MaxGapMultiplier < 1 {
		return errConfigf("", "max_gap_multiplier must be at least 1, got %v", m.cfg.MaxGapMultiplier)
	}
	if m.cfg.MaxAge < 0 {
		return errConfigf("", "max_age cannot be negative")
	}
	for i, column := range m.cfg.DatetimeColumns {
		if column == "" {
			return errConfigf("", "datetime column %d is empty", i+1)
		}
	}
	return nil
}

func (m *TimelinessMetric) Compute(ds *source.DataSource, th Thresholds) MetricResult {
	if ds.RowCount() == 0 {
		return unknownResult(KindTimeliness, "data source has no rows")
	}

	targets := m.cfg.DatetimeColumns
	if len(targets) == 0 {
		for _, name := range ds.ColumnNames() {
			if ds.TypeOf(name) == source.TypeDatetime {
				targets = append(targets, name)
			}
		}
		if len(targets) == 0 {
			return unknownResult(KindTimeliness, "no datetime columns found in data source")
		}
	} else if missing := missingColumns(ds, targets); len(missing) > 0 {
		return missingColumnsResult(KindTimeliness, missing)
	}

	expected := m.cfg.ExpectedFrequency
	now := m.cfg.Now()
	columns := make(map[string]ColumnScore, len(targets))
	findings := make([]TimelinessFinding, 0, len(targets))
	var scores []float64
	var sparse []string

	for _, column := range targets {
		cells, _ := ds.Column(column)
		times := make([]time.Time, 0, len(cells))
		unparseable := 0
		for _, c := range cells {
			if c.Missing {
				continue
			}
			if t, ok := c.Time(); ok {
				times = append(times, t)
			} else {
				unparseable++
			}
		}

		finding := TimelinessFinding{Column: column, Parsed: len(times), ExpectedGap: expected}
		if len(times) < 2 {
			sparse = append(sparse, column)
			findings = append(findings, finding)
			continue
		}

		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

		var total, maxGap time.Duration
		for i := 1; i < len(times); i++ {
			gap := times[i].Sub(times[i-1])
			total += gap
			if gap > maxGap {
				maxGap = gap
			}
		}
		meanGap := total / time.Duration(len(times)-1)
		finding.MeanGap = meanGap
		finding.MaxGap = maxGap

		score := 1.0
		if meanGap > expected {
			score = clamp01(1 - (float64(meanGap)/float64(expected) - 1))
		}

		gapLimit := time.Duration(m.cfg.MaxGapMultiplier * float64(expected))
		if maxGap > gapLimit {
			finding.GapExceeded = true
			score = clamp01(score * float64(gapLimit) / float64(maxGap))
		}

		if m.cfg.MaxAge > 0 {
			latest := times[len(times)-1]
			age := now.Sub(latest)
			staleness := &StalenessFinding{Latest: latest, Age: age, MaxAge: m.cfg.MaxAge}
			staleScore := 1.0
			if age > m.cfg.MaxAge {
				staleness.Stale = true
				staleScore = clamp01(1 - (float64(age)/float64(m.cfg.MaxAge) - 1))
			}
			finding.Staleness = staleness
			score = (score + staleScore) / 2
		}

		finding.Score = score
		findings = append(findings, finding)
		scores = append(scores, score)
		columns[column] = ColumnScore{
			Score:     score,
			Status:    th.Status(score),
			Evaluated: len(times),
			Failed:    unparseable,
		}
	}

	if len(scores) == 0 {
		return unknownResult(KindTimeliness, "not enough timestamps to measure cadence in: %s", strings.Join(sparse, ", "))
	}

	overall := mean(scores)
	message := fmt.Sprintf("timeliness %.1f%% across %d datetime columns", overall*100, len(scores))
	if len(sparse) > 0 {
		message = fmt.Sprintf("%s; too few timestamps in %s", message, strings.Join(sparse, ", "))
	}

	return MetricResult{
		Kind:    KindTimeliness,
		Score:   overall,
		Status:  th.Status(overall),
		Message: message,
		Columns: columns,
		Details: Details{Timeliness: &TimelinessDetails{Columns: findings}},
	}
}
