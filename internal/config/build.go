package config

import (
	"fmt"
	"time"

	"github.com/peekknuf/sage/internal/engine"
)

// metricBuilders maps each kind to its constructor. The set is closed;
// unknown keys in the metrics section are rejected, not ignored.
var metricBuilders = map[engine.Kind]func(MetricSettings) (engine.Metric, error){
	engine.KindCompleteness: buildCompleteness,
	engine.KindAccuracy:     buildAccuracy,
	engine.KindConsistency:  buildConsistency,
	engine.KindTimeliness:   buildTimeliness,
}

// BuildGrader constructs a grader with one registration per configured
// metric, added in canonical kind order.
func BuildGrader(cfg *Config) (*engine.Grader, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	for name := range cfg.Metrics {
		if _, err := engine.ParseKind(name); err != nil {
			return nil, err
		}
	}

	g, err := engine.NewGrader(engine.GraderConfig{
		PassedThreshold:  cfg.Grading.PassedThreshold,
		WarningThreshold: cfg.Grading.WarningThreshold,
		StatusPolicy:     engine.StatusPolicy(cfg.Grading.StatusPolicy),
		IncludeProfile:   cfg.Grading.IncludeProfile,
	})
	if err != nil {
		return nil, err
	}

	for _, kind := range engine.Kinds() {
		settings, ok := cfg.Metrics[string(kind)]
		if !ok {
			continue
		}
		m, err := metricBuilders[kind](settings)
		if err != nil {
			return nil, err
		}
		enabled := settings.Enabled == nil || *settings.Enabled
		if enabled {
			if err := m.Validate(); err != nil {
				return nil, err
			}
		}

		weight := settings.Weight
		if weight == 0 {
			weight = 1
		}
		name := string(kind)
		if err := g.AddMetric(name, m, weight); err != nil {
			return nil, err
		}
		if settings.Threshold != nil {
			th := engine.Thresholds{Passed: settings.Threshold.Passed, Warning: settings.Threshold.Warning}
			if err := g.SetMetricThresholds(name, th); err != nil {
				return nil, fmt.Errorf("metric %q: %w", name, err)
			}
		}
		if !enabled {
			if err := g.SetMetricEnabled(name, false); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func buildCompleteness(s MetricSettings) (engine.Metric, error) {
	checks := make([]engine.ConditionalCheck, 0, len(s.ConditionalChecks))
	for _, c := range s.ConditionalChecks {
		checks = append(checks, engine.ConditionalCheck{
			IfColumn:   c.IfColumn,
			Comparison: c.Comparison,
			IfValue:    c.IfValue,
			ThenColumn: c.ThenColumn,
		})
	}
	return engine.NewCompletenessMetric(engine.CompletenessConfig{
		RequiredColumns:   s.RequiredColumns,
		ConditionalChecks: checks,
	}), nil
}

func buildAccuracy(s MetricSettings) (engine.Metric, error) {
	validators := make(map[string]engine.ColumnValidator, len(s.Validators))
	for col, rule := range s.Validators {
		validators[col] = engine.ColumnValidator{
			Kind:    rule.Kind,
			Pattern: rule.Pattern,
			Min:     rule.Min,
			Max:     rule.Max,
			Allowed: rule.Allowed,
			Type:    rule.Type,
		}
	}
	return engine.NewAccuracyMetric(engine.AccuracyConfig{
		Validators:  validators,
		MaxExamples: s.MaxExamples,
	}), nil
}

func buildConsistency(s MetricSettings) (engine.Metric, error) {
	rels := make([]engine.Relationship, 0, len(s.Relationships))
	for _, r := range s.Relationships {
		rels = append(rels, engine.Relationship{Left: r.Left, Right: r.Right, Kind: r.Kind})
	}
	return engine.NewConsistencyMetric(engine.ConsistencyConfig{
		FormatColumns: s.FormatColumns,
		Relationships: rels,
		CompositeKeys: s.CompositeKeys,
	}), nil
}

func buildTimeliness(s MetricSettings) (engine.Metric, error) {
	var freq, maxAge time.Duration
	var err error
	if s.ExpectedFrequency != "" {
		freq, err = time.ParseDuration(s.ExpectedFrequency)
		if err != nil {
			return nil, &engine.ConfigurationError{
				Metric: string(engine.KindTimeliness),
				Reason: fmt.Sprintf("invalid expected_frequency %q: %v", s.ExpectedFrequency, err),
			}
		}
	}
	if s.MaxAge != "" {
		maxAge, err = time.ParseDuration(s.MaxAge)
		if err != nil {
			return nil, &engine.ConfigurationError{
				Metric: string(engine.KindTimeliness),
				Reason: fmt.Sprintf("invalid max_age %q: %v", s.MaxAge, err),
			}
		}
	}
	return engine.NewTimelinessMetric(engine.TimelinessConfig{
		DatetimeColumns:   s.DatetimeColumns,
		ExpectedFrequency: freq,
		MaxGapMultiplier:  s.MaxGapMultiplier,
		MaxAge:            maxAge,
	}), nil
}
