package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekknuf/sage/internal/source"
)

// stubMetric returns a canned result and records whether Compute ran.
type stubMetric struct {
	kind        Kind
	validateErr error
	result      MetricResult
	computes    int
}

func (s *stubMetric) Kind() Kind      { return s.kind }
func (s *stubMetric) Validate() error { return s.validateErr }
func (s *stubMetric) Compute(*source.DataSource, Thresholds) MetricResult {
	s.computes++
	return s.result
}

func stubResult(kind Kind, score float64, status Status) MetricResult {
	return MetricResult{Kind: kind, Score: score, Status: status}
}

func emailScenarioSource(t *testing.T) *source.DataSource {
	rows := make([][]string, 0, 10)
	for i := 0; i < 8; i++ {
		rows = append(rows, []string{"user@example.com"})
	}
	rows = append(rows, []string{""}, []string{""})
	return recordsSource(t, []string{"email"}, rows...)
}

func TestNewGraderDefaults(t *testing.T) {
	g, err := NewGrader(GraderConfig{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(g.Name(), "grader_"))
	assert.Len(t, g.Name(), len("grader_")+8)

	named, err := NewGrader(GraderConfig{Name: "orders"})
	require.NoError(t, err)
	assert.Equal(t, "orders", named.Name())
}

func TestNewGraderRejectsBadConfig(t *testing.T) {
	_, err := NewGrader(GraderConfig{StatusPolicy: "strict"})
	assert.Error(t, err)

	_, err = NewGrader(GraderConfig{PassedThreshold: 0.5, WarningThreshold: 0.7})
	assert.Error(t, err)

	_, err = NewGrader(GraderConfig{PassedThreshold: 1.5, WarningThreshold: 0.7})
	assert.Error(t, err)
}

func TestAddMetricErrors(t *testing.T) {
	g, err := NewGrader(GraderConfig{})
	require.NoError(t, err)

	m := NewCompletenessMetric(CompletenessConfig{})
	assert.Error(t, g.AddMetric("", m, 1))
	assert.Error(t, g.AddMetric("c", nil, 1))
	assert.Error(t, g.AddMetric("c", m, 0))
	assert.Error(t, g.AddMetric("c", m, -2))

	require.NoError(t, g.AddMetric("c", m, 1))
	assert.Error(t, g.AddMetric("c", m, 1), "duplicate names are rejected")
}

func TestGradeRequiresLoadedSource(t *testing.T) {
	g, err := NewGrader(GraderConfig{})
	require.NoError(t, err)

	_, err = g.Grade()
	require.Error(t, err)
	var loadErr *source.DataLoadError
	assert.ErrorAs(t, err, &loadErr)

	assert.Error(t, g.Load(nil))
}

func TestGradeRejectsEmptySource(t *testing.T) {
	g, err := NewGrader(GraderConfig{})
	require.NoError(t, err)

	ds, err := source.New("empty", nil, map[string][]source.Cell{}, nil)
	require.NoError(t, err)
	require.NoError(t, g.Load(ds))

	_, err = g.Grade()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")
}

func TestGradeEmailScenario(t *testing.T) {
	g, err := NewGrader(GraderConfig{Name: "signup"})
	require.NoError(t, err)
	require.NoError(t, g.AddMetric("completeness",
		NewCompletenessMetric(CompletenessConfig{RequiredColumns: []string{"email"}}), 1))

	ds := emailScenarioSource(t)
	require.NoError(t, g.Load(ds))

	result, err := g.Grade()
	require.NoError(t, err)

	assert.InDelta(t, 0.8, result.OverallScore, 1e-9)
	assert.Equal(t, StatusWarning, result.OverallStatus)
	assert.Equal(t, []string{"completeness"}, result.MetricOrder)
	assert.Equal(t, "signup", result.Metadata.Grader)
	assert.Equal(t, "test", result.Metadata.Source)
	assert.Equal(t, 10, result.Metadata.RowCount)
	assert.Equal(t, 1, result.Metadata.ColumnCount)
	assert.False(t, result.Metadata.Timestamp.IsZero())

	require.NotEmpty(t, result.Recommendations)
	assert.Equal(t, "Improve Data Completeness", result.Recommendations[0].Title)
	assert.Equal(t, PriorityMedium, result.Recommendations[0].Priority)
}

func TestGradeIsIdempotent(t *testing.T) {
	g, err := NewGrader(GraderConfig{})
	require.NoError(t, err)
	require.NoError(t, g.AddMetric("completeness",
		NewCompletenessMetric(CompletenessConfig{RequiredColumns: []string{"email"}}), 1))
	require.NoError(t, g.Load(emailScenarioSource(t)))

	first, err := g.Grade()
	require.NoError(t, err)
	second, err := g.Grade()
	require.NoError(t, err)

	assert.Equal(t, first.OverallScore, second.OverallScore)
	assert.Equal(t, first.OverallStatus, second.OverallStatus)
	assert.Equal(t, first.Metrics, second.Metrics)
	assert.Equal(t, first.Recommendations, second.Recommendations)
}

func TestGradeOrderIndependentAggregate(t *testing.T) {
	build := func(names []string) *GradeResult {
		g, err := NewGrader(GraderConfig{})
		require.NoError(t, err)
		metrics := map[string]Metric{
			"completeness": NewCompletenessMetric(CompletenessConfig{RequiredColumns: []string{"email"}}),
			"accuracy": NewAccuracyMetric(AccuracyConfig{Validators: map[string]ColumnValidator{
				"email": {Kind: "regex", Pattern: `@`},
			}}),
		}
		for _, name := range names {
			require.NoError(t, g.AddMetric(name, metrics[name], 1))
		}
		require.NoError(t, g.Load(emailScenarioSource(t)))
		result, err := g.Grade()
		require.NoError(t, err)
		return result
	}

	forward := build([]string{"completeness", "accuracy"})
	reversed := build([]string{"accuracy", "completeness"})

	assert.Equal(t, forward.OverallScore, reversed.OverallScore)
	assert.Equal(t, forward.OverallStatus, reversed.OverallStatus)
	assert.NotEqual(t, forward.MetricOrder, reversed.MetricOrder)
}

func TestGradeWeightedMean(t *testing.T) {
	g, err := NewGrader(GraderConfig{})
	require.NoError(t, err)
	require.NoError(t, g.AddMetric("a", &stubMetric{
		kind: KindCompleteness, result: stubResult(KindCompleteness, 1.0, StatusPassed),
	}, 1))
	require.NoError(t, g.AddMetric("b", &stubMetric{
		kind: KindAccuracy, result: stubResult(KindAccuracy, 0.5, StatusFailed),
	}, 3))
	require.NoError(t, g.Load(recordsSource(t, []string{"x"}, []string{"1"})))

	result, err := g.Grade()
	require.NoError(t, err)
	assert.InDelta(t, 0.625, result.OverallScore, 1e-9)
	assert.Equal(t, StatusFailed, result.OverallStatus)
}

func TestGradeExcludesUnknownAndSkipped(t *testing.T) {
	g, err := NewGrader(GraderConfig{})
	require.NoError(t, err)
	require.NoError(t, g.AddMetric("good", &stubMetric{
		kind: KindCompleteness, result: stubResult(KindCompleteness, 0.95, StatusPassed),
	}, 1))
	require.NoError(t, g.AddMetric("unknowable", &stubMetric{
		kind: KindTimeliness, result: stubResult(KindTimeliness, 0, StatusUnknown),
	}, 10))
	require.NoError(t, g.AddMetric("off", &stubMetric{
		kind: KindAccuracy, result: stubResult(KindAccuracy, 0, StatusFailed),
	}, 10))
	require.NoError(t, g.SetMetricEnabled("off", false))
	require.NoError(t, g.Load(recordsSource(t, []string{"x"}, []string{"1"})))

	result, err := g.Grade()
	require.NoError(t, err)

	// Heavy weights on the unknown and disabled metrics must not move the score.
	assert.InDelta(t, 0.95, result.OverallScore, 1e-9)
	assert.Equal(t, StatusPassed, result.OverallStatus)
	assert.Equal(t, StatusUnknown, result.Metrics["unknowable"].Status)
	assert.Equal(t, StatusSkipped, result.Metrics["off"].Status)
	assert.Equal(t, "metric disabled", result.Metrics["off"].Message)
}

func TestGradeAllUnevaluated(t *testing.T) {
	g, err := NewGrader(GraderConfig{})
	require.NoError(t, err)
	require.NoError(t, g.AddMetric("u", &stubMetric{
		kind: KindTimeliness, result: stubResult(KindTimeliness, 0, StatusUnknown),
	}, 1))
	require.NoError(t, g.Load(recordsSource(t, []string{"x"}, []string{"1"})))

	result, err := g.Grade()
	require.NoError(t, err)
	assert.Zero(t, result.OverallScore)
	assert.Equal(t, StatusUnknown, result.OverallStatus)
}

func TestGradeWorstStatusPolicy(t *testing.T) {
	build := func(policy StatusPolicy) *GradeResult {
		g, err := NewGrader(GraderConfig{StatusPolicy: policy})
		require.NoError(t, err)
		require.NoError(t, g.AddMetric("a", &stubMetric{
			kind: KindCompleteness, result: stubResult(KindCompleteness, 0.95, StatusPassed),
		}, 1))
		require.NoError(t, g.AddMetric("b", &stubMetric{
			kind: KindAccuracy, result: stubResult(KindAccuracy, 0.65, StatusFailed),
		}, 1))
		require.NoError(t, g.Load(recordsSource(t, []string{"x"}, []string{"1"})))
		result, err := g.Grade()
		require.NoError(t, err)
		return result
	}

	aggregate := build(PolicyAggregate)
	assert.Equal(t, StatusWarning, aggregate.OverallStatus)

	worst := build(PolicyWorst)
	assert.InDelta(t, 0.8, worst.OverallScore, 1e-9)
	assert.Equal(t, StatusFailed, worst.OverallStatus)
}

func TestSetMetricThresholds(t *testing.T) {
	g, err := NewGrader(GraderConfig{})
	require.NoError(t, err)
	require.NoError(t, g.AddMetric("completeness",
		NewCompletenessMetric(CompletenessConfig{RequiredColumns: []string{"email"}}), 1))

	assert.Error(t, g.SetMetricThresholds("ghost", DefaultThresholds()))
	assert.Error(t, g.SetMetricThresholds("completeness", Thresholds{Passed: 0.5, Warning: 0.9}))
	require.NoError(t, g.SetMetricThresholds("completeness", Thresholds{Passed: 0.75, Warning: 0.5}))

	require.NoError(t, g.Load(emailScenarioSource(t)))
	result, err := g.Grade()
	require.NoError(t, err)

	// The metric passes under its own thresholds while the overall status
	// still uses the grader-level ones.
	assert.Equal(t, StatusPassed, result.Metrics["completeness"].Status)
	assert.Equal(t, StatusWarning, result.OverallStatus)
}

func TestSetMetricEnabledUnknownName(t *testing.T) {
	g, err := NewGrader(GraderConfig{})
	require.NoError(t, err)
	assert.Error(t, g.SetMetricEnabled("ghost", true))
}

func TestGradeValidatesBeforeComputing(t *testing.T) {
	bad := &stubMetric{kind: KindAccuracy, validateErr: errConfigf("", "broken rule")}
	good := &stubMetric{kind: KindCompleteness, result: stubResult(KindCompleteness, 1, StatusPassed)}

	g, err := NewGrader(GraderConfig{})
	require.NoError(t, err)
	require.NoError(t, g.AddMetric("good", good, 1))
	require.NoError(t, g.AddMetric("bad", bad, 1))
	require.NoError(t, g.Load(recordsSource(t, []string{"x"}, []string{"1"})))

	_, err = g.Grade()
	require.Error(t, err)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "bad", cfgErr.Metric)
	assert.Zero(t, good.computes, "no metric runs when any configuration is invalid")
}

func TestGradeSkipsValidationOfDisabledMetrics(t *testing.T) {
	bad := &stubMetric{kind: KindAccuracy, validateErr: errConfigf("", "broken rule")}

	g, err := NewGrader(GraderConfig{})
	require.NoError(t, err)
	require.NoError(t, g.AddMetric("bad", bad, 1))
	require.NoError(t, g.SetMetricEnabled("bad", false))
	require.NoError(t, g.Load(recordsSource(t, []string{"x"}, []string{"1"})))

	result, err := g.Grade()
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, result.Metrics["bad"].Status)
}

func TestGradeIncludeProfile(t *testing.T) {
	ds := recordsSource(t, []string{"x"}, []string{"1"}, []string{"2"})

	with, err := NewGrader(GraderConfig{IncludeProfile: true})
	require.NoError(t, err)
	require.NoError(t, with.AddMetric("c", NewCompletenessMetric(CompletenessConfig{}), 1))
	require.NoError(t, with.Load(ds))
	result, err := with.Grade()
	require.NoError(t, err)
	require.NotNil(t, result.DataProfile)
	assert.Equal(t, 2, result.DataProfile.RowCount)

	without, err := NewGrader(GraderConfig{})
	require.NoError(t, err)
	require.NoError(t, without.AddMetric("c", NewCompletenessMetric(CompletenessConfig{}), 1))
	require.NoError(t, without.Load(ds))
	result, err = without.Grade()
	require.NoError(t, err)
	assert.Nil(t, result.DataProfile)
}
