package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletenessFullColumn(t *testing.T) {
	ds := recordsSource(t, []string{"id"},
		[]string{"1"}, []string{"2"}, []string{"3"})

	m := NewCompletenessMetric(CompletenessConfig{RequiredColumns: []string{"id"}})
	require.NoError(t, m.Validate())

	r := m.Compute(ds, DefaultThresholds())
	assert.Equal(t, KindCompleteness, r.Kind)
	assert.Equal(t, 1.0, r.Score)
	assert.Equal(t, StatusPassed, r.Status)
	assert.Equal(t, ColumnScore{Score: 1, Status: StatusPassed, Evaluated: 3, Failed: 0}, r.Columns["id"])
}

func TestCompletenessAllMissing(t *testing.T) {
	ds := recordsSource(t, []string{"notes"},
		[]string{""}, []string{""}, []string{""}, []string{""})

	m := NewCompletenessMetric(CompletenessConfig{})
	r := m.Compute(ds, DefaultThresholds())

	assert.Equal(t, 0.0, r.Score)
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, 4, r.Columns["notes"].Failed)
}

func TestCompletenessRequiredColumnWithGaps(t *testing.T) {
	rows := [][]string{
		{"1", "a@x.com"}, {"2", "b@x.com"}, {"3", ""}, {"4", "d@x.com"},
		{"5", "e@x.com"}, {"6", ""}, {"7", "g@x.com"}, {"8", "h@x.com"},
		{"9", "i@x.com"}, {"10", "j@x.com"},
	}
	ds := recordsSource(t, []string{"id", "email"}, rows...)

	m := NewCompletenessMetric(CompletenessConfig{RequiredColumns: []string{"email"}})
	r := m.Compute(ds, DefaultThresholds())

	// 8 of 10 populated with the 0.9/0.7 thresholds lands in warning.
	assert.InDelta(t, 0.8, r.Score, 1e-9)
	assert.Equal(t, StatusWarning, r.Status)
	assert.Equal(t, 10, r.Columns["email"].Evaluated)
	assert.Equal(t, 2, r.Columns["email"].Failed)
	assert.NotContains(t, r.Columns, "id", "unscored columns stay out of the breakdown")
}

func TestCompletenessScoresAllColumnsByDefault(t *testing.T) {
	ds := recordsSource(t, []string{"a", "b"},
		[]string{"1", "x"}, []string{"2", ""}, []string{"3", "y"}, []string{"4", ""})

	m := NewCompletenessMetric(CompletenessConfig{})
	r := m.Compute(ds, DefaultThresholds())

	assert.InDelta(t, 0.75, r.Score, 1e-9)
	assert.Len(t, r.Columns, 2)
	assert.InDelta(t, 1.0, r.Columns["a"].Score, 1e-9)
	assert.InDelta(t, 0.5, r.Columns["b"].Score, 1e-9)
}

func TestCompletenessConditionalCheck(t *testing.T) {
	ds := recordsSource(t, []string{"country", "state"},
		[]string{"US", "CA"},
		[]string{"US", ""},
		[]string{"US", "NY"},
		[]string{"US", "TX"},
		[]string{"DE", ""},
		[]string{"FR", ""})

	m := NewCompletenessMetric(CompletenessConfig{
		RequiredColumns: []string{"country"},
		ConditionalChecks: []ConditionalCheck{
			{IfColumn: "country", Comparison: "eq", IfValue: "US", ThenColumn: "state"},
		},
	})
	require.NoError(t, m.Validate())

	r := m.Compute(ds, DefaultThresholds())
	require.NotNil(t, r.Details.Completeness)
	require.Len(t, r.Details.Completeness.Checks, 1)

	check := r.Details.Completeness.Checks[0]
	assert.Equal(t, 4, check.Matching)
	assert.Equal(t, 3, check.Complete)
	assert.InDelta(t, 0.75, check.Score, 1e-9)

	// Column score 1.0 and check score 0.75 average to 0.875.
	assert.InDelta(t, 0.875, r.Score, 1e-9)
	assert.Equal(t, StatusWarning, r.Status)
}

func TestCompletenessConditionalCheckVacuous(t *testing.T) {
	ds := recordsSource(t, []string{"country", "state"},
		[]string{"DE", ""}, []string{"FR", ""})

	m := NewCompletenessMetric(CompletenessConfig{
		RequiredColumns: []string{"country"},
		ConditionalChecks: []ConditionalCheck{
			{IfColumn: "country", Comparison: "eq", IfValue: "US", ThenColumn: "state"},
		},
	})

	r := m.Compute(ds, DefaultThresholds())
	check := r.Details.Completeness.Checks[0]
	assert.Equal(t, 0, check.Matching)
	assert.Equal(t, 1.0, check.Score, "no matching rows satisfies the rule")
	assert.Equal(t, 1.0, r.Score)
	assert.Equal(t, StatusPassed, r.Status)
}

func TestCompletenessConditionalCheckNumeric(t *testing.T) {
	ds := recordsSource(t, []string{"amount", "approver"},
		[]string{"150", ""},
		[]string{"50", ""},
		[]string{"", ""},
		[]string{"900", "lee"})

	m := NewCompletenessMetric(CompletenessConfig{
		RequiredColumns: []string{"amount"},
		ConditionalChecks: []ConditionalCheck{
			{IfColumn: "amount", Comparison: "gt", IfValue: "100", ThenColumn: "approver"},
		},
	})

	r := m.Compute(ds, DefaultThresholds())
	check := r.Details.Completeness.Checks[0]
	assert.Equal(t, 2, check.Matching, "missing condition cells do not match")
	assert.Equal(t, 1, check.Complete)
	assert.InDelta(t, 0.5, check.Score, 1e-9)
}

func TestCompletenessUnknownOutcomes(t *testing.T) {
	ds := recordsSource(t, []string{"id"}, []string{"1"})

	t.Run("missing required column", func(t *testing.T) {
		m := NewCompletenessMetric(CompletenessConfig{RequiredColumns: []string{"email"}})
		r := m.Compute(ds, DefaultThresholds())
		assert.Equal(t, StatusUnknown, r.Status)
		assert.Zero(t, r.Score)
		assert.Contains(t, r.Message, "email")
	})

	t.Run("missing conditional column", func(t *testing.T) {
		m := NewCompletenessMetric(CompletenessConfig{
			ConditionalChecks: []ConditionalCheck{
				{IfColumn: "id", Comparison: "eq", IfValue: "1", ThenColumn: "ghost"},
			},
		})
		r := m.Compute(ds, DefaultThresholds())
		assert.Equal(t, StatusUnknown, r.Status)
		assert.Contains(t, r.Message, "ghost")
	})

	t.Run("no rows", func(t *testing.T) {
		empty := recordsSource(t, []string{"id"})
		m := NewCompletenessMetric(CompletenessConfig{})
		r := m.Compute(empty, DefaultThresholds())
		assert.Equal(t, StatusUnknown, r.Status)
		assert.Contains(t, r.Message, "no rows")
	})
}

func TestCompletenessValidate(t *testing.T) {
	tests := []struct {
		name  string
		check ConditionalCheck
	}{
		{"empty if_column", ConditionalCheck{Comparison: "eq", IfValue: "x", ThenColumn: "b"}},
		{"empty then_column", ConditionalCheck{IfColumn: "a", Comparison: "eq", IfValue: "x"}},
		{"unknown comparison", ConditionalCheck{IfColumn: "a", Comparison: "between", IfValue: "x", ThenColumn: "b"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewCompletenessMetric(CompletenessConfig{ConditionalChecks: []ConditionalCheck{tc.check}})
			err := m.Validate()
			require.Error(t, err)
			var cfgErr *ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}

	valid := NewCompletenessMetric(CompletenessConfig{
		ConditionalChecks: []ConditionalCheck{{IfColumn: "a", Comparison: "ne", IfValue: "x", ThenColumn: "b"}},
	})
	assert.NoError(t, valid.Validate())
}
