package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/peekknuf/sage/internal/profiler"
	"github.com/peekknuf/sage/internal/source"
)

// StatusPolicy selects how the overall status is derived.
type StatusPolicy string

const (
	// PolicyAggregate applies the thresholds to the aggregate score.
	PolicyAggregate StatusPolicy = "aggregate"
	// PolicyWorst takes the worst evaluated metric status.
	PolicyWorst StatusPolicy = "worst"
)

// GraderConfig configures a grading run. Zero values fall back to the
// defaults: thresholds 0.9/0.7, aggregate status policy, generated name.
type GraderConfig struct {
	Name             string
	PassedThreshold  float64
	WarningThreshold float64
	StatusPolicy     StatusPolicy
	IncludeProfile   bool
}

// DefaultGraderConfig returns the standard configuration.
func DefaultGraderConfig() GraderConfig {
	return GraderConfig{
		PassedThreshold:  0.9,
		WarningThreshold: 0.7,
		StatusPolicy:     PolicyAggregate,
	}
}

// Metadata describes one grading run.
type Metadata struct {
	Grader      string    `json:"grader"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
	RowCount    int       `json:"row_count"`
	ColumnCount int       `json:"column_count"`
	ElapsedMS   int64     `json:"elapsed_ms"`
}

// GradeResult is the aggregated output of one grading run.
type GradeResult struct {
	OverallScore    float64                  `json:"overall_score"`
	OverallStatus   Status                   `json:"overall_status"`
	MetricOrder     []string                 `json:"metric_order"`
	Metrics         map[string]MetricResult  `json:"metrics"`
	DataProfile     *profiler.DatasetProfile `json:"data_profile,omitempty"`
	Recommendations []Recommendation         `json:"recommendations"`
	Metadata        Metadata                 `json:"metadata"`
}

type registration struct {
	name       string
	metric     Metric
	weight     float64
	thresholds Thresholds
	enabled    bool
}

// Grader runs a named, ordered set of metrics over one data source and
// aggregates the results. A Grader is not safe for concurrent Grade calls
// on itself; separate Graders may share one data source.
type Grader struct {
	config        GraderConfig
	thresholds    Thresholds
	registrations []registration
	index         map[string]int
	recommender   *RecommendationEngine
	ds            *source.DataSource
}

// NewGrader validates the configuration and builds an empty grader. An
// unnamed grader gets a generated grader_XXXXXXXX name.
func NewGrader(cfg GraderConfig) (*Grader, error) {
	def := DefaultGraderConfig()
	if cfg.PassedThreshold == 0 && cfg.WarningThreshold == 0 {
		cfg.PassedThreshold = def.PassedThreshold
		cfg.WarningThreshold = def.WarningThreshold
	}
	if cfg.StatusPolicy == "" {
		cfg.StatusPolicy = def.StatusPolicy
	}
	if cfg.StatusPolicy != PolicyAggregate && cfg.StatusPolicy != PolicyWorst {
		return nil, errConfigf("", "unknown status policy %q", cfg.StatusPolicy)
	}
	th := Thresholds{Passed: cfg.PassedThreshold, Warning: cfg.WarningThreshold}
	if err := th.Validate(); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		id := uuid.New()
		cfg.Name = fmt.Sprintf("grader_%x", id[:4])
	}

	return &Grader{
		config:      cfg,
		thresholds:  th,
		index:       make(map[string]int),
		recommender: NewRecommendationEngine(),
	}, nil
}

// Name returns the grader's display name.
func (g *Grader) Name() string {
	return g.config.Name
}

// AddMetric registers a metric under a unique name with a positive weight.
func (g *Grader) AddMetric(name string, m Metric, weight float64) error {
	if name == "" {
		return fmt.Errorf("metric name cannot be empty")
	}
	if m == nil {
		return fmt.Errorf("metric %q is nil", name)
	}
	if weight <= 0 {
		return fmt.Errorf("metric %q: weight must be positive, got %v", name, weight)
	}
	if _, exists := g.index[name]; exists {
		return fmt.Errorf("metric %q already registered", name)
	}
	g.index[name] = len(g.registrations)
	g.registrations = append(g.registrations, registration{
		name:       name,
		metric:     m,
		weight:     weight,
		thresholds: g.thresholds,
		enabled:    true,
	})
	return nil
}

// SetMetricThresholds overrides the grader-level thresholds for one metric.
func (g *Grader) SetMetricThresholds(name string, th Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	i, ok := g.index[name]
	if !ok {
		return fmt.Errorf("metric %q not registered", name)
	}
	g.registrations[i].thresholds = th
	return nil
}

// SetMetricEnabled disables or re-enables a registration. Disabled metrics
// are not computed and appear as skipped in the result.
func (g *Grader) SetMetricEnabled(name string, enabled bool) error {
	i, ok := g.index[name]
	if !ok {
		return fmt.Errorf("metric %q not registered", name)
	}
	g.registrations[i].enabled = enabled
	return nil
}

// Load attaches the data source to grade.
func (g *Grader) Load(ds *source.DataSource) error {
	if ds == nil {
		return &source.DataLoadError{Source: g.config.Name, Reason: "nil data source"}
	}
	g.ds = ds
	return nil
}

// Grade validates every enabled metric's configuration, computes each in
// registration order, and aggregates. Configuration errors surface before
// any metric runs, so a partial result is never returned.
func (g *Grader) Grade() (*GradeResult, error) {
	if g.ds == nil {
		return nil, &source.DataLoadError{Source: g.config.Name, Reason: "no data source loaded"}
	}
	if g.ds.ColumnCount() == 0 {
		return nil, &source.DataLoadError{Source: g.ds.Name(), Reason: "data source has no columns"}
	}

	for _, reg := range g.registrations {
		if !reg.enabled {
			continue
		}
		if err := reg.metric.Validate(); err != nil {
			if cfgErr, ok := err.(*ConfigurationError); ok {
				return nil, &ConfigurationError{Metric: reg.name, Reason: cfgErr.Reason}
			}
			return nil, &ConfigurationError{Metric: reg.name, Reason: err.Error()}
		}
	}

	start := time.Now()
	order := make([]string, 0, len(g.registrations))
	results := make(map[string]MetricResult, len(g.registrations))
	for _, reg := range g.registrations {
		order = append(order, reg.name)
		if !reg.enabled {
			results[reg.name] = MetricResult{
				Kind:    reg.metric.Kind(),
				Status:  StatusSkipped,
				Message: "metric disabled",
			}
			continue
		}
		results[reg.name] = reg.metric.Compute(g.ds, reg.thresholds)
	}

	overallScore, overallStatus := g.aggregate(results)

	result := &GradeResult{
		OverallScore:  overallScore,
		OverallStatus: overallStatus,
		MetricOrder:   order,
		Metrics:       results,
		Metadata: Metadata{
			Grader:      g.config.Name,
			Source:      g.ds.Name(),
			Timestamp:   time.Now().UTC(),
			RowCount:    g.ds.RowCount(),
			ColumnCount: g.ds.ColumnCount(),
			ElapsedMS:   time.Since(start).Milliseconds(),
		},
	}

	if g.config.IncludeProfile {
		result.DataProfile = profiler.Profile(g.ds)
	}

	result.Recommendations = g.recommender.Derive(result)
	return result, nil
}

// aggregate computes the weighted mean over evaluated metrics. Unknown and
// skipped results are excluded from numerator and denominator, so an
// unevaluable metric neither helps nor hurts the grade.
func (g *Grader) aggregate(results map[string]MetricResult) (float64, Status) {
	weightSum := 0.0
	weighted := 0.0
	worst := StatusPassed
	evaluated := 0

	for _, reg := range g.registrations {
		r, ok := results[reg.name]
		if !ok || !r.Status.Evaluated() {
			continue
		}
		evaluated++
		weighted += r.Score * reg.weight
		weightSum += reg.weight
		if statusSeverity(r.Status) < statusSeverity(worst) {
			worst = r.Status
		}
	}

	if evaluated == 0 || weightSum == 0 {
		return 0, StatusUnknown
	}

	score := weighted / weightSum
	if g.config.StatusPolicy == PolicyWorst {
		return score, worst
	}
	return score, g.thresholds.Status(score)
}
