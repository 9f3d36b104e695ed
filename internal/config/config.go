// Package config loads sage's assessment configuration from YAML or JSON
// files with environment overrides, and builds graders from it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Threshold holds the passed/warning score boundaries for one metric.
type Threshold struct {
	Passed  float64 `yaml:"passed" json:"passed" validate:"gte=0,lte=1"`
	Warning float64 `yaml:"warning" json:"warning" validate:"gte=0,lte=1"`
}

// ConditionalCheck declares "when if_column <comparison> if_value, then_column
// must be populated".
type ConditionalCheck struct {
	IfColumn   string `yaml:"if_column" json:"if_column" validate:"required"`
	Comparison string `yaml:"comparison" json:"comparison" validate:"required,oneof=eq ne gt gte lt lte"`
	IfValue    string `yaml:"if_value" json:"if_value"`
	ThenColumn string `yaml:"then_column" json:"then_column" validate:"required"`
}

// ValidatorRule configures one accuracy validator for one column.
type ValidatorRule struct {
	Kind    string   `yaml:"kind" json:"kind" validate:"required,oneof=regex range enum type"`
	Pattern string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Min     *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Allowed []string `yaml:"allowed,omitempty" json:"allowed,omitempty"`
	Type    string   `yaml:"type,omitempty" json:"type,omitempty" validate:"omitempty,oneof=numeric integer datetime boolean"`
}

// Relationship declares an ordering or implication between two columns.
type Relationship struct {
	Left  string `yaml:"left_column" json:"left_column" validate:"required"`
	Right string `yaml:"right_column" json:"right_column" validate:"required"`
	Kind  string `yaml:"kind" json:"kind" validate:"required,oneof=lte gte not_null_implies"`
}

// MetricSettings configures one metric registration. Only the fields of the
// metric's own kind are read; Enabled defaults to true when omitted and
// Weight to 1.
type MetricSettings struct {
	Enabled   *bool      `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Weight    float64    `yaml:"weight,omitempty" json:"weight,omitempty" validate:"gte=0"`
	Threshold *Threshold `yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// Completeness.
	RequiredColumns   []string           `yaml:"required_columns,omitempty" json:"required_columns,omitempty"`
	ConditionalChecks []ConditionalCheck `yaml:"conditional_checks,omitempty" json:"conditional_checks,omitempty" validate:"dive"`

	// Accuracy.
	Validators  map[string]ValidatorRule `yaml:"validators,omitempty" json:"validators,omitempty" validate:"dive"`
	MaxExamples int                      `yaml:"max_examples,omitempty" json:"max_examples,omitempty" validate:"gte=0"`

	// Consistency.
	FormatColumns []string       `yaml:"format_columns,omitempty" json:"format_columns,omitempty"`
	Relationships []Relationship `yaml:"relationships,omitempty" json:"relationships,omitempty" validate:"dive"`
	CompositeKeys [][]string     `yaml:"composite_keys,omitempty" json:"composite_keys,omitempty"`

	// Timeliness. Durations are strings like "24h" or "30m".
	DatetimeColumns   []string `yaml:"datetime_columns,omitempty" json:"datetime_columns,omitempty"`
	ExpectedFrequency string   `yaml:"expected_frequency,omitempty" json:"expected_frequency,omitempty"`
	MaxGapMultiplier  float64  `yaml:"max_gap_multiplier,omitempty" json:"max_gap_multiplier,omitempty" validate:"gte=0"`
	MaxAge            string   `yaml:"max_age,omitempty" json:"max_age,omitempty"`
}

// GradingSettings configures the grader itself.
type GradingSettings struct {
	PassedThreshold  float64 `yaml:"passed_threshold" json:"passed_threshold" envconfig:"PASSED_THRESHOLD" validate:"gte=0,lte=1"`
	WarningThreshold float64 `yaml:"warning_threshold" json:"warning_threshold" envconfig:"WARNING_THRESHOLD" validate:"gte=0,lte=1"`
	StatusPolicy     string  `yaml:"status_policy" json:"status_policy" envconfig:"STATUS_POLICY" validate:"omitempty,oneof=aggregate worst"`
	IncludeProfile   bool    `yaml:"include_profile" json:"include_profile" envconfig:"INCLUDE_PROFILE"`
}

// ReportSettings configures report rendering.
type ReportSettings struct {
	Format                 string `yaml:"format" json:"format" envconfig:"FORMAT" validate:"omitempty,oneof=html json csv"`
	IncludeCharts          bool   `yaml:"include_charts" json:"include_charts" envconfig:"INCLUDE_CHARTS"`
	IncludeRecommendations bool   `yaml:"include_recommendations" json:"include_recommendations" envconfig:"INCLUDE_RECOMMENDATIONS"`
}

// Config is the root of the sage configuration file. Metric entries are
// keyed by kind name: completeness, accuracy, consistency, timeliness.
type Config struct {
	Metrics map[string]MetricSettings `yaml:"metrics" json:"metrics" validate:"dive"`
	Grading GradingSettings           `yaml:"grading" json:"grading" envconfig:"GRADING"`
	Report  ReportSettings            `yaml:"report" json:"report" envconfig:"REPORT"`
}

// Default returns the configuration used when no file is given: completeness
// and timeliness over every column, grading thresholds 0.9/0.7. Accuracy and
// consistency need column-specific rules and are only built when configured.
func Default() *Config {
	return &Config{
		Metrics: map[string]MetricSettings{
			"completeness": {},
			"timeliness":   {},
		},
		Grading: GradingSettings{
			PassedThreshold:  0.9,
			WarningThreshold: 0.7,
			StatusPolicy:     "aggregate",
		},
		Report: ReportSettings{
			Format:                 "html",
			IncludeCharts:          true,
			IncludeRecommendations: true,
		},
	}
}

// Load reads the config file at path, overlays it on the defaults, then
// applies SAGE_* environment overrides. Metric entries from the file merge
// over the default registrations; disable a default with enabled: false. An
// empty path loads defaults and environment only; a missing explicit path is
// an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := unmarshalInto(cfg, path, data); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("sage", cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unmarshalInto(cfg *Config, path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks the structural rules declared on the config types.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Grading.WarningThreshold > cfg.Grading.PassedThreshold {
		return fmt.Errorf("invalid configuration: warning threshold %v exceeds passed threshold %v",
			cfg.Grading.WarningThreshold, cfg.Grading.PassedThreshold)
	}
	return nil
}
