// Package config defines the scoring configuration and how it is loaded.
//
// Conventions:
//   - New returns the defaults; Load layers a YAML file and PULSE_ environment
//     variables on top of them.
//   - Settings converts the configuration into engine settings and is the only
//     place weight and band tables are validated.
//   - Errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/okian/pulse/internal/domain/cohort"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/scoring"
	"github.com/okian/pulse/pkg/metrics"
)

var validate = validator.New()

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects the log handler: json or text.
	LogFormat string `koanf:"log_format" validate:"oneof=json text"`

	// Workers sets the number of teams scored concurrently.
	Workers int `koanf:"workers" validate:"gte=1"`

	// ConfidenceZ is the normal quantile used for composite intervals.
	ConfidenceZ float64 `koanf:"confidence_z" validate:"gt=0"`

	Metrics MetricsConfig `koanf:"metrics"`

	Cohort    CohortConfig    `koanf:"cohort"`
	Winsorize WinsorizeConfig `koanf:"winsorize"`
	Shrinkage ShrinkageConfig `koanf:"shrinkage"`
	TNV       TNVConfig       `koanf:"tnv"`
	Health    HealthConfig    `koanf:"health"`

	ProgressWeights WeightsConfig `koanf:"progress_weights"`
	HealthWeights   WeightsConfig `koanf:"health_weights"`
	ProgressBands   BandsConfig   `koanf:"progress_bands"`
	HealthBands     BandsConfig   `koanf:"health_bands"`
}

// MetricsConfig controls the Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace" validate:"required"`
	Subsystem string `koanf:"subsystem"`
}

// CohortConfig tunes baseline clustering for the progress family.
type CohortConfig struct {
	GroupCount    int `koanf:"group_count" validate:"gte=1"`
	MinSize       int `koanf:"min_size" validate:"gte=1"`
	MaxIterations int `koanf:"max_iterations" validate:"gte=1"`
}

// WinsorizeConfig bounds effect sizes by percentile.
type WinsorizeConfig struct {
	LowerPct float64 `koanf:"lower_pct" validate:"gt=0,lt=50"`
	UpperPct float64 `koanf:"upper_pct" validate:"gt=50,lt=100"`
}

// ShrinkageConfig sets the pseudo-count pulling small-cohort percentiles to 50.
type ShrinkageConfig struct {
	PriorStrength float64 `koanf:"prior_strength" validate:"gte=0"`
}

// TNVConfig gates time-normalized velocity.
type TNVConfig struct {
	MinIntervalDays     float64 `koanf:"min_interval_days" validate:"gt=0"`
	MaxIntervalDays     float64 `koanf:"max_interval_days" validate:"gtfield=MinIntervalDays"`
	MaxSpacingCV        float64 `koanf:"max_spacing_cv" validate:"gte=0"`
	TypicalIntervalDays float64 `koanf:"typical_interval_days" validate:"gt=0"`
}

// HealthConfig tunes the health family.
type HealthConfig struct {
	MinPeerSize        int  `koanf:"min_peer_size" validate:"gte=1"`
	GroupCount         int  `koanf:"group_count" validate:"gte=1"`
	PercentileFallback bool `koanf:"percentile_fallback"`
}

// WeightsConfig is a family's default weight table and its alternates.
type WeightsConfig struct {
	Default    map[string]float64 `koanf:"default" validate:"required"`
	Alternates []NamedWeights     `koanf:"alternates" validate:"dive"`
}

// NamedWeights is one alternate weight table.
type NamedWeights struct {
	Name    string             `koanf:"name" validate:"required"`
	Weights map[string]float64 `koanf:"weights" validate:"required"`
}

// BandsConfig lists five category labels, lowest first, and the four
// thresholds between them.
type BandsConfig struct {
	Labels     []string  `koanf:"labels" validate:"len=5,dive,required"`
	Thresholds []float64 `koanf:"thresholds" validate:"len=4"`
}

// New creates a Config holding the defaults.
func New() *Config {
	defaults := scoring.DefaultSettings()
	return &Config{
		LogLevel:    "info",
		LogFormat:   "json",
		Workers:     runtime.NumCPU(),
		ConfidenceZ: defaults.ConfidenceZ,
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "pulse",
			Subsystem: "engine",
		},
		Cohort: CohortConfig{
			GroupCount:    cohort.DefaultGroupCount,
			MinSize:       cohort.DefaultMinSize,
			MaxIterations: cohort.DefaultMaxIterations,
		},
		Winsorize: WinsorizeConfig{
			LowerPct: defaults.WinsorizeLowerPct,
			UpperPct: defaults.WinsorizeUpperPct,
		},
		Shrinkage: ShrinkageConfig{PriorStrength: defaults.ShrinkagePrior},
		TNV: TNVConfig{
			MinIntervalDays:     defaults.TNV.MinIntervalDays,
			MaxIntervalDays:     defaults.TNV.MaxIntervalDays,
			MaxSpacingCV:        defaults.TNV.MaxSpacingCV,
			TypicalIntervalDays: defaults.TNV.TypicalIntervalDays,
		},
		Health: HealthConfig{
			MinPeerSize:        defaults.MinPeerSize,
			GroupCount:         cohort.DefaultGroupCount,
			PercentileFallback: defaults.PercentileFallback,
		},
		ProgressWeights: weightsFromCatalog(defaults.ProgressWeights),
		HealthWeights:   weightsFromCatalog(defaults.HealthWeights),
		ProgressBands:   bandsFromCategories(defaults.ProgressBands),
		HealthBands:     bandsFromCategories(defaults.HealthBands),
	}
}

// Validate checks struct constraints and the weight and band tables.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	_, err := c.Settings()
	return err
}

// Settings converts the configuration into engine settings.
func (c *Config) Settings() (scoring.Settings, error) {
	s := scoring.Settings{
		WinsorizeLowerPct: c.Winsorize.LowerPct,
		WinsorizeUpperPct: c.Winsorize.UpperPct,
		ShrinkagePrior:    c.Shrinkage.PriorStrength,
		TNV: scoring.TNVSettings{
			MinIntervalDays:     c.TNV.MinIntervalDays,
			MaxIntervalDays:     c.TNV.MaxIntervalDays,
			MaxSpacingCV:        c.TNV.MaxSpacingCV,
			TypicalIntervalDays: c.TNV.TypicalIntervalDays,
		},
		MinPeerSize:        c.Health.MinPeerSize,
		PercentileFallback: c.Health.PercentileFallback,
		ConfidenceZ:        c.ConfidenceZ,
		ProgressWeights:    c.ProgressWeights.catalog(model.FamilyProgress),
		HealthWeights:      c.HealthWeights.catalog(model.FamilyHealth),
	}

	var err error
	if s.ProgressBands, err = scoring.NewCategoryBands(c.ProgressBands.Labels, c.ProgressBands.Thresholds); err != nil {
		return scoring.Settings{}, fmt.Errorf("%w: progress_bands: %w", ErrInvalidConfig, err)
	}
	if s.HealthBands, err = scoring.NewCategoryBands(c.HealthBands.Labels, c.HealthBands.Thresholds); err != nil {
		return scoring.Settings{}, fmt.Errorf("%w: health_bands: %w", ErrInvalidConfig, err)
	}
	if err := s.Validate(); err != nil {
		return scoring.Settings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return s, nil
}

// MetricsOptions returns the metrics manager options for this configuration.
func (c *Config) MetricsOptions() []metrics.Option {
	return []metrics.Option{
		metrics.WithMetricsEnabled(c.Metrics.Enabled),
		metrics.WithNamespace(c.Metrics.Namespace),
		metrics.WithSubsystem(c.Metrics.Subsystem),
	}
}

// CohortOptions returns the cohort builder options for a family.
func (c *Config) CohortOptions(family model.ModelFamily) []cohort.Option {
	groups := c.Cohort.GroupCount
	if family == model.FamilyHealth {
		groups = c.Health.GroupCount
	}
	return []cohort.Option{
		cohort.WithGroupCount(groups),
		cohort.WithMinSize(c.Cohort.MinSize),
		cohort.WithMaxIterations(c.Cohort.MaxIterations),
	}
}

func (w WeightsConfig) catalog(family model.ModelFamily) model.WeightCatalog {
	cat := model.WeightCatalog{
		Default: model.WeightConfiguration{Name: "default", Family: family, Weights: componentWeights(w.Default)},
	}
	for _, alt := range w.Alternates {
		cat.Alternates = append(cat.Alternates, model.WeightConfiguration{
			Name:    alt.Name,
			Family:  family,
			Weights: componentWeights(alt.Weights),
		})
	}
	return cat
}

func componentWeights(in map[string]float64) map[model.ComponentKind]float64 {
	out := make(map[model.ComponentKind]float64, len(in))
	for k, v := range in {
		out[model.ComponentKind(k)] = v
	}
	return out
}

func weightsFromCatalog(cat model.WeightCatalog) WeightsConfig {
	w := WeightsConfig{Default: plainWeights(cat.Default.Weights)}
	for _, alt := range cat.Alternates {
		w.Alternates = append(w.Alternates, NamedWeights{Name: alt.Name, Weights: plainWeights(alt.Weights)})
	}
	return w
}

func plainWeights(in map[model.ComponentKind]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

func bandsFromCategories(b scoring.CategoryBands) BandsConfig {
	labels := make([]string, len(b.Labels))
	for i, l := range b.Labels {
		labels[i] = string(l)
	}
	return BandsConfig{Labels: labels, Thresholds: append([]float64(nil), b.Thresholds[:]...)}
}
