// Package metrics provides Prometheus metrics for the pulse scoring engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label names shared across collectors.
const (
	labelFamily        = "family"
	labelModelType     = "model_type"
	labelCategory      = "category"
	labelConfiguration = "configuration"
	labelComponent     = "component"
	labelErrorType     = "error_type"
)

// Manager manages all Prometheus metrics for the scoring engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	scoreBuckets     []float64
	enabled          bool
	registry         prometheus.Registerer

	// Pipeline metrics
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec
	portfolioTeams   *prometheus.GaugeVec

	// Scoring metrics
	teamsScored          *prometheus.CounterVec
	compositeScore       *prometheus.HistogramVec
	categoryAssignments  *prometheus.CounterVec
	modelDowngrades      *prometheus.CounterVec
	missingIndicators    *prometheus.CounterVec
	sensitivityChanges   *prometheus.CounterVec
	sensitiveTeamsRatio  *prometheus.GaugeVec
	componentComputation *prometheus.HistogramVec

	// Cohort metrics
	cohortCount  prometheus.Gauge
	cohortMerges prometheus.Counter

	// Worker metrics
	workerPoolSize prometheus.Gauge

	// Error metrics
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pulse",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		scoreBuckets:     prometheus.LinearBuckets(10, 10, 9), // 10..90, display scale
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.pipelineRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_runs_total",
		Help:      "Total number of portfolio pipeline runs by model family",
	}, []string{labelFamily})

	m.pipelineDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_duration_seconds",
		Help:      "Wall time of a full portfolio pipeline run",
		Buckets:   m.histogramBuckets,
	}, []string{labelFamily})

	m.portfolioTeams = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "portfolio_teams",
		Help:      "Number of teams in the most recent portfolio run",
	}, []string{labelFamily})

	m.teamsScored = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "teams_scored_total",
		Help:      "Teams scored, by family and 2- or 3-component model",
	}, []string{labelFamily, labelModelType})

	m.compositeScore = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "composite_score",
		Help:      "Distribution of composite scores on the 0-100 display scale",
		Buckets:   m.scoreBuckets,
	}, []string{labelFamily})

	m.categoryAssignments = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "category_assignments_total",
		Help:      "Composite category assignments",
	}, []string{labelFamily, labelCategory})

	m.modelDowngrades = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_downgrades_total",
		Help:      "Composites downgraded to the 2-component model, by omitted component",
	}, []string{labelFamily, labelComponent})

	m.missingIndicators = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "missing_indicators_total",
		Help:      "Indicators excluded from a team's calculation for missing coverage",
	}, []string{labelComponent})

	m.sensitivityChanges = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sensitivity_category_changes_total",
		Help:      "Category flips under alternate weight configurations",
	}, []string{labelFamily, labelConfiguration})

	m.sensitiveTeamsRatio = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sensitive_teams_ratio",
		Help:      "Share of teams whose category changes under any alternate configuration",
	}, []string{labelFamily})

	m.componentComputation = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "component_scaled_value",
		Help:      "Distribution of component scaled values",
		Buckets:   m.scoreBuckets,
	}, []string{labelComponent})

	m.cohortCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cohort_count",
		Help:      "Baseline cohorts produced by the most recent build",
	})

	m.cohortMerges = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cohort_merges_total",
		Help:      "Undersized cohorts merged into a neighbour",
	})

	m.workerPoolSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_pool_size",
		Help:      "Configured concurrency of the team evaluation pool",
	})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{labelComponent, labelErrorType})
}

// Pipeline recorders.

// RecordPipelineRun counts a portfolio run and its duration in seconds.
func RecordPipelineRun(family string, seconds float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.pipelineRuns.WithLabelValues(family).Inc()
	globalManager.pipelineDuration.WithLabelValues(family).Observe(seconds)
}

// UpdatePortfolioTeams sets the team count of the latest run.
func UpdatePortfolioTeams(family string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.portfolioTeams.WithLabelValues(family).Set(float64(count))
}

// Scoring recorders.

// RecordTeamScored records one composite result.
func RecordTeamScored(family, modelType, category string, score float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.teamsScored.WithLabelValues(family, modelType).Inc()
	globalManager.compositeScore.WithLabelValues(family).Observe(score)
	globalManager.categoryAssignments.WithLabelValues(family, category).Inc()
}

// RecordComponentValue observes a component's scaled value.
func RecordComponentValue(component string, scaled float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.componentComputation.WithLabelValues(component).Observe(scaled)
}

// RecordModelDowngrade records that component was omitted from a composite.
func RecordModelDowngrade(family, component string) {
	if !globalManager.enabled {
		return
	}
	globalManager.modelDowngrades.WithLabelValues(family, component).Inc()
}

// RecordMissingIndicators adds count excluded indicators for component.
func RecordMissingIndicators(component string, count int) {
	if !globalManager.enabled || count <= 0 {
		return
	}
	globalManager.missingIndicators.WithLabelValues(component).Add(float64(count))
}

// RecordSensitivityChange records a category flip under configuration.
func RecordSensitivityChange(family, configuration string) {
	if !globalManager.enabled {
		return
	}
	globalManager.sensitivityChanges.WithLabelValues(family, configuration).Inc()
}

// UpdateSensitiveTeamsRatio sets the share of sensitive teams in the latest run.
func UpdateSensitiveTeamsRatio(family string, ratio float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.sensitiveTeamsRatio.WithLabelValues(family).Set(ratio)
}

// Cohort recorders.

// UpdateCohortCount sets the number of cohorts in the latest build.
func UpdateCohortCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.cohortCount.Set(float64(count))
}

// RecordCohortMerge counts one merge of an undersized cohort.
func RecordCohortMerge() {
	if !globalManager.enabled {
		return
	}
	globalManager.cohortMerges.Inc()
}

// Worker recorders.

// UpdateWorkerPoolSize sets the configured pool concurrency.
func UpdateWorkerPoolSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerPoolSize.Set(float64(size))
}

// Error recorders.

// RecordErrorByComponent counts an error.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// Init replaces the global manager with one built from opts on a fresh custom
// registry. Call it once at startup, before any recorder runs.
func Init(opts ...Option) *Manager {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
	return globalManager
}

// GetRegistry returns the custom registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
