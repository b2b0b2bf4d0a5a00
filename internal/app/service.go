// Package service wires configuration, the indicator catalog and the scoring
// pipeline into a single entry point that evaluates portfolios.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/pulse/internal/config"
	"github.com/okian/pulse/internal/domain/cohort"
	"github.com/okian/pulse/internal/domain/indicator"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/portfolio"
	"github.com/okian/pulse/internal/domain/scoring"
	"github.com/okian/pulse/internal/domain/types"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Report holds the portfolio summaries of both model families.
type Report struct {
	CatalogVersion string                  `json:"catalog_version"`
	EvaluatedAt    time.Time               `json:"evaluated_at"`
	Progress       *model.PortfolioSummary `json:"progress,omitempty"`
	Health         *model.PortfolioSummary `json:"health,omitempty"`
}

// Summary returns the report's summary for a family, or nil.
func (r *Report) Summary(family model.ModelFamily) *model.PortfolioSummary {
	if r == nil {
		return nil
	}
	switch family {
	case model.FamilyProgress:
		return r.Progress
	case model.FamilyHealth:
		return r.Health
	default:
		return nil
	}
}

// Service evaluates portfolios with one engine configuration.
type Service struct {
	mu sync.RWMutex

	// Configuration
	cfg      *config.Config
	registry *indicator.Registry
	workers  int

	// Components, built on Start
	engine       *scoring.Engine
	orchestrator *portfolio.Orchestrator

	// State
	started bool
	last    *Report

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults to config.New().
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithRegistry sets the indicator catalog. Defaults to the built-in catalog.
func WithRegistry(r *indicator.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithWorkers overrides the configured number of scoring workers.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:      config.New(),
		registry: indicator.DefaultCatalog(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers == 0 {
		s.workers = s.cfg.Workers
	}
	return s
}

// Start validates the configuration and builds the scoring pipeline. It is
// called by Evaluate when needed.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start(ctx)
}

func (s *Service) start(ctx context.Context) error {
	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	settings, err := s.cfg.Settings()
	if err != nil {
		metrics.RecordErrorByComponent("service", "invalid_config")
		return err
	}
	s.engine, err = scoring.NewEngine(s.registry,
		scoring.WithSettings(settings),
		scoring.WithLogger(s.logger.Named("scoring")),
	)
	if err != nil {
		metrics.RecordErrorByComponent("service", "engine_init")
		return fmt.Errorf("build engine: %w", err)
	}

	cohortLog := cohort.WithLogger(s.logger.Named("cohort"))
	progressBuilder := cohort.NewBuilder(s.registry, append(s.cfg.CohortOptions(model.FamilyProgress), cohortLog)...)
	healthBuilder := cohort.NewBuilder(s.registry, append(s.cfg.CohortOptions(model.FamilyHealth), cohortLog)...)
	s.orchestrator = portfolio.NewOrchestrator(s.engine, progressBuilder,
		portfolio.WithHealthBuilder(healthBuilder),
		portfolio.WithWorkers(s.workers),
		portfolio.WithLogger(s.logger.Named("portfolio")),
	)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.String("catalog", s.registry.Version()),
		logger.Int("indicators", s.registry.Len()),
		logger.Int("workers", s.workers),
	)
	return nil
}

// Evaluate scores the portfolio under both model families. The families run
// concurrently; each spreads its teams over the worker pool.
func (s *Service) Evaluate(ctx context.Context, p model.Portfolio) (*Report, error) {
	return s.evaluate(ctx, p, model.FamilyProgress, model.FamilyHealth)
}

// EvaluateFamily scores the portfolio under a single model family.
func (s *Service) EvaluateFamily(ctx context.Context, family model.ModelFamily, p model.Portfolio) (*Report, error) {
	if !family.Valid() {
		return nil, fmt.Errorf("%w: %q", scoring.ErrUnknownFamily, family)
	}
	return s.evaluate(ctx, p, family)
}

func (s *Service) evaluate(ctx context.Context, p model.Portfolio, families ...model.ModelFamily) (*Report, error) {
	s.mu.Lock()
	err := s.start(ctx)
	orch := s.orchestrator
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	summaries := make([]*model.PortfolioSummary, len(families))
	g, gctx := errgroup.WithContext(ctx)
	for i, family := range families {
		g.Go(func() error {
			sum, err := orch.Run(gctx, family, p)
			if err != nil {
				return err
			}
			summaries[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error(ctx, "portfolio evaluation failed", logger.Error(err))
		return nil, err
	}

	report := &Report{CatalogVersion: s.registry.Version(), EvaluatedAt: time.Now().UTC()}
	for i, family := range families {
		if family == model.FamilyHealth {
			report.Health = summaries[i]
		} else {
			report.Progress = summaries[i]
		}
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
	return report, nil
}

// Last returns the most recent report.
func (s *Service) Last() (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, ErrNotEvaluated
	}
	return s.last, nil
}

// TopN returns the top n leaderboard entries of the last report for a family.
func (s *Service) TopN(_ context.Context, family model.ModelFamily, n int) ([]types.Entry, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	board, err := s.leaderboard(family)
	if err != nil {
		return nil, err
	}
	if n > len(board) {
		n = len(board)
	}
	return append([]types.Entry(nil), board[:n]...), nil
}

// Rank returns a team's leaderboard entry in the last report for a family.
func (s *Service) Rank(_ context.Context, family model.ModelFamily, teamID string) (types.Entry, error) {
	board, err := s.leaderboard(family)
	if err != nil {
		return types.Entry{}, err
	}
	for _, e := range board {
		if e.TeamID == teamID {
			return e, nil
		}
	}
	return types.Entry{}, fmt.Errorf("%w: %q", ErrNotFound, teamID)
}

func (s *Service) leaderboard(family model.ModelFamily) ([]types.Entry, error) {
	report, err := s.Last()
	if err != nil {
		return nil, err
	}
	sum := report.Summary(family)
	if sum == nil {
		return nil, fmt.Errorf("%w: no %s summary", ErrNotEvaluated, family)
	}
	return sum.Leaderboard, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"workers":    s.workers,
		"catalog":    s.registry.Version(),
		"indicators": s.registry.Len(),
	}
	if s.last != nil {
		stats["evaluatedAt"] = s.last.EvaluatedAt
		if s.last.Progress != nil {
			stats["progressTeams"] = len(s.last.Progress.Results)
		}
		if s.last.Health != nil {
			stats["healthTeams"] = len(s.last.Health.Results)
		}
	}
	return stats
}
