// Package portfolio runs the scoring pipeline over every team in a portfolio
// and summarizes the results.
package portfolio

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/okian/pulse/internal/domain/cohort"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/ranking"
	"github.com/okian/pulse/internal/domain/scoring"
	"github.com/okian/pulse/internal/domain/stats"
	"github.com/okian/pulse/internal/worker"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

// Orchestrator scores portfolios. Cohorts and peer boards are built once per
// run; team scoring then only reads them, so teams may run in parallel with
// results identical to a sequential run.
type Orchestrator struct {
	engine          *scoring.Engine
	progressBuilder *cohort.Builder
	healthBuilder   *cohort.Builder
	workers         int
	log             logger.Logger
}

// NewOrchestrator wires an engine and cohort builder.
func NewOrchestrator(engine *scoring.Engine, builder *cohort.Builder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine:          engine,
		progressBuilder: builder,
		healthBuilder:   builder,
		workers:         runtime.NumCPU(),
		log:             logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run scores every team in the portfolio for one family.
func (o *Orchestrator) Run(ctx context.Context, family model.ModelFamily, p model.Portfolio) (*model.PortfolioSummary, error) {
	start := time.Now()
	if !family.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	if err := p.Validate(); err != nil {
		metrics.RecordErrorByComponent("portfolio", "invalid_input")
		return nil, err
	}
	p = p.Normalize()
	metrics.UpdatePortfolioTeams(string(family), len(p.Teams))

	grouping, err := o.builder(family).Build(ctx, p.Baselines())
	if err != nil {
		metrics.RecordErrorByComponent("cohort", "build_failed")
		return nil, fmt.Errorf("build %s cohorts: %w", family, err)
	}

	groups := make([]*cohort.Group, len(p.Teams))
	for i, team := range p.Teams {
		grp, ok := grouping.GroupOf(team.TeamID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUngrouped, team.TeamID)
		}
		groups[i] = grp
	}

	pool := worker.NewPool(worker.WithSize(o.workers), worker.WithName(string(family)), worker.WithLogger(o.log))
	growth := make([]float64, len(p.Teams))
	if err := pool.Run(ctx, len(p.Teams), func(_ context.Context, i int) error {
		growth[i] = o.engine.Growth(family, p.Teams[i], groups[i])
		return nil
	}); err != nil {
		return nil, fmt.Errorf("compute %s growth: %w", family, err)
	}
	boards := o.peerBoards(family, p.Teams, groups, growth)

	results := make([]model.TeamResult, len(p.Teams))
	if err := pool.Run(ctx, len(p.Teams), func(ctx context.Context, i int) error {
		res, err := o.engine.Score(ctx, family, p.Teams[i], groups[i], boards[groups[i].ID])
		if err != nil {
			return err
		}
		results[i] = res
		return nil
	}); err != nil {
		metrics.RecordErrorByComponent("portfolio", "scoring_failed")
		return nil, fmt.Errorf("score %s: %w", family, err)
	}

	summary := o.summarize(family, results, grouping)
	o.record(family, summary)
	metrics.RecordPipelineRun(string(family), time.Since(start).Seconds())
	o.log.Info(ctx, "portfolio scored",
		logger.String("family", string(family)),
		logger.Int("teams", len(results)),
		logger.Int("cohorts", grouping.Len()),
		logger.Float64("mean", summary.Mean),
		logger.Float64("sensitive_ratio", summary.Sensitivity.Ratio),
		logger.Duration("elapsed", time.Since(start)))
	return summary, nil
}

func (o *Orchestrator) builder(family model.ModelFamily) *cohort.Builder {
	if family == model.FamilyHealth {
		return o.healthBuilder
	}
	return o.progressBuilder
}

// peerBoards ranks each cohort's growth values. Teams without peer data are
// left off their cohort's board.
func (o *Orchestrator) peerBoards(family model.ModelFamily, teams []model.TeamHistory, groups []*cohort.Group, growth []float64) map[int]*ranking.Board {
	boards := make(map[int]*ranking.Board)
	for i, team := range teams {
		if !o.engine.HasPeerData(family, team) {
			continue
		}
		b, ok := boards[groups[i].ID]
		if !ok {
			b = ranking.New()
			boards[groups[i].ID] = b
		}
		b.Insert(team.TeamID, growth[i])
	}
	return boards
}

func (o *Orchestrator) summarize(family model.ModelFamily, results []model.TeamResult, grouping *cohort.Grouping) *model.PortfolioSummary {
	settings := o.engine.Settings()
	bands := settings.Bands(family)
	alternates := settings.Weights(family).Alternates

	s := &model.PortfolioSummary{
		Family:          family,
		Results:         results,
		ModelTypeCounts: make(map[model.ModelType]int),
		Cohorts:         grouping.Summaries(),
	}

	scores := make([]float64, len(results))
	counts := make([]int, scoring.BandCount)
	changes := make([]int, len(alternates))
	flips := make([]int, len(alternates)+1)
	board := ranking.New()
	categories := make(map[string]model.Category, len(results))
	s.Min, s.Max = math.Inf(1), math.Inf(-1)
	for i, r := range results {
		c := r.Composite
		scores[i] = c.Score
		s.Min = math.Min(s.Min, c.Score)
		s.Max = math.Max(s.Max, c.Score)
		counts[c.CategoryIndex]++
		s.ModelTypeCounts[c.ModelType]++
		board.Insert(r.TeamID, c.Score)
		categories[r.TeamID] = c.Category

		for j, sc := range r.Sensitivity.Configurations {
			if sc.CategoryChanged && j < len(changes) {
				changes[j]++
			}
		}
		if r.Sensitivity.IsSensitive {
			s.Sensitivity.TeamsWithCategoryChange++
		}
		if r.Sensitivity.ChangedCount < len(flips) {
			flips[r.Sensitivity.ChangedCount]++
		}
	}
	if len(results) == 0 {
		s.Min, s.Max = 0, 0
	}

	s.Mean = stats.Mean(scores)
	s.Median = stats.Median(scores)
	s.StdDev = stats.StdDev(scores)

	s.CategoryCounts = make([]model.CategoryCount, scoring.BandCount)
	for i, l := range bands.Labels {
		s.CategoryCounts[i] = model.CategoryCount{Category: l, Count: counts[i]}
	}

	s.Leaderboard = board.Entries()
	for i := range s.Leaderboard {
		s.Leaderboard[i].Category = string(categories[s.Leaderboard[i].TeamID])
	}

	s.Sensitivity.TotalTeams = len(results)
	if len(results) > 0 {
		s.Sensitivity.Ratio = float64(s.Sensitivity.TeamsWithCategoryChange) / float64(len(results))
	}
	s.Sensitivity.ByConfiguration = make([]model.ConfigurationChanges, len(alternates))
	for j, alt := range alternates {
		s.Sensitivity.ByConfiguration[j] = model.ConfigurationChanges{Configuration: alt.Name, Teams: changes[j]}
	}
	s.Sensitivity.FlipHistogram = make([]model.FlipBucket, len(flips))
	for k, n := range flips {
		s.Sensitivity.FlipHistogram[k] = model.FlipBucket{Configurations: k, Teams: n}
	}
	return s
}

// record publishes a run's outcome to the metrics registry.
func (o *Orchestrator) record(family model.ModelFamily, s *model.PortfolioSummary) {
	for _, r := range s.Results {
		c := r.Composite
		metrics.RecordTeamScored(string(family), string(c.ModelType), string(c.Category), c.Score)
	}
	for _, bc := range s.Sensitivity.ByConfiguration {
		for i := 0; i < bc.Teams; i++ {
			metrics.RecordSensitivityChange(string(family), bc.Configuration)
		}
	}
	metrics.UpdateSensitiveTeamsRatio(string(family), s.Sensitivity.Ratio)
}
