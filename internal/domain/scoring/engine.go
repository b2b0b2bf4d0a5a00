// Package scoring computes the progress (CPS) and health (CHS) composites for
// a team from its snapshots, its baseline cohort and its peers.
package scoring

import (
	"context"
	"fmt"

	"github.com/okian/pulse/internal/domain/cohort"
	"github.com/okian/pulse/internal/domain/indicator"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/ranking"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine scores teams. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	registry *indicator.Registry
	settings Settings
	log      logger.Logger
}

// NewEngine constructs an engine and validates its settings.
func NewEngine(registry *indicator.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{
		registry: registry,
		settings: DefaultSettings(),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if registry == nil {
		return nil, fmt.Errorf("%w: nil indicator registry", ErrInvalidSettings)
	}
	if err := e.settings.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Settings returns the engine's settings.
func (e *Engine) Settings() Settings { return e.settings }

// Registry returns the engine's indicator catalog.
func (e *Engine) Registry() *indicator.Registry { return e.registry }

// Growth is the aggregate growth statistic ranked among peers for the family:
// the API raw effect for progress, the health index change for health.
// Teams without a measurement interval grow by zero.
func (e *Engine) Growth(family model.ModelFamily, team model.TeamHistory, grp *cohort.Group) float64 {
	if grp == nil {
		return 0
	}
	switch family {
	case model.FamilyProgress:
		api, _ := e.absoluteProgress(team, grp)
		return api.Raw
	case model.FamilyHealth:
		g, _ := e.healthGrowth(team, grp)
		return g
	default:
		return 0
	}
}

// HasPeerData reports whether a team contributes a growth value to its
// family's peer board.
func (e *Engine) HasPeerData(family model.ModelFamily, team model.TeamHistory) bool {
	if family == model.FamilyHealth {
		return team.HasInterval()
	}
	return true
}

// Score computes one team's composite and sensitivity report for a family.
// peers ranks the growth of the team's cohort members.
func (e *Engine) Score(
	ctx context.Context,
	family model.ModelFamily,
	team model.TeamHistory,
	grp *cohort.Group,
	peers *ranking.Board,
) (model.TeamResult, error) {
	switch family {
	case model.FamilyProgress:
		return e.ScoreProgress(ctx, team, grp, peers)
	case model.FamilyHealth:
		return e.ScoreHealth(ctx, team, grp, peers)
	default:
		return model.TeamResult{}, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
}

// ScoreProgress computes the CPS for a team.
func (e *Engine) ScoreProgress(ctx context.Context, team model.TeamHistory, grp *cohort.Group, peers *ranking.Board) (model.TeamResult, error) {
	if err := ctx.Err(); err != nil {
		return model.TeamResult{}, err
	}
	if grp == nil {
		return model.TeamResult{}, fmt.Errorf("%w: %q", ErrNoCohort, team.TeamID)
	}

	api, _ := e.absoluteProgress(team, grp)
	cgp := e.peerGrowth(model.ComponentCGP, team.TeamID, api.Raw, peers)

	var breakdown model.Breakdown
	if ok, reason := e.ShouldCalculateTNV(team); ok {
		breakdown = model.ThreeComponent{First: api, Second: cgp, Third: e.velocity(team, api)}
	} else {
		breakdown = model.TwoComponent{First: api, Second: cgp, Omitted: model.ComponentTNV, Reason: reason}
	}
	return e.finish(ctx, model.FamilyProgress, team.TeamID, grp, breakdown), nil
}

// ScoreHealth computes the CHS for a team.
func (e *Engine) ScoreHealth(ctx context.Context, team model.TeamHistory, grp *cohort.Group, peers *ranking.Board) (model.TeamResult, error) {
	if err := ctx.Err(); err != nil {
		return model.TeamResult{}, err
	}
	if grp == nil {
		return model.TeamResult{}, fmt.Errorf("%w: %q", ErrNoCohort, team.TeamID)
	}

	css := e.currentState(team, grp)
	trs := e.trajectory(team, grp)

	var breakdown model.Breakdown
	growth, ok := e.healthGrowth(team, grp)
	switch {
	case !ok:
		breakdown = model.TwoComponent{First: css, Second: trs, Omitted: model.ComponentPGS, Reason: "no measurement interval"}
	case peers == nil || peers.Len() < e.settings.MinPeerSize:
		breakdown = model.TwoComponent{First: css, Second: trs, Omitted: model.ComponentPGS, Reason: "insufficient peer data"}
	default:
		breakdown = model.ThreeComponent{First: css, Second: trs, Third: e.peerGrowth(model.ComponentPGS, team.TeamID, growth, peers)}
	}
	return e.finish(ctx, model.FamilyHealth, team.TeamID, grp, breakdown), nil
}

// finish aggregates the breakdown under the default weights and runs the
// sensitivity analysis over the alternates.
func (e *Engine) finish(
	ctx context.Context,
	family model.ModelFamily,
	teamID string,
	grp *cohort.Group,
	breakdown model.Breakdown,
) model.TeamResult {
	weights := e.settings.Weights(family)
	bands := e.settings.Bands(family)
	composite := Aggregate(teamID, family, breakdown, weights.Default, bands, e.settings.ConfidenceZ)
	report := Analyze(composite, weights.Alternates, bands, e.settings.ConfidenceZ)

	for _, c := range breakdown.Components() {
		metrics.RecordComponentValue(string(c.Kind), c.Scaled)
		if c.Meta.MissingData != nil {
			metrics.RecordMissingIndicators(string(c.Kind), len(c.Meta.MissingData.Excluded))
		}
	}
	if two, ok := breakdown.(model.TwoComponent); ok {
		metrics.RecordModelDowngrade(string(family), string(two.Omitted))
		e.log.Debug(ctx, "model downgraded",
			logger.String("team", teamID),
			logger.String("family", string(family)),
			logger.String("omitted", string(two.Omitted)),
			logger.String("reason", two.Reason))
	}

	return model.TeamResult{
		TeamID:      teamID,
		CohortID:    grp.ID,
		Composite:   composite,
		Sensitivity: report,
	}
}
