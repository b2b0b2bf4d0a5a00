package mockdata

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pulse/internal/domain/indicator"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/logger"
)

// Archetype drives a team's trend across its snapshots.
type Archetype string

// Team archetypes, assigned in rotation.
const (
	Improving Archetype = "improving"
	Declining Archetype = "declining"
	Stable    Archetype = "stable"
	Volatile  Archetype = "volatile"
	Elite     Archetype = "elite"
)

var archetypes = []Archetype{Improving, Declining, Stable, Volatile, Elite}

// trend is the per-step drift in standard deviations, direction adjusted.
// noise is the per-snapshot jitter in standard deviations. offset shifts the
// starting level.
type trend struct {
	drift  float64
	noise  float64
	offset float64
}

var trends = map[Archetype]trend{
	Improving: {drift: 0.25, noise: 0.15},
	Declining: {drift: -0.20, noise: 0.15},
	Stable:    {drift: 0, noise: 0.10},
	Volatile:  {drift: 0, noise: 0.60},
	Elite:     {drift: 0.05, noise: 0.10, offset: 1.5},
}

// profile is an indicator's portfolio-wide level.
type profile struct {
	mean float64
	sd   float64
	max  float64
}

var profiles = map[string]profile{
	"deployment_frequency": {mean: 5, sd: 2},
	"lead_time":            {mean: 48, sd: 20},
	"change_failure_rate":  {mean: 15, sd: 5, max: 100},
	"time_to_restore":      {mean: 8, sd: 4},
	"test_coverage":        {mean: 65, sd: 12, max: 100},
	"engagement":           {mean: 70, sd: 8, max: 100},
	"psychological_safety": {mean: 68, sd: 9, max: 100},
	"attrition":            {mean: 12, sd: 4, max: 100},
}

var fallbackProfile = profile{mean: 50, sd: 10}

// teamNamespace scopes generated team ids.
var teamNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/okian/pulse/mockdata/team"))

// TeamID is the deterministic id of team i for a seed.
func TeamID(seed uint64, i int) string {
	return uuid.NewSHA1(teamNamespace, []byte(fmt.Sprintf("%d/%d", seed, i))).String()
}

// ArchetypeOf returns the archetype of team i.
func ArchetypeOf(i int) Archetype {
	return archetypes[i%len(archetypes)]
}

// Generator produces synthetic portfolios. Every team gets at least two
// snapshots with strictly increasing timestamps and one value per indicator
// unless the indicator dropped out at that point.
type Generator struct {
	registry     *indicator.Registry
	seed         uint64
	source       Source
	teams        int
	snapshots    int
	intervalDays int
	dropoutRate  float64
	start        time.Time
	log          logger.Logger
}

// NewGenerator constructs a generator over a catalog.
func NewGenerator(registry *indicator.Registry, opts ...Option) *Generator {
	g := &Generator{
		registry:     registry,
		seed:         DefaultSeed,
		teams:        DefaultTeams,
		snapshots:    DefaultSnapshots,
		intervalDays: DefaultIntervalDays,
		dropoutRate:  DefaultDropoutRate,
		start:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds a portfolio. With a seed (and no explicit source) the
// output is identical on every call.
func (g *Generator) Generate(ctx context.Context) (model.Portfolio, error) {
	src := g.source
	if src == nil {
		src = NewSeededSource(g.seed)
	}
	p := model.Portfolio{Teams: make([]model.TeamHistory, 0, g.teams)}
	for i := 0; i < g.teams; i++ {
		if err := ctx.Err(); err != nil {
			return model.Portfolio{}, fmt.Errorf("generate team %d: %w", i, err)
		}
		p.Teams = append(p.Teams, g.team(src, i))
	}
	g.log.Debug(ctx, "generated mock portfolio",
		logger.Int("teams", g.teams),
		logger.Int("snapshots", g.snapshots))
	return p, nil
}

func (g *Generator) team(src Source, i int) model.TeamHistory {
	arch := ArchetypeOf(i)
	tr := trends[arch]
	inds := g.registry.All()

	levels := make([]float64, len(inds))
	for j := range inds {
		levels[j] = src.NormFloat64() + tr.offset
	}

	h := model.TeamHistory{TeamID: TeamID(g.seed, i), Snapshots: make([]model.Snapshot, 0, g.snapshots)}
	jitterSpan := g.intervalDays / 5
	for step := 0; step < g.snapshots; step++ {
		days := step * g.intervalDays
		if step > 0 && jitterSpan > 0 {
			days += src.IntN(jitterSpan+1) - jitterSpan/2
		}
		s := model.Snapshot{
			TeamID:    h.TeamID,
			Timestamp: g.start.AddDate(0, 0, days),
			Values:    make(map[string]float64, len(inds)),
		}
		for j, ind := range inds {
			z := levels[j] + tr.drift*float64(step) + tr.noise*src.NormFloat64()
			if src.Float64() < g.dropoutRate {
				if s.Coverage == nil {
					s.Coverage = make(map[string]bool)
				}
				s.Coverage[ind.ID] = false
				continue
			}
			s.Values[ind.ID] = value(ind, z)
		}
		h.Snapshots = append(h.Snapshots, s)
	}
	return h
}

// value maps a direction-adjusted standard score onto the indicator's scale.
func value(ind indicator.Indicator, z float64) float64 {
	pr, ok := profiles[ind.ID]
	if !ok {
		pr = fallbackProfile
	}
	v := pr.mean + ind.Direction()*z*pr.sd
	v = math.Max(v, 0)
	if pr.max > 0 {
		v = math.Min(v, pr.max)
	}
	return math.Round(v*100) / 100
}
