package scoring

import (
	"fmt"
	"math"

	"github.com/okian/pulse/internal/domain/cohort"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/ranking"
	"github.com/okian/pulse/internal/domain/stats"
)

// absoluteProgress computes API: per indicator, the direction-adjusted change
// from baseline to current in units of the cohort's standard deviation,
// winsorized and weighted by the team's effective weights. The second return
// is false when the team has no measurement interval.
func (e *Engine) absoluteProgress(team model.TeamHistory, grp *cohort.Group) (model.ComponentResult, bool) {
	res := model.ComponentResult{Kind: model.ComponentAPI, Scaled: stats.ScaledBaseline}
	base, cur, err := team.Interval()
	if err != nil {
		return res, false
	}

	missing := e.registry.RedistributeWeights(func(id string) bool {
		_, ok := e.changeEffect(id, base, cur, grp)
		return ok
	})
	res.Meta.MissingData = &missing

	effects := make([]float64, 0, len(missing.EffectiveWeights))
	weights := make([]float64, 0, len(missing.EffectiveWeights))
	for _, ind := range e.registry.All() {
		w, ok := missing.EffectiveWeights[ind.ID]
		if !ok {
			continue
		}
		c, _ := e.changeEffect(ind.ID, base, cur, grp)
		c.EffectSize, c.Winsorized = stats.Winsorize(c.EffectSize, e.settings.WinsorizeLowerPct, e.settings.WinsorizeUpperPct)
		c.Weight = w
		c.WeightedContribution = w * c.EffectSize
		res.Raw += c.WeightedContribution
		res.Meta.Winsorized = res.Meta.Winsorized || c.Winsorized
		res.Meta.Contributions = append(res.Meta.Contributions, c)
		effects = append(effects, c.EffectSize)
		weights = append(weights, w)
	}
	res.Scaled = stats.ZScoreToScaled(res.Raw)
	res.StandardError = stats.ScaledPerSD * stats.StandardError(weightedDispersion(effects, weights, res.Raw), len(effects))
	return res, true
}

// changeEffect returns the unwinsorized change effect for one indicator, or
// false when it cannot be measured at both ends of the interval.
func (e *Engine) changeEffect(id string, base, cur model.Snapshot, grp *cohort.Group) (model.IndicatorContribution, bool) {
	ind, _ := e.registry.Get(id)
	b, okB := base.Value(id)
	c, okC := cur.Value(id)
	if okB && okC {
		sd := 0.0
		if st, ok := grp.Stat(id); ok {
			sd = st.StdDev
		}
		return model.IndicatorContribution{
			IndicatorID: id,
			Baseline:    b,
			Current:     c,
			EffectSize:  ind.Direction() * stats.ZScore(c, b, sd),
		}, true
	}
	if !e.settings.PercentileFallback {
		return model.IndicatorContribution{}, false
	}
	pb, okB := base.Percentile(id)
	pc, okC := cur.Percentile(id)
	if !okB || !okC {
		return model.IndicatorContribution{}, false
	}
	return model.IndicatorContribution{
		IndicatorID:    id,
		Baseline:       pb,
		Current:        pc,
		FromPercentile: true,
		EffectSize:     stats.PercentileToZScore(pc) - stats.PercentileToZScore(pb),
	}, true
}

// peerGrowth ranks growth among the cohort's peers, shrinks the percentile
// toward the cohort midpoint and maps it to the display scale. Shared by CGP
// and PGS.
func (e *Engine) peerGrowth(kind model.ComponentKind, teamID string, growth float64, peers *ranking.Board) model.ComponentResult {
	n := 0
	raw := stats.ScaledBaseline
	if peers != nil {
		n = peers.Len()
		raw = peers.PercentileRank(growth)
	}
	shrunk, factor := stats.EmpiricalBayesShrink(raw, n, e.settings.ShrinkagePrior)
	z := stats.PercentileToZScore(shrunk)

	res := model.ComponentResult{
		Kind:          kind,
		Raw:           raw,
		Scaled:        stats.ZScoreToScaled(z),
		StandardError: peerStandardError(shrunk, z, n, factor),
		Meta: model.ComponentMeta{
			GroupSize:       n,
			RawPercentile:   raw,
			Percentile:      shrunk,
			ShrinkageFactor: factor,
		},
	}
	if peers != nil {
		if entry, err := peers.Rank(teamID); err == nil {
			res.Meta.Rank = entry.Rank
		}
	}
	return res
}

// peerStandardError is the delta-method error of a percentile on the display
// scale: 10·sqrt(q(1-q)/n)/φ(z), reduced by the shrinkage applied.
func peerStandardError(percentile, z float64, n int, factor float64) float64 {
	if n <= 0 {
		return maxPeerStandardError
	}
	q := percentile / 100
	pdf := stats.NormalPDF(z)
	if pdf <= 0 {
		return maxPeerStandardError
	}
	se := stats.ScaledPerSD * math.Sqrt(q*(1-q)/float64(n)) / pdf * (1 - factor)
	return math.Min(se, maxPeerStandardError)
}

// ShouldCalculateTNV reports whether a team's measurement interval supports a
// velocity estimate. The reason explains a negative answer.
func (e *Engine) ShouldCalculateTNV(team model.TeamHistory) (bool, string) {
	if !team.HasInterval() {
		return false, "no measurement interval"
	}
	days := team.ElapsedDays()
	t := e.settings.TNV
	if days < t.MinIntervalDays || days > t.MaxIntervalDays {
		return false, fmt.Sprintf("interval %.1f days outside [%.0f, %.0f]", days, t.MinIntervalDays, t.MaxIntervalDays)
	}
	if cv := stats.CoefficientOfVariation(team.Spacings()); cv > t.MaxSpacingCV {
		return false, fmt.Sprintf("spacing cv %.2f above %.2f", cv, t.MaxSpacingCV)
	}
	return true, ""
}

// velocity computes TNV: the API growth per elapsed day scaled by the typical
// interval so a typical interval lands on the API's magnitude.
func (e *Engine) velocity(team model.TeamHistory, api model.ComponentResult) model.ComponentResult {
	days := team.ElapsedDays()
	k := e.settings.TNV.TypicalIntervalDays
	perDay := api.Raw / days
	z, clipped := stats.Winsorize(perDay*k, e.settings.WinsorizeLowerPct, e.settings.WinsorizeUpperPct)
	return model.ComponentResult{
		Kind:          model.ComponentTNV,
		Raw:           z,
		Scaled:        stats.ZScoreToScaled(z),
		StandardError: api.StandardError * k / days,
		Meta: model.ComponentMeta{
			Winsorized:     clipped,
			VelocityPerDay: perDay,
			ElapsedDays:    days,
		},
	}
}

// weightedDispersion is Σw(x-mean)² over weights that sum to one.
func weightedDispersion(values, weights []float64, mean float64) float64 {
	v := 0.0
	for i, x := range values {
		d := x - mean
		v += weights[i] * d * d
	}
	return v
}
