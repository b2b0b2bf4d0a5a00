package scoring

import (
	"errors"

	"github.com/okian/pulse/internal/domain/cohort"
	"github.com/okian/pulse/internal/domain/indicator"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/stats"
)

// levelEffect returns the direction-adjusted z-score of one indicator in a
// snapshot against the cohort norm, falling back to percentile-only data when
// enabled. False means the indicator cannot be placed.
func (e *Engine) levelEffect(id string, s model.Snapshot, grp *cohort.Group) (model.IndicatorContribution, bool) {
	ind, _ := e.registry.Get(id)
	if v, ok := s.Value(id); ok {
		if st, ok := grp.Stat(id); ok {
			return model.IndicatorContribution{
				IndicatorID: id,
				Current:     v,
				EffectSize:  ind.Direction() * stats.ZScore(v, st.Mean, st.StdDev),
			}, true
		}
	}
	if !e.settings.PercentileFallback {
		return model.IndicatorContribution{}, false
	}
	p, ok := s.Percentile(id)
	if !ok {
		return model.IndicatorContribution{}, false
	}
	return model.IndicatorContribution{
		IndicatorID:    id,
		Current:        p,
		FromPercentile: true,
		EffectSize:     stats.PercentileToZScore(p),
	}, true
}

// snapshotWeights redistributes catalog weights over the indicators a
// snapshot can be placed on.
func (e *Engine) snapshotWeights(s model.Snapshot, grp *cohort.Group) indicator.MissingDataResult {
	return e.registry.RedistributeWeights(func(id string) bool {
		_, ok := e.levelEffect(id, s, grp)
		return ok
	})
}

// healthIndex is the weighted, winsorized z-score composite of one snapshot
// with its per-indicator contributions.
func (e *Engine) healthIndex(s model.Snapshot, grp *cohort.Group) (float64, []model.IndicatorContribution, indicator.MissingDataResult) {
	missing := e.snapshotWeights(s, grp)
	index := 0.0
	contribs := make([]model.IndicatorContribution, 0, len(missing.EffectiveWeights))
	for _, ind := range e.registry.All() {
		w, ok := missing.EffectiveWeights[ind.ID]
		if !ok {
			continue
		}
		c, _ := e.levelEffect(ind.ID, s, grp)
		c.EffectSize, c.Winsorized = stats.Winsorize(c.EffectSize, e.settings.WinsorizeLowerPct, e.settings.WinsorizeUpperPct)
		c.Weight = w
		c.WeightedContribution = w * c.EffectSize
		index += c.WeightedContribution
		contribs = append(contribs, c)
	}
	return index, contribs, missing
}

// currentState computes CSS: where the team stands now against its cohort's
// baseline norms, independent of trend.
func (e *Engine) currentState(team model.TeamHistory, grp *cohort.Group) model.ComponentResult {
	res := model.ComponentResult{Kind: model.ComponentCSS, Scaled: stats.ScaledBaseline}
	cur, ok := team.Current()
	if !ok {
		return res
	}
	index, contribs, missing := e.healthIndex(cur, grp)
	effects := make([]float64, len(contribs))
	weights := make([]float64, len(contribs))
	for i, c := range contribs {
		effects[i], weights[i] = c.EffectSize, c.Weight
		res.Meta.Winsorized = res.Meta.Winsorized || c.Winsorized
	}
	res.Raw = index
	res.Scaled = stats.ZScoreToScaled(index)
	res.StandardError = stats.ScaledPerSD * stats.StandardError(weightedDispersion(effects, weights, index), len(effects))
	res.Meta.Contributions = contribs
	res.Meta.MissingData = &missing
	return res
}

// trajectory computes TRS: the standardized difference between the early and
// recent halves of the team's health index series. With an odd count of at
// least three the middle snapshot belongs to neither half.
func (e *Engine) trajectory(team model.TeamHistory, grp *cohort.Group) model.ComponentResult {
	res := model.ComponentResult{Kind: model.ComponentTRS, Scaled: stats.ScaledBaseline}
	n := len(team.Snapshots)
	if n < 2 {
		return res
	}
	series := make([]float64, n)
	for i, s := range team.Snapshots {
		series[i], _, _ = e.healthIndex(s, grp)
	}
	half := n / 2
	early, recent := series[:half], series[n-half:]

	d, err := stats.CohenD(early, recent)
	if errors.Is(err, stats.ErrInsufficientSamples) || errors.Is(err, stats.ErrZeroVariance) {
		d = stats.Mean(recent) - stats.Mean(early)
		res.Meta.MeanFallback = true
	}
	d, clipped := stats.Winsorize(d, e.settings.WinsorizeLowerPct, e.settings.WinsorizeUpperPct)

	res.Raw = d
	res.Scaled = stats.ZScoreToScaled(d)
	res.StandardError = min(stats.ScaledPerSD*stats.CohenDStandardError(d, len(early), len(recent)), maxPeerStandardError)
	res.Meta.Winsorized = clipped
	res.Meta.EffectSize = d
	res.Meta.EarlyN = len(early)
	res.Meta.RecentN = len(recent)
	return res
}

// healthGrowth is the change in health index from baseline to current, the
// statistic PGS ranks among peers. False when there is no interval.
func (e *Engine) healthGrowth(team model.TeamHistory, grp *cohort.Group) (float64, bool) {
	base, cur, err := team.Interval()
	if err != nil {
		return 0, false
	}
	b, _, _ := e.healthIndex(base, grp)
	c, _, _ := e.healthIndex(cur, grp)
	return c - b, true
}
