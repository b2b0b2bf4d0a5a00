package scoring

import (
	"math"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/stats"
)

// Aggregate combines a breakdown into a composite under the given weights.
// Weights renormalize over the components actually present, the score is
// clamped to the display scale and the standard error propagates as
// sqrt(Σ w²·SE²).
func Aggregate(
	teamID string,
	family model.ModelFamily,
	breakdown model.Breakdown,
	weights model.WeightConfiguration,
	bands CategoryBands,
	z float64,
) model.CompositeResult {
	comps := breakdown.Components()
	kinds := make([]model.ComponentKind, len(comps))
	for i, c := range comps {
		kinds[i] = c.Kind
	}
	used := weights.ActiveWeights(kinds)

	score, variance := 0.0, 0.0
	for _, c := range comps {
		w := used[c.Kind]
		score += w * c.Scaled
		variance += w * w * c.StandardError * c.StandardError
	}
	score = stats.Clamp(score, stats.ScaledMin, stats.ScaledMax)
	se := math.Sqrt(variance)
	lower, upper := stats.ConfidenceInterval(score, se, z)
	cat, idx := bands.Classify(score)

	return model.CompositeResult{
		TeamID:        teamID,
		Family:        family,
		ModelType:     breakdown.ModelType(),
		Score:         score,
		Category:      cat,
		CategoryIndex: idx,
		CI:            model.Interval{Lower: lower, Upper: upper},
		StandardError: se,
		WeightsUsed:   used,
		Breakdown:     breakdown,
	}
}
