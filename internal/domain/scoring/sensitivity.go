package scoring

import (
	"math"

	"github.com/okian/pulse/internal/domain/model"
)

// Analyze recomputes a composite under each alternate configuration using the
// same component values and flags alternates that move the category.
func Analyze(
	def model.CompositeResult,
	alternates []model.WeightConfiguration,
	bands CategoryBands,
	z float64,
) model.SensitivityReport {
	report := model.SensitivityReport{
		Configurations: make([]model.SensitivityConfiguration, 0, len(alternates)),
	}
	for _, alt := range alternates {
		res := Aggregate(def.TeamID, def.Family, def.Breakdown, alt, bands, z)
		sc := model.SensitivityConfiguration{
			Configuration:   alt,
			Score:           res.Score,
			Category:        res.Category,
			CategoryChanged: res.Category != def.Category,
			Delta:           res.Score - def.Score,
		}
		if sc.CategoryChanged {
			report.ChangedCount++
		}
		if d := math.Abs(sc.Delta); d > report.MaxAbsDelta {
			report.MaxAbsDelta = d
		}
		report.Configurations = append(report.Configurations, sc)
	}
	report.IsSensitive = report.ChangedCount > 0
	return report
}
