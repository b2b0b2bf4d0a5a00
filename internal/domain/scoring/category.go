package scoring

import (
	"fmt"

	"github.com/okian/pulse/internal/domain/model"
)

// BandCount is the number of ordered categories.
const BandCount = 5

// CategoryBands maps composite scores onto five ordered labels. Thresholds[i]
// is the inclusive lower bound of Labels[i+1].
type CategoryBands struct {
	Labels     [BandCount]model.Category
	Thresholds [BandCount - 1]float64
}

var defaultThresholds = [BandCount - 1]float64{35, 45, 55, 65}

// DefaultProgressBands returns the CPS categories.
func DefaultProgressBands() CategoryBands {
	return CategoryBands{
		Labels: [BandCount]model.Category{
			"significant-decline", "moderate-decline", "stable", "moderate-progress", "strong-progress",
		},
		Thresholds: defaultThresholds,
	}
}

// DefaultHealthBands returns the CHS categories.
func DefaultHealthBands() CategoryBands {
	return CategoryBands{
		Labels: [BandCount]model.Category{
			"needs-attention", "below-par", "on-track", "strong", "excellent",
		},
		Thresholds: defaultThresholds,
	}
}

// DefaultBands returns the family's default categories.
func DefaultBands(family model.ModelFamily) CategoryBands {
	if family == model.FamilyHealth {
		return DefaultHealthBands()
	}
	return DefaultProgressBands()
}

// NewCategoryBands builds bands from configuration slices.
func NewCategoryBands(labels []string, thresholds []float64) (CategoryBands, error) {
	var b CategoryBands
	if len(labels) != BandCount || len(thresholds) != BandCount-1 {
		return b, fmt.Errorf("%w: want %d labels and %d thresholds, got %d and %d",
			ErrInvalidBands, BandCount, BandCount-1, len(labels), len(thresholds))
	}
	for i, l := range labels {
		b.Labels[i] = model.Category(l)
	}
	copy(b.Thresholds[:], thresholds)
	return b, b.Validate()
}

// Validate checks that labels are set and unique and thresholds strictly
// increase inside (0, 100).
func (b CategoryBands) Validate() error {
	seen := make(map[model.Category]struct{}, BandCount)
	for _, l := range b.Labels {
		if l == "" {
			return fmt.Errorf("%w: empty label", ErrInvalidBands)
		}
		if _, dup := seen[l]; dup {
			return fmt.Errorf("%w: duplicate label %q", ErrInvalidBands, l)
		}
		seen[l] = struct{}{}
	}
	prev := 0.0
	for i, t := range b.Thresholds {
		if t <= prev || t >= 100 {
			return fmt.Errorf("%w: threshold %d (%.2f) must lie in (%.2f, 100)", ErrInvalidBands, i, t, prev)
		}
		prev = t
	}
	return nil
}

// Classify returns the category and its index for a score.
func (b CategoryBands) Classify(score float64) (model.Category, int) {
	idx := 0
	for _, t := range b.Thresholds {
		if score >= t {
			idx++
		}
	}
	return b.Labels[idx], idx
}

// Index returns the position of a label, or -1.
func (b CategoryBands) Index(c model.Category) int {
	for i, l := range b.Labels {
		if l == c {
			return i
		}
	}
	return -1
}
