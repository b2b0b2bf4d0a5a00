// Package indicator defines the static catalog of measured indicators and the
// per-team weight redistribution used when coverage is incomplete.
package indicator

import (
	"fmt"
	"math"
)

// weightTolerance bounds how far catalog weights may drift from summing to 1.
const weightTolerance = 1e-6

// Indicator is an immutable catalog entry.
type Indicator struct {
	ID             string  `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	Weight         float64 `json:"weight" yaml:"weight"`
	HigherIsBetter bool    `json:"higher_is_better" yaml:"higher_is_better"`
	Unit           string  `json:"unit" yaml:"unit"`
}

// Direction returns +1 for higher-is-better indicators and -1 for inverted ones.
func (i Indicator) Direction() float64 {
	if i.HigherIsBetter {
		return 1
	}
	return -1
}

// MissingDataResult records which indicators were excluded from a team's
// calculation and the effective weights applied to the rest.
type MissingDataResult struct {
	Excluded         []string           `json:"excluded,omitempty"`
	EffectiveWeights map[string]float64 `json:"effective_weights"`
}

// HasMissing reports whether any indicator was excluded.
func (m MissingDataResult) HasMissing() bool { return len(m.Excluded) > 0 }

// Registry is an ordered, validated indicator catalog. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	indicators []Indicator
	byID       map[string]int
	version    string
}

// NewRegistry validates and builds a registry. Catalog order is preserved and
// drives iteration order everywhere downstream.
func NewRegistry(version string, indicators ...Indicator) (*Registry, error) {
	if len(indicators) == 0 {
		return nil, fmt.Errorf("%w: empty catalog", ErrInvalidCatalog)
	}
	r := &Registry{
		indicators: make([]Indicator, len(indicators)),
		byID:       make(map[string]int, len(indicators)),
		version:    version,
	}
	sum := 0.0
	for i, ind := range indicators {
		if ind.ID == "" {
			return nil, fmt.Errorf("%w: indicator %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := r.byID[ind.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate indicator %q", ErrInvalidCatalog, ind.ID)
		}
		if ind.Weight < 0 || ind.Weight > 1 || math.IsNaN(ind.Weight) {
			return nil, fmt.Errorf("%w: indicator %q weight %.4f outside [0,1]", ErrInvalidCatalog, ind.ID, ind.Weight)
		}
		r.indicators[i] = ind
		r.byID[ind.ID] = i
		sum += ind.Weight
	}
	if math.Abs(sum-1) > weightTolerance {
		return nil, fmt.Errorf("%w: weights sum to %.6f, want 1", ErrInvalidCatalog, sum)
	}
	return r, nil
}

// Version is the catalog version string.
func (r *Registry) Version() string { return r.version }

// Len returns the number of indicators.
func (r *Registry) Len() int { return len(r.indicators) }

// All returns a copy of the catalog in order.
func (r *Registry) All() []Indicator {
	out := make([]Indicator, len(r.indicators))
	copy(out, r.indicators)
	return out
}

// IDs returns indicator ids in catalog order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.indicators))
	for i, ind := range r.indicators {
		out[i] = ind.ID
	}
	return out
}

// Get looks up an indicator by id.
func (r *Registry) Get(id string) (Indicator, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Indicator{}, false
	}
	return r.indicators[i], true
}

// RedistributeWeights spreads the weight of absent indicators proportionally
// over the present ones. present is consulted per catalog entry; unknown ids
// are ignored. When nothing is present, or every present weight is zero, the
// present indicators share the weight equally.
func (r *Registry) RedistributeWeights(present func(id string) bool) MissingDataResult {
	res := MissingDataResult{EffectiveWeights: make(map[string]float64, len(r.indicators))}
	kept := make([]Indicator, 0, len(r.indicators))
	total := 0.0
	for _, ind := range r.indicators {
		if !present(ind.ID) {
			res.Excluded = append(res.Excluded, ind.ID)
			continue
		}
		kept = append(kept, ind)
		total += ind.Weight
	}
	for _, ind := range kept {
		if total > 0 {
			res.EffectiveWeights[ind.ID] = ind.Weight / total
		} else {
			res.EffectiveWeights[ind.ID] = 1 / float64(len(kept))
		}
	}
	return res
}
