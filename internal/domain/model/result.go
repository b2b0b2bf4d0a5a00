package model

import "github.com/okian/pulse/internal/domain/indicator"

// ComponentKind names one of the six composite components.
type ComponentKind string

// Component kinds.
const (
	ComponentAPI ComponentKind = "api"
	ComponentCGP ComponentKind = "cgp"
	ComponentTNV ComponentKind = "tnv"
	ComponentCSS ComponentKind = "css"
	ComponentTRS ComponentKind = "trs"
	ComponentPGS ComponentKind = "pgs"
)

// ModelFamily selects the composite being computed.
type ModelFamily string

// Model families.
const (
	FamilyProgress ModelFamily = "progress"
	FamilyHealth   ModelFamily = "health"
)

// Acronym is the short display name of the family's composite.
func (f ModelFamily) Acronym() string {
	switch f {
	case FamilyProgress:
		return "CPS"
	case FamilyHealth:
		return "CHS"
	default:
		return string(f)
	}
}

// Components lists the family's components in canonical order. The third one
// is optional and drops out when its eligibility checks fail.
func (f ModelFamily) Components() []ComponentKind {
	switch f {
	case FamilyProgress:
		return []ComponentKind{ComponentAPI, ComponentCGP, ComponentTNV}
	case FamilyHealth:
		return []ComponentKind{ComponentCSS, ComponentTRS, ComponentPGS}
	default:
		return nil
	}
}

// Valid reports whether f is a known family.
func (f ModelFamily) Valid() bool {
	return f == FamilyProgress || f == FamilyHealth
}

// ModelType tags how many components a composite combined.
type ModelType string

// Model types.
const (
	TwoComponentModel   ModelType = "two-component"
	ThreeComponentModel ModelType = "three-component"
)

// IndicatorContribution is one indicator's share of a component.
type IndicatorContribution struct {
	IndicatorID string  `json:"indicator_id"`
	Baseline    float64 `json:"baseline,omitempty"`
	Current     float64 `json:"current,omitempty"`
	// FromPercentile is set when the value came from percentile-only data.
	FromPercentile       bool    `json:"from_percentile,omitempty"`
	EffectSize           float64 `json:"effect_size"`
	Winsorized           bool    `json:"winsorized,omitempty"`
	Weight               float64 `json:"weight"`
	WeightedContribution float64 `json:"weighted_contribution"`
}

// ComponentMeta holds component specific detail. Fields not relevant to a
// component are left zero.
type ComponentMeta struct {
	Winsorized    bool                         `json:"winsorized,omitempty"`
	Contributions []IndicatorContribution      `json:"contributions,omitempty"`
	MissingData   *indicator.MissingDataResult `json:"missing_data,omitempty"`

	// Peer ranking (CGP, PGS).
	Rank            int     `json:"rank,omitempty"`
	GroupSize       int     `json:"group_size,omitempty"`
	RawPercentile   float64 `json:"raw_percentile,omitempty"`
	Percentile      float64 `json:"percentile,omitempty"`
	ShrinkageFactor float64 `json:"shrinkage_factor,omitempty"`

	// Velocity (TNV).
	VelocityPerDay float64 `json:"velocity_per_day,omitempty"`
	ElapsedDays    float64 `json:"elapsed_days,omitempty"`

	// Trajectory (TRS).
	EffectSize   float64 `json:"effect_size,omitempty"`
	EarlyN       int     `json:"early_n,omitempty"`
	RecentN      int     `json:"recent_n,omitempty"`
	MeanFallback bool    `json:"mean_difference_fallback,omitempty"`
}

// ComponentResult is one computed component.
type ComponentResult struct {
	Kind          ComponentKind `json:"kind"`
	Raw           float64       `json:"raw"`
	Scaled        float64       `json:"scaled"`
	StandardError float64       `json:"standard_error"`
	Meta          ComponentMeta `json:"meta"`
}

// Breakdown is the set of components a composite combined. It is implemented
// only by TwoComponent and ThreeComponent so an omitted component can never be
// read.
type Breakdown interface {
	ModelType() ModelType
	Components() []ComponentResult
	breakdown()
}

// TwoComponent is a composite whose optional third component was ineligible.
type TwoComponent struct {
	First   ComponentResult `json:"first"`
	Second  ComponentResult `json:"second"`
	Omitted ComponentKind   `json:"omitted"`
	Reason  string          `json:"reason"`
}

// ModelType implements Breakdown.
func (TwoComponent) ModelType() ModelType { return TwoComponentModel }

// Components implements Breakdown.
func (b TwoComponent) Components() []ComponentResult {
	return []ComponentResult{b.First, b.Second}
}

func (TwoComponent) breakdown() {}

// ThreeComponent is a full composite.
type ThreeComponent struct {
	First  ComponentResult `json:"first"`
	Second ComponentResult `json:"second"`
	Third  ComponentResult `json:"third"`
}

// ModelType implements Breakdown.
func (ThreeComponent) ModelType() ModelType { return ThreeComponentModel }

// Components implements Breakdown.
func (b ThreeComponent) Components() []ComponentResult {
	return []ComponentResult{b.First, b.Second, b.Third}
}

func (ThreeComponent) breakdown() {}

// Category is a qualitative band label.
type Category string

// Interval is a closed score range.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// CompositeResult is a team's CPS or CHS.
type CompositeResult struct {
	TeamID        string                    `json:"team_id"`
	Family        ModelFamily               `json:"family"`
	ModelType     ModelType                 `json:"model_type"`
	Score         float64                   `json:"score"`
	Category      Category                  `json:"category"`
	CategoryIndex int                       `json:"category_index"`
	CI            Interval                  `json:"confidence_interval"`
	StandardError float64                   `json:"standard_error"`
	WeightsUsed   map[ComponentKind]float64 `json:"weights_used"`
	Breakdown     Breakdown                 `json:"breakdown"`
}

// Component returns the named component when the breakdown carries it.
func (r CompositeResult) Component(kind ComponentKind) (ComponentResult, bool) {
	if r.Breakdown == nil {
		return ComponentResult{}, false
	}
	for _, c := range r.Breakdown.Components() {
		if c.Kind == kind {
			return c, true
		}
	}
	return ComponentResult{}, false
}
