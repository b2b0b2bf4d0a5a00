package model

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/go-playground/validator/v10"
)

// WeightTolerance bounds how far a configuration's weights may drift from 1.
const WeightTolerance = 1e-6

// weightValidate is shared by every WeightConfiguration; validator caches
// struct metadata so a single instance is reused.
var weightValidate *validator.Validate

func init() {
	weightValidate = validator.New()
	if err := weightValidate.RegisterValidation("unitsum", validateUnitSum); err != nil {
		panic(err)
	}
}

// validateUnitSum checks that a map of float weights sums to 1.
func validateUnitSum(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Map {
		return false
	}
	sum := 0.0
	iter := field.MapRange()
	for iter.Next() {
		sum += iter.Value().Float()
	}
	return math.Abs(sum-1) <= WeightTolerance
}

// WeightConfiguration is a named set of component weights for one family.
type WeightConfiguration struct {
	Name    string                    `json:"name" koanf:"name" validate:"required"`
	Family  ModelFamily               `json:"family" koanf:"family" validate:"oneof=progress health"`
	Weights map[ComponentKind]float64 `json:"weights" koanf:"weights" validate:"required,len=3,unitsum,dive,keys,oneof=api cgp tnv css trs pgs,endkeys,gte=0,lte=1"`
}

// Validate rejects configurations whose weights do not cover exactly the
// family's components or do not sum to 1 within WeightTolerance.
func (w WeightConfiguration) Validate() error {
	if err := weightValidate.Struct(w); err != nil {
		return fmt.Errorf("%w: %q: %s", ErrInvalidWeights, w.Name, describeWeights(w, err))
	}
	for _, kind := range w.Family.Components() {
		if _, ok := w.Weights[kind]; !ok {
			return fmt.Errorf("%w: %q: missing %s weight for %s", ErrInvalidWeights, w.Name, kind, w.Family.Acronym())
		}
	}
	return nil
}

func describeWeights(w WeightConfiguration, err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "unitsum":
		sum := 0.0
		for _, v := range w.Weights {
			sum += v
		}
		return fmt.Sprintf("weights sum to %.6f, want 1", sum)
	case "gte", "lte":
		return fmt.Sprintf("weight %s=%v outside [0,1]", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("field %s failed %q", fe.Field(), fe.Tag())
	}
}

// ActiveWeights renormalizes the configuration over the present components.
// Absent components get no entry. When the present weights are all zero they
// share equally.
func (w WeightConfiguration) ActiveWeights(present []ComponentKind) map[ComponentKind]float64 {
	out := make(map[ComponentKind]float64, len(present))
	total := 0.0
	for _, k := range present {
		total += w.Weights[k]
	}
	for _, k := range present {
		if total > 0 {
			out[k] = w.Weights[k] / total
		} else {
			out[k] = 1 / float64(len(present))
		}
	}
	return out
}

// Kinds returns the configured component kinds in sorted order.
func (w WeightConfiguration) Kinds() []ComponentKind {
	out := make([]ComponentKind, 0, len(w.Weights))
	for k := range w.Weights {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WeightCatalog is a family's default configuration plus its alternates for
// sensitivity analysis.
type WeightCatalog struct {
	Default    WeightConfiguration   `json:"default" koanf:"default"`
	Alternates []WeightConfiguration `json:"alternates" koanf:"alternates"`
}

// Validate validates every configuration and checks family consistency and
// name uniqueness.
func (c WeightCatalog) Validate(family ModelFamily) error {
	all := append([]WeightConfiguration{c.Default}, c.Alternates...)
	seen := make(map[string]struct{}, len(all))
	for _, w := range all {
		if w.Family != family {
			return fmt.Errorf("%w: %q belongs to %s, want %s", ErrInvalidWeights, w.Name, w.Family, family)
		}
		if err := w.Validate(); err != nil {
			return err
		}
		if _, dup := seen[w.Name]; dup {
			return fmt.Errorf("%w: duplicate configuration %q", ErrInvalidWeights, w.Name)
		}
		seen[w.Name] = struct{}{}
	}
	return nil
}

// DefaultProgressWeights returns the CPS default configuration and alternates.
func DefaultProgressWeights() WeightCatalog {
	mk := func(name string, api, cgp, tnv float64) WeightConfiguration {
		return WeightConfiguration{Name: name, Family: FamilyProgress, Weights: map[ComponentKind]float64{
			ComponentAPI: api, ComponentCGP: cgp, ComponentTNV: tnv,
		}}
	}
	return WeightCatalog{
		Default: mk("default", 0.40, 0.35, 0.25),
		Alternates: []WeightConfiguration{
			mk("progress-weighted", 0.60, 0.25, 0.15),
			mk("peer-weighted", 0.25, 0.60, 0.15),
			mk("velocity-weighted", 0.25, 0.25, 0.50),
			mk("equal", 1.0/3, 1.0/3, 1.0/3),
		},
	}
}

// DefaultHealthWeights returns the CHS default configuration and alternates.
func DefaultHealthWeights() WeightCatalog {
	mk := func(name string, css, trs, pgs float64) WeightConfiguration {
		return WeightConfiguration{Name: name, Family: FamilyHealth, Weights: map[ComponentKind]float64{
			ComponentCSS: css, ComponentTRS: trs, ComponentPGS: pgs,
		}}
	}
	return WeightCatalog{
		Default: mk("default", 0.40, 0.30, 0.30),
		Alternates: []WeightConfiguration{
			mk("stability-weighted", 0.60, 0.20, 0.20),
			mk("trajectory-weighted", 0.25, 0.50, 0.25),
			mk("peer-weighted", 0.25, 0.25, 0.50),
			mk("equal", 1.0/3, 1.0/3, 1.0/3),
		},
	}
}
