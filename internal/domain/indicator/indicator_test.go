package indicator_test

import (
	"errors"
	"testing"

	"github.com/okian/pulse/internal/domain/indicator"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewRegistry(t *testing.T) {
	Convey("Given catalog construction", t, func() {
		Convey("When the catalog is valid", func() {
			r, err := indicator.NewRegistry("v1",
				indicator.Indicator{ID: "a", Weight: 0.6, HigherIsBetter: true},
				indicator.Indicator{ID: "b", Weight: 0.4},
			)

			Convey("Then order and lookups should be preserved", func() {
				So(err, ShouldBeNil)
				So(r.Len(), ShouldEqual, 2)
				So(r.IDs(), ShouldResemble, []string{"a", "b"})
				So(r.Version(), ShouldEqual, "v1")
				b, ok := r.Get("b")
				So(ok, ShouldBeTrue)
				So(b.Direction(), ShouldEqual, -1.0)
				_, ok = r.Get("zzz")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the catalog is invalid", func() {
			cases := map[string][]indicator.Indicator{
				"empty":     nil,
				"no id":     {{Weight: 1}},
				"duplicate": {{ID: "a", Weight: 0.5}, {ID: "a", Weight: 0.5}},
				"negative":  {{ID: "a", Weight: -0.5}, {ID: "b", Weight: 1.5}},
				"sum":       {{ID: "a", Weight: 0.5}, {ID: "b", Weight: 0.4}},
			}
			for name, inds := range cases {
				_, err := indicator.NewRegistry("v1", inds...)
				So(errors.Is(err, indicator.ErrInvalidCatalog), ShouldBeTrue)
				So(name, ShouldNotBeEmpty)
			}
		})

		Convey("When loading the built-in catalog", func() {
			r := indicator.DefaultCatalog()
			Convey("Then weights should sum to one", func() {
				sum := 0.0
				for _, ind := range r.All() {
					sum += ind.Weight
				}
				So(sum, ShouldAlmostEqual, 1.0, 1e-9)
				So(r.Version(), ShouldEqual, indicator.CatalogVersion)
			})
		})
	})
}

func TestRedistributeWeights(t *testing.T) {
	Convey("Given two equally weighted indicators", t, func() {
		r, err := indicator.NewRegistry("v1",
			indicator.Indicator{ID: "a", Weight: 0.5, HigherIsBetter: true},
			indicator.Indicator{ID: "b", Weight: 0.5, HigherIsBetter: true},
		)
		So(err, ShouldBeNil)

		Convey("When one indicator is missing", func() {
			res := r.RedistributeWeights(func(id string) bool { return id == "a" })

			Convey("Then the remaining indicator should carry the full weight", func() {
				So(res.EffectiveWeights["a"], ShouldEqual, 1.0)
				So(res.Excluded, ShouldResemble, []string{"b"})
				So(res.HasMissing(), ShouldBeTrue)
			})
		})

		Convey("When nothing is missing", func() {
			res := r.RedistributeWeights(func(string) bool { return true })
			So(res.EffectiveWeights["a"], ShouldEqual, 0.5)
			So(res.HasMissing(), ShouldBeFalse)
		})
	})

	Convey("Given uneven weights", t, func() {
		r, err := indicator.NewRegistry("v1",
			indicator.Indicator{ID: "a", Weight: 0.2},
			indicator.Indicator{ID: "b", Weight: 0.3},
			indicator.Indicator{ID: "c", Weight: 0.5},
		)
		So(err, ShouldBeNil)

		Convey("When the heaviest indicator is missing", func() {
			res := r.RedistributeWeights(func(id string) bool { return id != "c" })
			Convey("Then the rest should be scaled proportionally", func() {
				So(res.EffectiveWeights["a"], ShouldAlmostEqual, 0.4, 1e-12)
				So(res.EffectiveWeights["b"], ShouldAlmostEqual, 0.6, 1e-12)
			})
		})

		Convey("When every present indicator has zero weight", func() {
			z, err := indicator.NewRegistry("v1",
				indicator.Indicator{ID: "x", Weight: 0},
				indicator.Indicator{ID: "y", Weight: 0},
				indicator.Indicator{ID: "z", Weight: 1},
			)
			So(err, ShouldBeNil)
			res := z.RedistributeWeights(func(id string) bool { return id != "z" })
			So(res.EffectiveWeights["x"], ShouldEqual, 0.5)
			So(res.EffectiveWeights["y"], ShouldEqual, 0.5)
		})
	})
}
