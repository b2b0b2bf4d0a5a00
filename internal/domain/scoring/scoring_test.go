package scoring_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/okian/pulse/internal/domain/cohort"
	"github.com/okian/pulse/internal/domain/indicator"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/ranking"
	scoring "github.com/okian/pulse/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func twoIndicators() *indicator.Registry {
	r, err := indicator.NewRegistry("test",
		indicator.Indicator{ID: "a", Weight: 0.6, HigherIsBetter: true},
		indicator.Indicator{ID: "b", Weight: 0.4, HigherIsBetter: true},
	)
	if err != nil {
		panic(err)
	}
	return r
}

func scenarioGroup() *cohort.Group {
	return &cohort.Group{
		ID:      1,
		Members: []string{"team"},
		Stats: map[string]cohort.IndicatorStats{
			"a": {Mean: 10, StdDev: 5, N: 6},
			"b": {Mean: 20, StdDev: 10, N: 6},
		},
	}
}

func snap(days int, values map[string]float64) model.Snapshot {
	return model.Snapshot{Timestamp: t0.AddDate(0, 0, days), Values: values}
}

func history(snaps ...model.Snapshot) model.TeamHistory {
	return model.TeamHistory{TeamID: "team", Snapshots: snaps}.Normalize()
}

func newEngine(r *indicator.Registry, mutate ...func(*scoring.Settings)) *scoring.Engine {
	s := scoring.DefaultSettings()
	for _, m := range mutate {
		m(&s)
	}
	e, err := scoring.NewEngine(r, scoring.WithSettings(s))
	if err != nil {
		panic(err)
	}
	return e
}

func peerBoard(growths ...float64) *ranking.Board {
	b := ranking.New()
	for i, g := range growths {
		b.Insert(fmt.Sprintf("peer-%d", i), g)
	}
	return b
}

func TestScoreProgress(t *testing.T) {
	ctx := context.Background()

	Convey("Given two indicators weighted 0.6 and 0.4", t, func() {
		e := newEngine(twoIndicators())
		grp := scenarioGroup()

		Convey("When the first indicator improves by one cohort standard deviation", func() {
			team := history(
				snap(0, map[string]float64{"a": 10, "b": 20}),
				snap(90, map[string]float64{"a": 15, "b": 20}),
			)
			res, err := e.ScoreProgress(ctx, team, grp, peerBoard(0.6))
			So(err, ShouldBeNil)

			Convey("Then API should scale to 56", func() {
				api, ok := res.Composite.Component(model.ComponentAPI)
				So(ok, ShouldBeTrue)
				So(api.Raw, ShouldAlmostEqual, 0.6, 1e-12)
				So(api.Scaled, ShouldAlmostEqual, 56, 1e-9)
				So(api.Meta.Contributions, ShouldHaveLength, 2)
				So(api.Meta.Contributions[0].EffectSize, ShouldAlmostEqual, 1, 1e-12)
				So(api.Meta.Contributions[0].WeightedContribution, ShouldAlmostEqual, 0.6, 1e-12)
				So(api.Meta.Contributions[1].EffectSize, ShouldEqual, 0)
				So(api.Meta.Winsorized, ShouldBeFalse)
			})

			Convey("Then a 90 day interval should yield a three-component model", func() {
				So(res.Composite.ModelType, ShouldEqual, model.ThreeComponentModel)
				tnv, ok := res.Composite.Component(model.ComponentTNV)
				So(ok, ShouldBeTrue)
				So(tnv.Raw, ShouldAlmostEqual, 0.6, 1e-9)
				So(res.CohortID, ShouldEqual, 1)
			})

			Convey("Then the composite should carry a confidence interval around the score", func() {
				c := res.Composite
				So(c.Score, ShouldBeBetweenOrEqual, 0, 100)
				So(c.CI.Lower, ShouldBeLessThanOrEqualTo, c.Score)
				So(c.CI.Upper, ShouldBeGreaterThanOrEqualTo, c.Score)
				sum := 0.0
				for _, w := range c.WeightsUsed {
					sum += w
				}
				So(sum, ShouldAlmostEqual, 1, 1e-12)
			})
		})

		Convey("When a team is missing one of two equally weighted indicators", func() {
			r, err := indicator.NewRegistry("eq",
				indicator.Indicator{ID: "a", Weight: 0.5, HigherIsBetter: true},
				indicator.Indicator{ID: "b", Weight: 0.5, HigherIsBetter: true},
			)
			So(err, ShouldBeNil)
			eq := newEngine(r)
			team := history(
				snap(0, map[string]float64{"a": 10}),
				snap(90, map[string]float64{"a": 15, "b": 40}),
			)
			res, err := eq.ScoreProgress(ctx, team, grp, peerBoard(0))
			So(err, ShouldBeNil)

			Convey("Then the remaining indicator should carry weight 1.0", func() {
				api, _ := res.Composite.Component(model.ComponentAPI)
				So(api.Meta.MissingData, ShouldNotBeNil)
				So(api.Meta.MissingData.Excluded, ShouldResemble, []string{"b"})
				So(api.Meta.MissingData.EffectiveWeights["a"], ShouldEqual, 1.0)
				So(api.Meta.Contributions, ShouldHaveLength, 1)
				So(api.Scaled, ShouldAlmostEqual, 60, 1e-9)
			})
		})

		Convey("When the cohort has no spread for an indicator", func() {
			flat := &cohort.Group{ID: 2, Stats: map[string]cohort.IndicatorStats{
				"a": {Mean: 10, StdDev: 0, N: 5},
				"b": {Mean: 20, StdDev: 10, N: 5},
			}}
			team := history(
				snap(0, map[string]float64{"a": 10, "b": 20}),
				snap(90, map[string]float64{"a": 99, "b": 20}),
			)
			res, err := e.ScoreProgress(ctx, team, flat, nil)

			Convey("Then that indicator should contribute zero", func() {
				So(err, ShouldBeNil)
				api, _ := res.Composite.Component(model.ComponentAPI)
				So(api.Raw, ShouldEqual, 0)
				So(api.Scaled, ShouldEqual, 50)
			})
		})

		Convey("When the interval is too short for velocity", func() {
			team := history(
				snap(0, map[string]float64{"a": 10, "b": 20}),
				snap(10, map[string]float64{"a": 15, "b": 20}),
			)
			res, err := e.ScoreProgress(ctx, team, grp, peerBoard(0))

			Convey("Then the model should downgrade to two components", func() {
				So(err, ShouldBeNil)
				So(res.Composite.ModelType, ShouldEqual, model.TwoComponentModel)
				two, ok := res.Composite.Breakdown.(model.TwoComponent)
				So(ok, ShouldBeTrue)
				So(two.Omitted, ShouldEqual, model.ComponentTNV)
				So(two.Reason, ShouldContainSubstring, "interval")
				_, ok = res.Composite.Component(model.ComponentTNV)
				So(ok, ShouldBeFalse)
				So(res.Composite.WeightsUsed, ShouldHaveLength, 2)
			})
		})

		Convey("When an effect is extreme", func() {
			team := history(
				snap(0, map[string]float64{"a": 10, "b": 20}),
				snap(90, map[string]float64{"a": 1000, "b": 20}),
			)
			res, err := e.ScoreProgress(ctx, team, grp, nil)

			Convey("Then it should be winsorized", func() {
				So(err, ShouldBeNil)
				api, _ := res.Composite.Component(model.ComponentAPI)
				So(api.Meta.Winsorized, ShouldBeTrue)
				So(api.Meta.Contributions[0].EffectSize, ShouldBeLessThan, 2.4)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := e.ScoreProgress(cctx, history(snap(0, nil)), grp, nil)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})

		Convey("When the team has no cohort", func() {
			_, err := e.ScoreProgress(ctx, history(snap(0, nil)), nil, nil)
			So(errors.Is(err, scoring.ErrNoCohort), ShouldBeTrue)
		})
	})
}

func TestShouldCalculateTNV(t *testing.T) {
	Convey("Given velocity eligibility rules", t, func() {
		e := newEngine(twoIndicators())
		v := map[string]float64{"a": 1, "b": 1}

		cases := []struct {
			name string
			days []int
			want bool
		}{
			{"single snapshot", []int{0}, false},
			{"too short", []int{0, 10}, false},
			{"typical", []int{0, 90}, true},
			{"evenly spaced", []int{0, 30, 60, 90}, true},
			{"too long", []int{0, 800}, false},
			{"uneven spacing", []int{0, 5, 90}, false},
		}
		for _, tc := range cases {
			snaps := make([]model.Snapshot, len(tc.days))
			for i, d := range tc.days {
				snaps[i] = snap(d, v)
			}
			ok, reason := e.ShouldCalculateTNV(history(snaps...))
			So(ok, ShouldEqual, tc.want)
			if !tc.want {
				So(reason, ShouldNotBeEmpty)
			}
		}
	})
}

func TestPeerGrowth(t *testing.T) {
	ctx := context.Background()

	Convey("Given a team with the highest growth among five peers", t, func() {
		e := newEngine(twoIndicators())
		grp := scenarioGroup()
		team := history(
			snap(0, map[string]float64{"a": 10, "b": 20}),
			snap(90, map[string]float64{"a": 15, "b": 20}),
		)
		growth := e.Growth(model.FamilyProgress, team, grp)
		board := peerBoard(-1, -0.5, 0, 0.2)
		board.Insert(team.TeamID, growth)

		Convey("When CGP is computed", func() {
			res, err := e.ScoreProgress(ctx, team, grp, board)
			So(err, ShouldBeNil)
			cgp, _ := res.Composite.Component(model.ComponentCGP)

			Convey("Then the percentile should be shrunk toward 50 for the small group", func() {
				So(cgp.Meta.GroupSize, ShouldEqual, 5)
				So(cgp.Meta.Rank, ShouldEqual, 1)
				So(cgp.Meta.RawPercentile, ShouldAlmostEqual, 90, 1e-9)
				So(cgp.Meta.ShrinkageFactor, ShouldAlmostEqual, 2.0/3, 1e-12)
				So(cgp.Meta.Percentile, ShouldAlmostEqual, 50+(90-50)/3.0, 1e-9)
				So(cgp.Scaled, ShouldBeGreaterThan, 50)
				So(cgp.Scaled, ShouldBeLessThan, 60)
				So(cgp.StandardError, ShouldBeGreaterThan, 0)
				So(cgp.StandardError, ShouldBeLessThanOrEqualTo, 25)
			})
		})

		Convey("When the peer group grows", func() {
			large := ranking.New()
			for i := 0; i < 200; i++ {
				large.Insert(fmt.Sprintf("p%d", i), float64(i)/1000)
			}
			large.Insert(team.TeamID, growth)
			res, err := e.ScoreProgress(ctx, team, grp, large)
			So(err, ShouldBeNil)
			cgp, _ := res.Composite.Component(model.ComponentCGP)

			Convey("Then shrinkage should weaken", func() {
				So(cgp.Meta.ShrinkageFactor, ShouldBeLessThan, 0.05)
				So(cgp.Meta.Percentile, ShouldBeGreaterThan, 95)
			})
		})
	})
}

func TestScoreHealth(t *testing.T) {
	ctx := context.Background()

	Convey("Given a health engine", t, func() {
		e := newEngine(twoIndicators())
		grp := scenarioGroup()
		improving := history(
			snap(0, map[string]float64{"a": 8, "b": 18}),
			snap(30, map[string]float64{"a": 9, "b": 19}),
			snap(60, map[string]float64{"a": 10, "b": 21}),
			snap(90, map[string]float64{"a": 14, "b": 24}),
			snap(120, map[string]float64{"a": 15, "b": 26}),
		)

		Convey("When enough peers have data", func() {
			growth := e.Growth(model.FamilyHealth, improving, grp)
			board := peerBoard(-0.2, 0, 0.1, 0.2)
			board.Insert(improving.TeamID, growth)
			res, err := e.ScoreHealth(ctx, improving, grp, board)
			So(err, ShouldBeNil)

			Convey("Then all three components should be present", func() {
				So(res.Composite.ModelType, ShouldEqual, model.ThreeComponentModel)
				So(res.Composite.Family, ShouldEqual, model.FamilyHealth)
				_, ok := res.Composite.Component(model.ComponentPGS)
				So(ok, ShouldBeTrue)
			})

			Convey("Then CSS should reflect the current level against cohort norms", func() {
				css, _ := res.Composite.Component(model.ComponentCSS)
				// a: (15-10)/5 = 1, b: (26-20)/10 = 0.6
				So(css.Raw, ShouldAlmostEqual, 0.6*1+0.4*0.6, 1e-9)
				So(css.Scaled, ShouldAlmostEqual, 58.4, 1e-9)
			})

			Convey("Then TRS should show an upward trajectory with the middle excluded", func() {
				trs, _ := res.Composite.Component(model.ComponentTRS)
				So(trs.Scaled, ShouldBeGreaterThan, 50)
				So(trs.Meta.EarlyN, ShouldEqual, 2)
				So(trs.Meta.RecentN, ShouldEqual, 2)
				So(trs.Meta.MeanFallback, ShouldBeFalse)
				So(trs.StandardError, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the peer group is too small", func() {
			res, err := e.ScoreHealth(ctx, improving, grp, peerBoard(0, 1))
			So(err, ShouldBeNil)

			Convey("Then PGS should be omitted", func() {
				So(res.Composite.ModelType, ShouldEqual, model.TwoComponentModel)
				two := res.Composite.Breakdown.(model.TwoComponent)
				So(two.Omitted, ShouldEqual, model.ComponentPGS)
				So(two.Reason, ShouldEqual, "insufficient peer data")
			})
		})

		Convey("When the team has only two snapshots", func() {
			team := history(
				snap(0, map[string]float64{"a": 10, "b": 20}),
				snap(90, map[string]float64{"a": 12, "b": 20}),
			)
			res, err := e.ScoreHealth(ctx, team, grp, nil)
			So(err, ShouldBeNil)

			Convey("Then TRS should fall back to the mean difference", func() {
				trs, _ := res.Composite.Component(model.ComponentTRS)
				So(trs.Meta.MeanFallback, ShouldBeTrue)
				So(trs.Raw, ShouldAlmostEqual, 0.6*0.4, 1e-9)
			})
		})

		Convey("When the team has a single snapshot", func() {
			team := history(snap(0, map[string]float64{"a": 15, "b": 20}))
			res, err := e.ScoreHealth(ctx, team, grp, peerBoard(0, 0, 0, 0, 0))
			So(err, ShouldBeNil)

			Convey("Then only the current state should move the score", func() {
				two := res.Composite.Breakdown.(model.TwoComponent)
				So(two.Reason, ShouldEqual, "no measurement interval")
				So(two.Second.Scaled, ShouldEqual, 50)
				So(two.First.Scaled, ShouldAlmostEqual, 56, 1e-9)
			})
		})
	})

	Convey("Given percentile-only data", t, func() {
		team := history(model.Snapshot{
			Timestamp:   t0,
			Percentiles: map[string]float64{"a": 84.1344746, "b": 50},
		})
		grp := scenarioGroup()

		Convey("When the fallback is enabled", func() {
			e := newEngine(twoIndicators())
			res, err := e.ScoreHealth(context.Background(), team, grp, nil)
			So(err, ShouldBeNil)

			Convey("Then CSS should use the percentile path", func() {
				css, _ := res.Composite.Component(model.ComponentCSS)
				So(css.Meta.Contributions[0].FromPercentile, ShouldBeTrue)
				So(css.Raw, ShouldAlmostEqual, 0.6, 1e-6)
			})
		})

		Convey("When the fallback is disabled", func() {
			e := newEngine(twoIndicators(), func(s *scoring.Settings) { s.PercentileFallback = false })
			res, err := e.ScoreHealth(context.Background(), team, grp, nil)
			So(err, ShouldBeNil)

			Convey("Then every indicator should be excluded", func() {
				css, _ := res.Composite.Component(model.ComponentCSS)
				So(css.Meta.MissingData.Excluded, ShouldResemble, []string{"a", "b"})
				So(css.Scaled, ShouldEqual, 50)
			})
		})
	})
}

func TestCategoryBands(t *testing.T) {
	Convey("Given the default progress bands", t, func() {
		b := scoring.DefaultProgressBands()

		Convey("Then scores should map to the documented categories", func() {
			c, idx := b.Classify(72)
			So(c, ShouldEqual, model.Category("strong-progress"))
			So(idx, ShouldEqual, 4)
			c, _ = b.Classify(48)
			So(c, ShouldEqual, model.Category("stable"))
			c, _ = b.Classify(0)
			So(c, ShouldEqual, model.Category("significant-decline"))
			c, _ = b.Classify(35)
			So(c, ShouldEqual, model.Category("moderate-decline"))
			c, _ = b.Classify(100)
			So(c, ShouldEqual, model.Category("strong-progress"))
		})

		Convey("Then classification should be monotone in the score", func() {
			prev := -1
			for s := 0.0; s <= 100; s += 0.5 {
				_, idx := b.Classify(s)
				So(idx, ShouldBeGreaterThanOrEqualTo, prev)
				prev = idx
			}
		})
	})

	Convey("Given the default health bands", t, func() {
		b := scoring.DefaultHealthBands()
		c, _ := b.Classify(72)
		So(c, ShouldEqual, model.Category("excellent"))
		c, _ = b.Classify(50)
		So(c, ShouldEqual, model.Category("on-track"))
		So(b.Index("below-par"), ShouldEqual, 1)
		So(b.Index("missing"), ShouldEqual, -1)
	})

	Convey("Given configured bands", t, func() {
		labels := []string{"a", "b", "c", "d", "e"}

		Convey("Then valid slices should build", func() {
			b, err := scoring.NewCategoryBands(labels, []float64{20, 40, 60, 80})
			So(err, ShouldBeNil)
			c, _ := b.Classify(79.9)
			So(c, ShouldEqual, model.Category("d"))
		})

		Convey("Then invalid slices should be rejected", func() {
			_, err := scoring.NewCategoryBands(labels, []float64{20, 40, 60})
			So(errors.Is(err, scoring.ErrInvalidBands), ShouldBeTrue)
			_, err = scoring.NewCategoryBands(labels, []float64{20, 20, 60, 80})
			So(errors.Is(err, scoring.ErrInvalidBands), ShouldBeTrue)
			_, err = scoring.NewCategoryBands(labels, []float64{20, 40, 60, 100})
			So(errors.Is(err, scoring.ErrInvalidBands), ShouldBeTrue)
			_, err = scoring.NewCategoryBands([]string{"a", "a", "c", "d", "e"}, []float64{20, 40, 60, 80})
			So(errors.Is(err, scoring.ErrInvalidBands), ShouldBeTrue)
		})
	})
}

func component(kind model.ComponentKind, scaled, se float64) model.ComponentResult {
	return model.ComponentResult{Kind: kind, Scaled: scaled, StandardError: se}
}

func TestAggregate(t *testing.T) {
	weights := model.DefaultProgressWeights()
	bands := scoring.DefaultProgressBands()

	Convey("Given a three-component breakdown", t, func() {
		bd := model.ThreeComponent{
			First:  component(model.ComponentAPI, 60, 2),
			Second: component(model.ComponentCGP, 40, 4),
			Third:  component(model.ComponentTNV, 50, 0),
		}

		Convey("When aggregated under the default weights", func() {
			res := scoring.Aggregate("t", model.FamilyProgress, bd, weights.Default, bands, 1.96)

			Convey("Then the score and error should follow the weights", func() {
				So(res.Score, ShouldAlmostEqual, 0.4*60+0.35*40+0.25*50, 1e-9)
				So(res.StandardError, ShouldAlmostEqual, math.Sqrt(0.16*4+0.1225*16), 1e-9)
				So(res.CI.Upper-res.CI.Lower, ShouldAlmostEqual, 2*1.96*res.StandardError, 1e-9)
				So(res.Category, ShouldEqual, model.Category("stable"))
				So(res.CategoryIndex, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a two-component breakdown", t, func() {
		bd := model.TwoComponent{
			First:   component(model.ComponentAPI, 60, 0),
			Second:  component(model.ComponentCGP, 40, 0),
			Omitted: model.ComponentTNV,
		}

		Convey("When aggregated", func() {
			res := scoring.Aggregate("t", model.FamilyProgress, bd, weights.Default, bands, 1.96)

			Convey("Then the remaining weights should renormalize", func() {
				So(res.WeightsUsed[model.ComponentAPI], ShouldAlmostEqual, 0.4/0.75, 1e-12)
				So(res.WeightsUsed[model.ComponentCGP], ShouldAlmostEqual, 0.35/0.75, 1e-12)
				_, ok := res.WeightsUsed[model.ComponentTNV]
				So(ok, ShouldBeFalse)
				So(res.Score, ShouldAlmostEqual, (0.4*60+0.35*40)/0.75, 1e-9)
				So(res.ModelType, ShouldEqual, model.TwoComponentModel)
			})
		})
	})

	Convey("Given extreme component values", t, func() {
		Convey("Then the composite should stay on the display scale", func() {
			for _, v := range []float64{-500, 0, 100, 500} {
				bd := model.ThreeComponent{
					First:  component(model.ComponentAPI, v, 100),
					Second: component(model.ComponentCGP, v, 100),
					Third:  component(model.ComponentTNV, v, 100),
				}
				res := scoring.Aggregate("t", model.FamilyProgress, bd, weights.Default, bands, 1.96)
				So(res.Score, ShouldBeBetweenOrEqual, 0, 100)
				So(res.CI.Lower, ShouldBeGreaterThanOrEqualTo, 0)
				So(res.CI.Upper, ShouldBeLessThanOrEqualTo, 100)
			}
		})
	})
}

func TestAnalyze(t *testing.T) {
	weights := model.DefaultProgressWeights()
	bands := scoring.DefaultProgressBands()

	Convey("Given a composite whose components disagree", t, func() {
		bd := model.ThreeComponent{
			First:  component(model.ComponentAPI, 90, 1),
			Second: component(model.ComponentCGP, 20, 1),
			Third:  component(model.ComponentTNV, 50, 1),
		}
		def := scoring.Aggregate("t", model.FamilyProgress, bd, weights.Default, bands, 1.96)

		Convey("When alternates are applied", func() {
			report := scoring.Analyze(def, weights.Alternates, bands, 1.96)

			Convey("Then every alternate should flip the category", func() {
				So(def.Score, ShouldAlmostEqual, 55.5, 1e-9)
				So(def.Category, ShouldEqual, model.Category("moderate-progress"))
				So(report.Configurations, ShouldHaveLength, 4)
				So(report.ChangedCount, ShouldEqual, 4)
				So(report.IsSensitive, ShouldBeTrue)
				So(report.MaxAbsDelta, ShouldAlmostEqual, 13.5, 1e-9)
				So(report.Configurations[0].Configuration.Name, ShouldEqual, "progress-weighted")
				So(report.Configurations[0].Category, ShouldEqual, model.Category("strong-progress"))
			})

			Convey("Then repeating the analysis should be identical", func() {
				again := scoring.Analyze(def, weights.Alternates, bands, 1.96)
				So(again, ShouldResemble, report)
			})
		})
	})

	Convey("Given a composite with identical components", t, func() {
		bd := model.ThreeComponent{
			First:  component(model.ComponentAPI, 50, 1),
			Second: component(model.ComponentCGP, 50, 1),
			Third:  component(model.ComponentTNV, 50, 1),
		}
		def := scoring.Aggregate("t", model.FamilyProgress, bd, weights.Default, bands, 1.96)
		report := scoring.Analyze(def, weights.Alternates, bands, 1.96)

		Convey("Then no alternate should change the category", func() {
			So(report.IsSensitive, ShouldBeFalse)
			So(report.ChangedCount, ShouldEqual, 0)
			So(report.MaxAbsDelta, ShouldAlmostEqual, 0, 1e-9)
		})
	})
}

func TestNewEngine(t *testing.T) {
	Convey("Given engine construction", t, func() {
		Convey("When weights do not sum to one", func() {
			s := scoring.DefaultSettings()
			s.ProgressWeights.Default.Weights[model.ComponentAPI] = 0.3
			_, err := scoring.NewEngine(twoIndicators(), scoring.WithSettings(s))

			Convey("Then construction should fail with a weight error", func() {
				So(errors.Is(err, model.ErrInvalidWeights), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "sum")
			})
		})

		Convey("When winsorize bounds are inverted", func() {
			s := scoring.DefaultSettings()
			s.WinsorizeLowerPct, s.WinsorizeUpperPct = 90, 10
			_, err := scoring.NewEngine(twoIndicators(), scoring.WithSettings(s))
			So(errors.Is(err, scoring.ErrInvalidSettings), ShouldBeTrue)
		})

		Convey("When winsorize bounds sit on one side of the median", func() {
			for _, bounds := range [][2]float64{{60, 99}, {1, 40}, {50, 99}, {1, 50}} {
				s := scoring.DefaultSettings()
				s.WinsorizeLowerPct, s.WinsorizeUpperPct = bounds[0], bounds[1]
				_, err := scoring.NewEngine(twoIndicators(), scoring.WithSettings(s))
				So(errors.Is(err, scoring.ErrInvalidSettings), ShouldBeTrue)
			}
		})

		Convey("When winsorize bounds are asymmetric around the median", func() {
			s := scoring.DefaultSettings()
			s.WinsorizeLowerPct, s.WinsorizeUpperPct = 10, 99.5
			_, err := scoring.NewEngine(twoIndicators(), scoring.WithSettings(s))
			So(err, ShouldBeNil)
		})

		Convey("When the registry is missing", func() {
			_, err := scoring.NewEngine(nil)
			So(errors.Is(err, scoring.ErrInvalidSettings), ShouldBeTrue)
		})

		Convey("When an unknown family is scored", func() {
			e := newEngine(twoIndicators())
			_, err := e.Score(context.Background(), "velocity", history(snap(0, nil)), scenarioGroup(), nil)
			So(errors.Is(err, scoring.ErrUnknownFamily), ShouldBeTrue)
		})
	})
}
