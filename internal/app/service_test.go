package service_test

import (
	"context"
	"errors"
	"io"
	"testing"

	service "github.com/okian/pulse/internal/app"
	"github.com/okian/pulse/internal/config"
	"github.com/okian/pulse/internal/domain/indicator"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/scoring"
	"github.com/okian/pulse/internal/mockdata"
	"github.com/okian/pulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init(logger.WithOutput(io.Discard))
	if err != nil {
		panic(err)
	}
}

func mockPortfolio(teams int) model.Portfolio {
	p, err := mockdata.NewGenerator(indicator.DefaultCatalog(), mockdata.WithTeams(teams)).Generate(context.Background())
	if err != nil {
		panic(err)
	}
	return p
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should not be started yet", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
			So(svc.GetStats()["indicators"], ShouldEqual, 8)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkers(3),
			service.WithConfig(config.New()),
			service.WithRegistry(indicator.DefaultCatalog()),
			service.WithLogger(logger.Nop()),
		)

		Convey("Then it should start successfully", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["workers"], ShouldEqual, 3)
			So(svc.GetStats()["started"], ShouldEqual, true)
		})
	})

	Convey("Given an invalid configuration", t, func() {
		cfg := config.New()
		cfg.HealthWeights.Default = map[string]float64{"css": 1, "trs": 1, "pgs": 1}
		svc := service.New(service.WithConfig(cfg))

		Convey("Then starting should surface the configuration error", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			So(errors.Is(err, model.ErrInvalidWeights), ShouldBeTrue)
		})
	})
}

func TestService_Evaluate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service and a mock portfolio", t, func() {
		svc := service.New(service.WithWorkers(4))
		p := mockPortfolio(30)

		Convey("When the portfolio is evaluated", func() {
			report, err := svc.Evaluate(ctx, p)
			So(err, ShouldBeNil)

			Convey("Then both families should be summarized", func() {
				So(report.CatalogVersion, ShouldEqual, indicator.DefaultCatalog().Version())
				So(report.Progress.Family, ShouldEqual, model.FamilyProgress)
				So(report.Health.Family, ShouldEqual, model.FamilyHealth)
				So(report.Progress.Results, ShouldHaveLength, 30)
				So(report.Health.Results, ShouldHaveLength, 30)
				So(report.Summary(model.FamilyHealth), ShouldEqual, report.Health)
			})

			Convey("Then the leaderboard should be queryable", func() {
				top, err := svc.TopN(ctx, model.FamilyProgress, 3)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)
				So(top[0].Rank, ShouldEqual, 1)

				entry, err := svc.Rank(ctx, model.FamilyHealth, top[0].TeamID)
				So(err, ShouldBeNil)
				So(entry.TeamID, ShouldEqual, top[0].TeamID)

				all, err := svc.TopN(ctx, model.FamilyHealth, 1000)
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 30)

				_, err = svc.Rank(ctx, model.FamilyHealth, "nobody")
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
				_, err = svc.TopN(ctx, model.FamilyHealth, -1)
				So(errors.Is(err, service.ErrInvalidLimit), ShouldBeTrue)
			})

			Convey("Then a sequential service should agree", func() {
				seq, err := service.New(service.WithWorkers(1)).Evaluate(ctx, p)
				So(err, ShouldBeNil)
				So(seq.Progress, ShouldResemble, report.Progress)
				So(seq.Health, ShouldResemble, report.Health)
			})
		})

		Convey("When a single family is evaluated", func() {
			report, err := svc.EvaluateFamily(ctx, model.FamilyHealth, p)
			So(err, ShouldBeNil)
			So(report.Progress, ShouldBeNil)
			So(report.Health, ShouldNotBeNil)

			_, err = svc.TopN(ctx, model.FamilyProgress, 1)
			So(errors.Is(err, service.ErrNotEvaluated), ShouldBeTrue)
		})

		Convey("When an unknown family is requested", func() {
			_, err := svc.EvaluateFamily(ctx, "velocity", p)
			So(errors.Is(err, scoring.ErrUnknownFamily), ShouldBeTrue)
		})

		Convey("When nothing has been evaluated", func() {
			_, err := svc.Last()
			So(errors.Is(err, service.ErrNotEvaluated), ShouldBeTrue)
		})

		Convey("When the portfolio is invalid", func() {
			_, err := svc.Evaluate(ctx, model.Portfolio{})
			So(errors.Is(err, model.ErrInvalidPortfolio), ShouldBeTrue)
		})
	})
}
