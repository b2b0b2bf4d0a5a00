package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/pulse/internal/adapters/snapshotfile"
	service "github.com/okian/pulse/internal/app"
	"github.com/okian/pulse/internal/domain/indicator"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/mockdata"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const modelAll = "all"

var errNoInput = errors.New("either --input or --mock-teams is required")

type scoreOptions struct {
	input       string
	family      string
	mockTeams   int
	seed        uint64
	workers     int
	metricsFile string
}

func newScoreCmd(c *cli) *cobra.Command {
	o := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a portfolio and print the report as JSON",
		Long: `Score every team in a portfolio file, or in a generated mock portfolio,
and print the portfolio report as indented JSON.

Examples:
  pulse score --input portfolio.yaml
  pulse score --input portfolio.yaml --model health
  pulse score --mock-teams 50 --seed 7 --metrics-file pulse.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.score(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "YAML portfolio file")
	f.StringVarP(&o.family, "model", "m", modelAll, "model family: progress, health or all")
	f.IntVar(&o.mockTeams, "mock-teams", 0, "score a generated portfolio with this many teams instead of --input")
	f.Uint64Var(&o.seed, "seed", mockdata.DefaultSeed, "seed for --mock-teams")
	f.IntVar(&o.workers, "workers", 0, "scoring workers (defaults to the configured value)")
	f.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file after scoring")
	return cmd
}

func (c *cli) score(cmd *cobra.Command, o *scoreOptions) error {
	ctx := cmd.Context()

	p, err := c.portfolio(cmd, o)
	if err != nil {
		return err
	}

	svc := service.New(
		service.WithConfig(c.cfg),
		service.WithWorkers(o.workers),
		service.WithLogger(c.log),
	)
	var report *service.Report
	if o.family == modelAll {
		report, err = svc.Evaluate(ctx, p)
	} else {
		report, err = svc.EvaluateFamily(ctx, model.ModelFamily(o.family), p)
	}
	if err != nil {
		return err
	}

	if o.metricsFile != "" {
		if err := prometheus.WriteToTextfile(o.metricsFile, metrics.GetRegistry()); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func (c *cli) portfolio(cmd *cobra.Command, o *scoreOptions) (model.Portfolio, error) {
	ctx := cmd.Context()
	switch {
	case o.input != "":
		p, err := snapshotfile.Load(ctx, o.input)
		if err != nil {
			return model.Portfolio{}, err
		}
		c.log.Info(ctx, "portfolio loaded", logger.String("path", o.input), logger.Int("teams", len(p.Teams)))
		return p, nil
	case o.mockTeams > 0:
		return mockdata.NewGenerator(indicator.DefaultCatalog(),
			mockdata.WithTeams(o.mockTeams),
			mockdata.WithSeed(o.seed),
			mockdata.WithLogger(c.log.Named("mockdata")),
		).Generate(ctx)
	default:
		return model.Portfolio{}, errNoInput
	}
}
