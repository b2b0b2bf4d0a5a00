package main

import (
	"github.com/okian/pulse/internal/adapters/snapshotfile"
	"github.com/okian/pulse/internal/domain/indicator"
	"github.com/okian/pulse/internal/mockdata"
	"github.com/okian/pulse/pkg/logger"
	"github.com/spf13/cobra"
)

type mockOptions struct {
	teams        int
	seed         uint64
	snapshots    int
	intervalDays int
	dropout      float64
	output       string
}

func newMockCmd(c *cli) *cobra.Command {
	o := &mockOptions{}
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Generate a synthetic portfolio as YAML",
		Long: `Generate a reproducible synthetic portfolio. The same seed always yields
the same teams, timestamps and values.

Examples:
  pulse mock --teams 40 --seed 42 --output portfolio.yaml
  pulse mock --teams 5 --snapshots 6 --interval-days 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.mock(cmd, o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.teams, "teams", mockdata.DefaultTeams, "number of teams")
	f.Uint64Var(&o.seed, "seed", mockdata.DefaultSeed, "random seed")
	f.IntVar(&o.snapshots, "snapshots", mockdata.DefaultSnapshots, "snapshots per team")
	f.IntVar(&o.intervalDays, "interval-days", mockdata.DefaultIntervalDays, "days between snapshots")
	f.Float64Var(&o.dropout, "dropout", mockdata.DefaultDropoutRate, "probability an indicator is not covered at a snapshot")
	f.StringVarP(&o.output, "output", "o", "", "output file (stdout when empty)")
	return cmd
}

func (c *cli) mock(cmd *cobra.Command, o *mockOptions) error {
	ctx := cmd.Context()
	p, err := mockdata.NewGenerator(indicator.DefaultCatalog(),
		mockdata.WithTeams(o.teams),
		mockdata.WithSeed(o.seed),
		mockdata.WithSnapshots(o.snapshots),
		mockdata.WithIntervalDays(o.intervalDays),
		mockdata.WithDropoutRate(o.dropout),
		mockdata.WithLogger(c.log.Named("mockdata")),
	).Generate(ctx)
	if err != nil {
		return err
	}

	if o.output == "" {
		return snapshotfile.Encode(cmd.OutOrStdout(), p)
	}
	if err := snapshotfile.Save(ctx, o.output, p); err != nil {
		return err
	}
	c.log.Info(ctx, "mock portfolio written", logger.String("path", o.output), logger.Int("teams", len(p.Teams)))
	return nil
}
