package main

import (
	"github.com/okian/pulse/internal/config"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
	"github.com/spf13/cobra"
)

// cli carries state shared by subcommands once the root has run.
type cli struct {
	configPath string
	cfg        *config.Config
	log        logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "pulse",
		Short: "Score team portfolios for progress and health",
		Long: `pulse turns per-team indicator snapshots into composite progress (CPS)
and health (CHS) scores on a 0-100 scale, with confidence intervals,
category labels and weight sensitivity analysis.

Configuration is layered: defaults, then the YAML file given by --config
(or PULSE_CONFIG), then PULSE_ environment variables.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file (defaults to $PULSE_CONFIG)")

	root.AddCommand(newScoreCmd(c), newMockCmd(c))
	return root
}

// setup loads configuration and initializes logging and metrics before any
// subcommand.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	var err error
	if c.configPath != "" {
		c.cfg, err = config.LoadFile(ctx, c.configPath)
	} else {
		c.cfg, err = config.Load(ctx)
	}
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr()), logger.WithFormat(c.cfg.LogFormat)); err != nil {
		return err
	}
	c.log = logger.Get()
	if err := logger.SetLevelString(c.cfg.LogLevel); err != nil {
		c.log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", c.cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Init(c.cfg.MetricsOptions()...)
	return nil
}
