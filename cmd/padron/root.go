package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	app "github.com/okian/padron/internal/app"
	"github.com/okian/padron/internal/config"
	"github.com/okian/padron/pkg/logger"
)

// cli carries the state shared by every subcommand once setup has run.
type cli struct {
	configPath string
	logLevel   string
	output     string

	cfg *config.Config
	svc *app.Service
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "padron",
		Short: "Electoral roll and tally reconciliation",
		Long: `padron consolidates polling-table rolls, assigns electoral sections,
merges foreign-resident electors and answers tally queries over mixed
quality CSV/ZIP extracts.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "YAML config file (default $PADRON_CONFIG)")
	pf.StringVar(&c.logLevel, "log-level", "", "override log level: debug, info, warn, error")
	pf.StringVarP(&c.output, "output", "o", outputAuto, "output format: table, json or auto")

	root.AddCommand(
		c.buildMesasCmd(),
		c.assignSectionsCmd(),
		c.deriveSectionsCmd(),
		c.coverageCmd(),
		c.keyStatsCmd(),
		c.rollStatsCmd(),
		c.totalsCmd(),
		c.overviewCmd(),
		c.winnersCmd(),
		c.rangesCmd(),
		c.shareCmd(),
		c.breakdownCmd(),
		c.outliersCmd(),
		c.serveCmd(),
		c.sampleCmd(),
	)
	return root
}

// setup loads configuration (defaults -> optional file -> env), initializes
// logging and builds the service.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	switch c.output {
	case outputAuto, outputTable, outputJSON:
	default:
		return fmt.Errorf("unknown output format %q", c.output)
	}

	path := c.configPath
	if path == "" {
		path = os.Getenv("PADRON_CONFIG")
	}
	cfg, err := config.LoadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := logger.Init(
		logger.WithWriter(cmd.ErrOrStderr()),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithLevel(cfg.LogLevel),
	); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	c.cfg = cfg
	c.log = logger.Get()
	c.svc = app.New(cfg, app.WithLogger(c.log))
	return nil
}
