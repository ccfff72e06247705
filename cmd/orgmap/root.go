package main

import (
	"fmt"
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orgmap/pkg/config"
	"orgmap/pkg/logging"
)

var version = "dev"

// cli carries the state the root command prepares for its subcommands.
type cli struct {
	configPath string
	envFiles   []string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:           "orgmap",
		Short:         "Map roster CSV columns and chart managers by location",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "orgmap.yaml", "config file (missing file means defaults)")
	flags.StringSliceVar(&c.envFiles, "env-file", []string{".env", ".env.local"}, "dotenv files to load before reading ORGMAP_* variables")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newServeCmd(c))
	cmd.AddCommand(newTreemapCmd(c))
	cmd.AddCommand(newHeadersCmd(c))
	cmd.AddCommand(newExportCmd(c))
	cmd.AddCommand(newMCPCmd(c))
	cmd.AddCommand(newConfigCmd(c))
	return cmd
}

func (c *cli) setup() error {
	if _, err := config.LoadEnv(c.envFiles); err != nil {
		return withCode(exitConfig, errors.Wrap(err, "load env files"))
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return withCode(exitConfig, err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, c.verbose)
	if err != nil {
		return withCode(exitConfig, err)
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}
