// jettag tags boosted jets with shower deconstruction.
//
// Usage:
//
//	jettag serve [--config=<file>]
//	jettag score [--config=<file>] [--in=<events.jsonl>] [--out=<results.jsonl>]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/jettag/internal/config"
	"github.com/okian/jettag/pkg/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// cli carries state shared by the subcommands.
type cli struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "jettag",
		Short:         "Shower-deconstruction tagging of boosted jets",
		Long:          "jettag reclusters each large-radius jet into microjets and scores them\nagainst the signal and background hypotheses of a shower deconstruction service.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv(config.EnvConfigFile), "YAML configuration file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log_level: debug, info, warn, error")

	root.AddCommand(newServeCmd(c))
	root.AddCommand(newScoreCmd(c))
	return root
}

// setup initialises logging and loads the configuration before any
// subcommand runs.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFile(cmd.Context(), c.configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithJSON(cfg.LogJSON)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	level := cfg.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	if err := logger.SetLevelString(level); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
