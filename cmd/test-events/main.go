// test-events drives a running jettag service with synthetic events and
// verifies the published results and jet ranking.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/jettag/internal/testevents"
	"github.com/okian/jettag/pkg/logger"
)

const (
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTestTimeout = 10 * time.Minute
	logFilePermission  = 0o600
)

func newRootCmd() *cobra.Command {
	cfg := &testevents.Config{}
	var logFile string
	cmd := &cobra.Command{
		Use:           "test-events",
		Short:         "Submit synthetic jet events to jettag and verify the results",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := setupLogging(cmd.ErrOrStderr(), logFile, cfg.Verbose)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTestTimeout)
			defer cancel()
			_, err = testevents.Run(ctx, cfg)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.IntVar(&cfg.NumEvents, "events", testevents.DefaultNumEvents, "number of events to generate and submit")
	f.IntVar(&cfg.JetsPerEvent, "jets", testevents.DefaultJetsPerEvent, "jets per event")
	f.StringVar(&cfg.Collection, "collection", "", "jet collection label (default: the service default)")
	f.IntVar(&cfg.TopN, "top", testevents.DefaultTopN, "number of ranked jets to fetch")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "concurrent HTTP requests")
	f.DurationVar(&cfg.Timeout, "timeout", testevents.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.WaitTimeout, "wait", testevents.DefaultWaitTimeout, "how long to wait for all results")
	f.Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "generator seed")
	f.StringVar(&cfg.OutputFile, "output", "", "write generated events as JSON lines to this file")
	f.StringVar(&logFile, "log", "", "also write logs to this file")
	f.BoolVar(&cfg.Verbose, "verbose", false, "log every rejected event")
	return cmd
}

// setupLogging sends logs to w and, when path is set, to a file as well.
func setupLogging(w io.Writer, path string, verbose bool) (func(), error) {
	closer := func() {}
	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		w = io.MultiWriter(w, file)
		closer = func() { _ = file.Close() }
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		closer()
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "test failed:", err)
		os.Exit(1)
	}
}
