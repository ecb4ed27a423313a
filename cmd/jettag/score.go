package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/jettag/internal/adapters/eventfile"
	app "github.com/okian/jettag/internal/app"
	"github.com/okian/jettag/internal/domain/processor"
	"github.com/okian/jettag/pkg/logger"
)

type scoreFlags struct {
	in  string
	out string
}

func newScoreCmd(c *cli) *cobra.Command {
	f := &scoreFlags{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Tag a file of events and write one result per line",
		Long: `Reads JSON-lines events, tags every jet of the configured collection and
writes one JSON-lines result per event, in input order. Failed jets carry
null scores. Events without the configured collection are skipped and
reported; a malformed line stops the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			in, closeIn, err := openInput(f.in, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeIn()
			out, closeOut, err := openOutput(f.out, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			p, err := app.NewProcessor(c.cfg)
			if err != nil {
				_ = closeOut()
				return err
			}
			runErr := scoreStream(ctx, p, eventfile.NewReader(in), eventfile.NewWriter(out))
			if err := closeOut(); err != nil && runErr == nil {
				runErr = fmt.Errorf("close output: %w", err)
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&f.in, "in", "-", "input events, one JSON object per line; - for stdin")
	cmd.Flags().StringVar(&f.out, "out", "-", "output results file; - for stdout")
	return cmd
}

// scoreStream tags every event from r and publishes its result to w.
func scoreStream(ctx context.Context, p *processor.Processor, r *eventfile.Reader, w processor.Sink) error {
	log := logger.Get().Named("score")
	var events, skipped, jets, failed int
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		events++
		result, err := p.ProcessAndPublish(ctx, event, w)
		switch {
		case errors.Is(err, processor.ErrMissingCollection):
			skipped++
			log.Warn(ctx, "event skipped",
				logger.String("event_id", event.EventID),
				logger.Int("line", r.Line()),
				logger.Error(err),
			)
			continue
		case err != nil:
			return err
		}
		jets += result.Len()
		failed += result.Failures()
	}
	log.Info(ctx, "scoring finished",
		logger.Int("events", events),
		logger.Int("skipped", skipped),
		logger.Int("jets", jets),
		logger.Int("jets_failed", failed),
	)
	return nil
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}
