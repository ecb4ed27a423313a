package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/jettag/internal/adapters/http/api"
	"github.com/okian/jettag/internal/adapters/http/swagger"
	app "github.com/okian/jettag/internal/app"
	"github.com/okian/jettag/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP tagging service",
		Long: `Starts the HTTP API. Events posted to /events are queued, tagged by a
pool of workers and published for GET /results/{event_id} and GET /jets/top.
On SIGINT or SIGTERM the server stops accepting requests and queued events
are drained before exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ln, err := net.Listen("tcp", c.cfg.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", c.cfg.Addr, err)
			}
			return c.serve(ctx, ln)
		},
	}
}

// serve runs the service on ln until ctx is done.
func (c *cli) serve(ctx context.Context, ln net.Listener) error {
	log := logger.Get().Named("serve")

	opts, err := app.OptionsFromConfig(c.cfg)
	if err != nil {
		return err
	}
	svc := app.New(append(opts, app.WithLogger(log))...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	go startSystemMetricsUpdater(ctx)

	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc, svc, api.DefaultMaxTopJets).Register(mux)

	srv := &http.Server{
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "service shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
	return runErr
}
