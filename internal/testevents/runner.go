package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/jettag/internal/adapters/eventfile"
	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/pkg/logger"
)

const directoryPermission = 0o750

// Run generates events, submits them to the service at cfg.BaseURL, waits
// for every result and verifies results and ranking.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	cfg := config.withDefaults()
	stats := &Stats{}
	start := time.Now()
	log := logger.Get().Named("testevents")

	log.Info(ctx, "starting jettag event test",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("events", cfg.NumEvents),
		logger.Int("jets_per_event", cfg.JetsPerEvent),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	c := newClient(&cfg)
	if err := c.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	events := newGenerator(cfg.Seed).events(cfg.NumEvents, cfg.JetsPerEvent, cfg.Collection)
	stats.EventsGenerated = len(events)
	if cfg.OutputFile != "" {
		if err := saveEvents(cfg.OutputFile, events); err != nil {
			log.Warn(ctx, "failed to save events", logger.Error(err))
		} else {
			log.Info(ctx, "events saved", logger.String("file", cfg.OutputFile))
		}
	}

	accepted, err := submitEvents(ctx, &cfg, c, events, stats)
	if err != nil {
		return stats, fmt.Errorf("event submission failed: %w", err)
	}

	results, err := collectResults(ctx, &cfg, c, accepted, stats)
	if err != nil {
		return stats, fmt.Errorf("result retrieval failed: %w", err)
	}

	top, err := c.topJets(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("top jets retrieval failed: %w", err)
	}
	stats.TopJets = len(top)

	verifyErr := verifyResults(ctx, &cfg, accepted, results, top, stats)
	stats.Duration = time.Since(start)
	logStats(ctx, stats)
	if verifyErr != nil {
		return stats, verifyErr
	}
	log.Info(ctx, "test completed successfully")
	return stats, nil
}

// saveEvents writes events as JSON lines readable by `jettag score`.
func saveEvents(path string, events []model.Event) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	enc := json.NewEncoder(f)
	for i := range events {
		if err := enc.Encode(eventfile.FromEvent(&events[i])); err != nil {
			_ = f.Close()
			return fmt.Errorf("write event %d: %w", i, err)
		}
	}
	return f.Close()
}

func logStats(ctx context.Context, stats *Stats) {
	var eventsPerSecond float64
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsAccepted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("events_generated", stats.EventsGenerated),
		logger.Int("events_accepted", stats.EventsAccepted),
		logger.Int("events_duplicate", stats.EventsDuplicate),
		logger.Int("events_rejected", stats.EventsRejected),
		logger.Int("results_retrieved", stats.ResultsRetrieved),
		logger.Int("jets_ok", stats.JetsOK),
		logger.Int("jets_failed", stats.JetsFailed),
		logger.Int("top_jets", stats.TopJets),
		logger.Duration("duration", stats.Duration),
		logger.Float64("events_per_second", eventsPerSecond),
	)
}
