package testevents

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/pkg/logger"
)

// submitEvents posts events with at most cfg.Workers requests in flight and
// returns the ones the service accepted. Rejections are counted, not fatal.
func submitEvents(ctx context.Context, cfg *Config, c *client, events []model.Event, stats *Stats) ([]model.Event, error) {
	log := logger.Get().Named("submit")
	accepted := make([]bool, len(events))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range events {
		g.Go(func() error {
			outcome, err := c.submit(gctx, &events[i])
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeAccepted:
				stats.EventsAccepted++
				accepted[i] = true
			case outcomeDuplicate:
				stats.EventsDuplicate++
			default:
				stats.EventsRejected++
				if cfg.Verbose {
					log.Warn(gctx, "event rejected", logger.String("event_id", events[i].EventID), logger.Error(err))
				}
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, stats.EventsAccepted)
	for i := range events {
		if accepted[i] {
			out = append(out, events[i])
		}
	}
	log.Info(ctx, "events submitted",
		logger.Int("accepted", stats.EventsAccepted),
		logger.Int("duplicate", stats.EventsDuplicate),
		logger.Int("rejected", stats.EventsRejected),
	)
	return out, nil
}
