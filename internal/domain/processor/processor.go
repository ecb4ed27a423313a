// Package processor scores every jet of an event and assembles the aligned
// per-event output arrays.
package processor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/pkg/logger"
	"github.com/okian/jettag/pkg/metrics"
)

// Scorer scores a single jet. It reports failures through the returned
// score's status and never fails the event.
type Scorer interface {
	Score(ctx context.Context, index int, jet model.Jet) model.JetScore
}

// Sink receives one result per processed event.
type Sink interface {
	Publish(ctx context.Context, result model.EventResult) error
}

// Processor turns events into per-jet results. It holds no per-event state
// and may be shared by many goroutines.
type Processor struct {
	scorer      Scorer
	collection  string
	parallelism int
	logger      logger.Logger
}

// New creates a processor around scorer.
func New(scorer Scorer, opts ...Option) *Processor {
	p := &Processor{
		scorer:      scorer,
		collection:  DefaultJetCollection,
		parallelism: 1,
		logger:      logger.Get().Named("processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// JetCollection returns the configured collection label.
func (p *Processor) JetCollection() string { return p.collection }

// Parallelism returns the per-event jet concurrency.
func (p *Processor) Parallelism() int { return p.parallelism }

// Process scores every jet of the configured collection. The result has one
// entry per jet in collection order. A missing collection or a cancelled
// context fails the event as a whole; individual jet failures do not.
func (p *Processor) Process(ctx context.Context, event model.Event) (model.EventResult, error) { //nolint:gocritic // hugeParam: Event is a read-only snapshot
	start := time.Now()

	jets, ok := event.Jets(p.collection)
	if !ok {
		metrics.RecordEventFailed("missing_collection")
		return model.EventResult{}, fmt.Errorf("%w: %q in event %s", ErrMissingCollection, p.collection, event.EventID)
	}

	result := model.NewEventResult(event.EventID, len(jets))
	if err := p.scoreAll(ctx, jets, &result); err != nil {
		metrics.RecordEventFailed("canceled")
		return model.EventResult{}, fmt.Errorf("event %s: %w", event.EventID, err)
	}

	elapsed := time.Since(start)
	metrics.RecordEventLatency(float64(elapsed.Microseconds()) / 1e3)
	p.logger.Debug(ctx, "event scored",
		logger.String("event_id", event.EventID),
		logger.Int("jets", len(jets)),
		logger.Int("failed_jets", result.Failures()),
		logger.Duration("elapsed", elapsed),
	)
	return result, nil
}

// scoreAll writes every jet's score into its own slot of result.
func (p *Processor) scoreAll(ctx context.Context, jets []model.Jet, result *model.EventResult) error {
	if p.parallelism < 2 || len(jets) < 2 {
		for i := range jets {
			if err := ctx.Err(); err != nil {
				return err
			}
			result.Set(i, jets[i], p.scorer.Score(ctx, i, jets[i]))
		}
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for i := range jets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result.Set(i, jets[i], p.scorer.Score(gctx, i, jets[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ProcessAndPublish processes event and hands the result to sink. Nothing
// is published when processing fails.
func (p *Processor) ProcessAndPublish(ctx context.Context, event model.Event, sink Sink) (model.EventResult, error) { //nolint:gocritic // hugeParam: Event is a read-only snapshot
	result, err := p.Process(ctx, event)
	if err != nil {
		return model.EventResult{}, err
	}
	if err := sink.Publish(ctx, result); err != nil {
		metrics.RecordEventFailed("publish")
		return result, fmt.Errorf("%w %s: %w", ErrPublish, event.EventID, err)
	}
	metrics.RecordEventProcessed()
	return result, nil
}
