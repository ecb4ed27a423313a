package testevents

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/jettag/internal/adapters/eventfile"
	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/internal/domain/types"
	"github.com/okian/jettag/pkg/logger"
)

const (
	pollInterval = 50 * time.Millisecond
	ptTolerance  = 1e-6
)

// collectResults polls the result of every event until it is published or
// cfg.WaitTimeout elapses.
func collectResults(ctx context.Context, cfg *Config, c *client, events []model.Event, stats *Stats) (map[string]eventfile.ResultRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.WaitTimeout)
	defer cancel()

	var mu sync.Mutex
	results := make(map[string]eventfile.ResultRecord, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range events {
		id := events[i].EventID
		g.Go(func() error {
			rec, err := pollResult(gctx, c, id)
			if err != nil {
				return fmt.Errorf("result %s: %w", id, err)
			}
			mu.Lock()
			results[id] = rec
			stats.ResultsRetrieved++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func pollResult(ctx context.Context, c *client, id string) (eventfile.ResultRecord, error) {
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		rec, err := c.result(ctx, id)
		if !errors.Is(err, errNotReady) {
			return rec, err
		}
		select {
		case <-ctx.Done():
			return rec, ctx.Err()
		case <-t.C:
		}
	}
}

// verifyResults checks every published result against the event it came
// from and the ranked jets against those results.
func verifyResults(ctx context.Context, cfg *Config, events []model.Event, results map[string]eventfile.ResultRecord, top []types.Candidate, stats *Stats) error {
	var errs []error
	for i := range events {
		rec, ok := results[events[i].EventID]
		if !ok {
			errs = append(errs, fmt.Errorf("event %s: no result", events[i].EventID))
			continue
		}
		jets, _ := events[i].Jets(cfg.Collection)
		errs = append(errs, verifyResult(jets, &rec, stats)...)
	}
	errs = append(errs, verifyTopJets(cfg.TopN, top, results)...)

	if len(errs) > 0 {
		log := logger.Get().Named("verify")
		for _, err := range errs {
			log.Error(ctx, "mismatch", logger.Error(err))
		}
		return fmt.Errorf("%w: %d mismatches", ErrVerification, len(errs))
	}
	return nil
}

func verifyResult(jets []model.Jet, rec *eventfile.ResultRecord, stats *Stats) []error {
	if rec.Len() != len(jets) || len(rec.Status) != len(jets) {
		return []error{fmt.Errorf("event %s: %d jets, %d results, %d statuses", rec.EventID, len(jets), rec.Len(), len(rec.Status))}
	}
	var errs []error
	for i := range jets {
		if got, want := rec.Value(model.OutputJetPt, i), jets[i].P4.Pt(); math.Abs(got-want) > ptTolerance*want {
			errs = append(errs, fmt.Errorf("event %s jet %d: JetPt %g, want %g", rec.EventID, i, got, want))
		}
		chi := rec.Value(model.OutputChi, i)
		if rec.Status[i] == model.StatusOK {
			stats.JetsOK++
			if math.IsNaN(chi) {
				errs = append(errs, fmt.Errorf("event %s jet %d: ok status without chi", rec.EventID, i))
			}
			continue
		}
		stats.JetsFailed++
		if !math.IsNaN(chi) {
			errs = append(errs, fmt.Errorf("event %s jet %d: status %s with chi %g", rec.EventID, i, rec.Status[i], chi))
		}
	}
	return errs
}

// verifyTopJets checks order and dense ranks and, for jets of submitted
// events, that the ranked score matches the published one.
func verifyTopJets(limit int, top []types.Candidate, results map[string]eventfile.ResultRecord) []error {
	var errs []error
	if len(top) > limit {
		errs = append(errs, fmt.Errorf("top jets: %d entries, limit %d", len(top), limit))
	}
	want := 0
	for i, c := range top {
		if i == 0 || c.Chi != top[i-1].Chi {
			want++
		}
		if c.Rank != want {
			errs = append(errs, fmt.Errorf("top jets: entry %d has rank %d, want %d", i, c.Rank, want))
		}
		if i > 0 && c.Chi > top[i-1].Chi {
			errs = append(errs, fmt.Errorf("top jets: rank %d chi %g above rank %d chi %g", c.Rank, c.Chi, top[i-1].Rank, top[i-1].Chi))
		}
		rec, ok := results[c.EventID]
		if !ok {
			continue
		}
		if got := rec.Value(model.OutputChi, c.JetIndex); got != c.Chi {
			errs = append(errs, fmt.Errorf("top jets: %s jet %d ranked with chi %g, published %g", c.EventID, c.JetIndex, c.Chi, got))
		}
	}
	return errs
}
