// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/okian/jettag/internal/adapters/mq/queue"
	workerpool "github.com/okian/jettag/internal/adapters/mq/worker"
	repository "github.com/okian/jettag/internal/adapters/repository"
	"github.com/okian/jettag/internal/domain/dedupe"
	"github.com/okian/jettag/internal/domain/microjet"
	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/internal/domain/oracle"
	"github.com/okian/jettag/internal/domain/processor"
	"github.com/okian/jettag/internal/domain/types"
	"github.com/okian/jettag/pkg/logger"
	"github.com/okian/jettag/pkg/metrics"
)

// Default service sizing.
const (
	defaultQueueSize       = 10_000
	defaultDedupeSize      = 100_000
	defaultResultStoreSize = 100_000
	defaultOracleTimeout   = 30 * time.Second
)

// Service implements the API dependencies for the tagging pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     *repository.MemoryStore
	deduper   dedupe.Deduper
	queue     *eventqueue.InMemoryQueue
	processor *processor.Processor
	pool      *workerpool.Pool

	// Configuration
	oracle          oracle.Oracle
	oracleTimeout   time.Duration
	builder         *microjet.Builder
	workerCount     int
	queueSize       int
	dedupeSize      int
	resultStoreSize int
	jetParallelism  int
	jetCollection   string

	started   bool
	startedAt time.Time

	logger logger.Logger
}

// New constructs a new Service with default configuration. The deduper is
// created here so ids are tracked even before Start.
func New(opts ...Option) *Service {
	s := &Service{
		oracleTimeout:   defaultOracleTimeout,
		workerCount:     runtime.NumCPU(),
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		resultStoreSize: defaultResultStoreSize,
		jetParallelism:  1,
		jetCollection:   processor.DefaultJetCollection,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.builder == nil {
		s.builder = microjet.NewBuilder()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start initializes the pipeline and starts the worker pool. Workers run on
// a context detached from ctx's cancellation so Stop can drain the queue.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.oracle == nil {
		return ErrNoOracle
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting tagging service")

	s.processor = newProcessor(s.oracle, s.builder, s.oracleTimeout, s.jetCollection, s.jetParallelism)
	s.store = repository.NewMemoryStore(repository.WithCapacity(s.resultStoreSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.processor, s.store)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "tagging service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("jet_parallelism", s.jetParallelism),
		logger.String("jet_collection", s.jetCollection),
		logger.Float64("cone_size", s.builder.ConeSize()),
		logger.Float64("min_pt", s.builder.MinPt()),
		logger.Int("max_microjets", s.builder.MaxMicrojets()),
		logger.Duration("oracle_timeout", s.oracleTimeout),
	)
	return nil
}

// Stop closes the queue and waits for queued events to finish, cancelling
// in-flight work once ctx expires.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping tagging service", logger.Int("queued", s.queue.Len(ctx)))

	err := s.pool.Shutdown(ctx)
	s.started = false
	if err != nil {
		s.logger.Warn(ctx, "tagging service stopped with in-flight events cancelled", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "tagging service stopped")
	return nil
}

// SeenAndRecord atomically checks if an event id was seen and records it if not.
// Returns true if the event was already seen, false if it was newly recorded.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord removes an event ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// Enqueue submits an event for asynchronous processing. It fails with
// eventqueue.ErrFull under backpressure and eventqueue.ErrClosed once the
// service is stopping.
func (s *Service) Enqueue(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: Event is handed to the queue by value
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return fmt.Errorf("%w: %w", ErrNotStarted, eventqueue.ErrClosed)
	}
	if err := s.queue.Enqueue(ctx, e); err != nil {
		return err
	}
	s.logger.Debug(ctx, "event enqueued",
		logger.String("event_id", e.EventID),
		logger.Int("collections", len(e.Collections)),
	)
	return nil
}

// Result returns the published result of one event.
func (s *Service) Result(ctx context.Context, eventID string) (model.EventResult, error) {
	store, err := s.readStore()
	if err != nil {
		return model.EventResult{}, err
	}
	return store.Get(ctx, eventID)
}

// TopJets returns the n most signal-like jets published so far.
func (s *Service) TopJets(ctx context.Context, n int) ([]types.Candidate, error) {
	store, err := s.readStore()
	if err != nil {
		return nil, err
	}
	return store.TopJets(ctx, n)
}

func (s *Service) readStore() (*repository.MemoryStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":         s.started,
		"worker_count":    s.workerCount,
		"queue_size":      s.queueSize,
		"jet_parallelism": s.jetParallelism,
		"jet_collection":  s.jetCollection,
		"dedupe_size":     s.deduper.Size(),
	}
	if s.queue != nil {
		stats["queue_length"] = s.queue.Len(ctx)
	}
	if s.store != nil {
		stats["results_stored"] = s.store.Count(ctx)
		stats["jets_ranked"] = s.store.RankedJets(ctx)
	}
	if s.pool != nil {
		c := s.pool.Counters()
		stats["events_processed"] = c.Processed.Load()
		stats["events_failed"] = c.Failed.Load()
		stats["jets_ok"] = c.JetsOK.Load()
		stats["jets_failed"] = c.JetsBad.Load()
	}
	if s.started {
		stats["uptime_seconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	return stats
}
