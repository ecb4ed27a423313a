// Package worker drains the event queue and runs every event through the
// jet tagging processor.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/jettag/internal/adapters/mq/queue"
	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/internal/domain/processor"
	"github.com/okian/jettag/pkg/logger"
	"github.com/okian/jettag/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 1
	poolShutdownTimeout = 30 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = model.Event

// Queue defines how workers receive events.
type Queue interface {
	Next(ctx context.Context) (Event, error)
}

// Processor scores one event and publishes its result.
type Processor interface {
	ProcessAndPublish(ctx context.Context, event model.Event, sink processor.Sink) (model.EventResult, error)
}

// Counters aggregates outcomes across workers.
type Counters struct {
	Processed atomic.Int64
	Failed    atomic.Int64
	JetsOK    atomic.Int64
	JetsBad   atomic.Int64
	active    atomic.Int64
}

// InMemoryWorker processes events until the queue is drained or ctx ends.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	sink      processor.Sink
	counters  *Counters
	name      string

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p Processor, sink processor.Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		sink:      sink,
		counters:  &Counters{},
		name:      "worker",
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Run starts the worker loop. It returns when the queue is closed and
// drained, or when ctx is cancelled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	for {
		event, err := w.queue.Next(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrClosed) && ctx.Err() == nil {
				w.logger.Error(ctx, "dequeue failed", logger.Error(err))
			}
			return
		}
		if err := w.processEvent(ctx, event); err != nil {
			w.logger.Error(ctx, "error processing event",
				logger.String("event_id", event.EventID),
				logger.Error(err),
			)
		}
	}
}

// processEvent handles a single event.
func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error { //nolint:gocritic // hugeParam: Event is passed by value from the queue
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.counters.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.counters.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1e3)
	}()

	result, err := w.processor.ProcessAndPublish(ctx, event, w.sink)
	if err != nil {
		w.counters.Failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", errorType(err))
		metrics.RecordErrorByType(errorType(err), "high")
		return fmt.Errorf("event %s: %w", event.EventID, err)
	}

	failed := result.Failures()
	w.counters.Processed.Add(1)
	w.counters.JetsOK.Add(int64(result.Len() - failed))
	w.counters.JetsBad.Add(int64(failed))
	return nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, processor.ErrMissingCollection):
		return "missing_collection"
	case errors.Is(err, processor.ErrPublish):
		return "publish_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "processing_error"
	}
}

// Pool manages multiple workers sharing one queue, processor and sink.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	counters *Counters

	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, p Processor, sink processor.Sink) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		counters: &Counters{},
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		w := NewInMemoryWorker(q, p, sink, WithName("worker-"+strconv.Itoa(i)))
		w.counters = pool.counters
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Counters returns the shared outcome counters.
func (p *Pool) Counters() *Counters { return p.counters }

// Start starts all workers in the pool. Workers stop when ctx is cancelled
// or when Shutdown drains the queue.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.Run(ctx)
		}()
	}
}

// Shutdown closes the queue and waits for workers to drain it. Workers still
// busy when ctx (or the pool timeout) expires are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		if p.cancel != nil {
			p.cancel()
		}
		return nil
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "worker shutdown timed out, cancelling in-flight events")
		if p.cancel != nil {
			p.cancel()
		}
		<-drained
		return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
	}
}
