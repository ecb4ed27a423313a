// Package queue buffers ingested events until a worker picks them up.
//
// The in-memory implementation is a bounded channel: producers never block,
// a full queue rejects the event so the HTTP layer can answer 429.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Event represents the payload type flowing through the queue.
type Event = model.Event

// Queue provides non-blocking enqueue and blocking dequeue.
type Queue interface {
	// Enqueue adds an event, failing with ErrFull or ErrClosed.
	Enqueue(ctx context.Context, e Event) error

	// Next blocks until an event is available. It returns ErrClosed once
	// the queue is closed and drained, or the context error.
	Next(ctx context.Context) (Event, error)

	// Len returns the current number of queued events.
	Len(ctx context.Context) int

	// Close stops accepting events. Buffered events can still be drained.
	Close() error

	// IsClosed reports whether Close was called.
	IsClosed() bool
}

type item struct {
	event    Event
	enqueued time.Time
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan item
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan item, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Capacity returns the maximum number of buffered events.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Enqueue adds an event to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.items <- item{event: e, enqueued: time.Now()}:
		metrics.RecordQueueEnqueue()
		q.observeSize()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Next returns the oldest queued event.
func (q *InMemoryQueue) Next(ctx context.Context) (Event, error) {
	select {
	case it, ok := <-q.items:
		if !ok {
			return Event{}, ErrClosed
		}
		metrics.RecordQueueDequeue()
		metrics.RecordQueueWaitLatency(float64(time.Since(it.enqueued).Microseconds()) / 1e3)
		q.observeSize()
		return it.event, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Len returns the current number of queued events.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observeSize()
}

func (q *InMemoryQueue) observeSize() int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
