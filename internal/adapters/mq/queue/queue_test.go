package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/jettag/internal/domain/model"
)

func evt(id string) model.Event {
	return model.Event{EventID: id, Run: 1, Collections: map[string][]model.Jet{}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, evt("event1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	event, err := q.Next(ctx)
	if err != nil {
		t.Fatalf("expected next to succeed, got %v", err)
	}
	if event.EventID != "event1" {
		t.Errorf("expected event1, got %v", event.EventID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2), WithCapacity(-1))
	ctx := context.Background()

	if q.Capacity() != 2 {
		t.Fatalf("expected capacity 2, got %d", q.Capacity())
	}
	for _, id := range []string{"event1", "event2"} {
		if err := q.Enqueue(ctx, evt(id)); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}
	if err := q.Enqueue(ctx, evt("event3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(5))
	ctx := context.Background()

	for i := range 5 {
		if err := q.Enqueue(ctx, evt(fmt.Sprintf("event%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	for i := range 5 {
		event, err := q.Next(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if want := fmt.Sprintf("event%d", i); event.EventID != want {
			t.Errorf("expected %s, got %s", want, event.EventID)
		}
	}
}

func TestInMemoryQueue_NextHonoursContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	if err := q.Enqueue(cancelled, evt("late")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	numProducers := 10
	numEvents := 100

	var producers sync.WaitGroup
	for i := range numProducers {
		producers.Add(1)
		go func() {
			defer producers.Done()
			for j := range numEvents {
				for q.Enqueue(ctx, evt(fmt.Sprintf("event%d_%d", i, j))) != nil {
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}

	var (
		consumers sync.WaitGroup
		mu        sync.Mutex
		seen      = make(map[string]bool)
	)
	for range 4 {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				event, err := q.Next(ctx)
				if err != nil {
					return
				}
				mu.Lock()
				seen[event.EventID] = true
				mu.Unlock()
			}
		}()
	}

	producers.Wait()
	_ = q.Close()
	consumers.Wait()

	if len(seen) != numProducers*numEvents {
		t.Errorf("expected %d distinct events, got %d", numProducers*numEvents, len(seen))
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	for _, id := range []string{"event1", "event2"} {
		if err := q.Enqueue(ctx, evt(id)); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Enqueue(ctx, evt("event3")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after closing, got %v", err)
	}

	// buffered events are still drained in order
	for _, want := range []string{"event1", "event2"} {
		event, err := q.Next(ctx)
		if err != nil || event.EventID != want {
			t.Errorf("expected %s, got %s (%v)", want, event.EventID, err)
		}
	}
	if _, err := q.Next(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed once drained, got %v", err)
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
