package queue

// Option configures an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds how many collision events may wait for a worker.
// Enqueue fails with ErrFull beyond it; non-positive values keep the
// default of defaultQueueCapacity.
func WithCapacity(events int) Option {
	return func(q *InMemoryQueue) {
		if events > 0 {
			q.capacity = events
		}
	}
}
