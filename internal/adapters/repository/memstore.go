package repository

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/pkg/metrics"
)

const defaultCapacity = 100_000

// MemoryStore is a bounded in-memory Store. It evicts the oldest result
// once capacity is reached and keeps a treap of ok jets ordered by chi.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	byID     map[string]model.EventResult
	order    []string // insertion order, oldest first
	head     int      // index of the oldest live entry in order
	root     *node
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs a store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(s)
	}
	s.byID = make(map[string]model.EventResult, min(s.capacity, 1024))
	metrics.UpdateResultsStored(0)
	return s
}

// Capacity returns the maximum number of stored results.
func (s *MemoryStore) Capacity() int { return s.capacity }

// Publish implements Store and processor.Sink.
func (s *MemoryStore) Publish(ctx context.Context, result model.EventResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[result.EventID]; ok {
		metrics.RecordErrorByComponent("repository", "duplicate")
		return fmt.Errorf("%w: %s", ErrDuplicate, result.EventID)
	}
	for len(s.byID) >= s.capacity {
		s.evictOldest()
	}

	s.byID[result.EventID] = result
	s.order = append(s.order, result.EventID)
	for i, status := range result.Status {
		if status == model.StatusOK && !math.IsNaN(result.Chi[i]) {
			s.root = insert(s.root, jetKey{eventID: result.EventID, jetIndex: i}, result.Chi[i])
		}
	}
	metrics.UpdateResultsStored(len(s.byID))
	return nil
}

// evictOldest drops the oldest result. Callers hold the write lock.
func (s *MemoryStore) evictOldest() {
	id := s.order[s.head]
	s.order[s.head] = ""
	s.head++
	// compact once the dead prefix dominates
	if s.head > len(s.order)/2 {
		s.order = append([]string(nil), s.order[s.head:]...)
		s.head = 0
	}

	old := s.byID[id]
	delete(s.byID, id)
	for i, status := range old.Status {
		if status == model.StatusOK && !math.IsNaN(old.Chi[i]) {
			s.root = deleteNode(s.root, jetKey{eventID: id, jetIndex: i}, old.Chi[i])
		}
	}
	metrics.RecordResultEvicted()
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, eventID string) (model.EventResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.byID[eventID]
	if !ok {
		metrics.RecordResultLookup("miss")
		return model.EventResult{}, fmt.Errorf("%w: %s", ErrNotFound, eventID)
	}
	metrics.RecordResultLookup("hit")
	return result, nil
}

// TopJets implements Store in O(log n + k) expected time.
func (s *MemoryStore) TopJets(_ context.Context, n int) ([]Candidate, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, min(n, nsize(s.root)))
	collectTopN(s.root, n, &nodes)

	out := make([]Candidate, len(nodes))
	for i, nd := range nodes {
		r := s.byID[nd.key.eventID]
		j := nd.key.jetIndex
		out[i] = Candidate{
			EventID:     nd.key.eventID,
			JetIndex:    j,
			Chi:         nd.chi,
			PSignal:     r.PSignal[j],
			PBackground: r.PBackground[j],
			JetPt:       r.JetPt[j],
			JetMass:     r.JetMass[j],
		}
	}
	assignRanksWithTies(out)
	return out, nil
}

// RankedJets returns the number of jets in the ranking.
func (s *MemoryStore) RankedJets(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nsize(s.root)
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
