package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"

	"github.com/okian/jettag/internal/domain/kinematics"
	"github.com/okian/jettag/internal/domain/model"
)

// result builds an event result whose jets carry the given chi values; NaN
// marks an oracle failure.
func result(id string, chis ...float64) model.EventResult {
	r := model.NewEventResult(id, len(chis))
	for i, chi := range chis {
		jet := model.Jet{P4: kinematics.FromPtEtaPhiM(300+float64(i), 0, 0, 80)}
		score := model.JetScore{SignalProbability: chi / 100, BackgroundProbability: 0.01, Discriminant: chi, Status: model.StatusOK, NMicrojets: 3}
		if math.IsNaN(chi) {
			score = model.FailedScore(model.StatusOracleFailure)
		}
		r.Set(i, jet, score)
	}
	return r
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	if err := store.Publish(ctx, result("evt-1", 4.5, math.NaN(), 1.2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	got, err := store.Get(ctx, "evt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 3 || got.Chi[0] != 4.5 || !math.IsNaN(got.Chi[1]) {
		t.Errorf("unexpected stored result: %+v", got)
	}

	if _, err := store.Get(ctx, "evt-404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if n := store.RankedJets(ctx); n != 2 {
		t.Errorf("expected failed jets to stay out of the ranking, got %d ranked", n)
	}
}

func TestMemoryStore_Duplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Publish(ctx, result("evt-1", 1)); err != nil {
		t.Fatal(err)
	}
	err := store.Publish(ctx, result("evt-1", 99))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	got, _ := store.Get(ctx, "evt-1")
	if got.Chi[0] != 1 {
		t.Errorf("duplicate must not replace the first result, got chi %v", got.Chi[0])
	}
}

func TestMemoryStore_Eviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(3), WithCapacity(0))

	for i := range 5 {
		if err := store.Publish(ctx, result(fmt.Sprintf("evt-%d", i), float64(100-i))); err != nil {
			t.Fatal(err)
		}
	}

	if count := store.Count(ctx); count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
	for _, id := range []string{"evt-0", "evt-1"} {
		if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected %s to be evicted, got %v", id, err)
		}
	}
	top, err := store.TopJets(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 3 || top[0].EventID != "evt-2" {
		t.Errorf("expected evicted jets to leave the ranking, got %+v", top)
	}
}

func TestMemoryStore_TopJets(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_ = store.Publish(ctx, result("evt-b", 3, 9))
	_ = store.Publish(ctx, result("evt-a", 9, math.NaN(), -2))
	_ = store.Publish(ctx, result("evt-c", 5))

	top, err := store.TopJets(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		rank  int
		event string
		jet   int
		chi   float64
	}{
		{1, "evt-a", 0, 9},
		{1, "evt-b", 1, 9},
		{2, "evt-c", 0, 5},
		{3, "evt-b", 0, 3},
	}
	if len(top) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(top))
	}
	for i, w := range want {
		c := top[i]
		if c.Rank != w.rank || c.EventID != w.event || c.JetIndex != w.jet || c.Chi != w.chi {
			t.Errorf("position %d: expected %+v, got %+v", i, w, c)
		}
	}
	if top[1].JetPt < 300 || top[1].PSignal != 0.09 {
		t.Errorf("expected jet details to be copied from the result, got %+v", top[1])
	}

	if _, err := store.TopJets(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestMemoryStore_RankingMatchesSort(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(200))
	rng := rand.New(rand.NewPCG(1, 2))

	var all []Candidate
	for i := range 500 {
		id := fmt.Sprintf("evt-%04d", i)
		chis := []float64{math.Round(rng.Float64()*1000) / 10, math.Round(rng.Float64()*1000) / 10}
		if err := store.Publish(ctx, result(id, chis...)); err != nil {
			t.Fatal(err)
		}
		for j, chi := range chis {
			all = append(all, Candidate{EventID: id, JetIndex: j, Chi: chi})
		}
	}
	// only the last 200 events survive
	all = all[len(all)-400:]
	sort.Slice(all, func(i, j int) bool {
		return less(all[i].Chi, jetKey{all[i].EventID, all[i].JetIndex}, all[j].Chi, jetKey{all[j].EventID, all[j].JetIndex})
	})

	top, err := store.TopJets(ctx, 50)
	if err != nil {
		t.Fatal(err)
	}
	for i := range top {
		if top[i].EventID != all[i].EventID || top[i].JetIndex != all[i].JetIndex {
			t.Fatalf("position %d: expected %s/%d, got %s/%d", i, all[i].EventID, all[i].JetIndex, top[i].EventID, top[i].JetIndex)
		}
	}
	if n := store.RankedJets(ctx); n != 400 {
		t.Errorf("expected 400 ranked jets, got %d", n)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(1000))

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				id := fmt.Sprintf("evt-%d-%d", w, i)
				if err := store.Publish(ctx, result(id, float64(i))); err != nil {
					t.Errorf("publish %s: %v", id, err)
				}
				_, _ = store.Get(ctx, id)
				_, _ = store.TopJets(ctx, 5)
			}
		}()
	}
	wg.Wait()

	if count := store.Count(ctx); count != 800 {
		t.Errorf("expected 800 results, got %d", count)
	}
}

func TestMemoryStore_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()

	if err := store.Publish(ctx, result("evt-1", 1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if store.Count(context.Background()) != 0 {
		t.Error("cancelled publish must not store anything")
	}
}

func BenchmarkMemoryStore_Publish(b *testing.B) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(10_000))
	results := make([]model.EventResult, b.N)
	for i := range results {
		results[i] = result(fmt.Sprintf("evt-%d", i), float64(i%997), float64(i%13))
	}

	b.ResetTimer()
	for i := range b.N {
		_ = store.Publish(ctx, results[i])
	}
}

func BenchmarkMemoryStore_TopJets(b *testing.B) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(50_000))
	for i := range 50_000 {
		_ = store.Publish(ctx, result(fmt.Sprintf("evt-%d", i), float64(i%997), float64(i%13)))
	}

	b.ResetTimer()
	for range b.N {
		_, _ = store.TopJets(ctx, 100)
	}
}
