package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/jettag/internal/adapters/eventfile"
	"github.com/okian/jettag/internal/adapters/http/api"
	"github.com/okian/jettag/internal/adapters/mq/queue"
	"github.com/okian/jettag/internal/adapters/repository"
	"github.com/okian/jettag/internal/domain/dedupe"
	"github.com/okian/jettag/internal/domain/kinematics"
	"github.com/okian/jettag/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const validEvent = `{"event_id":"evt-1","collections":{"goodPatJetsCA8PF":[` +
	`{"px":300,"py":0,"pz":0,"e":310,"daughters":[{"px":150,"py":1,"pz":0,"e":150}]}]}}`

type mockDependencies struct {
	dedupe.Deduper

	mu         sync.Mutex
	enqueueErr error
	enqueued   []model.Event
	results    map[string]model.EventResult
	top        []api.Candidate
	topErr     error
	gotLimit   int
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		Deduper: dedupe.NewInMemoryDeduper(),
		results: make(map[string]model.EventResult),
	}
}

func (m *mockDependencies) Enqueue(_ context.Context, e model.Event) error { //nolint:gocritic // matches the interface
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, e)
	return nil
}

func (m *mockDependencies) Result(_ context.Context, id string) (model.EventResult, error) {
	r, ok := m.results[id]
	if !ok {
		return model.EventResult{}, fmt.Errorf("lookup %s: %w", id, repository.ErrNotFound)
	}
	return r, nil
}

func (m *mockDependencies) TopJets(_ context.Context, n int) ([]api.Candidate, error) {
	m.gotLimit = n
	if m.topErr != nil {
		return nil, m.topErr
	}
	if n > len(m.top) {
		return m.top, nil
	}
	return m.top[:n], nil
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any { return m.stats }

func newMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]any{"queue_len": 3}}, 50)
	mux := http.NewServeMux()
	server.Register(mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newMockDependencies())

		Convey("Then the health endpoint reports ok", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Then the metrics endpoint serves the registry", func() {
			do(mux, http.MethodGet, "/healthz", "")
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Then the stats endpoint returns the provider's map", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"queue_len":3`)
			So(w.Header().Get("Cache-Control"), ShouldEqual, "no-store")
		})

		Convey("Then the stats endpoint narrows to a single counter", func() {
			w := do(mux, http.MethodGet, "/stats?key=queue_len", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"queue_len":3}`)

			w = do(mux, http.MethodGet, "/stats?key=jets_ok", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, `no counter named \"jets_ok\"`)
		})

		Convey("Then unknown paths are not found", func() {
			w := do(mux, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then wrong methods are not found", func() {
			So(do(mux, http.MethodGet, "/events", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/healthz", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/jets/top", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestEventsHandler_HandlePostEvent(t *testing.T) {
	Convey("Given an events handler", t, func() {
		deps := newMockDependencies()
		mux := newMux(deps)

		Convey("When posting a valid event", func() {
			w := do(mux, http.MethodPost, "/events", validEvent)

			Convey("Then it is accepted and enqueued", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"event_id":"evt-1"`)
				So(deps.enqueued, ShouldHaveLength, 1)
				So(deps.enqueued[0].TS.IsZero(), ShouldBeFalse)
				jets, ok := deps.enqueued[0].Jets("goodPatJetsCA8PF")
				So(ok, ShouldBeTrue)
				So(jets[0].Daughters, ShouldHaveLength, 1)
			})

			Convey("And posting it again", func() {
				again := do(mux, http.MethodPost, "/events", validEvent)

				Convey("Then it is acknowledged as a duplicate and not enqueued", func() {
					So(again.Code, ShouldEqual, http.StatusOK)
					So(again.Body.String(), ShouldContainSubstring, `"duplicate":true`)
					So(deps.enqueued, ShouldHaveLength, 1)
				})
			})
		})

		Convey("When posting an event without an id", func() {
			body := strings.Replace(validEvent, `"event_id":"evt-1",`, "", 1)
			w := do(mux, http.MethodPost, "/events", body)

			Convey("Then an id is assigned and echoed", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var ack struct {
					EventID string `json:"event_id"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &ack), ShouldBeNil)
				So(ack.EventID, ShouldNotBeBlank)
				So(deps.enqueued[0].EventID, ShouldEqual, ack.EventID)
			})
		})

		Convey("When posting malformed or incomplete bodies", func() {
			So(do(mux, http.MethodPost, "/events", `{`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/events", `{"event_id":"x"}`).Code, ShouldEqual, http.StatusBadRequest)
			bad := `{"event_id":"x","collections":{"j":[{"px":1,"e":"nope"}]}}`
			So(do(mux, http.MethodPost, "/events", bad).Code, ShouldEqual, http.StatusBadRequest)
			So(deps.enqueued, ShouldBeEmpty)
		})

		Convey("When the queue is full", func() {
			deps.enqueueErr = fmt.Errorf("enqueue: %w", queue.ErrFull)
			w := do(mux, http.MethodPost, "/events", validEvent)

			Convey("Then the client is told to back off and the id is forgotten", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(w.Body.String(), ShouldContainSubstring, `"code":"backpressure"`)
				So(deps.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the queue is closed", func() {
			deps.enqueueErr = queue.ErrClosed
			w := do(mux, http.MethodPost, "/events", validEvent)

			Convey("Then the service reports itself unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(deps.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestResultsHandler_HandleGetResult(t *testing.T) {
	Convey("Given a stored result with a failed jet", t, func() {
		deps := newMockDependencies()
		result := model.NewEventResult("evt-7", 2)
		jet := model.Jet{P4: kinematics.FromPtEtaPhiM(350, 0, 0, 80)}
		result.Set(0, jet, model.JetScore{SignalProbability: 0.3, BackgroundProbability: 0.1, Discriminant: 3, Status: model.StatusOK, NMicrojets: 2})
		result.Set(1, jet, model.FailedScore(model.StatusOracleFailure))
		deps.results["evt-7"] = result
		mux := newMux(deps)

		Convey("When fetching it", func() {
			w := do(mux, http.MethodGet, "/results/evt-7", "")

			Convey("Then the aligned arrays are returned with null for the failure", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var rec eventfile.ResultRecord
				So(json.Unmarshal(w.Body.Bytes(), &rec), ShouldBeNil)
				So(rec.EventID, ShouldEqual, "evt-7")
				So(rec.Len(), ShouldEqual, 2)
				So(rec.Value(model.OutputChi, 0), ShouldEqual, 3.0)
				So(math.IsNaN(rec.Value(model.OutputChi, 1)), ShouldBeTrue)
				So(rec.Status[1], ShouldEqual, model.StatusOracleFailure)
			})
		})

		Convey("When fetching an unknown id", func() {
			w := do(mux, http.MethodGet, "/results/missing", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the id is empty or nested", func() {
			So(do(mux, http.MethodGet, "/results/", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/results/a/b", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestJetsHandler_HandleGetTopJets(t *testing.T) {
	Convey("Given ranked jets", t, func() {
		deps := newMockDependencies()
		deps.top = []api.Candidate{
			{Rank: 1, EventID: "a", JetIndex: 0, Chi: 9},
			{Rank: 2, EventID: "b", JetIndex: 1, Chi: 4},
		}
		mux := newMux(deps)

		Convey("When asking for the top jet", func() {
			w := do(mux, http.MethodGet, "/jets/top?limit=1", "")

			Convey("Then only the best candidate is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []api.Candidate
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].EventID, ShouldEqual, "a")
			})
		})

		Convey("When the limit is omitted", func() {
			w := do(mux, http.MethodGet, "/jets/top", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.gotLimit, ShouldEqual, 10)
		})

		Convey("When the limit is invalid or too large", func() {
			So(do(mux, http.MethodGet, "/jets/top?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/jets/top?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)
			w := do(mux, http.MethodGet, "/jets/top?limit=51", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "limit_exceeded")
		})

		Convey("When nothing is ranked yet", func() {
			deps.top = nil
			w := do(mux, http.MethodGet, "/jets/top?limit=5", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
		})

		Convey("When the store fails", func() {
			deps.topErr = errors.New("boom")
			w := do(mux, http.MethodGet, "/jets/top?limit=5", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given classified API errors", t, func() {
		cause := errors.New("unexpected EOF")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		Convey("Then both the kind and the cause match", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: unexpected EOF")
		})

		Convey("Then the other constructors format consistently", func() {
			So(api.NewKind("api.op", api.ErrBackpressure).Error(), ShouldEqual, "api.op: backpressure")
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: unexpected EOF")
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})
	})
}
