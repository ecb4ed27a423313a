// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/jettag/internal/domain/dedupe"
	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/internal/domain/types"
)

// DefaultMaxTopJets caps the limit accepted by GET /jets/top.
const DefaultMaxTopJets = 1000

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes an event for async processing.
	Enqueue(ctx context.Context, e model.Event) error

	// Result returns the published result of one event.
	Result(ctx context.Context, eventID string) (model.EventResult, error)

	// TopJets returns the n most signal-like scored jets.
	TopJets(ctx context.Context, n int) ([]Candidate, error)
}

// Candidate mirrors the read shape returned by ranking queries.
type Candidate = types.Candidate

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	eventsHandler  *EventsHandler
	resultsHandler *ResultsHandler
	jetsHandler    *JetsHandler
}

// NewServer creates a new API server with all handlers. A maxTopJets below
// one selects DefaultMaxTopJets.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxTopJets int) *Server {
	if maxTopJets < 1 {
		maxTopJets = DefaultMaxTopJets
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		eventsHandler:  NewEventsHandler(deps),
		resultsHandler: NewResultsHandler(deps),
		jetsHandler:    NewJetsHandler(deps, maxTopJets),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/results/", MetricsMiddleware(s.resultsHandler.HandleGetResult, "results"))
	mux.HandleFunc("/jets/top", MetricsMiddleware(s.jetsHandler.HandleGetTopJets, "jets_top"))
}

type ackResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
