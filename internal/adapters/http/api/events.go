package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/jettag/internal/adapters/eventfile"
	"github.com/okian/jettag/internal/adapters/mq/queue"
	"github.com/okian/jettag/internal/domain/dedupe"
	"github.com/okian/jettag/internal/domain/model"
)

// maxEventBytes bounds the request body of POST /events.
const maxEventBytes = 32 << 20

// EventDependencies defines the interface for event ingest dependencies.
type EventDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, e model.Event) error
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
	now  func() time.Time
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps, now: time.Now}
}

// HandlePostEvent handles POST /events requests. An event without an id is
// assigned a fresh one; the id is echoed in the acknowledgement.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var rec eventfile.EventRecord
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes)).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(rec.Collections) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing collections")))
		return
	}
	rec.EventID = strings.TrimSpace(rec.EventID)
	if rec.EventID == "" {
		rec.EventID = uuid.NewString()
	}
	if rec.TS.IsZero() {
		rec.TS = h.now().UTC()
	}
	event, err := rec.ToEvent()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), event.EventID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", EventID: event.EventID, Duplicate: true})
		return
	}

	if err := h.deps.Enqueue(r.Context(), event); err != nil {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), event.EventID)
		if errors.Is(err, queue.ErrClosed) {
			writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
			return
		}
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventID: event.EventID})
}
