package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/jettag/internal/adapters/eventfile"
	"github.com/okian/jettag/internal/adapters/repository"
	"github.com/okian/jettag/internal/domain/model"
)

// ResultDependencies defines the interface for result lookups.
type ResultDependencies interface {
	Result(ctx context.Context, eventID string) (model.EventResult, error)
}

// ResultsHandler handles result requests.
type ResultsHandler struct {
	deps ResultDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandleGetResult handles GET /results/{event_id} requests. Failed jets
// carry null in place of their scores.
func (h *ResultsHandler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_result"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/results/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	result, err := h.deps.Result(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, eventfile.FromResult(&result))
}
