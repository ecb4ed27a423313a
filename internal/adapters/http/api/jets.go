package api

import (
	"context"
	"net/http"
	"strconv"
)

const defaultTopJets = 10

// JetsDependencies defines the interface for jet ranking queries.
type JetsDependencies interface {
	TopJets(ctx context.Context, n int) ([]Candidate, error)
}

// JetsHandler handles ranking requests.
type JetsHandler struct {
	deps     JetsDependencies
	maxLimit int
}

// NewJetsHandler creates a new ranking handler.
func NewJetsHandler(deps JetsDependencies, maxLimit int) *JetsHandler {
	return &JetsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetTopJets handles GET /jets/top?limit=N requests.
func (h *JetsHandler) HandleGetTopJets(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_top_jets"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := defaultTopJets
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	jets, err := h.deps.TopJets(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if jets == nil {
		jets = []Candidate{}
	}
	writeJSON(w, http.StatusOK, jets)
}
