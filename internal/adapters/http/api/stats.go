package api

import (
	"fmt"
	"net/http"
)

// StatsProvider reports the tagging service counters (events, jets,
// queue and store occupancy).
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves GET /stats, optionally narrowed to one counter with
// ?key=<name>.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a stats handler over provider.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_stats"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats := h.provider.GetStats()
	w.Header().Set("Cache-Control", "no-store")

	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusOK, stats)
		return
	}
	v, ok := stats[key]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, fmt.Errorf("no counter named %q", key)))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{key: v})
}
