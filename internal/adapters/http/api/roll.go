package api

import (
	"net/http"

	"github.com/okian/padron/pkg/logger"
)

// RollHandler serves the consolidated polling-table roll.
type RollHandler struct {
	deps RollQueries
	log  logger.Logger
}

// NewRollHandler creates a new roll handler.
func NewRollHandler(deps RollQueries, log logger.Logger) *RollHandler {
	return &RollHandler{deps: deps, log: log}
}

// HandleMesas handles GET /mesas: the consolidated table plus its run summary.
func (h *RollHandler) HandleMesas(w http.ResponseWriter, r *http.Request) {
	t, err := h.deps.BuildMesas(r.Context())
	if err != nil {
		fail(r.Context(), h.log, w, "api.mesas", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleStats handles GET /mesas/stats.
func (h *RollHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.RollStats(r.Context())
	if err != nil {
		fail(r.Context(), h.log, w, "api.mesas_stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleCoverage handles GET /coverage.
func (h *RollHandler) HandleCoverage(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Coverage(r.Context())
	if err != nil {
		fail(r.Context(), h.log, w, "api.coverage", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleKeys handles GET /keys: raw versus normalized key counts.
func (h *RollHandler) HandleKeys(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.KeyStats(r.Context())
	if err != nil {
		fail(r.Context(), h.log, w, "api.keys", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
