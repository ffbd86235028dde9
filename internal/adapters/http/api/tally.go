package api

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/padron/internal/domain/outlier"
	"github.com/okian/padron/internal/domain/votes"
	"github.com/okian/padron/pkg/logger"
)

// TallyHandler serves the vote tally queries.
type TallyHandler struct {
	deps TallyQueries
	log  logger.Logger
}

// NewTallyHandler creates a new tally handler.
func NewTallyHandler(deps TallyQueries, log logger.Logger) *TallyHandler {
	return &TallyHandler{deps: deps, log: log}
}

type winnersResponse struct {
	Winners []votes.Winner   `json:"winners"`
	Counts  []votes.WinCount `json:"counts"`
}

type outliersResponse struct {
	Params     outlier.Params     `json:"params"`
	Rows       []outlier.Row      `json:"rows"`
	Diagnostic outlier.Diagnostic `json:"diagnostic"`
}

// HandleTotals handles GET /totals: national party percentages.
func (h *TallyHandler) HandleTotals(w http.ResponseWriter, r *http.Request) {
	shares, err := h.deps.Totals(r.Context())
	if err != nil {
		fail(r.Context(), h.log, w, "api.totals", err)
		return
	}
	writeJSON(w, http.StatusOK, shares)
}

// HandleOverview handles GET /overview.
func (h *TallyHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	o, err := h.deps.Overview(r.Context())
	if err != nil {
		fail(r.Context(), h.log, w, "api.overview", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// HandleWinners handles GET /winners?by=section|district&subset=true.
func (h *TallyHandler) HandleWinners(w http.ResponseWriter, r *http.Request) {
	const op = "api.winners"
	q := r.URL.Query()
	g, err := votes.ParseGrouping(q.Get("by"))
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	subset, err := boolParam(q, "subset")
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	winners, counts, err := h.deps.Winners(r.Context(), g, subset)
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, winnersResponse{Winners: winners, Counts: counts})
}

// HandleRanges handles GET /ranges: vote-share buckets per district.
func (h *TallyHandler) HandleRanges(w http.ResponseWriter, r *http.Request) {
	rc, err := h.deps.Ranges(r.Context())
	if err != nil {
		fail(r.Context(), h.log, w, "api.ranges", err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

// HandleShare handles GET /share?party=NAME&by=section|district.
func (h *TallyHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	const op = "api.share"
	q := r.URL.Query()
	party := strings.TrimSpace(q.Get("party"))
	if party == "" {
		fail(r.Context(), h.log, w, op, fmt.Errorf("%w: missing party", ErrBadRequest))
		return
	}
	g, err := votes.ParseGrouping(q.Get("by"))
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	shares, err := h.deps.PartyShare(r.Context(), g, party)
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, shares)
}

// HandleBreakdown handles GET /breakdown?name=NAME&by=section|district.
func (h *TallyHandler) HandleBreakdown(w http.ResponseWriter, r *http.Request) {
	const op = "api.breakdown"
	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		fail(r.Context(), h.log, w, op, fmt.Errorf("%w: missing name", ErrBadRequest))
		return
	}
	g, err := votes.ParseGrouping(q.Get("by"))
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	b, ok, err := h.deps.Breakdown(r.Context(), g, name)
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	if !ok {
		fail(r.Context(), h.log, w, op, fmt.Errorf("%w: %s %q", ErrNotFound, g, name))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandleOutliers handles GET /outliers?party=&min=&max=&blanks=. Missing
// parameters fall back to the configured defaults.
func (h *TallyHandler) HandleOutliers(w http.ResponseWriter, r *http.Request) {
	const op = "api.outliers"
	p, err := outlierParams(r.URL.Query(), h.deps.OutlierParams())
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	rows, diag, err := h.deps.Outliers(r.Context(), p)
	if err != nil {
		fail(r.Context(), h.log, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, outliersResponse{Params: p, Rows: rows, Diagnostic: diag})
}

func outlierParams(q url.Values, p outlier.Params) (outlier.Params, error) {
	if party := strings.TrimSpace(q.Get("party")); party != "" {
		p.TargetParty = party
	}
	var err error
	if p.MinDeviationPP, err = floatParam(q, "min", p.MinDeviationPP); err != nil {
		return p, err
	}
	if p.MaxDeviationPP, err = floatParam(q, "max", p.MaxDeviationPP); err != nil {
		return p, err
	}
	if q.Has("blanks") {
		if p.IncludeBlanks, err = boolParam(q, "blanks"); err != nil {
			return p, err
		}
	}
	return p, nil
}

func floatParam(q url.Values, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def, fmt.Errorf("%w: %s=%q is not a number", ErrBadRequest, name, raw)
	}
	return v, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrBadRequest, name, raw)
	}
	return v, nil
}
