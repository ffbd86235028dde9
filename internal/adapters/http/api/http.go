// Package api exposes the reconciliation queries as read-only JSON endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/padron/internal/adapters/cache"
	app "github.com/okian/padron/internal/app"
	"github.com/okian/padron/internal/domain/dedupe"
	"github.com/okian/padron/internal/domain/outlier"
	"github.com/okian/padron/internal/domain/sections"
	"github.com/okian/padron/internal/domain/votes"
	"github.com/okian/padron/pkg/logger"
)

// RollQueries are the roll-side operations the handlers call.
type RollQueries interface {
	BuildMesas(ctx context.Context) (*app.MesaTable, error)
	RollStats(ctx context.Context) (app.RollStats, error)
	Coverage(ctx context.Context) (sections.CoverageReport, error)
	KeyStats(ctx context.Context) (dedupe.KeyStats, error)
}

// TallyQueries are the tally-side operations the handlers call.
type TallyQueries interface {
	Totals(ctx context.Context) ([]votes.PartyShare, error)
	Overview(ctx context.Context) (app.Overview, error)
	Winners(ctx context.Context, g votes.Grouping, subset bool) ([]votes.Winner, []votes.WinCount, error)
	Ranges(ctx context.Context) ([]votes.RangeCount, error)
	PartyShare(ctx context.Context, g votes.Grouping, party string) ([]votes.GroupShare, error)
	Breakdown(ctx context.Context, g votes.Grouping, name string) (votes.Breakdown, bool, error)
	OutlierParams() outlier.Params
	Outliers(ctx context.Context, p outlier.Params) ([]outlier.Row, outlier.Diagnostic, error)
}

// CacheControl inspects and drops cached tables.
type CacheControl interface {
	CacheEntries() []cache.Info
	Invalidate(ctx context.Context, source string) int
	Purge(ctx context.Context) int
}

// Dependencies required by HTTP handlers. *app.Service satisfies it.
type Dependencies interface {
	RollQueries
	TallyQueries
	CacheControl
}

// Server wires HTTP routes for the query API.
type Server struct {
	health *HealthHandler
	roll   *RollHandler
	tally  *TallyHandler
	cache  *CacheHandler
	log    logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for failed requests.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.health = NewHealthHandler()
	s.roll = NewRollHandler(deps, s.log)
	s.tally = NewTallyHandler(deps, s.log)
	s.cache = NewCacheHandler(deps, s.log)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))

	mux.HandleFunc("GET /mesas", MetricsMiddleware(s.roll.HandleMesas, "mesas"))
	mux.HandleFunc("GET /mesas/stats", MetricsMiddleware(s.roll.HandleStats, "mesas_stats"))
	mux.HandleFunc("GET /coverage", MetricsMiddleware(s.roll.HandleCoverage, "coverage"))
	mux.HandleFunc("GET /keys", MetricsMiddleware(s.roll.HandleKeys, "keys"))

	mux.HandleFunc("GET /totals", MetricsMiddleware(s.tally.HandleTotals, "totals"))
	mux.HandleFunc("GET /overview", MetricsMiddleware(s.tally.HandleOverview, "overview"))
	mux.HandleFunc("GET /winners", MetricsMiddleware(s.tally.HandleWinners, "winners"))
	mux.HandleFunc("GET /ranges", MetricsMiddleware(s.tally.HandleRanges, "ranges"))
	mux.HandleFunc("GET /share", MetricsMiddleware(s.tally.HandleShare, "share"))
	mux.HandleFunc("GET /breakdown", MetricsMiddleware(s.tally.HandleBreakdown, "breakdown"))
	mux.HandleFunc("GET /outliers", MetricsMiddleware(s.tally.HandleOutliers, "outliers"))

	mux.HandleFunc("GET /cache", MetricsMiddleware(s.cache.HandleEntries, "cache"))
	mux.HandleFunc("POST /invalidate", MetricsMiddleware(s.cache.HandleInvalidate, "invalidate"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail classifies err, logs server-side failures and writes the error body.
func fail(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, err)
}
