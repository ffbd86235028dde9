package api

import (
	"net/http"
	"strings"

	"github.com/okian/padron/pkg/logger"
)

// CacheHandler exposes the table cache.
type CacheHandler struct {
	deps CacheControl
	log  logger.Logger
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(deps CacheControl, log logger.Logger) *CacheHandler {
	return &CacheHandler{deps: deps, log: log}
}

type invalidateResponse struct {
	Source  string `json:"source,omitempty"`
	Dropped int    `json:"dropped"`
}

// HandleEntries handles GET /cache.
func (h *CacheHandler) HandleEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.CacheEntries())
}

// HandleInvalidate handles POST /invalidate?source=PATH. Without a source
// every cached table is dropped.
func (h *CacheHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	src := strings.TrimSpace(r.URL.Query().Get("source"))
	var n int
	if src == "" {
		n = h.deps.Purge(r.Context())
	} else {
		n = h.deps.Invalidate(r.Context(), src)
	}
	h.log.Info(r.Context(), "cache invalidated", logger.String("source", src), logger.Int("dropped", n))
	writeJSON(w, http.StatusOK, invalidateResponse{Source: src, Dropped: n})
}
