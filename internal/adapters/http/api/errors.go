package api

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/okian/padron/internal/adapters/source"
	"github.com/okian/padron/internal/domain/outlier"
	"github.com/okian/padron/internal/domain/votes"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
)

// classify maps an upstream error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, votes.ErrUnknownGrouping),
		errors.Is(err, outlier.ErrInvalidRange),
		errors.Is(err, outlier.ErrNoParty):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, source.ErrEncoding),
		errors.Is(err, source.ErrSchema),
		errors.Is(err, source.ErrEmptySource),
		errors.Is(err, source.ErrNoMember):
		return http.StatusUnprocessableEntity, "bad_source"
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, source.ErrEmptyPath):
		return http.StatusServiceUnavailable, "source_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
