package source

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds. Typed errors below wrap them so callers can use errors.Is.
var (
	ErrEncoding    = errors.New("no candidate encoding could decode source")
	ErrSchema      = errors.New("required column not found")
	ErrEmptySource = errors.New("source has no header row")
	ErrNoMember    = errors.New("zip archive holds no matching csv member")
	ErrUnknownRole = errors.New("unknown source role")
	ErrEmptyPath   = errors.New("source path is empty")
)

// EncodingError reports a file none of the candidate encodings could decode.
type EncodingError struct {
	File  string
	Tried []string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: %v (tried %s)", e.File, ErrEncoding, strings.Join(e.Tried, ", "))
}

func (e *EncodingError) Unwrap() error { return ErrEncoding }

// SchemaError names the logical field that could not be resolved to a header.
type SchemaError struct {
	Field   string
	File    string
	Headers []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %v: %q (headers: %s)", e.File, ErrSchema, e.Field, strings.Join(e.Headers, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// errorKind labels an error for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrEmptySource):
		return "empty"
	case errors.Is(err, ErrNoMember):
		return "zip_member"
	default:
		return "io"
	}
}
