// Package cache memoizes processed tables in memory until they are
// explicitly invalidated.
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Params is an immutable ordered parameter list. Each value is length
// prefixed so no two distinct lists share an encoding.
type Params struct {
	enc string
}

// NewParams encodes values in order.
func NewParams(values ...string) Params {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return Params{enc: b.String()}
}

func (p Params) String() string { return p.enc }

// Key identifies one cached table: the source it was loaded from and the
// parameters it was processed with.
type Key struct {
	Source string
	Params Params
}

// Info describes a cached entry without exposing its value.
type Info struct {
	Source   string    `json:"source"`
	Params   string    `json:"params"`
	StoredAt time.Time `json:"stored_at"`
}

// Store provides access to memoized tables.
type Store interface {
	// Get returns the value under key.
	Get(key Key) (any, bool)
	// Put stores value under key, replacing any previous value.
	Put(key Key, value any)
	// GetOrLoad returns the cached value or calls load and caches its result.
	// A failed load leaves the cache untouched.
	GetOrLoad(ctx context.Context, key Key, load func(context.Context) (any, error)) (any, error)
	// Invalidate drops every entry loaded from source and returns how many.
	Invalidate(source string) int
	// Purge drops everything and returns how many entries were dropped.
	Purge() int
	// Len is the number of entries.
	Len() int
	// Entries lists cached entries ordered by source.
	Entries() []Info
}
