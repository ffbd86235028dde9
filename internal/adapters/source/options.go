package source

import (
	"time"

	"github.com/okian/padron/pkg/logger"
)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load summaries and coercion warnings.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithClock overrides the time source used for latency metrics.
func WithClock(now func() time.Time) Option {
	return func(ld *Loader) {
		if now != nil {
			ld.now = now
		}
	}
}
