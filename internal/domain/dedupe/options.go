package dedupe

import (
	"github.com/okian/padron/internal/domain/keys"
	"github.com/okian/padron/internal/domain/model"
)

// Option applies a configuration option to a Merger.
type Option func(*Merger)

// WithKey groups rows by fn instead of the full mesa key. Foreign aggregation
// uses it with model.PollingTable.MatchKey to ignore voter kind.
func WithKey(fn func(model.PollingTable) keys.Key) Option {
	return func(m *Merger) {
		if fn != nil {
			m.key = fn
		}
	}
}
