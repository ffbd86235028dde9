package sample

import "github.com/okian/padron/pkg/logger"

// Option configures a Run.
type Option func(*runOptions)

type runOptions struct {
	log logger.Logger
}

// WithLogger sets the logger Run reports progress to. The default discards.
func WithLogger(l logger.Logger) Option {
	return func(o *runOptions) {
		if l != nil {
			o.log = l
		}
	}
}
