package outlier

import "errors"

var (
	// ErrInvalidRange is returned when the minimum deviation exceeds the maximum.
	ErrInvalidRange = errors.New("min deviation greater than max deviation")
	// ErrNoParty is returned when no target party is set.
	ErrNoParty = errors.New("target party is required")
)
