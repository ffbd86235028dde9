// Package sample writes synthetic roll, tally and reference extracts with the
// spelling quirks real extracts carry, for demos and end-to-end tests.
package sample

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by Config.Validate failures.
var ErrInvalidConfig = errors.New("invalid sample config")

// Config controls the generated data set.
type Config struct {
	Dir  string // Output directory
	Seed uint64 // Same seed, same files

	Districts         int     // Municipalities to generate; 0 uses the whole catalogue
	FacilitiesPerDist int     // Facilities per municipality
	TablesPerFacility int     // Mesas per facility
	MinElectors       int     // Native electors per mesa, lower bound
	MaxElectors       int     // Native electors per mesa, upper bound
	ForeignShare      float64 // Probability a native mesa also has foreign electors
	ForeignOnly       int     // Foreign-only mesas per municipality
	Turnout           float64 // Share of electors that vote

	Quirks bool // Respell keys the way mixed extracts do
	Latin1 bool // Encode the rolls as ISO-8859-1
	Zip    bool // Wrap the rolls in ZIP archives

	Workers int // Concurrent municipality generators
}

// DefaultConfig returns a small but varied data set.
func DefaultConfig() Config {
	return Config{
		Dir:               "data/sample",
		Seed:              1,
		FacilitiesPerDist: 3,
		TablesPerFacility: 4,
		MinElectors:       8,
		MaxElectors:       20,
		ForeignShare:      0.3,
		ForeignOnly:       1,
		Turnout:           0.75,
		Quirks:            true,
		Latin1:            true,
		Zip:               true,
		Workers:           4,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Dir == "":
		return fmt.Errorf("%w: dir must not be empty", ErrInvalidConfig)
	case c.Districts < 0 || c.FacilitiesPerDist < 1 || c.TablesPerFacility < 1:
		return fmt.Errorf("%w: layout counts must be positive", ErrInvalidConfig)
	case c.MinElectors < 1 || c.MaxElectors < c.MinElectors:
		return fmt.Errorf("%w: elector range [%d, %d]", ErrInvalidConfig, c.MinElectors, c.MaxElectors)
	case c.ForeignShare < 0 || c.ForeignShare > 1:
		return fmt.Errorf("%w: foreign share %.2f outside [0, 1]", ErrInvalidConfig, c.ForeignShare)
	case c.ForeignOnly < 0:
		return fmt.Errorf("%w: foreign-only mesas must not be negative", ErrInvalidConfig)
	case c.Turnout <= 0 || c.Turnout > 1:
		return fmt.Errorf("%w: turnout %.2f outside (0, 1]", ErrInvalidConfig, c.Turnout)
	}
	return nil
}
