package votes

import "errors"

// ErrUnknownGrouping reports a grouping name other than section or district.
var ErrUnknownGrouping = errors.New("unknown grouping")
