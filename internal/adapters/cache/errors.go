package cache

import "errors"

// ErrTypeMismatch is returned by Load when the cached value has another type.
var ErrTypeMismatch = errors.New("cached value has unexpected type")
