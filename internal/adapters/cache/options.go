package cache

import "time"

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithClock sets the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}
