package foreign

// Option configures a Merger.
type Option func(*Merger)

// WithSentinel overrides the provisional section of foreign-only tables.
func WithSentinel(s string) Option {
	return func(m *Merger) {
		if s != "" {
			m.sentinel = s
		}
	}
}
