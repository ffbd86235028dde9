package sections

// DefaultSentinel labels municipalities absent from the reference.
const DefaultSentinel = "Sección Desconocida"

// Option configures a Mapper.
type Option func(*Mapper)

// WithSentinel overrides the section reported for unmapped municipalities.
func WithSentinel(s string) Option {
	return func(m *Mapper) {
		if s != "" {
			m.sentinel = s
		}
	}
}

// WithStrictDistrict makes Assign fail on rows with no district at all
// instead of mapping them to the sentinel.
func WithStrictDistrict() Option {
	return func(m *Mapper) { m.strict = true }
}
