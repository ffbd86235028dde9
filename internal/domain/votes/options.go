package votes

type options struct {
	groups map[string]struct{}
}

// Option narrows a grouped query.
type Option func(*options)

// WithGroups restricts a grouped query to the named sections or districts,
// compared in normalized form. An empty list keeps every group.
func WithGroups(names ...string) Option {
	return func(o *options) {
		if len(names) == 0 {
			return
		}
		o.groups = make(map[string]struct{}, len(names))
		for _, n := range names {
			o.groups[groupKey(n)] = struct{}{}
		}
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) keep(groupKey string) bool {
	if o.groups == nil {
		return true
	}
	_, ok := o.groups[groupKey]
	return ok
}
