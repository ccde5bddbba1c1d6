// Package data loads JSON data files and builds the namespaced data contexts
// that bindings read from.
package data

// Context maps namespace names (site, page, an iteration variable, front
// matter keys) to values. A Context is built per page and never shared.
type Context map[string]any

// Merge builds a new Context from sources in order; later sources override
// earlier ones on key collision. Nil sources are skipped.
func Merge(sources ...map[string]any) Context {
	size := 0
	for _, src := range sources {
		size += len(src)
	}

	merged := make(Context, size)
	for _, src := range sources {
		for k, v := range src {
			merged[k] = v
		}
	}
	return merged
}

// With returns a copy of c with name bound to value. c itself is untouched,
// so sibling iteration scopes never see each other's bindings.
func (c Context) With(name string, value any) Context {
	derived := make(Context, len(c)+1)
	for k, v := range c {
		derived[k] = v
	}
	derived[name] = value
	return derived
}

// Lookup returns c[namespace][key]. Either level may be missing, and a
// namespace whose value is not an object has no keys.
func (c Context) Lookup(namespace, key string) (any, bool) {
	scope, ok := c[namespace]
	if !ok {
		return nil, false
	}

	switch m := scope.(type) {
	case map[string]any:
		v, ok := m[key]
		return v, ok
	case Context:
		v, ok := m[key]
		return v, ok
	default:
		return nil, false
	}
}
