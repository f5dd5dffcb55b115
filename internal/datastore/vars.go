package datastore

import (
	"regexp"
)

// Lookup resolves a placeholder variable name to its value. The second
// return reports whether the name is defined.
type Lookup func(name string) (string, bool)

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// varResolver substitutes ${NAME} placeholders in string leaves of a parsed
// value. The walk builds new maps and slices so the input (which may be a
// cached value) is never mutated.
type varResolver struct {
	lookup  Lookup
	strict  bool
	missing []string
	seen    map[string]bool
}

func newVarResolver(lookup Lookup, strict bool) *varResolver {
	return &varResolver{
		lookup: lookup,
		strict: strict,
		seen:   make(map[string]bool),
	}
}

// resolve walks value and returns a copy with placeholders substituted.
// In strict mode the caller must check r.missing afterwards.
func (r *varResolver) resolve(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = r.resolve(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = r.resolve(item)
		}
		return out
	case string:
		return r.resolveString(v)
	default:
		return value
	}
}

func (r *varResolver) resolveString(s string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := r.lookup(name); ok {
			return val
		}
		if !r.seen[name] {
			r.seen[name] = true
			r.missing = append(r.missing, name)
		}
		// Unresolved placeholders stay verbatim; strict mode turns the
		// collected names into a *ResolutionError after the walk.
		return match
	})
}

// substituteVars resolves placeholders in value against the store's lookup.
// path is only used for error reporting.
func (s *Store) substituteVars(path string, value interface{}) (interface{}, error) {
	if s.lookup == nil {
		return value, nil
	}
	r := newVarResolver(s.lookup, s.strictVars)
	resolved := r.resolve(value)
	if s.strictVars && len(r.missing) > 0 {
		return nil, &ResolutionError{Path: path, Missing: r.missing}
	}
	return resolved, nil
}
