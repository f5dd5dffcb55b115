package runner

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// runContext carries state across the steps of one scenario: outputs that
// steps stored under a name, plus an external lookup for configuration
// values. Stored names win over the external lookup.
type runContext struct {
	mu     sync.RWMutex
	stored map[string]interface{}
	lookup func(name string) (string, bool)
}

func newRunContext(lookup func(string) (string, bool)) *runContext {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	return &runContext{
		stored: make(map[string]interface{}),
		lookup: lookup,
	}
}

func (c *runContext) store(name string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored[name] = value
}

func (c *runContext) get(name string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.stored[name]
	return v, ok
}

// Placeholder references allow dotted paths into stored step outputs,
// e.g. ${login.body.auth_token}.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.]*)\}`)

// resolve expands every ${name} placeholder in value, recursing into maps
// and slices. Strings that are exactly one placeholder resolve to the
// referenced value itself, so stored maps and numbers survive intact.
func (c *runContext) resolve(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return c.resolveString(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, elem := range v {
			resolved, err := c.resolve(elem)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, elem := range v {
			resolved, err := c.resolve(elem)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return value, nil
	}
}

func (c *runContext) resolveString(s string) (interface{}, error) {
	if m := placeholderPattern.FindStringSubmatch(s); m != nil && m[0] == s {
		return c.lookupRef(m[1])
	}
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		v, err := c.lookupRef(name)
		if err != nil {
			missing = append(missing, name)
			return match
		}
		return fmt.Sprintf("%v", v)
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("unresolved placeholder(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func (c *runContext) lookupRef(name string) (interface{}, error) {
	parts := strings.Split(name, ".")
	if v, ok := c.get(parts[0]); ok {
		return descend(v, parts[1:], name)
	}
	if v, ok := c.lookup(name); ok {
		return v, nil
	}
	return nil, fmt.Errorf("unknown reference %q", name)
}

func descend(v interface{}, path []string, full string) (interface{}, error) {
	for _, key := range path {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("reference %q: %q is not an object", full, key)
		}
		v, ok = m[key]
		if !ok {
			return nil, fmt.Errorf("reference %q: key %q not found", full, key)
		}
	}
	return v, nil
}

// resolveStringArg resolves a placeholder-bearing step argument that must
// end up a string.
func (c *runContext) resolveStringArg(args map[string]interface{}, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	resolved, err := c.resolve(raw)
	if err != nil {
		return "", err
	}
	s, ok := resolved.(string)
	if !ok {
		return fmt.Sprintf("%v", resolved), nil
	}
	return s, nil
}

// optionalStringArg is resolveStringArg for arguments that may be absent.
func (c *runContext) optionalStringArg(args map[string]interface{}, key string) (string, bool, error) {
	if _, ok := args[key]; !ok {
		return "", false, nil
	}
	s, err := c.resolveStringArg(args, key)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}
