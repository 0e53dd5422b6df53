package jobspec

import (
	"fmt"
	"regexp"
	"strings"
)

// Vars is the template context applied to identifiers and locations in a
// specification. Both `${KEY}`/`$KEY` and `{KEY}` placeholders are
// supported; unknown keys are left untouched.
type Vars map[string]string

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Expand renders all known placeholders in s.
func (v Vars) Expand(s string) string {
	if len(v) == 0 || s == "" {
		return s
	}
	out := placeholderPattern.ReplaceAllStringFunc(s, func(tok string) string {
		name := strings.TrimPrefix(tok, "$")
		name = strings.TrimPrefix(strings.TrimSuffix(name, "}"), "{")
		if val, ok := v[name]; ok {
			return val
		}
		return tok
	})
	for key, val := range v {
		out = strings.ReplaceAll(out, "{"+key+"}", val)
	}
	return out
}

// ExpandMap renders placeholders in every value of a string map.
func (v Vars) ExpandMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = v.Expand(val)
	}
	return out
}

// ExpandAny renders placeholders in every string reachable in a generic
// document (maps, slices, strings).
func (v Vars) ExpandAny(value any) any {
	switch t := value.(type) {
	case string:
		return v.Expand(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = v.ExpandAny(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = v.ExpandAny(e)
		}
		return out
	default:
		return value
	}
}

// ParseVarFlags parses repeatable KEY=VALUE flag values.
func ParseVarFlags(pairs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var value %q; expected KEY=VALUE", pair)
		}
		out[key] = value
	}
	return out, nil
}
