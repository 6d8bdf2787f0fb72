// Package interpolate substitutes {{dotted.path}} placeholders in node
// configuration strings with values from the session variable map.
//
// Resolution is permissive: a placeholder whose path is missing or whose
// value is undefined stays in the output verbatim, so partially configured
// flows degrade visibly instead of silently.
package interpolate

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_-]+(?:\.[A-Za-z0-9_-]+)*)\s*\}\}`)

// Interpolate replaces each {{dotted.path}} occurrence in template with the
// value found by successive indexing into vars. Pure and safe for concurrent
// use.
func Interpolate(template string, vars map[string]any) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}

	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		path := placeholderRe.FindStringSubmatch(match)[1]
		value, ok := lookup(vars, path)
		if !ok {
			return match
		}
		return render(value)
	})
}

// lookup resolves a dotted path against the variable map.
func lookup(vars map[string]any, path string) (any, bool) {
	if vars == nil {
		return nil, false
	}
	container := gabs.Wrap(vars)
	hit := container.Path(path)
	if hit == nil {
		return nil, false
	}
	if hit.Data() == nil {
		// Present but null counts as undefined.
		return nil, false
	}
	return hit.Data(), true
}

// render converts a resolved value into its textual form. Strings pass
// through; scalars use their canonical form; composites render as compact
// JSON so API/AI payloads stay inspectable in message text.
func render(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
