// Package coerce normalises untyped form submissions into structured
// values. Form and multipart bodies arrive as raw text; values that
// decode as JSON become structured, everything else stays verbatim.
package coerce

import "encoding/json"

// Map coerces every entry of a submitted body. The input map is not
// modified. Coercion never fails: a value that does not decode keeps
// its original text.
func Map(body map[string]any) map[string]any {
	out := make(map[string]any, len(body))
	for k, v := range body {
		out[k] = Value(v)
	}
	return out
}

// Value coerces a single value. Strings are JSON-decoded when possible;
// decoded structures are coerced recursively; array elements are
// coerced independently by position.
func Value(v any) any {
	switch val := v.(type) {
	case string:
		decoded, ok := tryDecode(val)
		if !ok {
			return val
		}
		// A string that decodes to another string (quoted text) is
		// taken at face value; no further passes.
		if s, isStr := decoded.(string); isStr {
			return s
		}
		return Value(decoded)
	case []any:
		out := make([]any, len(val))
		for i, el := range val {
			out[i] = Value(el)
		}
		return out
	case map[string]any:
		return Map(val)
	default:
		return v
	}
}

func tryDecode(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}
