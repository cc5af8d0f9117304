package playbook

import "strconv"

// Sanitize rewrites a decoded JSON value so that no array directly holds
// arrays, which the document store cannot represent. Such an array becomes
// an object keyed by element index. Arrays of records or primitives stay
// arrays, objects are rebuilt key by key and primitives pass through.
func Sanitize(v any) any {
	switch t := v.(type) {
	case []any:
		if nestedArray(t) {
			out := make(map[string]any, len(t))
			for i, el := range t {
				out[strconv.Itoa(i)] = Sanitize(el)
			}
			return out
		}
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = Sanitize(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, el := range t {
			out[k] = Sanitize(el)
		}
		return out
	default:
		return v
	}
}

// Desanitize is the inverse of Sanitize. Objects whose keys are all
// non-negative integers and whose values are all arrays are restored to
// arrays in numeric key order; missing indices are skipped. Values under the
// opaque keys are copied without inspection.
func Desanitize(v any, opaque ...string) any {
	skip := make(map[string]struct{}, len(opaque))
	for _, k := range opaque {
		skip[k] = struct{}{}
	}
	return desanitize(v, skip)
}

func desanitize(v any, skip map[string]struct{}) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = desanitize(el, skip)
		}
		return out
	case map[string]any:
		if keys, ok := indexedArrays(t); ok {
			out := make([]any, len(keys))
			for i, k := range keys {
				out[i] = desanitize(t[k], skip)
			}
			return out
		}
		out := make(map[string]any, len(t))
		for k, el := range t {
			if _, ok := skip[k]; ok {
				out[k] = el
				continue
			}
			out[k] = desanitize(el, skip)
		}
		return out
	default:
		return v
	}
}

// nestedArray reports whether every element of a non-empty array is
// itself an array.
func nestedArray(a []any) bool {
	if len(a) == 0 {
		return false
	}
	for _, el := range a {
		if _, ok := el.([]any); !ok {
			return false
		}
	}
	return true
}

func indexedArrays(m map[string]any) ([]string, bool) {
	if len(m) == 0 {
		return nil, false
	}
	for _, el := range m {
		// The sanitized form of a nested array element is either still an
		// array or, when it was itself nested, an indexed object.
		switch inner := el.(type) {
		case []any:
		case map[string]any:
			if _, ok := indexedArrays(inner); !ok {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return numericKeys(keysOf(m))
}
