package cleaner

import "strings"

// Sanitize rebuilds v with invalid UTF-8 sequences removed from every string
// value. Keys, key order, element order and non-string scalars are kept.
func Sanitize(v any) any {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return t
		}
		out := NewObject()
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, Sanitize(pair.Value))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Sanitize(item)
		}
		return out
	case string:
		return CleanText(t)
	default:
		return v
	}
}

// CleanText drops invalid UTF-8 byte sequences from s.
func CleanText(s string) string {
	return strings.ToValidUTF8(s, "")
}
