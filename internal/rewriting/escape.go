package rewriting

import "strings"

// reservedEscaper prefixes the characters the document template engine treats specially.
var reservedEscaper = strings.NewReplacer(`%`, `\%`, `#`, `\#`)

// EscapeString escapes every '%' and '#' in s with a backslash.
func EscapeString(s string) string {
	return reservedEscaper.Replace(s)
}

// EscapeReserved returns v with EscapeString applied to every string value, recursively through
// objects and arrays. Object keys, numbers, booleans and nulls are unchanged.
func EscapeReserved(v any) any {
	switch x := v.(type) {
	case string:
		return EscapeString(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = EscapeReserved(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = EscapeReserved(val)
		}
		return out
	default:
		return v
	}
}
