package message

import "strings"

// keySeparators are the characters the wire protocol uses inside key
// names. Older firmware uses dashes, some models use spaces, and a few
// diagnostic payloads use underscores.
const keySeparators = "-_ "

// NormalizeKeys rewrites all map keys in a decoded JSON value from the
// wire's dash/space convention to camelCase, recursively through nested
// objects and arrays. Values are never modified.
//
// Example: "battery-charge-level" -> "batteryChargeLevel"
func NormalizeKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[normalizeKey(k)] = NormalizeKeys(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = NormalizeKeys(inner)
		}
		return out
	default:
		return v
	}
}

// normalizeKey converts a single wire key to camelCase.
// Keys without separators pass through unchanged.
func normalizeKey(key string) string {
	if !strings.ContainsAny(key, keySeparators) {
		return key
	}

	parts := strings.FieldsFunc(key, func(r rune) bool {
		return strings.ContainsRune(keySeparators, r)
	})
	if len(parts) == 0 {
		return key
	}

	var b strings.Builder
	b.WriteString(strings.ToLower(parts[0]))
	for _, part := range parts[1:] {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}

// TypeName converts a wire type tag to the internal type-name convention
// with a family prefix.
//
// Example: ("Vacuum", "CURRENT-STATE") -> "VacuumCurrentState"
func TypeName(prefix, wireType string) string {
	parts := strings.Split(wireType, "-")

	var b strings.Builder
	b.WriteString(prefix)
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}
