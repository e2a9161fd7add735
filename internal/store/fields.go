package store

import "strconv"

// Float reads a numeric field. Numeric strings are accepted too.
func Float(fields map[string]any, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Int reads an integer field, truncating fractional numbers.
func Int(fields map[string]any, key string) int64 {
	switch v := fields[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		f, _ := Float(fields, key)
		return int64(f)
	}
}

// String reads a string field; anything else yields "".
func String(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// Bool reads a boolean field; anything else yields false.
func Bool(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

// Floats reads an array of numbers, skipping non-numeric elements.
func Floats(fields map[string]any, key string) []float64 {
	switch v := fields[key].(type) {
	case []float64:
		return append([]float64(nil), v...)
	case []any:
		out := make([]float64, 0, len(v))
		for _, item := range v {
			if f, ok := Float(map[string]any{"v": item}, "v"); ok {
				out = append(out, f)
			}
		}
		return out
	default:
		return nil
	}
}

// Strings reads an array of strings, skipping non-string elements.
func Strings(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Map reads a nested object field.
func Map(fields map[string]any, key string) map[string]any {
	m, _ := fields[key].(map[string]any)
	return m
}
