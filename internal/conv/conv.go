// Package conv converts the loosely typed values found in decoded YAML/JSON and tuning grids.
package conv

import "strconv"

// ToFloat64 converts v to a float64.
// Numeric strings are accepted because tuning values often come from flags or files.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func ToString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// ConfigLookup reads key from m as a T. A missing or null key yields defaultVal,
// ok is false only when the key holds a value of another type.
func ConfigLookup[T any](m map[string]any, key string, defaultVal T) (T, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return defaultVal, true
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal, false
	}
	return t, true
}
