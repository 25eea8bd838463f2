package ingest

import "math"

// sanitizeFields coerces field values to index-safe scalars. NaN and
// infinite numerics become absent keys: the index must see a missing
// value, never a floating-point sentinel it would store as garbage.
func sanitizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for name, v := range fields {
		switch t := v.(type) {
		case float64:
			if math.IsNaN(t) || math.IsInf(t, 0) {
				continue
			}
			out[name] = t
		case float32:
			f := float64(t)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			out[name] = f
		case string:
			if t == "" {
				continue
			}
			out[name] = t
		case nil:
			continue
		default:
			out[name] = v
		}
	}
	return out
}
