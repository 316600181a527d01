// Package docval models the value trees written to the remote document
// store: maps, slices, primitives, explicit nulls, and two markers — Unset
// (an absent value that must never reach the store) and Delete (the store's
// field-delete sentinel). Sanitize is the single choke point every write
// path goes through before data leaves the process.
package docval

import "math"

// Unset marks an absent value. The remote store rejects writes containing
// it, so Sanitize strips it: map fields holding Unset are dropped entirely
// and slice elements holding Unset are removed. Contrast with nil, which is
// an explicit null and carries "clear this field" semantics on merge-writes.
type Unset struct{}

// Delete is the field-delete sentinel. A merge-write containing Delete for
// a field removes that field from the stored document. It passes through
// Sanitize untouched.
type Delete struct{}

// Sanitize rewrites v into a value safe to persist: Unset map fields and
// slice elements are dropped, NaN and ±Inf become explicit nulls, nil is
// preserved, everything else is deep-copied. A bare Unset at the top level
// sanitizes to nil. Pure; never panics; idempotent.
func Sanitize(v any) any {
	switch value := v.(type) {
	case Unset:
		return nil
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, elem := range value {
			if _, absent := elem.(Unset); absent {
				continue
			}
			out[k] = Sanitize(elem)
		}
		return out
	case []any:
		out := make([]any, 0, len(value))
		for _, elem := range value {
			if _, absent := elem.(Unset); absent {
				continue
			}
			out = append(out, Sanitize(elem))
		}
		return out
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil
		}
		return value
	case float32:
		if math.IsNaN(float64(value)) || math.IsInf(float64(value), 0) {
			return nil
		}
		return value
	default:
		// Primitives, nil, and the Delete sentinel are already safe.
		return v
	}
}
