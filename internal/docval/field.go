package docval

// Field is an explicit three-state optional used to build merge patches.
// It replaces the old convention of smuggling Unset markers through plain
// maps: the drop-vs-null distinction is carried by the type, not inferred
// from a runtime value.
//
// States:
//   - unset:   the field is not part of the patch (zero value)
//   - cleared: the patch writes an explicit null, clearing the field
//   - present: the patch writes the held value
type Field[T any] struct {
	value   T
	present bool
	cleared bool
}

// Set returns a present Field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, present: true}
}

// Clear returns a Field that writes an explicit null.
func Clear[T any]() Field[T] {
	return Field[T]{cleared: true}
}

// IsUnset reports whether the field contributes nothing to a patch.
func (f Field[T]) IsUnset() bool { return !f.present && !f.cleared }

// Get returns the held value and whether one is present.
func (f Field[T]) Get() (T, bool) { return f.value, f.present }

// Store writes the field into doc under key: present values are written
// as-is, cleared fields as explicit null, unset fields not at all.
func (f Field[T]) Store(doc map[string]any, key string) {
	switch {
	case f.present:
		doc[key] = f.value
	case f.cleared:
		doc[key] = nil
	}
}
