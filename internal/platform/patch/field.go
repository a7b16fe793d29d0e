// Package patch holds optional override fields for partial updates.
package patch

import "encoding/json"

// Field records whether a JSON member was present. A present null decodes into
// the zero value of T with Set true, so pointer types can express "clear".
type Field[T any] struct {
	Set   bool
	Value T
}

// Some returns a Field that overrides with v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Set = true
	f.Value = v
	return nil
}

// Or returns the override when present, current otherwise.
func (f Field[T]) Or(current T) T {
	if f.Set {
		return f.Value
	}
	return current
}

// Apply writes the override into dst when present.
func (f Field[T]) Apply(dst *T) {
	if f.Set && dst != nil {
		*dst = f.Value
	}
}
