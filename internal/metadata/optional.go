package metadata

import (
	"bytes"
	"encoding/json"
)

var jsonNullLiteral = []byte("null")

// Optional distinguishes an explicitly provided value, including the zero value, from an absent one.
type Optional[T any] struct {
	value   T
	present bool
}

// Some wraps a present value.
func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (optional Optional[T]) Get() (T, bool) {
	return optional.value, optional.present
}

// IsPresent reports whether a value was provided.
func (optional Optional[T]) IsPresent() bool {
	return optional.present
}

// OrElse returns the value when present and fallback otherwise.
func (optional Optional[T]) OrElse(fallback T) T {
	if optional.present {
		return optional.value
	}
	return fallback
}

// MarshalJSON encodes an absent value as null.
func (optional Optional[T]) MarshalJSON() ([]byte, error) {
	if !optional.present {
		return jsonNullLiteral, nil
	}
	return json.Marshal(optional.value)
}

// UnmarshalJSON treats null as absent. A missing key never reaches this method and stays absent as well.
func (optional *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNullLiteral) {
		*optional = None[T]()
		return nil
	}
	var decoded T
	if decodeError := json.Unmarshal(data, &decoded); decodeError != nil {
		return decodeError
	}
	*optional = Some(decoded)
	return nil
}
