package models

import (
	"bytes"
	"encoding/json"
)

// Optional tracks whether a JSON field was present and whether it was null,
// which a plain pointer cannot tell apart.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a present, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null returns a present null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present reports whether the field was given with a non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		o.Null = true
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// IDRef is an identifier as it arrived from a client: a JSON number or a
// string. It is validated later with ParseID.
type IDRef string

func (r *IDRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = IDRef(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	*r = IDRef(data)
	return nil
}

// Parse validates the reference as a positive identifier.
func (r IDRef) Parse(field string) (int64, error) {
	return ParseID(field, string(r))
}
