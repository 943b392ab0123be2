package domain

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes "field absent" from "field present with a value",
// including the zero value. A JSON null decodes as absent.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some wraps v as a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether it was present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// UnmarshalJSON is only invoked when the key exists in the payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalJSON renders absent values as null, which UnmarshalJSON reads back
// as absent.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// ProfileUpdate is a partial update of an identity's mutable fields.
// Fields that are absent or carry an empty string are left untouched.
type ProfileUpdate struct {
	DisplayName Optional[string] `json:"displayName"`
	Phone       Optional[string] `json:"phone"`
	Address     Optional[string] `json:"address"`
	Avatar      Optional[string] `json:"avatar"`
}

// Empty reports whether the update carries no fields at all.
func (u ProfileUpdate) Empty() bool {
	return !u.DisplayName.Set && !u.Phone.Set && !u.Address.Set && !u.Avatar.Set
}

// Changes drops fields that are present but empty, leaving only the values
// that would actually be written.
func (u ProfileUpdate) Changes() ProfileUpdate {
	return ProfileUpdate{
		DisplayName: nonEmpty(u.DisplayName),
		Phone:       nonEmpty(u.Phone),
		Address:     nonEmpty(u.Address),
		Avatar:      nonEmpty(u.Avatar),
	}
}

// ApplyTo mutates id with every present, non-empty field.
func (u ProfileUpdate) ApplyTo(id *Identity) {
	u = u.Changes()
	if v, ok := u.DisplayName.Get(); ok {
		id.DisplayName = v
	}
	if v, ok := u.Phone.Get(); ok {
		id.Phone = v
	}
	if v, ok := u.Address.Get(); ok {
		id.Address = v
	}
	if v, ok := u.Avatar.Get(); ok {
		id.Avatar = v
	}
}

func nonEmpty(o Optional[string]) Optional[string] {
	if v, ok := o.Get(); ok && v != "" {
		return o
	}
	return Optional[string]{}
}
