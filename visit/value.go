package visit

import (
	"bytes"
	"encoding/json"
)

// State distinguishes the three ways an optional attribute can arrive.
type State uint8

const (
	// StateAbsent means the value was not computable for this note.
	StateAbsent State = iota
	StatePresent
	// StateFailed means the parser did not expose the attribute at all.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "Absent"
	case StatePresent:
		return "Present"
	case StateFailed:
		return "Failed"
	}
	return "Invalid"
}

// errorSentinel is the JSON spelling of a failed attribute.
const errorSentinel = "Error"

// Value is an optional attribute that can also record extraction failure.
// The zero Value is absent.
type Value[T comparable] struct {
	v     T
	state State
}

func Some[T comparable](v T) Value[T] {
	return Value[T]{v: v, state: StatePresent}
}

func None[T comparable]() Value[T] {
	return Value[T]{}
}

func Failed[T comparable]() Value[T] {
	return Value[T]{state: StateFailed}
}

// Get returns the value and whether it is present.
func (v Value[T]) Get() (T, bool) {
	return v.v, v.state == StatePresent
}

// Or returns the value when present and def otherwise.
func (v Value[T]) Or(def T) T {
	if v.state == StatePresent {
		return v.v
	}
	return def
}

func (v Value[T]) State() State { return v.state }

func (v Value[T]) IsPresent() bool { return v.state == StatePresent }

func (v Value[T]) IsFailed() bool { return v.state == StateFailed }

// Equal compares state and payload. NaN payloads compare equal to each other
// so a note always equals its own clone.
func (v Value[T]) Equal(o Value[T]) bool {
	if v.state != o.state {
		return false
	}
	if v.state != StatePresent {
		return true
	}
	return v.v == o.v || (v.v != v.v && o.v != o.v)
}

func (v Value[T]) MarshalJSON() ([]byte, error) {
	switch v.state {
	case StatePresent:
		return json.Marshal(v.v)
	case StateFailed:
		return json.Marshal(errorSentinel)
	}
	return []byte("null"), nil
}

func (v *Value[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = None[T]()
		return nil
	}
	if bytes.Equal(b, []byte(`"`+errorSentinel+`"`)) {
		*v = Failed[T]()
		return nil
	}
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	*v = Some(t)
	return nil
}
