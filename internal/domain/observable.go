package domain

import (
	"bytes"
	"encoding/json"
)

// unknownPlaceholder is the wire form substituted for any concealed value.
var unknownPlaceholder = []byte("{}")

// Hidden wraps a value whose presence is public but whose detail may be
// concealed from a viewer. A concealed Hidden marshals as the empty-object
// unknown placeholder; authoritative state only ever holds known values.
type Hidden[T any] struct {
	value T
	known bool
}

// Known wraps v as a fully visible Hidden value.
func Known[T any](v T) Hidden[T] {
	return Hidden[T]{value: v, known: true}
}

// Unknown returns the concealed placeholder for T.
func Unknown[T any]() Hidden[T] {
	return Hidden[T]{}
}

// IsKnown reports whether the value is visible to the holder.
func (h Hidden[T]) IsKnown() bool { return h.known }

// Value returns the wrapped value and whether it is known.
func (h Hidden[T]) Value() (T, bool) { return h.value, h.known }

func (h Hidden[T]) MarshalJSON() ([]byte, error) {
	if !h.known {
		return unknownPlaceholder, nil
	}
	return json.Marshal(h.value)
}

func (h *Hidden[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), unknownPlaceholder) {
		*h = Hidden[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*h = Hidden[T]{value: v, known: true}
	return nil
}

// concealAll replaces every element with the unknown placeholder, keeping
// length (the viewer still sees how many there are).
func concealAll[T any](xs []Hidden[T]) []Hidden[T] {
	if xs == nil {
		return nil
	}
	out := make([]Hidden[T], len(xs))
	return out
}

// knownAll wraps a slice of plain values element-wise.
func knownAll[T any](xs []T) []Hidden[T] {
	out := make([]Hidden[T], len(xs))
	for i, x := range xs {
		out[i] = Known(x)
	}
	return out
}

// ObservableBase carries the observed marker shared by every observable
// value: false on authoritative state, true on a projected copy.
type ObservableBase struct {
	Observed bool `json:"observed"`
}

// IsObserved reports whether this instance is already a projected view.
func (b ObservableBase) IsObserved() bool { return b.Observed }

// ObservableEvent is an event whose full detail goes only to its explicit
// targets; everyone else receives the concealed projection.
type ObservableEvent interface {
	Event
	IsObserved() bool
	// Concealed returns a deep-concealed copy with the observed marker set.
	// It never mutates the receiver, and concealing twice equals concealing
	// once: the placeholder has no further detail to hide.
	Concealed() Event
}

// ProjectEvent computes a viewer's view of an observable event. The subject
// (a direct target) sees the event unchanged; everyone else gets the
// concealed projection.
func ProjectEvent(e ObservableEvent, viewerIsSubject bool) Event {
	if viewerIsSubject {
		return e
	}
	return e.Concealed()
}
