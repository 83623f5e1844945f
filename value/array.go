package value

import "strings"

// Array is a fixed-length, homogeneous-by-convention sequence of values.
// The element kind is not enforced here; the compiler is responsible for
// only emitting element-kind-consistent arrays, matching the spec's
// comment that array typing is a compile-time concern.
type Array struct {
	Elem []Value
}

// NewArray returns an Array wrapping elems directly (no copy); callers that
// need isolation should Copy() the result.
func NewArray(elems []Value) *Array { return &Array{Elem: elems} }

func (a *Array) Kind() Kind { return KindArray }
func (a *Array) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range a.Elem {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return b.String()
}

// Copy returns a deep copy of a, per the spec's "deep for ... arrays" rule.
func (a *Array) Copy() Value {
	elems := make([]Value, len(a.Elem))
	for i, v := range a.Elem {
		elems[i] = v.Copy()
	}
	return &Array{Elem: elems}
}

func (a *Array) Destroy() {
	for _, v := range a.Elem {
		v.Destroy()
	}
	a.Elem = nil
}

// Len returns the number of elements in a.
func (a *Array) Len() int { return len(a.Elem) }

// Index returns the element at i, or (nil, false) if i is out of range.
func (a *Array) Index(i int) (Value, bool) {
	if i < 0 || i >= len(a.Elem) {
		return nil, false
	}
	return a.Elem[i], true
}

// SetIndex assigns the element at i, returning false if i is out of range.
func (a *Array) SetIndex(i int, v Value) bool {
	if i < 0 || i >= len(a.Elem) {
		return false
	}
	a.Elem[i] = v
	return true
}

var _ Value = (*Array)(nil)
