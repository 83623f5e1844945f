package value

import (
	"strings"

	"github.com/dolthub/swiss"
)

// Object is a structured value: a class name plus an ordered list of named
// properties, and an opaque user-data slot that host code (the texture
// collaborator, a default-constructor extension) may use to stash data that
// isn't itself a Value.
//
// Lookups by name are served from a swiss.Map index kept in sync with the
// ordered slice, so that wide objects (GLSL structs with many fields) don't
// pay linear-scan cost on every property access while Names() still
// reports a stable, insertion-ordered view for enumeration.
type Object struct {
	Class      string
	names      []string
	values     []Value
	index      *swiss.Map[string, int]
	UserData   any
}

// NewObject returns an empty object of the given class name.
func NewObject(class string) *Object {
	return &Object{
		Class: class,
		index: swiss.NewMap[string, int](4),
	}
}

func (o *Object) Kind() Kind { return KindObject }
func (o *Object) String() string {
	var b strings.Builder
	b.WriteString(o.Class)
	b.WriteByte('{')
	for i, n := range o.names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(o.values[i].String())
	}
	b.WriteByte('}')
	return b.String()
}

// Copy returns a deep copy of o: a new Object with every property value
// recursively copied, per the spec's "deep for objects" copy rule.
func (o *Object) Copy() Value {
	cp := &Object{
		Class:    o.Class,
		names:    append([]string(nil), o.names...),
		values:   make([]Value, len(o.values)),
		index:    swiss.NewMap[string, int](uint32(len(o.names)) + 1),
		UserData: o.UserData,
	}
	for i, v := range o.values {
		cp.values[i] = v.Copy()
	}
	for i, n := range cp.names {
		cp.index.Put(n, i)
	}
	return cp
}

// Destroy releases every property value held by o.
func (o *Object) Destroy() {
	for _, v := range o.values {
		v.Destroy()
	}
	o.names = nil
	o.values = nil
	o.index = nil
}

// Get returns the static property slot named name, if any. It never
// consults an extension; that fallback is the caller's (vm.Program's)
// responsibility per the spec.
func (o *Object) Get(name string) (Value, bool) {
	i, ok := o.index.Get(name)
	if !ok {
		return nil, false
	}
	return o.values[i], true
}

// Set writes the static property slot named name, creating it (appended at
// the end, preserving declaration order) if it doesn't already exist.
func (o *Object) Set(name string, v Value) {
	if i, ok := o.index.Get(name); ok {
		o.values[i] = v
		return
	}
	o.index.Put(name, len(o.names))
	o.names = append(o.names, name)
	o.values = append(o.values, v)
}

// Names returns the property names in declaration order. Callers must not
// mutate the result.
func (o *Object) Names() []string { return o.names }

var _ Value = (*Object)(nil)
