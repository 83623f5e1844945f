// Package value implements the tagged-variant runtime value model (V) of
// the shader debugger: the set of values a compiled shader program can
// hold in a local, a global, an array element or an object property.
package value

import "fmt"

// Kind discriminates the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32
	KindF32
	KindString
	KindObject
	KindArray
	KindPointer
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindU8:
		return "u8"
	case KindI16:
		return "i16"
	case KindU16:
		return "u16"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindF32:
		return "f32"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindPointer:
		return "pointer"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is the interface implemented by every runtime value. Scalars are
// copied by value (Go value semantics already give us this); Object and
// Array are reference types wrapped by Copy/Destroy so that the VM's copy
// semantics (deep for objects/arrays, shallow for scalars, never for
// pointers) are explicit rather than implied by aliasing.
type Value interface {
	Kind() Kind
	String() string
	// Copy returns a value with the same observable content as v. For
	// scalars and Pointer this returns v itself. For Object and Array it
	// returns a deep copy.
	Copy() Value
	// Destroy releases any resources owned by v (recursively, for Object
	// and Array). Scalars and Pointer are no-ops.
	Destroy()
}

// Truth reports the boolean truthiness of v, using C-like rules: zero
// scalars and the empty string are false, null is false, everything else
// is true.
func Truth(v Value) bool {
	switch x := v.(type) {
	case Null:
		return false
	case Bool:
		return bool(x)
	case U8:
		return x != 0
	case I16:
		return x != 0
	case U16:
		return x != 0
	case I32:
		return x != 0
	case U32:
		return x != 0
	case F32:
		return x != 0
	case String:
		return len(x) > 0
	case *Object, *Array, Pointer:
		return true
	default:
		return false
	}
}
