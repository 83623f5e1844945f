package value

import "strconv"

// Null is the value of the null kind; there is exactly one observable
// null value.
type Null struct{}

func (Null) Kind() Kind     { return KindNull }
func (Null) String() string { return "null" }
func (n Null) Copy() Value  { return n }
func (Null) Destroy()       {}

// Bool is the boolean scalar kind.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Copy() Value { return b }
func (Bool) Destroy()      {}

// U8 is an 8-bit unsigned integer scalar.
type U8 uint8

func (U8) Kind() Kind          { return KindU8 }
func (u U8) String() string    { return strconv.FormatUint(uint64(u), 10) }
func (u U8) Copy() Value       { return u }
func (U8) Destroy()            {}

// I16 is a 16-bit signed integer scalar.
type I16 int16

func (I16) Kind() Kind       { return KindI16 }
func (i I16) String() string { return strconv.FormatInt(int64(i), 10) }
func (i I16) Copy() Value    { return i }
func (I16) Destroy()         {}

// U16 is a 16-bit unsigned integer scalar.
type U16 uint16

func (U16) Kind() Kind       { return KindU16 }
func (u U16) String() string { return strconv.FormatUint(uint64(u), 10) }
func (u U16) Copy() Value    { return u }
func (U16) Destroy()         {}

// I32 is a 32-bit signed integer scalar.
type I32 int32

func (I32) Kind() Kind       { return KindI32 }
func (i I32) String() string { return strconv.FormatInt(int64(i), 10) }
func (i I32) Copy() Value    { return i }
func (I32) Destroy()         {}

// U32 is a 32-bit unsigned integer scalar.
type U32 uint32

func (U32) Kind() Kind       { return KindU32 }
func (u U32) String() string { return strconv.FormatUint(uint64(u), 10) }
func (u U32) Copy() Value    { return u }
func (U32) Destroy()         {}

// F32 is a 32-bit floating point scalar.
type F32 float32

func (F32) Kind() Kind       { return KindF32 }
func (f F32) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 32) }
func (f F32) Copy() Value    { return f }
func (F32) Destroy()         {}

// String is the interned-or-not UTF-8 string scalar. Strings produced by
// the string table are not distinguished at this layer from ad hoc ones;
// interning lives in bytecode.Generator.DefineString (Image.Strings).
type String string

func (String) Kind() Kind       { return KindString }
func (s String) String() string { return string(s) }
func (s String) Copy() Value    { return s }
func (String) Destroy()         {}

// Pointer is a reference to a storage slot: either a local in a specific
// frame or a global. Pointers are never deep-copied; Copy returns the
// pointer itself, matching the spec's "references ... are never
// deep-copied" rule.
type Pointer struct {
	Global    bool
	FrameID   int // meaningful only if !Global
	SlotIndex int
}

func (Pointer) Kind() Kind { return KindPointer }
func (p Pointer) String() string {
	if p.Global {
		return "&global[" + strconv.Itoa(p.SlotIndex) + "]"
	}
	return "&frame[" + strconv.Itoa(p.FrameID) + "].slot[" + strconv.Itoa(p.SlotIndex) + "]"
}
func (p Pointer) Copy() Value { return p }
func (Pointer) Destroy()      {}
