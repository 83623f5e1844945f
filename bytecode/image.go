package bytecode

// Version is bumped whenever the in-memory image layout changes in a way
// that would make a previously generated Image unusable. There is no
// on-disk format to migrate (see spec.md §6: "compatibility across
// implementations is not a goal"); this only guards against stale cached
// images within a single process generation.
const Version = 1

// Constant is a compile-time literal destined for the constant pool.
// Objects and arrays are never constants; they are always built at
// runtime via NEWOBJECT/NEWARRAY.
type Constant struct {
	Kind  ConstKind
	I64   int64
	F64   float64
	Str   string
}

type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstBool
)

// Param describes one declared parameter of a Function.
type Param struct {
	Name string
	Type string
}

// FunctionEntry is the function-table record for one compiled function:
// either a bytecode body (Offset/Length into Code) or a host function
// (IsHost, resolved to a callback at Program-instantiation time by name).
type FunctionEntry struct {
	Name       string
	Params     []Param
	ReturnType string
	LocalCount int
	// LocalTypes holds the declared type name for every local slot
	// (parameters first, then declared locals), for GetLocalValue /
	// immediate-mode global synthesis.
	LocalNames []string
	LocalTypes []string

	IsHost bool // true: resolved by name against a linked Library at instantiation

	Offset uint32 // byte offset into Code, valid only if !IsHost
	Length uint32 // byte length of this function's body, valid only if !IsHost

	// There is no separate line table: the LINE opcodes in the body carry
	// the source lines. FirstLine/LastLine record the function's min/max
	// source lines for quick range checks (e.g. Jump's "first instruction
	// whose source line >= requested line").
	FirstLine int
	LastLine  int
}

// StructureField describes one field of a user-defined Structure.
type StructureField struct {
	Name string
	Type string
}

// StructureEntry is the structure-table record for a user-defined type.
type StructureEntry struct {
	Name   string
	Fields []StructureField
}

// GlobalEntry is the global-table record: a named, typed storage slot.
// HasInit/Init carry a compile-time literal initializer (e.g. a `const`
// global, or any global whose declared initializer was a literal); when
// HasInit is false the slot starts out as value.Null{}.
type GlobalEntry struct {
	Name    string
	Type    string
	HasInit bool
	Init    Constant
}

// Image is the flat, self-describing bytecode image (B): a finalized,
// immutable snapshot produced by Generator.Finalize. Program instantiates
// one Image at a time; the same Image may back multiple Programs.
type Image struct {
	Version int

	Strings   []string
	Constants []Constant
	Structures []StructureEntry
	Globals    []GlobalEntry
	Functions  []FunctionEntry

	// Code is the flat instruction stream; every FunctionEntry with
	// !IsHost points into a disjoint [Offset, Offset+Length) span of Code.
	Code []byte
}

// FunctionByName returns the index of the function named name, or -1.
func (img *Image) FunctionByName(name string) int {
	for i, f := range img.Functions {
		if f.Name == name {
			return i
		}
	}
	return -1
}
