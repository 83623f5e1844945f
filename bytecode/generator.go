package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Generator is the append-only builder of an Image (G in the spec). It owns
// the string table (deduplicating via define_string) and the constant pool,
// and hands out FunctionBuilders that append to a single shared code
// buffer. Finalize is idempotent: it may be called more than once and
// returns the same Image each time. Define*, DefineFunction and Emit calls
// made after Finalize are not checked or rejected.
type Generator struct {
	strings    []string
	stringIdx  map[string]uint32
	constants  []Constant
	constIdx   map[any]uint32
	structures []StructureEntry
	globals    []GlobalEntry
	globalIdx  map[string]uint32

	code      []byte
	functions []FunctionEntry

	finalized bool
	image     *Image
}

// NewGenerator returns an empty Generator ready to accept definitions.
func NewGenerator() *Generator {
	return &Generator{
		stringIdx: make(map[string]uint32),
		constIdx:  make(map[any]uint32),
		globalIdx: make(map[string]uint32),
	}
}

// DefineString interns s in the string table, returning its (possibly
// pre-existing) index.
func (g *Generator) DefineString(s string) uint32 {
	if i, ok := g.stringIdx[s]; ok {
		return i
	}
	i := uint32(len(g.strings))
	g.strings = append(g.strings, s)
	g.stringIdx[s] = i
	return i
}

// DefineConstant interns a literal constant, returning its (possibly
// pre-existing) index.
func (g *Generator) DefineConstant(c Constant) uint32 {
	key := any(c)
	if i, ok := g.constIdx[key]; ok {
		return i
	}
	i := uint32(len(g.constants))
	g.constants = append(g.constants, c)
	g.constIdx[key] = i
	return i
}

// DefineStructure appends a structure layout, returning its index.
func (g *Generator) DefineStructure(s StructureEntry) uint32 {
	i := uint32(len(g.structures))
	g.structures = append(g.structures, s)
	return i
}

// DefineGlobal appends a global slot declaration, returning its (possibly
// pre-existing) index.
func (g *Generator) DefineGlobal(name, typ string) uint32 {
	return g.defineGlobal(name, typ, false, Constant{})
}

// DefineGlobalWithInit is DefineGlobal plus a compile-time literal
// initializer applied when the Program is instantiated.
func (g *Generator) DefineGlobalWithInit(name, typ string, init Constant) uint32 {
	return g.defineGlobal(name, typ, true, init)
}

func (g *Generator) defineGlobal(name, typ string, hasInit bool, init Constant) uint32 {
	if i, ok := g.globalIdx[name]; ok {
		if hasInit {
			g.globals[i].HasInit = true
			g.globals[i].Init = init
		}
		return i
	}
	i := uint32(len(g.globals))
	g.globals = append(g.globals, GlobalEntry{Name: name, Type: typ, HasInit: hasInit, Init: init})
	g.globalIdx[name] = i
	return i
}

// FunctionBuilder accumulates the instruction stream for a single function
// body within the Generator's shared code buffer.
type FunctionBuilder struct {
	g      *Generator
	entry  FunctionEntry
	// baseOffset is where this function's body will land in the
	// Generator's shared Code buffer: functions are built and Sealed one
	// at a time (never interleaved), so it is already known at
	// DefineFunction time. Label addresses are tracked in these absolute,
	// whole-Image terms from the start, since the VM's PC (Frame.PC,
	// JMP's operand) indexes directly into Program.Image.Code rather than
	// into any one function's body in isolation.
	baseOffset uint32
	labels     map[int]uint32   // label id -> resolved absolute address, once known
	fixups     map[int][]uint32 // label id -> addresses of JMP operands awaiting that label
	nextLabel  int              // last label id handed out by NewLabel
	buf        []byte
}

// DefineFunction begins a new function body. IsHost functions carry no
// body; callers should not call Emit on the returned builder for those.
func (g *Generator) DefineFunction(name string, params []Param, returnType string, localNames, localTypes []string, isHost bool) *FunctionBuilder {
	return &FunctionBuilder{
		g: g,
		entry: FunctionEntry{
			Name:       name,
			Params:     params,
			ReturnType: returnType,
			LocalCount: len(localNames),
			LocalNames: localNames,
			LocalTypes: localTypes,
			IsHost:     isHost,
		},
		baseOffset: uint32(len(g.code)),
		labels:     make(map[int]uint32),
		fixups:     make(map[int][]uint32),
	}
}

// SetLocalTable replaces the function's local-slot name/type tables,
// allowing a frontend to declare additional locals (block-scoped
// variables, loop counters) discovered while emitting the body, beyond the
// parameters known at DefineFunction time. len(names) becomes the new
// LocalCount.
func (fb *FunctionBuilder) SetLocalTable(names, types []string) {
	fb.entry.LocalNames = names
	fb.entry.LocalTypes = types
	fb.entry.LocalCount = len(names)
}

// Offset returns the current write offset within this function's body,
// relative to the start of the body (not an absolute Code address). Jump
// targets go through NewLabel/BindLabel, which track absolute addresses.
func (fb *FunctionBuilder) Offset() uint32 { return uint32(len(fb.buf)) }

// Emit appends a non-jump instruction. For opcodes with HasArg() false,
// arg is ignored. Jump-family opcodes must go through EmitJump instead.
func (fb *FunctionBuilder) Emit(op Opcode, arg uint32) {
	if op.IsJump() {
		panic("bytecode: Emit called with a jump opcode; use EmitJump")
	}
	fb.buf = append(fb.buf, byte(op))
	if op.HasArg() {
		fb.buf = appendVarint(fb.buf, arg)
	}
}

// EmitLine appends a LINE marker for the given source line, and tracks the
// function's observed line range.
func (fb *FunctionBuilder) EmitLine(line int) {
	fb.buf = append(fb.buf, byte(LINE))
	fb.buf = appendVarint(fb.buf, uint32(line))
	if fb.entry.FirstLine == 0 || line < fb.entry.FirstLine {
		fb.entry.FirstLine = line
	}
	if line > fb.entry.LastLine {
		fb.entry.LastLine = line
	}
}

// NewLabel allocates a fresh label id, not yet bound to an address.
func (fb *FunctionBuilder) NewLabel() int {
	fb.nextLabel++
	return fb.nextLabel
}

// EmitJump appends a jump-family opcode whose operand is the (possibly not
// yet known) address of label. The operand is always written as a fixed
// 4-byte little-endian address so that BindLabel can patch it in place
// regardless of emission order.
func (fb *FunctionBuilder) EmitJump(op Opcode, label int) {
	if !op.IsJump() {
		panic("bytecode: EmitJump called with a non-jump opcode")
	}
	fb.buf = append(fb.buf, byte(op))
	at := uint32(len(fb.buf))
	fb.buf = append(fb.buf, 0, 0, 0, 0)
	if addr, ok := fb.labels[label]; ok {
		binary.LittleEndian.PutUint32(fb.buf[at:], addr)
		return
	}
	fb.fixups[label] = append(fb.fixups[label], at)
}

// BindLabel marks label as resolving to the current write offset, patching
// any jump operands already emitted that reference it.
func (fb *FunctionBuilder) BindLabel(label int) {
	addr := fb.baseOffset + uint32(len(fb.buf))
	fb.labels[label] = addr
	for _, at := range fb.fixups[label] {
		binary.LittleEndian.PutUint32(fb.buf[at:], addr)
	}
	delete(fb.fixups, label)
}

// Seal finalizes the function body, appending it to the Generator's shared
// code buffer, and returns the registered function's index. It is an error
// to call Seal with unresolved jump labels.
func (fb *FunctionBuilder) Seal() (uint32, error) {
	if len(fb.fixups) > 0 {
		return 0, fmt.Errorf("function %s: %d unresolved label(s)", fb.entry.Name, len(fb.fixups))
	}
	g := fb.g
	fb.entry.Offset = fb.baseOffset
	fb.entry.Length = uint32(len(fb.buf))
	g.code = append(g.code, fb.buf...)
	idx := uint32(len(g.functions))
	g.functions = append(g.functions, fb.entry)
	return idx, nil
}

// SealHost finalizes a host (library) function declaration: no body, just
// a function-table entry resolved by name at link time.
func (g *Generator) SealHost(name string, params []Param, returnType string) uint32 {
	idx := uint32(len(g.functions))
	g.functions = append(g.functions, FunctionEntry{
		Name: name, Params: params, ReturnType: returnType, IsHost: true,
	})
	return idx
}

// Finalize produces the Image. It is idempotent: calling it twice returns
// the same Image without re-appending anything. After the first call,
// Define*/DefineFunction must not be used to mutate the result.
func (g *Generator) Finalize() *Image {
	if g.finalized {
		return g.image
	}
	g.finalized = true
	g.image = &Image{
		Version:    Version,
		Strings:    g.strings,
		Constants:  g.constants,
		Structures: g.structures,
		Globals:    g.globals,
		Functions:  g.functions,
		Code:       g.code,
	}
	return g.image
}

func appendVarint(buf []byte, v uint32) []byte {
	var tmp [binary.MaxVarintLen32]byte
	n := binary.PutUvarint(tmp[:], uint64(v))
	return append(buf, tmp[:n]...)
}
