package bytecode_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"shaderdbg/bytecode"
)

func TestDefineStringInterns(t *testing.T) {
	g := bytecode.NewGenerator()
	i1 := g.DefineString("hello")
	i2 := g.DefineString("hello")
	i3 := g.DefineString("world")
	require.Equal(t, i1, i2)
	require.NotEqual(t, i1, i3)

	img := g.Finalize()
	require.Equal(t, []string{"hello", "world"}, img.Strings)
}

func TestDefineConstantInterns(t *testing.T) {
	g := bytecode.NewGenerator()
	c := bytecode.Constant{Kind: bytecode.ConstInt, I64: 42}
	i1 := g.DefineConstant(c)
	i2 := g.DefineConstant(c)
	require.Equal(t, i1, i2)
}

func TestDefineGlobalWithInit(t *testing.T) {
	g := bytecode.NewGenerator()
	i := g.DefineGlobalWithInit("k", "float", bytecode.Constant{Kind: bytecode.ConstFloat, F64: 1.5})
	img := g.Finalize()
	require.True(t, img.Globals[i].HasInit)
	require.Equal(t, 1.5, img.Globals[i].Init.F64)
}

func TestDefineGlobalRepeatedNameReusesIndex(t *testing.T) {
	g := bytecode.NewGenerator()
	i1 := g.DefineGlobal("x", "float")
	i2 := g.DefineGlobal("x", "float")
	require.Equal(t, i1, i2)
}

func TestFinalizeIdempotent(t *testing.T) {
	g := bytecode.NewGenerator()
	g.DefineString("a")
	img1 := g.Finalize()
	g2 := g
	img2 := g2.Finalize()
	require.Same(t, img1, img2)
}

func TestFunctionBuilderLabelForwardJump(t *testing.T) {
	g := bytecode.NewGenerator()
	fb := g.DefineFunction("f", nil, "void", nil, nil, false)

	lbl := fb.NewLabel()
	fb.Emit(bytecode.TRUE, 0)
	fb.EmitJump(bytecode.JMPIFFALSE, lbl)
	fb.Emit(bytecode.NIL, 0)
	fb.Emit(bytecode.RETURN, 0)
	target := fb.Offset()
	fb.BindLabel(lbl)
	fb.Emit(bytecode.NIL, 0)
	fb.Emit(bytecode.RETURN, 0)

	idx, err := fb.Seal()
	require.NoError(t, err)
	img := g.Finalize()

	entry := img.Functions[idx]
	require.Equal(t, uint32(0), entry.Offset)
	require.True(t, entry.Length > target)
}

func TestSealUnresolvedLabelErrors(t *testing.T) {
	g := bytecode.NewGenerator()
	fb := g.DefineFunction("f", nil, "void", nil, nil, false)
	lbl := fb.NewLabel()
	fb.EmitJump(bytecode.JMP, lbl)
	_, err := fb.Seal()
	require.Error(t, err)
}

func TestSetLocalTable(t *testing.T) {
	g := bytecode.NewGenerator()
	fb := g.DefineFunction("f", []bytecode.Param{{Name: "a", Type: "float"}}, "float", []string{"a"}, []string{"float"}, false)
	fb.SetLocalTable([]string{"a", "tmp"}, []string{"float", "float"})
	fb.Emit(bytecode.NIL, 0)
	fb.Emit(bytecode.RETURN, 0)
	idx, err := fb.Seal()
	require.NoError(t, err)
	img := g.Finalize()
	require.Equal(t, 2, img.Functions[idx].LocalCount)
	require.Equal(t, []string{"a", "tmp"}, img.Functions[idx].LocalNames)
}

func TestSealHostFunction(t *testing.T) {
	g := bytecode.NewGenerator()
	idx := g.SealHost("$discard", nil, "void")
	img := g.Finalize()
	require.True(t, img.Functions[idx].IsHost)
}

func TestDisassembleAnnotatesConstAndGlobal(t *testing.T) {
	g := bytecode.NewGenerator()
	gi := g.DefineGlobal("k", "float")
	ci := g.DefineConstant(bytecode.Constant{Kind: bytecode.ConstFloat, F64: 2})

	fb := g.DefineFunction("main", nil, "float", nil, nil, false)
	fb.Emit(bytecode.CONST, ci)
	fb.Emit(bytecode.SETGLOBAL, gi)
	fb.Emit(bytecode.GLOBAL, gi)
	fb.Emit(bytecode.RETURN, 0)
	idx, err := fb.Seal()
	require.NoError(t, err)

	img := g.Finalize()
	var buf bytes.Buffer
	require.NoError(t, img.Disassemble(&buf, int(idx)))
	out := buf.String()
	require.Contains(t, out, "main:")
	require.Contains(t, out, "k")
}

func TestDisassembleHostFunction(t *testing.T) {
	g := bytecode.NewGenerator()
	idx := g.SealHost("$discard", nil, "void")
	img := g.Finalize()
	var buf bytes.Buffer
	require.NoError(t, img.Disassemble(&buf, int(idx)))
	require.Contains(t, buf.String(), "host function")
}

func TestDisassembleInvalidIndex(t *testing.T) {
	img := bytecode.NewGenerator().Finalize()
	var buf bytes.Buffer
	require.Error(t, img.Disassemble(&buf, 0))
}

func TestOpcodeString(t *testing.T) {
	require.Equal(t, "add", bytecode.ADD.String())
	require.Contains(t, bytecode.Opcode(250).String(), "opcode(")
}

func TestOpcodeHasArgAndIsJump(t *testing.T) {
	require.False(t, bytecode.NOP.HasArg())
	require.True(t, bytecode.CONST.HasArg())
	require.True(t, bytecode.JMP.IsJump())
	require.False(t, bytecode.CALL.IsJump())
}

func TestFunctionByName(t *testing.T) {
	g := bytecode.NewGenerator()
	fb := g.DefineFunction("main", nil, "void", nil, nil, false)
	fb.Emit(bytecode.NIL, 0)
	fb.Emit(bytecode.RETURN, 0)
	_, err := fb.Seal()
	require.NoError(t, err)
	img := g.Finalize()
	require.Equal(t, 0, img.FunctionByName("main"))
	require.Equal(t, -1, img.FunctionByName("missing"))
}

// TestJumpTargetsAccountForPriorFunctionOffset builds two functions where
// the second (non-first) one branches: its label addresses must land
// inside its own body within the shared Code buffer, not be misread as
// offsets from the start of Code (which would place them inside the first
// function's body instead).
func TestJumpTargetsAccountForPriorFunctionOffset(t *testing.T) {
	g := bytecode.NewGenerator()

	firstFB := g.DefineFunction("first", nil, "void", nil, nil, false)
	firstFB.Emit(bytecode.NIL, 0)
	firstFB.Emit(bytecode.RETURN, 0)
	_, err := firstFB.Seal()
	require.NoError(t, err)

	secondFB := g.DefineFunction("second", nil, "void", nil, nil, false)
	lbl := secondFB.NewLabel()
	secondFB.Emit(bytecode.TRUE, 0)
	secondFB.EmitJump(bytecode.JMPIFFALSE, lbl)
	secondFB.Emit(bytecode.NIL, 0)
	secondFB.Emit(bytecode.RETURN, 0)
	secondFB.BindLabel(lbl)
	secondFB.Emit(bytecode.NIL, 0)
	secondFB.Emit(bytecode.RETURN, 0)
	secondIdx, err := secondFB.Seal()
	require.NoError(t, err)

	img := g.Finalize()
	entry := img.Functions[secondIdx]
	require.True(t, entry.Offset > 0, "second function must not start at offset 0")

	// Decode the JMPIFFALSE operand directly: it must fall within
	// [entry.Offset, entry.Offset+entry.Length), not near 0.
	pc := entry.Offset
	op := bytecode.Opcode(img.Code[pc])
	require.Equal(t, bytecode.TRUE, op)
	pc++
	op = bytecode.Opcode(img.Code[pc])
	require.Equal(t, bytecode.JMPIFFALSE, op)
	pc++
	target := binary.LittleEndian.Uint32(img.Code[pc:])
	require.GreaterOrEqual(t, target, entry.Offset)
	require.Less(t, target, entry.Offset+entry.Length)
}
