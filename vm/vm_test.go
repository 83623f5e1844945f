package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"shaderdbg/bytecode"
	"shaderdbg/value"
	"shaderdbg/vm"
	"shaderdbg/vm/library"
)

func constF(v float64) bytecode.Constant { return bytecode.Constant{Kind: bytecode.ConstFloat, F64: v} }

// buildAddReturn builds a single-function image: `return 2.0 + 3.0;`.
func buildAddReturn(t *testing.T) *bytecode.Image {
	t.Helper()
	g := bytecode.NewGenerator()
	c1 := g.DefineConstant(constF(2))
	c2 := g.DefineConstant(constF(3))
	fb := g.DefineFunction("main", nil, "float", nil, nil, false)
	fb.EmitLine(1)
	fb.Emit(bytecode.CONST, c1)
	fb.Emit(bytecode.CONST, c2)
	fb.Emit(bytecode.ADD, 0)
	fb.Emit(bytecode.RETURN, 0)
	_, err := fb.Seal()
	require.NoError(t, err)
	return g.Finalize()
}

func TestStepArithmeticAndReturn(t *testing.T) {
	img := buildAddReturn(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	require.NoError(t, prog.CheckLinked())

	s, err := vm.NewStepper(prog, img.FunctionByName("main"), nil)
	require.NoError(t, err)

	var last vm.StepResult
	for {
		last = s.Step()
		if last.Status != vm.Running {
			break
		}
	}
	require.Equal(t, vm.Terminated, last.Status)
	require.Equal(t, value.F32(5), s.Result)
}

// buildCallGraph builds: main() { return helper() + 1.0; } helper() { return 10.0; }
// with LINE markers so StepOver/StepOut have a source line to observe.
func buildCallGraph(t *testing.T) (*bytecode.Image, int, int) {
	t.Helper()
	g := bytecode.NewGenerator()
	cHelperRet := g.DefineConstant(constF(10))
	cOne := g.DefineConstant(constF(1))

	helperFB := g.DefineFunction("helper", nil, "float", nil, nil, false)
	helperFB.EmitLine(10)
	helperFB.Emit(bytecode.CONST, cHelperRet)
	helperFB.Emit(bytecode.RETURN, 0)
	helperIdx, err := helperFB.Seal()
	require.NoError(t, err)

	mainFB := g.DefineFunction("main", nil, "float", nil, nil, false)
	mainFB.EmitLine(1)
	mainFB.Emit(bytecode.CALL, helperIdx)
	mainFB.EmitLine(2)
	mainFB.Emit(bytecode.CONST, cOne)
	mainFB.Emit(bytecode.ADD, 0)
	mainFB.Emit(bytecode.RETURN, 0)
	mainIdx, err := mainFB.Seal()
	require.NoError(t, err)

	img := g.Finalize()
	return img, int(mainIdx), int(helperIdx)
}

func TestStepOverDoesNotStopInsideCallee(t *testing.T) {
	img, mainIdx, _ := buildCallGraph(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	s, err := vm.NewStepper(prog, mainIdx, nil)
	require.NoError(t, err)

	startDepth := s.Depth()
	r := s.StepOver()
	require.Equal(t, vm.Running, r.Status)
	require.Equal(t, startDepth, s.Depth())
	// RETURN pops the callee's frame without dispatching a LINE marker of
	// its own, so CurrentLine would still read helper's last line right at
	// that instant; StepOver keeps going until the resumed caller frame
	// reaches a line of its own (main's LINE 2), rather than stopping one
	// instruction early on helper's stale line 10.
	require.Equal(t, 2, prog.CurrentLine)
}

func TestStepOutReturnsAboveStartingDepth(t *testing.T) {
	img, mainIdx, _ := buildCallGraph(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	s, err := vm.NewStepper(prog, mainIdx, nil)
	require.NoError(t, err)

	// Step once to dispatch the CALL, entering helper's frame.
	r := s.Step()
	require.Equal(t, vm.Running, r.Status)
	require.Equal(t, 2, s.Depth())

	r = s.StepOut()
	require.Equal(t, vm.Running, r.Status)
	require.Equal(t, 1, s.Depth())
}

func TestFunctionStackAndLocals(t *testing.T) {
	img, mainIdx, _ := buildCallGraph(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	s, err := vm.NewStepper(prog, mainIdx, nil)
	require.NoError(t, err)

	require.Equal(t, "main", s.CurrentFunctionName())
	require.Equal(t, []string{"main"}, s.FunctionStack())

	s.Step() // dispatch CALL
	require.Equal(t, "helper", s.CurrentFunctionName())
	require.Equal(t, []string{"main", "helper"}, s.FunctionStack())
}

func TestJumpToLaterLine(t *testing.T) {
	img, mainIdx, _ := buildCallGraph(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	s, err := vm.NewStepper(prog, mainIdx, nil)
	require.NoError(t, err)

	require.NoError(t, s.Jump(2))
	require.Equal(t, 2, prog.CurrentLine)
}

func TestJumpOutOfRangeErrors(t *testing.T) {
	img, mainIdx, _ := buildCallGraph(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	s, err := vm.NewStepper(prog, mainIdx, nil)
	require.NoError(t, err)

	require.Error(t, s.Jump(999))
}

func TestRunUntilBreakpoint(t *testing.T) {
	img, mainIdx, _ := buildCallGraph(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	s, err := vm.NewStepper(prog, mainIdx, nil)
	require.NoError(t, err)

	r := s.RunUntil(func(s *vm.Stepper) bool { return prog.CurrentLine == 2 })
	require.Equal(t, vm.Running, r.Status)
	require.Equal(t, 2, prog.CurrentLine)
}

// buildDiscardOpcode builds a function that unconditionally executes the
// native DISCARD opcode, mirroring frontend/glsl's direct lowering of
// `discard;` (rather than a $$discard host-function call).
func buildDiscardOpcode(t *testing.T) *bytecode.Image {
	t.Helper()
	g := bytecode.NewGenerator()
	fb := g.DefineFunction("main", nil, "void", nil, nil, false)
	fb.EmitLine(1)
	fb.Emit(bytecode.DISCARD, 0)
	fb.Emit(bytecode.NIL, 0)
	fb.Emit(bytecode.RETURN, 0)
	_, err := fb.Seal()
	require.NoError(t, err)
	return g.Finalize()
}

func TestDiscardOpcodeSticksAndHalts(t *testing.T) {
	img := buildDiscardOpcode(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	s, err := vm.NewStepper(prog, img.FunctionByName("main"), nil)
	require.NoError(t, err)

	r := s.Step()
	require.Equal(t, vm.Aborted, r.Status)
	require.Nil(t, r.Err)
	require.True(t, prog.Discarded)
	require.True(t, prog.Halted())

	// Further steps remain no-ops.
	r = s.Step()
	require.Equal(t, vm.Aborted, r.Status)
}

// buildDiscardViaLibrary builds a function that calls the $$discard host
// function, the alternate path a front-end may choose instead of the
// native opcode.
func buildDiscardViaLibrary(t *testing.T) *bytecode.Image {
	t.Helper()
	g := bytecode.NewGenerator()
	discardIdx := g.SealHost("$$discard", nil, "void")
	fb := g.DefineFunction("main", nil, "void", nil, nil, false)
	fb.EmitLine(1)
	fb.Emit(bytecode.CALL, discardIdx)
	fb.Emit(bytecode.NIL, 0)
	fb.Emit(bytecode.RETURN, 0)
	_, err := fb.Seal()
	require.NoError(t, err)
	return g.Finalize()
}

type fakeDiscarder struct{ discarded bool }

func (f *fakeDiscarder) Discard() { f.discarded = true }

func TestDiscardViaHostLibraryNotifiesUserData(t *testing.T) {
	img := buildDiscardViaLibrary(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	require.NoError(t, prog.AddLibrary(library.Common()))
	require.NoError(t, prog.CheckLinked())

	fd := &fakeDiscarder{}
	prog.UserData = fd

	s, err := vm.NewStepper(prog, img.FunctionByName("main"), nil)
	require.NoError(t, err)
	r := s.Step()
	require.Equal(t, vm.Aborted, r.Status)
	require.True(t, prog.Discarded)
	require.True(t, fd.discarded)
}

func TestCheckLinkedUnresolvedHost(t *testing.T) {
	img := buildDiscardViaLibrary(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	require.Error(t, prog.CheckLinked())
}

func TestAddFunctionRejectsUnknownName(t *testing.T) {
	img := buildAddReturn(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	err = prog.AddFunction("nope", library.Discard)
	require.Error(t, err)
}

func TestAddFunctionRejectsDoubleLink(t *testing.T) {
	img := buildDiscardViaLibrary(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	require.NoError(t, prog.AddFunction("$$discard", library.Discard))
	require.Error(t, prog.AddFunction("$$discard", library.Discard))
}

func TestNewProgramRejectsDuplicateFunctionNames(t *testing.T) {
	g := bytecode.NewGenerator()
	fb1 := g.DefineFunction("dup", nil, "void", nil, nil, false)
	fb1.Emit(bytecode.NIL, 0)
	fb1.Emit(bytecode.RETURN, 0)
	_, err := fb1.Seal()
	require.NoError(t, err)
	fb2 := g.DefineFunction("dup", nil, "void", nil, nil, false)
	fb2.Emit(bytecode.NIL, 0)
	fb2.Emit(bytecode.RETURN, 0)
	_, err = fb2.Seal()
	require.NoError(t, err)

	img := g.Finalize()
	_, err = vm.NewProgram(img)
	require.Error(t, err)
}

// buildRuntimeError builds a function that divides by a literal zero,
// which value.Binary rejects.
func buildRuntimeError(t *testing.T) *bytecode.Image {
	t.Helper()
	g := bytecode.NewGenerator()
	c1 := g.DefineConstant(bytecode.Constant{Kind: bytecode.ConstInt, I64: 1})
	c0 := g.DefineConstant(bytecode.Constant{Kind: bytecode.ConstInt, I64: 0})
	fb := g.DefineFunction("main", nil, "int", nil, nil, false)
	fb.EmitLine(1)
	fb.Emit(bytecode.CONST, c1)
	fb.Emit(bytecode.CONST, c0)
	fb.Emit(bytecode.DIV, 0)
	fb.Emit(bytecode.RETURN, 0)
	_, err := fb.Seal()
	require.NoError(t, err)
	return g.Finalize()
}

func TestRuntimeErrorAbortsWithErr(t *testing.T) {
	img := buildRuntimeError(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	s, err := vm.NewStepper(prog, img.FunctionByName("main"), nil)
	require.NoError(t, err)

	r := s.Step()
	require.Equal(t, vm.Aborted, r.Status)
	require.Error(t, r.Err)
	require.True(t, prog.Aborted)
}

func TestProgramAddGlobalDoesNotMutateImage(t *testing.T) {
	img := buildAddReturn(t)
	prog, err := vm.NewProgram(img)
	require.NoError(t, err)

	originalGlobalCount := len(img.Globals)
	idx := prog.AddGlobal("extra")
	require.Equal(t, originalGlobalCount, idx)
	require.Equal(t, value.Null{}, prog.Globals[idx])
	require.Equal(t, originalGlobalCount, len(img.Globals), "AddGlobal must not mutate the shared Image")

	// Idempotent on repeat.
	require.Equal(t, idx, prog.AddGlobal("extra"))
}

func TestGlobalWithLiteralInit(t *testing.T) {
	g := bytecode.NewGenerator()
	gi := g.DefineGlobalWithInit("k", "float", constF(4))
	fb := g.DefineFunction("main", nil, "float", nil, nil, false)
	fb.Emit(bytecode.GLOBAL, gi)
	fb.Emit(bytecode.RETURN, 0)
	_, err := fb.Seal()
	require.NoError(t, err)
	img := g.Finalize()

	prog, err := vm.NewProgram(img)
	require.NoError(t, err)
	require.Equal(t, value.F32(4), prog.Globals[gi])
}
