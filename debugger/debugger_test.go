package debugger_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"shaderdbg/compiler"
	"shaderdbg/debugger"
	"shaderdbg/frontend/glsl"
	"shaderdbg/value"
	"shaderdbg/vm"
)

// newDebugger returns a Debugger wired with the glsl front-end, the only
// concrete front-end this repository ships (spec.md §6).
func newDebugger() *debugger.Debugger {
	return debugger.New(glsl.Tokenize)
}

// Scenario 1 (spec.md §8): `gl_FragColor = vec4(1.0,0.5,0.0,1.0);` leaves
// the global readable as a vec4 object with the expected components.
func TestIdentityFragmentSetsGlFragColor(t *testing.T) {
	const src = `
void main() {
	gl_FragColor = vec4(1.0, 0.5, 0.0, 1.0);
}
`
	d := newDebugger()
	require.NoError(t, d.SetSource(compiler.StageFragment, glsl.New(), src, "main", nil, nil))
	_, err := d.Execute()
	require.NoError(t, err)

	v, ok := d.GetGlobalValue("gl_FragColor")
	require.True(t, ok)
	obj, ok := v.(*value.Object)
	require.True(t, ok)
	require.Equal(t, "vec4", obj.Class)

	want := map[string]float32{"x": 1.0, "y": 0.5, "z": 0.0, "w": 1.0}
	for field, exp := range want {
		fv, ok := obj.Get(field)
		require.True(t, ok)
		f, ok := fv.(value.F32)
		require.True(t, ok)
		require.InDelta(t, exp, float32(f), 1e-6)
	}
}

// Scenario 2 (spec.md §8): stepping over the call line runs the callee to
// completion without pausing inside it, landing back in the caller's next
// line at the caller's own frame depth.
func TestStepOverOfACallLandsOnNextLineAtSameDepth(t *testing.T) {
	const src = `
float helper() {
	return 10.0;
}

float main() {
	float r = helper();
	r = r + 1.0;
	return r;
}
`
	d := newDebugger()
	require.NoError(t, d.SetSource(compiler.StageFragment, glsl.New(), src, "main", nil, nil))

	r, err := d.StepOver()
	require.NoError(t, err)
	require.Equal(t, vm.Running, r.Status)
	require.Equal(t, 1, len(d.GetFunctionStack()))
	require.Equal(t, 8, d.GetCurrentLine())
}

// Scenario 3 (spec.md §8): a conditional breakpoint inside a loop halts
// exactly once with the local reading the triggering value, and a second
// continue runs the program to completion.
func TestConditionalBreakpointHaltsOnceAtExpectedIteration(t *testing.T) {
	const src = `
float main() {
	float total = 0.0;
	for (int i = 0; i < 5; i = i + 1) {
		total = total + 1.0;
	}
	return total;
}
`
	d := newDebugger()
	require.NoError(t, d.SetSource(compiler.StageFragment, glsl.New(), src, "main", nil, nil))
	d.AddConditionalBreakpoint(5, "i == 3")

	r, err := d.Continue()
	require.NoError(t, err)
	require.Equal(t, vm.Running, r.Status)
	require.Equal(t, 5, d.GetCurrentLine())

	iv, ok := d.GetLocalValue("i")
	require.True(t, ok)
	i, ok := iv.(value.I32)
	require.True(t, ok)
	require.Equal(t, value.I32(3), i)

	r, err = d.Continue()
	require.NoError(t, err)
	require.Equal(t, vm.Terminated, r.Status)
}

// Scenario 4 (spec.md §8): a uniform-conditioned `discard;` sets
// is_discarded and freezes current_line on the discard statement.
func TestDiscardStopsExecutionAndRecordsLine(t *testing.T) {
	const src = `
uniform bool shouldDiscard;

void main() {
	if (shouldDiscard) {
		discard;
	}
	gl_FragColor = vec4(1.0, 1.0, 1.0, 1.0);
}
`
	d := newDebugger()
	require.NoError(t, d.SetSource(compiler.StageFragment, glsl.New(), src, "main", nil, nil))
	require.NoError(t, d.SetGlobalValue("shouldDiscard", value.Bool(true)))

	_, err := d.Execute()
	require.ErrorIs(t, err, debugger.ErrDiscarded)
	require.True(t, d.IsDiscarded())
	require.Equal(t, 6, d.GetCurrentLine())
}

// Scenario 5 (spec.md §8): evaluating an immediate expression against a
// paused frame's locals returns the right value and changes nothing about
// subsequent execution.
func TestImmediateExpressionDoesNotDisturbPausedState(t *testing.T) {
	const src = `
float main() {
	float x = 2.0;
	float y = x + 1.0;
	return y;
}
`
	d := newDebugger()
	require.NoError(t, d.SetSource(compiler.StageFragment, glsl.New(), src, "main", nil, nil))

	// Step onto line 3 (the x declaration), then past it so x is bound.
	r, err := d.Step()
	require.NoError(t, err)
	require.Equal(t, vm.Running, r.Status)
	r, err = d.Step()
	require.NoError(t, err)
	require.Equal(t, vm.Running, r.Status)

	xv, ok := d.GetLocalValue("x")
	require.True(t, ok)
	require.Equal(t, value.F32(2), xv)

	result, err := d.Immediate("x*x + 1")
	require.NoError(t, err)
	require.Equal(t, value.F32(5), result)

	// Paused state is unaffected: x still reads 2, and resuming to
	// completion still yields the same final result as if Immediate had
	// never run.
	xv, ok = d.GetLocalValue("x")
	require.True(t, ok)
	require.Equal(t, value.F32(2), xv)

	final, err := d.ExecuteFunction("main", nil)
	require.NoError(t, err)
	require.Equal(t, value.F32(3), final)
}

func TestSetSourceFailsOnParseError(t *testing.T) {
	d := newDebugger()
	err := d.SetSource(compiler.StageFragment, glsl.New(), "void main( {", "main", nil, nil)
	require.Error(t, err)
	require.Equal(t, err, d.LastError())
}

func TestSetSourceFailsOnMissingEntry(t *testing.T) {
	d := newDebugger()
	err := d.SetSource(compiler.StageFragment, glsl.New(), "void main(){}", "notmain", nil, nil)
	require.Error(t, err)
}

func TestSemanticValuesAppliedBeforeExecute(t *testing.T) {
	const src = `
uniform vec4 POSITION;

vec4 main() {
	return POSITION;
}
`
	d := newDebugger()
	require.NoError(t, d.SetSource(compiler.StageFragment, glsl.New(), src, "main", nil, nil))
	d.SetSemanticValue("POSITION", value.NewObject("vec4"))

	pos := value.NewObject("vec4")
	pos.Set("x", value.F32(1))
	pos.Set("y", value.F32(2))
	pos.Set("z", value.F32(3))
	pos.Set("w", value.F32(4))
	d.SetSemanticValue("POSITION", pos)

	result, err := d.Execute()
	require.NoError(t, err)
	obj, ok := result.(*value.Object)
	require.True(t, ok)
	xv, _ := obj.Get("x")
	require.Equal(t, value.F32(1), xv)
}

func TestBreakpointManagement(t *testing.T) {
	d := newDebugger()
	require.False(t, d.HasBreakpoint(3))
	d.AddBreakpoint(3)
	require.True(t, d.HasBreakpoint(3))
	d.AddBreakpoint(3) // idempotent
	d.ClearBreakpoint(3)
	require.False(t, d.HasBreakpoint(3))

	d.AddBreakpoint(1)
	d.AddBreakpoint(2)
	d.ClearBreakpoints()
	require.False(t, d.HasBreakpoint(1))
	require.False(t, d.HasBreakpoint(2))
}
