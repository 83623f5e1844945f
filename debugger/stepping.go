package debugger

import (
	"shaderdbg/value"
	"shaderdbg/vm"
)

// GetCurrentLine returns the source line the paused Stepper is stopped
// at, mirroring `bv_program::current_line`.
func (d *Debugger) GetCurrentLine() int {
	if d.prog == nil {
		return 0
	}
	return d.prog.CurrentLine
}

// GetCurrentFunction returns the name of the innermost executing
// function, or "" once execution has terminated.
func (d *Debugger) GetCurrentFunction() string {
	if d.stepper == nil {
		return ""
	}
	return d.stepper.CurrentFunctionName()
}

// GetFunctionStack returns the active call stack's function names,
// outermost first.
func (d *Debugger) GetFunctionStack() []string {
	if d.stepper == nil {
		return nil
	}
	return d.stepper.FunctionStack()
}

// GetCurrentFunctionLocals returns the declared local variable names of
// the innermost executing function.
func (d *Debugger) GetCurrentFunctionLocals() []string {
	if d.stepper == nil {
		return nil
	}
	return d.stepper.CurrentFunctionLocals()
}

// GetLocalValue looks up varname among the innermost frame's locals.
func (d *Debugger) GetLocalValue(varname string) (value.Value, bool) {
	if d.stepper == nil {
		return nil, false
	}
	return d.stepper.LocalValue(varname)
}

// Jump repositions the paused Stepper to the first instruction at or
// after the given source line within the currently executing function.
func (d *Debugger) Jump(line int) error {
	if d.stepper == nil {
		return ErrNoSource
	}
	return d.stepper.Jump(line)
}

// Continue runs the paused Stepper until it terminates, aborts, or
// reaches a line with a satisfied breakpoint. Per spec.md's "halts ...
// exactly once per dynamic occurrence", breakpoints are only consulted on
// the step that freshly crosses into a line (vm.Stepper.LineMarkerHit) —
// not on every later instruction of the same statement, which would
// otherwise re-fire a still-true condition on every sub-instruction of the
// triggering line instead of once per loop iteration.
func (d *Debugger) Continue() (vm.StepResult, error) {
	if d.stepper == nil {
		return vm.StepResult{}, ErrNoSource
	}
	if d.IsDiscarded() {
		return vm.StepResult{Status: vm.Aborted}, ErrDiscarded
	}
	r := d.stepper.RunUntil(func(s *vm.Stepper) bool {
		if !s.LineMarkerHit() {
			return false
		}
		return d.checkBreakpoint(d.prog.CurrentLine)
	})
	return r, stepErr(r)
}

// Step issues exactly one observable step.
func (d *Debugger) Step() (vm.StepResult, error) {
	if d.stepper == nil {
		return vm.StepResult{}, ErrNoSource
	}
	if d.IsDiscarded() {
		return vm.StepResult{Status: vm.Aborted}, ErrDiscarded
	}
	r := d.stepper.Step()
	return r, stepErr(r)
}

// StepOver steps until control returns to at most the current depth on a
// different source line.
func (d *Debugger) StepOver() (vm.StepResult, error) {
	if d.stepper == nil {
		return vm.StepResult{}, ErrNoSource
	}
	if d.IsDiscarded() {
		return vm.StepResult{Status: vm.Aborted}, ErrDiscarded
	}
	r := d.stepper.StepOver()
	return r, stepErr(r)
}

// StepOut steps until control returns to the caller of the current frame.
func (d *Debugger) StepOut() (vm.StepResult, error) {
	if d.stepper == nil {
		return vm.StepResult{}, ErrNoSource
	}
	if d.IsDiscarded() {
		return vm.StepResult{Status: vm.Aborted}, ErrDiscarded
	}
	r := d.stepper.StepOut()
	return r, stepErr(r)
}

func stepErr(r vm.StepResult) error {
	if r.Status == vm.Aborted && r.Err != nil {
		return r.Err
	}
	return nil
}

// HasBreakpoint reports whether a breakpoint is installed at line.
func (d *Debugger) HasBreakpoint(line int) bool {
	for _, b := range d.breakpoints {
		if b.Line == line {
			return true
		}
	}
	return false
}

// AddBreakpoint installs an unconditional breakpoint at line.
func (d *Debugger) AddBreakpoint(line int) {
	if d.HasBreakpoint(line) {
		return
	}
	d.breakpoints = append(d.breakpoints, Breakpoint{Line: line})
}

// AddConditionalBreakpoint installs a breakpoint at line that only stops
// execution when condition, evaluated via immediate-mode compilation,
// is truthy.
func (d *Debugger) AddConditionalBreakpoint(line int, condition string) {
	bp := Breakpoint{Line: line, Condition: condition, HasCond: true}
	for i, b := range d.breakpoints {
		if b.Line == line {
			d.breakpoints[i] = bp
			return
		}
	}
	d.breakpoints = append(d.breakpoints, bp)
}

// ClearBreakpoint removes the breakpoint installed at line, if any.
func (d *Debugger) ClearBreakpoint(line int) {
	for i, b := range d.breakpoints {
		if b.Line == line {
			d.breakpoints = append(d.breakpoints[:i], d.breakpoints[i+1:]...)
			return
		}
	}
}

// ClearBreakpoints removes every installed breakpoint.
func (d *Debugger) ClearBreakpoints() { d.breakpoints = nil }

// checkBreakpoint reports whether execution should stop at line: a plain
// breakpoint always stops; a conditional one stops only if its condition,
// compiled once and cached on first hit (see Breakpoint.compiled),
// evaluates truthy against the current paused state.
func (d *Debugger) checkBreakpoint(line int) bool {
	for i := range d.breakpoints {
		b := &d.breakpoints[i]
		if b.Line != line {
			continue
		}
		if !b.HasCond {
			return true
		}
		v, err := d.evalBreakpointCondition(b)
		if err != nil {
			continue
		}
		if value.Truth(v) {
			return true
		}
	}
	return false
}

// evalBreakpointCondition runs b's condition expression, compiling and
// caching it against b.compiled the first time this breakpoint is hit. A
// front-end's function-local declarations are static for the lifetime of
// one SetSource generation, so the compiled image stays valid across
// every later dynamic occurrence of b.Line; only the scratch Program's
// seeded global/local values need refreshing per hit, which runImmediate
// already does.
func (d *Debugger) evalBreakpointCondition(b *Breakpoint) (value.Value, error) {
	localVars, localVals := d.currentLocals()
	if b.compiled == nil {
		ip, err := d.compiler.ImmediateWithLocals(d.stage, b.Condition, localVars)
		if err != nil {
			return nil, &ImmediateError{Fragment: b.Condition, Err: err}
		}
		b.compiled = ip
	}
	v, err := d.runImmediate(b.compiled, localVars, localVals)
	if err != nil {
		return nil, &ImmediateError{Fragment: b.Condition, Err: err}
	}
	return v, nil
}
