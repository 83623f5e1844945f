package vm

import (
	"fmt"

	"shaderdbg/bytecode"
	"shaderdbg/value"
)

// StepStatus is the outcome of a single Stepper.Step call, modeled as a
// small closed set of variants rather than as a goroutine/channel-based
// coroutine (see spec.md §9: stepping is driven by the caller, one
// dispatch at a time).
type StepStatus int

const (
	// Running means one observable instruction was dispatched and the
	// program has more to execute.
	Running StepStatus = iota
	// Terminated means the outermost frame returned; Stepper.Result holds
	// the return value.
	Terminated
	// Aborted means the step was a no-op because the Program was already
	// aborted or discarded, or that this dispatch set the discard flag
	// (Err is nil), or that it produced a RuntimeError (Err is set in that
	// case).
	Aborted
)

// StepResult is returned by Stepper.Step.
type StepResult struct {
	Status StepStatus
	Err    error
}

// Stepper is the execution cursor over a Program (S in the spec): one
// activation-frame stack, driving instruction dispatch one observable step
// at a time. A Stepper is single-use: once aborted or terminated, only a
// fresh Program/Stepper pair can run again.
type Stepper struct {
	prog      *Program
	callStack []*Frame
	Result    value.Value
	lineHit   bool
}

// NewStepper creates a Stepper positioned before the first instruction of
// the function at index entryFuncIndex, with args bound as its positional
// parameters (missing ones are bound to null). It returns an error if the
// index is out of range or names a host function (the entry point must be
// a bytecode function).
func NewStepper(p *Program, entryFuncIndex int, args []value.Value) (*Stepper, error) {
	if entryFuncIndex < 0 || entryFuncIndex >= len(p.Image.Functions) {
		return nil, fmt.Errorf("invalid entry function index %d", entryFuncIndex)
	}
	entry := p.Image.Functions[entryFuncIndex]
	if entry.IsHost {
		return nil, fmt.Errorf("entry function %q is a host function", entry.Name)
	}
	fr := newFrame(p, entryFuncIndex)
	bindArgs(fr, entry.Params, args)
	return &Stepper{prog: p, callStack: []*Frame{fr}}, nil
}

func bindArgs(fr *Frame, params []bytecode.Param, args []value.Value) {
	for i := range params {
		if i < len(args) {
			fr.Locals[i] = args[i]
		} else {
			fr.Locals[i] = value.Null{}
		}
	}
}

// Depth returns the current call-stack depth (1 for the outermost frame).
func (s *Stepper) Depth() int { return len(s.callStack) }

// Frames returns a read-only view of the active call stack, outermost
// first.
func (s *Stepper) Frames() []*Frame { return s.callStack }

// CurrentFrame returns the innermost (currently executing) Frame, or nil
// if the Stepper has terminated.
func (s *Stepper) CurrentFrame() *Frame {
	if len(s.callStack) == 0 {
		return nil
	}
	return s.callStack[len(s.callStack)-1]
}

// Terminated reports whether the outermost frame has already returned.
func (s *Stepper) Terminated() bool { return len(s.callStack) == 0 }

// Abort irreversibly stops the Stepper: the next Step (and every
// subsequent one) is a no-op.
func (s *Stepper) Abort() {
	s.prog.SetAborted()
}

// Step dispatches instructions until exactly one observable step has
// completed, or the program terminates/aborts. LINE and NOP markers are
// skipped without counting as a step (spec.md §4.4: "debug-nop ... is not
// an observable step on its own").
func (s *Stepper) Step() StepResult {
	if s.prog.Halted() {
		return StepResult{Status: Aborted}
	}
	if s.Terminated() {
		return StepResult{Status: Terminated}
	}

	s.lineHit = false
	for {
		fr := s.CurrentFrame()
		code := s.prog.Image.Code
		op, arg := fetch(code, &fr.PC)

		if op == bytecode.LINE {
			s.prog.CurrentLine = int(arg)
			s.lineHit = true
			continue
		}
		if op == bytecode.NOP {
			continue
		}

		if err := s.dispatch(fr, op, arg); err != nil {
			s.prog.SetAborted()
			return StepResult{Status: Aborted, Err: &RuntimeError{Line: s.prog.CurrentLine, Message: err.Error()}}
		}

		if s.prog.Discarded {
			return StepResult{Status: Aborted}
		}
		if s.Terminated() {
			return StepResult{Status: Terminated}
		}
		return StepResult{Status: Running}
	}
}

// LineMarkerHit reports whether the most recent Step crossed a LINE marker
// before dispatching its one observable instruction — i.e. whether that
// step represents a fresh dynamic arrival at a source line, as opposed to a
// later instruction within the same statement. Breakpoint evaluation keys
// off this rather than off the raw line number, since a loop body's LINE
// marker re-fires identically on every iteration.
func (s *Stepper) LineMarkerHit() bool { return s.lineHit }

// RunUntil issues observable steps until stop returns true, or the program
// terminates/aborts. stop is consulted after every Step.
func (s *Stepper) RunUntil(stop func(s *Stepper) bool) StepResult {
	for {
		r := s.Step()
		if r.Status != Running {
			return r
		}
		if stop(s) {
			return r
		}
	}
}

// StepOver issues observable steps until the call depth is back to at most
// the starting depth and the source line has changed (or the program
// terminates/aborts), per spec.md §4.4.
//
// A call entered along the way pushes the depth above startDepth; the
// RETURN that later brings it back down doesn't itself carry a LINE marker,
// so CurrentLine still reads whatever line was last hit inside the callee.
// Comparing that stale value against startLine would report "done" one
// instruction too early, back in the caller but not yet on a new line of
// it. Once a deepen-then-return round trip is observed, startLine is
// re-latched to that stale value so stepping continues until the resumed
// frame actually reaches a line of its own.
func (s *Stepper) StepOver() StepResult {
	startDepth := s.Depth()
	startLine := s.prog.CurrentLine
	deepened := false
	var last StepResult
	for {
		last = s.Step()
		if last.Status != Running {
			return last
		}
		if s.Depth() > startDepth {
			deepened = true
			continue
		}
		if deepened {
			deepened = false
			startLine = s.prog.CurrentLine
			continue
		}
		if s.prog.CurrentLine != startLine {
			return last
		}
	}
}

// Jump repositions the current frame's program counter to the first
// instruction at or after the given source line within the currently
// executing function, without dispatching anything. It is an error to
// call Jump on a terminated Stepper or with a line outside the current
// function's declared range.
func (s *Stepper) Jump(line int) error {
	fr := s.CurrentFrame()
	if fr == nil {
		return fmt.Errorf("jump: program has terminated")
	}
	entry := s.prog.Image.Functions[fr.FuncIndex]
	if line < entry.FirstLine || line > entry.LastLine {
		return fmt.Errorf("jump: line %d is outside function %q (lines %d-%d)", line, entry.Name, entry.FirstLine, entry.LastLine)
	}
	code := s.prog.Image.Code
	pc := entry.Offset
	end := entry.Offset + entry.Length
	for pc < end {
		op, arg := fetch(code, &pc)
		if op == bytecode.LINE && int(arg) >= line {
			fr.PC = pc
			s.prog.CurrentLine = int(arg)
			return nil
		}
	}
	return fmt.Errorf("jump: no instruction found at or after line %d", line)
}

// StepOut issues observable steps until the call depth drops below the
// starting depth, or the program terminates/aborts.
func (s *Stepper) StepOut() StepResult {
	startDepth := s.Depth()
	var last StepResult
	for {
		last = s.Step()
		if last.Status != Running {
			return last
		}
		if s.Depth() < startDepth {
			return last
		}
	}
}
