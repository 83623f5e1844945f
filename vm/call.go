package vm

import (
	"fmt"

	"shaderdbg/value"
)

// call implements the CALL opcode: funcIndex identifies the callee via the
// Program's function table. Per spec.md §4.4, a host/library call is
// marshalled and invoked synchronously without pushing a Frame; a
// bytecode call pushes a new Frame and returns, leaving its first
// instruction for the next Step.
func (s *Stepper) call(caller *Frame, funcIndex int) error {
	img := s.prog.Image
	if funcIndex < 0 || funcIndex >= len(img.Functions) {
		return fmt.Errorf("call to invalid function index %d", funcIndex)
	}
	entry := img.Functions[funcIndex]
	nargs := len(entry.Params)

	if len(caller.operands) < nargs {
		return fmt.Errorf("operand stack underflow preparing call to %q", entry.Name)
	}
	args := append([]value.Value(nil), caller.operands[len(caller.operands)-nargs:]...)
	caller.operands = caller.operands[:len(caller.operands)-nargs]

	if entry.IsHost {
		fn := s.prog.hostFuncs[funcIndex]
		if fn == nil {
			return fmt.Errorf("unresolved host function %q", entry.Name)
		}
		result, err := fn(s.prog, args)
		if err != nil {
			return fmt.Errorf("host function %q: %w", entry.Name, err)
		}
		if result == nil {
			result = value.Null{}
		}
		caller.push(result)
		return nil
	}

	callee := newFrame(s.prog, funcIndex)
	bindArgs(callee, entry.Params, args)
	s.callStack = append(s.callStack, callee)
	return nil
}
