package vm

import "shaderdbg/value"

// CurrentFunctionName returns the name of the innermost executing
// function, or "" if the Stepper has terminated.
func (s *Stepper) CurrentFunctionName() string {
	fr := s.CurrentFrame()
	if fr == nil {
		return ""
	}
	return s.prog.Image.Functions[fr.FuncIndex].Name
}

// FunctionStack returns the names of every active frame, outermost first.
func (s *Stepper) FunctionStack() []string {
	names := make([]string, len(s.callStack))
	for i, fr := range s.callStack {
		names[i] = s.prog.Image.Functions[fr.FuncIndex].Name
	}
	return names
}

// CurrentFunctionLocals returns the declared local names of the innermost
// executing function (parameters first, then block-scoped locals), or nil
// if the Stepper has terminated.
func (s *Stepper) CurrentFunctionLocals() []string {
	fr := s.CurrentFrame()
	if fr == nil {
		return nil
	}
	return s.prog.Image.Functions[fr.FuncIndex].LocalNames
}

// LocalValue looks up varname among the innermost frame's declared locals
// and returns its current value.
func (s *Stepper) LocalValue(varname string) (value.Value, bool) {
	fr := s.CurrentFrame()
	if fr == nil {
		return nil, false
	}
	names := s.prog.Image.Functions[fr.FuncIndex].LocalNames
	for i, n := range names {
		if n == varname {
			return fr.Locals[i], true
		}
	}
	return nil, false
}
