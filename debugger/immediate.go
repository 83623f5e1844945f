package debugger

import (
	"shaderdbg/compiler"
	"shaderdbg/value"
	"shaderdbg/vm"
)

// currentLocals gathers the name/type/value triples of the paused
// Stepper's current frame, if any, for splicing into an immediate
// compile's Environment snapshot.
func (d *Debugger) currentLocals() ([]compiler.Variable, []value.Value) {
	var localVars []compiler.Variable
	var localVals []value.Value
	if d.stepper != nil {
		if fr := d.stepper.CurrentFrame(); fr != nil {
			entry := d.prog.Image.Functions[fr.FuncIndex]
			for i, name := range entry.LocalNames {
				typ := ""
				if i < len(entry.LocalTypes) {
					typ = entry.LocalTypes[i]
				}
				localVars = append(localVars, compiler.Variable{Name: name, Type: typ, Storage: compiler.StorageLocal})
				if i < len(fr.Locals) {
					localVals = append(localVals, fr.Locals[i])
				} else {
					localVals = append(localVals, value.Null{})
				}
			}
		}
	}
	return localVars, localVals
}

// Immediate compiles and evaluates fragment as a one-off expression
// against the paused program's current state (locals of the currently
// paused frame, if any, plus globals, plus property/constructor
// extensions), per spec.md §4.6. It runs on a throwaway Program
// instantiated from a one-function image, seeded with a copy of the live
// Program's global values and the paused Stepper's current frame locals,
// so the expression can read current state but — since compiled
// assignment is not part of this front-end's immediate-mode grammar (see
// frontend/glsl.ParseImmediate) — can never mutate it.
//
// Unlike a conditional breakpoint's cached condition (see
// checkBreakpoint), Immediate always recompiles: fragment is arbitrary
// caller-supplied text that differs on every call, so there is nothing to
// cache it against.
func (d *Debugger) Immediate(fragment string) (value.Value, error) {
	if d.prog == nil {
		return nil, ErrNoSource
	}

	localVars, localVals := d.currentLocals()
	ip, err := d.compiler.ImmediateWithLocals(d.stage, fragment, localVars)
	if err != nil {
		return nil, &ImmediateError{Fragment: fragment, Err: err}
	}

	v, err := d.runImmediate(ip, localVars, localVals)
	if err != nil {
		return nil, &ImmediateError{Fragment: fragment, Err: err}
	}
	return v, nil
}

// runImmediate instantiates a scratch Program from ip's compiled image,
// seeds its globals by name from localVars/localVals and the live
// Program's current globals, and runs it to completion. Splicing by name
// rather than by slot position is required because the Generator dedups
// DefineGlobal by name: a local that shadows a same-named global
// collapses onto one slot in ip.Image.Globals rather than getting a slot
// of its own, and name lookup resolves that correctly either way, with
// the local taking priority.
func (d *Debugger) runImmediate(ip *compiler.ImmediateProgram, localVars []compiler.Variable, localVals []value.Value) (value.Value, error) {
	scratch, err := vm.NewProgram(ip.Image)
	if err != nil {
		return nil, err
	}
	scratch.UserData = d.prog.UserData
	scratch.PropertyGetter = d.prog.PropertyGetter
	scratch.DefaultConstructor = d.prog.DefaultConstructor

	localByName := make(map[string]value.Value, len(localVars))
	for i, lv := range localVars {
		localByName[lv.Name] = localVals[i]
	}
	for i, g := range ip.Image.Globals {
		if v, ok := localByName[g.Name]; ok {
			scratch.Globals[i] = v
			continue
		}
		if gi := d.prog.GlobalIndex(g.Name); gi >= 0 {
			scratch.Globals[i] = d.prog.Globals[gi]
		}
	}

	s, err := vm.NewStepper(scratch, ip.EntryIndex, nil)
	if err != nil {
		return nil, err
	}
	for {
		r := s.Step()
		switch r.Status {
		case vm.Terminated:
			return s.Result, nil
		case vm.Aborted:
			if r.Err != nil {
				return nil, r.Err
			}
			return nil, ErrDiscarded
		}
	}
}
