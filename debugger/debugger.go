// Package debugger implements the Debugger Controller (D in the spec):
// source install, stepping, breakpoints, globals/semantics injection, the
// discard protocol, and immediate-mode evaluation against paused state.
// Grounded directly on original_source/inc/ShaderDebugger/ShaderDebugger.h.
package debugger

import (
	"fmt"

	"shaderdbg/compiler"
	"shaderdbg/value"
	"shaderdbg/vm"
	"shaderdbg/vm/library"
)

// PropertyResolver builds a texture/intrinsic-backed property value for an
// object class/name pair the bytecode's own structure table cannot
// resolve (e.g. sampling a bound Texture through a `texture2D(...)`-style
// accessor). It composes with vm.PropertyGetterExt: a Debugger installs
// its own PropertyGetter that consults this, then falls through.
type PropertyResolver func(d *Debugger, obj *value.Object, name string) (value.Value, bool)

// ConstructorResolver builds the zero-value Object for a class name not
// present in the compiled structure table (intrinsics like vec3/vec4/
// mat4/texture handles).
type ConstructorResolver func(d *Debugger, class string) (*value.Object, bool)

// Debugger is the top-level controller a host embeds: it owns the
// Compiler, the instantiated Program, and the Stepper currently paused
// over it, plus the breakpoint table and semantic-variable bindings.
type Debugger struct {
	compiler *compiler.Compiler
	frontEnd compiler.Frontend
	stage    compiler.Stage
	entry    string

	prog    *vm.Program
	stepper *vm.Stepper

	breakpoints []Breakpoint
	semantics   map[string]value.Value
	lastError   error
	discarded   bool

	PropertyResolver    PropertyResolver
	ConstructorResolver ConstructorResolver
}

// New creates an empty Debugger. tokenize is passed to the Compiler's
// MacroTable (see compiler.NewCompiler); pass nil if macro bodies never
// need real tokenization.
func New(tokenize compiler.Tokenizer) *Debugger {
	return &Debugger{
		compiler:  compiler.NewCompiler(tokenize),
		semantics: make(map[string]value.Value),
	}
}

// SetSource installs frontEnd as stage's compiler, parses source through
// it, instantiates a fresh Program, and positions a new Stepper at entry
// with args bound as its parameters. It is the Go-idiomatic replacement
// for the original's `SetSource<CodeCompiler>` template method: frontEnd
// stands in for the template parameter. lib, if non-nil, is linked after
// the built-in $$discard library (if the image declares one).
func (d *Debugger) SetSource(stage compiler.Stage, frontEnd compiler.Frontend, source, entry string, args []value.Value, lib *vm.Library) error {
	d.lastError = nil
	d.discarded = false
	d.stage = stage
	d.frontEnd = frontEnd
	d.entry = entry

	img, err := d.compiler.SetSource(stage, frontEnd, source)
	if err != nil {
		d.lastError = err
		return err
	}

	prog, err := vm.NewProgram(img)
	if err != nil {
		d.lastError = err
		return err
	}
	prog.UserData = d
	prog.PropertyGetter = d.propertyGetter
	prog.DefaultConstructor = d.defaultConstructor

	if prog.FunctionIndex("$$discard") >= 0 {
		if err := prog.AddLibrary(library.Common()); err != nil {
			d.lastError = err
			return err
		}
	}
	if lib != nil {
		if err := prog.AddLibrary(lib); err != nil {
			d.lastError = err
			return err
		}
	}
	if err := prog.CheckLinked(); err != nil {
		d.lastError = err
		return err
	}

	entryIdx := prog.FunctionIndex(entry)
	if entryIdx < 0 {
		err := fmt.Errorf("debugger: entry function %q not found", entry)
		d.lastError = err
		return err
	}
	stepper, err := vm.NewStepper(prog, entryIdx, args)
	if err != nil {
		d.lastError = err
		return err
	}

	d.prog = prog
	d.stepper = stepper
	return nil
}

// GetCompiler returns the underlying Compiler, e.g. to install additional
// macros before the next SetSource call.
func (d *Debugger) GetCompiler() *compiler.Compiler { return d.compiler }

// GetProgram returns the currently instantiated Program, or nil.
func (d *Debugger) GetProgram() *vm.Program { return d.prog }

// LastError returns the error from the most recent failing operation.
func (d *Debugger) LastError() error { return d.lastError }

// Execute applies every bound semantic value onto its matching global
// (spec.md §4.7: "applied to globals before each execute"), then runs the
// installed entry function to completion (ignoring breakpoints) and
// returns its result. The entry function runs with no arguments: args
// given to SetSource or SetArguments are not passed to it.
func (d *Debugger) Execute() (value.Value, error) {
	d.applySemantics()
	return d.ExecuteFunction(d.entry, nil)
}

// applySemantics writes every name->value binding in d.semantics into the
// like-named global slot, silently skipping names with no matching
// global: semantics are a side channel a front-end's built-ins may or may
// not expose as an ordinary global (spec.md §3: Semantic entity).
func (d *Debugger) applySemantics() {
	if d.prog == nil {
		return
	}
	for name, v := range d.semantics {
		if i := d.prog.GlobalIndex(name); i >= 0 {
			d.prog.Globals[i] = v
		}
	}
}

// ExecuteFunction runs funcName to completion on a fresh Stepper over the
// same Program (so it does not disturb the paused debugging Stepper's
// position), returning the call's result.
func (d *Debugger) ExecuteFunction(funcName string, args []value.Value) (value.Value, error) {
	if d.prog == nil {
		return nil, ErrNoSource
	}
	idx := d.prog.FunctionIndex(funcName)
	if idx < 0 {
		return nil, fmt.Errorf("debugger: function %q not found", funcName)
	}
	s, err := vm.NewStepper(d.prog, idx, args)
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

// GetReturnValue returns the paused Stepper's result once it has
// terminated, or value.Null{} beforehand.
func (d *Debugger) GetReturnValue() value.Value {
	if d.stepper == nil || d.stepper.Result == nil {
		return value.Null{}
	}
	return d.stepper.Result
}

// SetArguments rebinds the entry function's arguments by creating a fresh
// Stepper over the same Program, discarding any in-flight stepping
// position. The new arguments apply to the stepping commands (Step,
// StepOver, StepOut, Continue); Execute does not use them.
func (d *Debugger) SetArguments(args []value.Value) error {
	if d.prog == nil {
		return ErrNoSource
	}
	idx := d.prog.FunctionIndex(d.entry)
	if idx < 0 {
		return fmt.Errorf("debugger: entry function %q not found", d.entry)
	}
	s, err := vm.NewStepper(d.prog, idx, args)
	if err != nil {
		return err
	}
	d.stepper = s
	return nil
}
