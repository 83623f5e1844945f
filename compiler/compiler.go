package compiler

import (
	"fmt"

	"shaderdbg/bytecode"
)

// Frontend is the contract a concrete shading-language front-end
// implements. It replaces the original C++ design's template parameter
// (`Compiler::SetSource<CodeCompiler>`) with ordinary Go interface
// satisfaction, per spec.md §9's guidance to model front-end polymorphism
// via composition rather than inheritance.
type Frontend interface {
	// Language identifies which dialect this Frontend parses.
	Language() Language

	// Parse compiles source (one full translation unit) for the given
	// pipeline stage into a bytecode image, using shared as the symbol
	// environment (macros, pre-declared globals/structures from a prior
	// stage, if any). On success it returns the populated Image; on
	// failure, a *ParseError.
	Parse(stage Stage, source string, shared *Environment) (*bytecode.Image, error)

	// ParseImmediate compiles a single expression fragment against a
	// frozen Environment snapshot (the state of a paused program), per
	// spec.md §4.6's immediate-mode contract. It must not consult or
	// mutate anything outside snapshot.
	ParseImmediate(fragment string, snapshot *Environment) (*ImmediateProgram, error)
}

// Environment is the symbol-table surface a Frontend compiles against:
// macros, globals, structures, and functions visible to the translation
// unit being compiled. The same *Environment is threaded across stages of
// one shader program (vertex/fragment sharing declarations) and is what
// gets frozen into a snapshot for immediate-mode compilation.
type Environment struct {
	Macros     *MacroTable
	Globals    []Variable
	Structures []Structure
	Functions  []Function
}

// NewEnvironment creates an empty Environment with its own MacroTable.
func NewEnvironment(tokenize Tokenizer) *Environment {
	return &Environment{Macros: NewMacroTable(tokenize)}
}

// Snapshot returns a deep-enough copy of e suitable for immediate-mode
// compilation: the slices are copied so that, per spec.md's invariant
// "immediate-mode evaluation never mutates unrelated globals", a Frontend
// cannot accidentally grow the live symbol table while compiling a
// one-off expression.
func (e *Environment) Snapshot() *Environment {
	return &Environment{
		Macros:     e.Macros,
		Globals:    append([]Variable(nil), e.Globals...),
		Structures: append([]Structure(nil), e.Structures...),
		Functions:  append([]Function(nil), e.Functions...),
	}
}

// FindGlobal returns the Variable named name, if declared.
func (e *Environment) FindGlobal(name string) (Variable, bool) {
	for _, v := range e.Globals {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// FindFunction returns the Function named name, if declared.
func (e *Environment) FindFunction(name string) (Function, bool) {
	for _, f := range e.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}

// FindStructure returns the Structure named name, if declared.
func (e *Environment) FindStructure(name string) (Structure, bool) {
	for _, s := range e.Structures {
		if s.Name == name {
			return s, true
		}
	}
	return Structure{}, false
}

// ImmediateProgram is the result of compiling a one-off expression against
// a paused program's Environment snapshot: a tiny bytecode image holding
// exactly one synthetic entry function whose body evaluates the expression
// and returns its value.
type ImmediateProgram struct {
	Image      *bytecode.Image
	EntryIndex int
}

// Compiler is the base state a concrete Frontend builds on: the shared
// Environment for the shader program currently being assembled, and the
// sequence of Stage/Frontend pairs installed via SetSource. It mirrors the
// field layout of the original ShaderDebugger's embedded sd::Compiler
// (original_source/inc/ShaderDebugger/Compiler.h), generalized from a
// single fixed dialect to any Frontend implementation.
type Compiler struct {
	Env       *Environment
	sources   map[Stage]Frontend
	lastError error
}

// NewCompiler creates a Compiler with a fresh, empty Environment.
func NewCompiler(tokenize Tokenizer) *Compiler {
	return &Compiler{
		Env:     NewEnvironment(tokenize),
		sources: make(map[Stage]Frontend),
	}
}

// SetSource installs front end as the Frontend used to compile stage, and
// immediately compiles source through it. This is the Go-idiomatic
// replacement for the original's `SetSource<CodeCompiler>(stage, source)`
// template method: front end stands in for the template parameter.
func (c *Compiler) SetSource(stage Stage, frontEnd Frontend, source string) (*bytecode.Image, error) {
	c.sources[stage] = frontEnd
	img, err := frontEnd.Parse(stage, source, c.Env)
	if err != nil {
		c.lastError = err
		return nil, err
	}
	c.lastError = nil
	return img, nil
}

// Immediate compiles fragment as a one-off expression against the current
// Environment, using the Frontend already installed for stage.
func (c *Compiler) Immediate(stage Stage, fragment string) (*ImmediateProgram, error) {
	return c.ImmediateWithLocals(stage, fragment, nil)
}

// ImmediateWithLocals is Immediate, plus extra name/type bindings — the
// paused frame's locals, per spec.md §4.6 ("an immediate expression sees
// the paused frame's locals alongside the program's globals") — spliced in
// ahead of the ordinary globals so a local shadows any same-named global.
func (c *Compiler) ImmediateWithLocals(stage Stage, fragment string, locals []Variable) (*ImmediateProgram, error) {
	frontEnd, ok := c.sources[stage]
	if !ok {
		return nil, fmt.Errorf("no source installed for stage %s", stage)
	}
	snap := c.Env.Snapshot()
	if len(locals) > 0 {
		snap.Globals = append(append([]Variable(nil), locals...), snap.Globals...)
	}
	prog, err := frontEnd.ParseImmediate(fragment, snap)
	if err != nil {
		c.lastError = err
		return nil, err
	}
	c.lastError = nil
	return prog, nil
}

// LastError returns the error from the most recent SetSource/Immediate
// call, or nil.
func (c *Compiler) LastError() error { return c.lastError }
