// Package vm implements the bytecode virtual machine (P, S, L in the
// spec): an instantiated Program, the abortable single-step Stepper that
// drives it, and the host-function Library linkage.
package vm

import (
	"fmt"

	"github.com/dolthub/swiss"

	"shaderdbg/bytecode"
	"shaderdbg/value"
)

// HostFunc is the uniform calling convention for a library/host callback:
// it receives the Program (so it can reach back-channel state via
// UserData) and the argument stack, popped in reverse order by the caller
// before HostFunc is invoked, and returns the call's result.
type HostFunc func(p *Program, args []value.Value) (value.Value, error)

// PropertyGetterExt is the property-getter extension callback (§6): it is
// consulted when an object has no static slot with the requested name. A
// (nil, false) result means "not handled", falling through to a
// RuntimeError.
type PropertyGetterExt func(p *Program, obj *value.Object, name string) (value.Value, bool)

// DefaultConstructorExt builds the zero-value Object for a class name not
// known to the structure table (e.g. an intrinsic type like vec4). A
// (nil, false) result means "not handled".
type DefaultConstructorExt func(p *Program, class string) (*value.Object, bool)

// Program is an instantiated Image (P): resolved function table, global
// storage, linked libraries, and the extension callbacks and abort/discard
// flags the spec places on it.
type Program struct {
	Image *Image

	functionByName *swiss.Map[string, int]
	structByName   *swiss.Map[string, int]
	globalByName   *swiss.Map[string, int]

	hostFuncs []HostFunc // parallel to Image.Functions, nil unless IsHost

	Globals []value.Value

	PropertyGetter     PropertyGetterExt
	DefaultConstructor DefaultConstructorExt

	CurrentLine int
	Aborted     bool
	Discarded   bool

	// UserData is a non-owning handle back to whatever host object (the
	// Debugger) owns this Program, reachable from extension callbacks and
	// host functions without a process-global or a raw back-pointer cycle.
	UserData any
}

// Image is an alias kept local to this package for readability in
// signatures; it is exactly bytecode.Image.
type Image = bytecode.Image

// NewProgram instantiates img: it resolves the name->index lookup tables,
// reserves (zero-initialized) global storage, and leaves host function
// slots unresolved until AddLibrary/AddFunction populate them. It returns a
// LinkError if two functions in img share a name.
//
// Per the spec.md §3 invariant, a Program's function table must resolve
// every call target reachable from the entry before any step is attempted;
// NewProgram does not itself verify this. Its caller (typically the
// Debugger) calls CheckLinked after linking and before creating a Stepper.
func NewProgram(img *Image) (*Program, error) {
	p := &Program{
		Image:          img,
		functionByName: swiss.NewMap[string, int](uint32(len(img.Functions)) + 1),
		structByName:   swiss.NewMap[string, int](uint32(len(img.Structures)) + 1),
		globalByName:   swiss.NewMap[string, int](uint32(len(img.Globals)) + 1),
		hostFuncs:      make([]HostFunc, len(img.Functions)),
		Globals:        make([]value.Value, len(img.Globals)),
	}
	for i, fn := range img.Functions {
		if _, dup := p.functionByName.Get(fn.Name); dup {
			return nil, &LinkError{Message: fmt.Sprintf("duplicate function name %q", fn.Name)}
		}
		p.functionByName.Put(fn.Name, i)
	}
	for i, s := range img.Structures {
		p.structByName.Put(s.Name, i)
	}
	for i, g := range img.Globals {
		p.globalByName.Put(g.Name, i)
		if g.HasInit {
			p.Globals[i] = constValue(g.Init)
		} else {
			p.Globals[i] = value.Null{}
		}
	}
	return p, nil
}

// FunctionIndex returns the function-table index of name, or -1.
func (p *Program) FunctionIndex(name string) int {
	i, ok := p.functionByName.Get(name)
	if !ok {
		return -1
	}
	return i
}

// StructureIndex returns the structure-table index of name, or -1.
func (p *Program) StructureIndex(name string) int {
	i, ok := p.structByName.Get(name)
	if !ok {
		return -1
	}
	return i
}

// GlobalIndex returns the global-slot index of name, or -1.
func (p *Program) GlobalIndex(name string) int {
	i, ok := p.globalByName.Get(name)
	if !ok {
		return -1
	}
	return i
}

// AddGlobal reserves a new global slot named name (initialized to
// value.Null{}) if one does not already exist, returning its index either
// way. This supports host-injected globals that never appeared in the
// compiled source (e.g. a debugger exposing an extra uniform), without
// mutating the shared Image, which may back more than one Program.
func (p *Program) AddGlobal(name string) int {
	if i := p.GlobalIndex(name); i >= 0 {
		return i
	}
	i := len(p.Globals)
	p.globalByName.Put(name, i)
	p.Globals = append(p.Globals, value.Null{})
	return i
}

// AddFunction registers a single host callback under name, following the
// library calling convention (§4.5). It is a LinkError to register a name
// not present in the image's function table as a host entry, or to
// register the same name twice.
func (p *Program) AddFunction(name string, fn HostFunc) error {
	i := p.FunctionIndex(name)
	if i < 0 {
		return &LinkError{Message: fmt.Sprintf("no such function %q in program", name)}
	}
	if !p.Image.Functions[i].IsHost {
		return &LinkError{Message: fmt.Sprintf("function %q is not a host function", name)}
	}
	if p.hostFuncs[i] != nil {
		return &LinkError{Message: fmt.Sprintf("function %q already linked", name)}
	}
	p.hostFuncs[i] = fn
	return nil
}

// Library is a named bundle of host callbacks, linked into a Program as a
// unit (§4.5).
type Library struct {
	Name      string
	Functions map[string]HostFunc
}

// AddLibrary links every function of lib through AddFunction: each name
// must already be declared as a host entry in the image, and no new
// callable names are added. A name the image does not declare as a host
// entry, or a collision with an already-linked host function, is a
// LinkError, per §4.3 ("conflicts with existing functions are rejected").
// Functions of lib processed before the failing one stay linked.
func (p *Program) AddLibrary(lib *Library) error {
	for name, fn := range lib.Functions {
		if err := p.AddFunction(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// CheckLinked verifies that every host function entry in the image has
// been resolved by AddFunction/AddLibrary. It is the Program-instantiation
// half of the spec.md §3 "no step is ever attempted past an unresolved
// call" invariant; the other half is enforced at CALL dispatch time as a
// defensive RuntimeError.
func (p *Program) CheckLinked() error {
	for i, fn := range p.Image.Functions {
		if fn.IsHost && p.hostFuncs[i] == nil {
			return &LinkError{Message: fmt.Sprintf("unresolved host function %q", fn.Name)}
		}
	}
	return nil
}

// SetAborted sets the abort flag; once set it is irreversible for this
// Program (a fresh Program must be instantiated to run again).
func (p *Program) SetAborted() { p.Aborted = true }

// SetDiscarded sets the sticky discard flag (§3: "Discard is sticky").
func (p *Program) SetDiscarded() { p.Discarded = true }

// Halted reports whether further stepping must be a no-op: either the
// program was aborted or has discarded.
func (p *Program) Halted() bool { return p.Aborted || p.Discarded }
