// Package library provides the minimal built-in host-function library the
// spec requires the core to ship (spec.md §4.5): at least "$$discard",
// wired so that bytecode compiled by a front-end that prefers an explicit
// call (rather than the VM's native DISCARD opcode) still reaches the same
// sticky discard path.
package library

import (
	"shaderdbg/value"
	"shaderdbg/vm"
)

// Discarder is implemented by whatever owns a Program's UserData handle
// (the Debugger) so that the $$discard host function can propagate the
// discard signal without a raw back-pointer, per spec.md §9's guidance to
// model the Program<->Debugger relationship as a non-owning handle.
type Discarder interface {
	Discard()
}

// Discard is the $$discard host function: it sets the Program's sticky
// discard flag and, if the Program's UserData implements Discarder,
// notifies it too.
func Discard(p *vm.Program, args []value.Value) (value.Value, error) {
	p.SetDiscarded()
	if d, ok := p.UserData.(Discarder); ok {
		d.Discard()
	}
	return value.Null{}, nil
}

// Common returns the built-in library bundling $$discard. It is linked by
// name only where the front-end's image actually declares a matching host
// function entry; front-ends that compile `discard` directly to the VM's
// DISCARD opcode (as frontend/glsl does) never need it.
func Common() *vm.Library {
	return &vm.Library{
		Name: "common",
		Functions: map[string]vm.HostFunc{
			"$$discard": Discard,
		},
	}
}
