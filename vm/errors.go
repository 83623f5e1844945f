package vm

import "fmt"

// RuntimeError is raised when bytecode dispatch hits an unrecoverable
// condition: out-of-bounds access, null dereference, type mismatch, stack
// underflow, or an unresolved call target reached despite the link-time
// check. It aborts the Stepper; the Program remains inspectable for
// post-mortem per spec.md §7.
type RuntimeError struct {
	Line    int
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at line %d: %s", e.Line, e.Message)
}

// LinkError is raised by NewProgram when two functions claim the same name,
// by AddFunction/AddLibrary when a host function cannot be linked, and by
// CheckLinked when a host function is left unresolved.
type LinkError struct {
	Message string
}

func (e *LinkError) Error() string { return "link error: " + e.Message }
