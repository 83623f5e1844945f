package debugger

import "shaderdbg/compiler"

// Breakpoint is one installed stop point: a source line, and an optional
// condition expression. Per spec.md §4.7, the condition is compiled via
// immediate-mode once (cached in compiled, the first time execution
// reaches Line) and the cached bytecode is re-evaluated against live
// state on every subsequent dynamic occurrence, rather than recompiling
// the expression text on every hit.
type Breakpoint struct {
	Line      int
	Condition string
	HasCond   bool

	compiled *compiler.ImmediateProgram
}
