package vm

import (
	"fmt"

	"shaderdbg/value"
)

// Frame records one activation of a bytecode function: its locals, its
// private operand stack, and the program counter of the next instruction
// to dispatch (an absolute offset into Program.Image.Code).
type Frame struct {
	FuncIndex int
	PC        uint32
	Locals    []value.Value
	operands  []value.Value
}

// newFrame allocates a Frame for the function at funcIndex, with its local
// slots pre-sized (and zero-valued) to the function's declared local
// count, per the spec.md §3 invariant that "a Frame's local slot count
// equals its Function's declared local count".
func newFrame(p *Program, funcIndex int) *Frame {
	fn := p.Image.Functions[funcIndex]
	locals := make([]value.Value, fn.LocalCount)
	for i := range locals {
		locals[i] = value.Null{}
	}
	return &Frame{
		FuncIndex: funcIndex,
		PC:        fn.Offset,
		Locals:    locals,
	}
}

func (fr *Frame) push(v value.Value) { fr.operands = append(fr.operands, v) }

func (fr *Frame) pop() (value.Value, error) {
	n := len(fr.operands)
	if n == 0 {
		return nil, fmt.Errorf("operand stack underflow")
	}
	v := fr.operands[n-1]
	fr.operands = fr.operands[:n-1]
	return v, nil
}

func (fr *Frame) top() (value.Value, error) {
	n := len(fr.operands)
	if n == 0 {
		return nil, fmt.Errorf("operand stack underflow")
	}
	return fr.operands[n-1], nil
}
