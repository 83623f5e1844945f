package vm

import (
	"encoding/binary"

	"shaderdbg/bytecode"
)

// fetch decodes the instruction at fr.PC, advancing fr.PC past it, and
// returns the opcode and its operand (0 if the opcode takes none).
func fetch(code []byte, pc *uint32) (bytecode.Opcode, uint32) {
	op := bytecode.Opcode(code[*pc])
	*pc++
	if !op.HasArg() {
		return op, 0
	}
	if op.IsJump() {
		arg := binary.LittleEndian.Uint32(code[*pc:])
		*pc += 4
		return op, arg
	}
	arg, n := binary.Uvarint(code[*pc:])
	*pc += uint32(n)
	return op, uint32(arg)
}
