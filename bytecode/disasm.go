package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Disassemble writes a human-readable listing of fn's instruction span to
// w, one instruction per line, prefixed by its byte offset within Code.
// The operands of CONST, GLOBAL/SETGLOBAL, ATTR/SETATTR, NEWOBJECT and CALL
// are annotated with the referenced constant or name when the index is in
// range; LOCAL/SETLOCAL slots are not annotated. Jump operands print their
// absolute target offset.
func (img *Image) Disassemble(w io.Writer, fn int) error {
	if fn < 0 || fn >= len(img.Functions) {
		return fmt.Errorf("bytecode: no such function index %d", fn)
	}
	entry := img.Functions[fn]
	if entry.IsHost {
		fmt.Fprintf(w, "%s: host function\n", entry.Name)
		return nil
	}
	fmt.Fprintf(w, "%s:\n", entry.Name)
	pc := entry.Offset
	end := entry.Offset + entry.Length
	for pc < end {
		off := pc
		op := Opcode(img.Code[pc])
		pc++
		if !op.HasArg() {
			fmt.Fprintf(w, "  %6d  %s\n", off, op)
			continue
		}
		var arg uint32
		if op.IsJump() {
			arg = binary.LittleEndian.Uint32(img.Code[pc:])
			pc += 4
		} else {
			v, n := binary.Uvarint(img.Code[pc:])
			arg = uint32(v)
			pc += uint32(n)
		}
		fmt.Fprintf(w, "  %6d  %-12s %d%s\n", off, op, arg, img.annotate(op, arg))
	}
	return nil
}

func (img *Image) annotate(op Opcode, arg uint32) string {
	switch op {
	case CONST:
		if int(arg) < len(img.Constants) {
			return fmt.Sprintf("  ; %v", img.Constants[arg])
		}
	case GLOBAL, SETGLOBAL:
		if int(arg) < len(img.Globals) {
			return fmt.Sprintf("  ; %s", img.Globals[arg].Name)
		}
	case CALL:
		if int(arg) < len(img.Functions) {
			return fmt.Sprintf("  ; %s", img.Functions[arg].Name)
		}
	case ATTR, SETATTR, NEWOBJECT:
		if int(arg) < len(img.Strings) {
			return fmt.Sprintf("  ; %s", img.Strings[arg])
		}
	}
	return ""
}
