package vm

import (
	"fmt"

	"shaderdbg/bytecode"
	"shaderdbg/value"
)

// dispatch executes exactly one instruction (already fetched as op/arg) in
// the context of the currently-executing frame fr, mutating the Stepper's
// call stack on CALL/RETURN as described in spec.md §4.4.
func (s *Stepper) dispatch(fr *Frame, op bytecode.Opcode, arg uint32) error {
	img := s.prog.Image

	switch op {
	case bytecode.DUP:
		v, err := fr.top()
		if err != nil {
			return err
		}
		fr.push(v)

	case bytecode.POP:
		_, err := fr.pop()
		return err

	case bytecode.NIL:
		fr.push(value.Null{})
	case bytecode.TRUE:
		fr.push(value.True)
	case bytecode.FALSE:
		fr.push(value.False)

	case bytecode.NOT:
		x, err := fr.pop()
		if err != nil {
			return err
		}
		fr.push(value.Bool(!value.Truth(x)))

	case bytecode.NEG, bytecode.POS, bytecode.BITNOT:
		x, err := fr.pop()
		if err != nil {
			return err
		}
		y, err := value.Unary(unop(op), x)
		if err != nil {
			return err
		}
		fr.push(y)

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.IDIV,
		bytecode.MOD, bytecode.BAND, bytecode.BOR, bytecode.BXOR, bytecode.SHL, bytecode.SHR:
		y, err := fr.pop()
		if err != nil {
			return err
		}
		x, err := fr.pop()
		if err != nil {
			return err
		}
		z, err := value.Binary(binop(op), x, y)
		if err != nil {
			return err
		}
		fr.push(z)

	case bytecode.EQ, bytecode.NE, bytecode.LT, bytecode.LE, bytecode.GT, bytecode.GE:
		y, err := fr.pop()
		if err != nil {
			return err
		}
		x, err := fr.pop()
		if err != nil {
			return err
		}
		b, err := compare(op, x, y)
		if err != nil {
			return err
		}
		fr.push(value.Bool(b))

	case bytecode.INDEX:
		idx, err := fr.pop()
		if err != nil {
			return err
		}
		arr, err := fr.pop()
		if err != nil {
			return err
		}
		v, err := doIndex(arr, idx)
		if err != nil {
			return err
		}
		fr.push(v)

	case bytecode.SETINDEX:
		val, err := fr.pop()
		if err != nil {
			return err
		}
		idx, err := fr.pop()
		if err != nil {
			return err
		}
		arr, err := fr.pop()
		if err != nil {
			return err
		}
		if err := doSetIndex(arr, idx, val); err != nil {
			return err
		}

	case bytecode.DISCARD:
		s.prog.SetDiscarded()

	case bytecode.RETURN:
		v, err := fr.pop()
		if err != nil {
			return err
		}
		s.callStack = s.callStack[:len(s.callStack)-1]
		if len(s.callStack) == 0 {
			s.Result = v
		} else {
			s.callStack[len(s.callStack)-1].push(v)
		}

	case bytecode.CONST:
		fr.push(constValue(img.Constants[arg]))

	case bytecode.LOCAL:
		if int(arg) >= len(fr.Locals) {
			return fmt.Errorf("local slot %d out of range", arg)
		}
		fr.push(fr.Locals[arg])

	case bytecode.SETLOCAL:
		v, err := fr.pop()
		if err != nil {
			return err
		}
		if int(arg) >= len(fr.Locals) {
			return fmt.Errorf("local slot %d out of range", arg)
		}
		fr.Locals[arg] = v

	case bytecode.GLOBAL:
		if int(arg) >= len(s.prog.Globals) {
			return fmt.Errorf("global slot %d out of range", arg)
		}
		fr.push(s.prog.Globals[arg])

	case bytecode.SETGLOBAL:
		v, err := fr.pop()
		if err != nil {
			return err
		}
		if int(arg) >= len(s.prog.Globals) {
			return fmt.Errorf("global slot %d out of range", arg)
		}
		s.prog.Globals[arg] = v

	case bytecode.ATTR:
		obj, err := fr.pop()
		if err != nil {
			return err
		}
		name := img.Strings[arg]
		v, err := s.getAttr(obj, name)
		if err != nil {
			return err
		}
		fr.push(v)

	case bytecode.SETATTR:
		val, err := fr.pop()
		if err != nil {
			return err
		}
		obj, err := fr.pop()
		if err != nil {
			return err
		}
		name := img.Strings[arg]
		if err := setAttr(obj, name, val); err != nil {
			return err
		}

	case bytecode.NEWOBJECT:
		class := img.Strings[arg]
		obj, err := s.newObject(class)
		if err != nil {
			return err
		}
		fr.push(obj)

	case bytecode.NEWARRAY:
		n := int(arg)
		elems := make([]value.Value, n)
		for i := n - 1; i >= 0; i-- {
			v, err := fr.pop()
			if err != nil {
				return err
			}
			elems[i] = v
		}
		fr.push(value.NewArray(elems))

	case bytecode.JMP:
		fr.PC = arg

	case bytecode.JMPIFFALSE:
		c, err := fr.pop()
		if err != nil {
			return err
		}
		if !value.Truth(c) {
			fr.PC = arg
		}

	case bytecode.JMPIFTRUE:
		c, err := fr.pop()
		if err != nil {
			return err
		}
		if value.Truth(c) {
			fr.PC = arg
		}

	case bytecode.CALL:
		return s.call(fr, int(arg))

	default:
		return fmt.Errorf("unimplemented opcode %s", op)
	}
	return nil
}

func constValue(c bytecode.Constant) value.Value {
	switch c.Kind {
	case bytecode.ConstInt:
		return value.I32(c.I64)
	case bytecode.ConstFloat:
		return value.F32(c.F64)
	case bytecode.ConstString:
		return value.String(c.Str)
	case bytecode.ConstBool:
		return value.Bool(c.I64 != 0)
	default:
		return value.Null{}
	}
}

func unop(op bytecode.Opcode) value.UnOp {
	switch op {
	case bytecode.NEG:
		return value.Neg
	case bytecode.POS:
		return value.Pos
	default:
		return value.BitNot
	}
}

func binop(op bytecode.Opcode) value.BinOp {
	switch op {
	case bytecode.ADD:
		return value.Add
	case bytecode.SUB:
		return value.Sub
	case bytecode.MUL:
		return value.Mul
	case bytecode.DIV:
		return value.Div
	case bytecode.IDIV:
		return value.IDiv
	case bytecode.MOD:
		return value.Mod
	case bytecode.BAND:
		return value.BitAnd
	case bytecode.BOR:
		return value.BitOr
	case bytecode.BXOR:
		return value.BitXor
	case bytecode.SHL:
		return value.Shl
	default:
		return value.Shr
	}
}

func compare(op bytecode.Opcode, x, y value.Value) (bool, error) {
	if op == bytecode.EQ || op == bytecode.NE {
		eq, err := value.Equals(x, y)
		if err != nil {
			return false, err
		}
		if op == bytecode.NE {
			return !eq, nil
		}
		return eq, nil
	}
	xn, xok := asOrdered(x)
	yn, yok := asOrdered(y)
	if !xok || !yok {
		return false, fmt.Errorf("cannot compare %s and %s", x.Kind(), y.Kind())
	}
	switch op {
	case bytecode.LT:
		return xn < yn, nil
	case bytecode.LE:
		return xn <= yn, nil
	case bytecode.GT:
		return xn > yn, nil
	case bytecode.GE:
		return xn >= yn, nil
	}
	return false, fmt.Errorf("unknown comparison opcode %s", op)
}

func asOrdered(v value.Value) (float64, bool) {
	switch x := v.(type) {
	case value.U8:
		return float64(x), true
	case value.I16:
		return float64(x), true
	case value.U16:
		return float64(x), true
	case value.I32:
		return float64(x), true
	case value.U32:
		return float64(x), true
	case value.F32:
		return float64(x), true
	}
	return 0, false
}

func doIndex(arr, idx value.Value) (value.Value, error) {
	a, ok := arr.(*value.Array)
	if !ok {
		return nil, fmt.Errorf("cannot index into %s", arr.Kind())
	}
	i, ok := asOrdered(idx)
	if !ok {
		return nil, fmt.Errorf("array index must be numeric, got %s", idx.Kind())
	}
	v, ok := a.Index(int(i))
	if !ok {
		return nil, fmt.Errorf("array index %d out of range (len %d)", int(i), a.Len())
	}
	return v, nil
}

func doSetIndex(arr, idx, val value.Value) error {
	a, ok := arr.(*value.Array)
	if !ok {
		return fmt.Errorf("cannot index into %s", arr.Kind())
	}
	i, ok := asOrdered(idx)
	if !ok {
		return fmt.Errorf("array index must be numeric, got %s", idx.Kind())
	}
	if !a.SetIndex(int(i), val) {
		return fmt.Errorf("array index %d out of range (len %d)", int(i), a.Len())
	}
	return nil
}

// getAttr reads a property from obj, falling back to the Program's
// property-getter extension when obj has no static slot named name,
// per spec.md §4.1.
func (s *Stepper) getAttr(obj value.Value, name string) (value.Value, error) {
	o, ok := obj.(*value.Object)
	if !ok {
		return nil, fmt.Errorf("cannot read property %q of %s", name, obj.Kind())
	}
	if v, ok := o.Get(name); ok {
		return v, nil
	}
	if s.prog.PropertyGetter != nil {
		if v, ok := s.prog.PropertyGetter(s.prog, o, name); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("object of class %q has no property %q", o.Class, name)
}

func setAttr(obj value.Value, name string, v value.Value) error {
	o, ok := obj.(*value.Object)
	if !ok {
		return fmt.Errorf("cannot set property %q of %s", name, obj.Kind())
	}
	o.Set(name, v)
	return nil
}

// newObject builds the zero-value Object for class: from the structure
// table if class is a user-defined structure, otherwise via the Program's
// default-constructor extension (intrinsics like vec4, mat4, texture
// handles are expected to be supplied this way).
func (s *Stepper) newObject(class string) (*value.Object, error) {
	if si := s.prog.StructureIndex(class); si >= 0 {
		st := s.prog.Image.Structures[si]
		obj := value.NewObject(class)
		for _, f := range st.Fields {
			obj.Set(f.Name, zeroOf(f.Type))
		}
		return obj, nil
	}
	if s.prog.DefaultConstructor != nil {
		if obj, ok := s.prog.DefaultConstructor(s.prog, class); ok {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("no constructor for class %q", class)
}

func zeroOf(typeName string) value.Value {
	switch typeName {
	case "int", "i32":
		return value.I32(0)
	case "float", "f32":
		return value.F32(0)
	case "bool":
		return value.Bool(false)
	case "string":
		return value.String("")
	default:
		return value.Null{}
	}
}
