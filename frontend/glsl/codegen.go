package glsl

import (
	"fmt"

	"shaderdbg/bytecode"
	"shaderdbg/compiler"
)

// builtinVectorFields maps a vector type constructor name to its field
// names, so that e.g. vec3(1.0, 2.0, 3.0) can be lowered to a
// NEWOBJECT + three SETATTR sequence without a general-purpose intrinsic
// library (out of scope, spec.md §6).
var builtinVectorFields = map[string][]string{
	"vec2": {"x", "y"},
	"vec3": {"x", "y", "z"},
	"vec4": {"x", "y", "z", "w"},
	"ivec2": {"x", "y"},
	"ivec3": {"x", "y", "z"},
	"ivec4": {"x", "y", "z", "w"},
}

// codegen lowers a parsed File into a bytecode.Image, using env for
// globals/structures/functions already declared by a prior stage sharing
// the same Compiler (e.g. a vertex shader's varyings visible to the
// fragment stage).
type codegen struct {
	gen    *bytecode.Generator
	env    *compiler.Environment
	file   *File
	funcIdx map[string]int
	err    error
}

func newCodegen(gen *bytecode.Generator, env *compiler.Environment, f *File) *codegen {
	return &codegen{gen: gen, env: env, file: f, funcIdx: make(map[string]int)}
}

func (c *codegen) errorf(pos Position, format string, args ...any) {
	if c.err == nil {
		c.err = &compiler.ParseError{
			Pos:     compiler.Position{Line: pos.Line, Column: pos.Column},
			Message: fmt.Sprintf(format, args...),
		}
	}
}

// Generate lowers c.file into c.gen, registering structures/globals into
// c.env as a side effect (so later stages/immediate-mode compiles sharing
// the same Environment can see them).
func (c *codegen) Generate() error {
	for _, sd := range c.file.Structs {
		c.genStruct(sd)
	}
	for _, g := range c.file.Globals {
		c.genGlobal(g)
	}
	// Pre-register every function's call index before emitting any body so
	// forward and mutually-recursive calls resolve.
	for i, fn := range c.file.Functions {
		c.funcIdx[fn.Name] = i
		c.env.Functions = append(c.env.Functions, toEnvFunction(fn))
	}
	for _, fn := range c.file.Functions {
		c.genFunc(fn)
		if c.err != nil {
			return c.err
		}
	}
	return c.err
}

func toEnvFunction(fn *FuncDecl) compiler.Function {
	params := make([]compiler.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = compiler.Param{Name: p.Name, Type: string(p.Type)}
	}
	return compiler.Function{Name: fn.Name, Params: params, ReturnType: string(fn.ReturnType)}
}

func (c *codegen) genStruct(sd *StructDecl) {
	fields := make([]bytecode.StructureField, len(sd.Fields))
	cfields := make([]compiler.StructureField, len(sd.Fields))
	for i, f := range sd.Fields {
		fields[i] = bytecode.StructureField{Name: f.Name, Type: string(f.Type)}
		cfields[i] = compiler.StructureField{Name: f.Name, Type: string(f.Type)}
	}
	c.gen.DefineStructure(bytecode.StructureEntry{Name: sd.Name, Fields: fields})
	c.env.Structures = append(c.env.Structures, compiler.Structure{Name: sd.Name, Fields: cfields})
}

func (c *codegen) genGlobal(g *GlobalDecl) {
	storage := compiler.StorageGlobal
	envVar := compiler.Variable{Name: g.Name, Type: string(g.Type), Storage: storage, HasInitExpr: g.Init != nil}
	c.env.Globals = append(c.env.Globals, envVar)

	if g.Init == nil {
		c.gen.DefineGlobal(g.Name, string(g.Type))
		return
	}
	if lit, ok := literalConstant(g.Init); ok {
		c.gen.DefineGlobalWithInit(g.Name, string(g.Type), lit)
		return
	}
	// A non-literal initializer (e.g. `uniform float k = a + b;`) has no
	// home in the static global table; the front-end only supports literal
	// global initializers, matching the spec's "globals are host-injected
	// or literal-default" data model.
	c.gen.DefineGlobal(g.Name, string(g.Type))
	c.errorf(g.Pos, "global %q: only literal initializers are supported", g.Name)
}

func literalConstant(e Expr) (bytecode.Constant, bool) {
	switch x := e.(type) {
	case *IntLit:
		return bytecode.Constant{Kind: bytecode.ConstInt, I64: x.Val}, true
	case *FloatLit:
		return bytecode.Constant{Kind: bytecode.ConstFloat, F64: x.Val}, true
	case *BoolLit:
		v := int64(0)
		if x.Val {
			v = 1
		}
		return bytecode.Constant{Kind: bytecode.ConstBool, I64: v}, true
	case *StringLit:
		return bytecode.Constant{Kind: bytecode.ConstString, Str: x.Val}, true
	}
	return bytecode.Constant{}, false
}

// fnScope tracks one function body's local-slot assignment while emitting
// its instructions.
type fnScope struct {
	fb         *bytecode.FunctionBuilder
	names      []string
	types      []string
	slots      []map[string]int // stack of block scopes
	breakLbls  []int
	contLbls   []int
}

func (c *codegen) genFunc(fn *FuncDecl) {
	params := make([]bytecode.Param, len(fn.Params))
	localNames := make([]string, len(fn.Params))
	localTypes := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = bytecode.Param{Name: p.Name, Type: string(p.Type)}
		localNames[i] = p.Name
		localTypes[i] = string(p.Type)
	}

	fb := c.gen.DefineFunction(fn.Name, params, string(fn.ReturnType), localNames, localTypes, false)
	sc := &fnScope{fb: fb, names: localNames, types: localTypes}
	sc.pushScope()
	for i, p := range fn.Params {
		sc.declare(p.Name, i)
	}

	c.genBlock(sc, fn.Body)

	// Every function must leave something on the stack before a fall-off
	// RETURN; a `void` function or a body with no explicit return gets an
	// implicit `return;` lowered as NIL+RETURN.
	fb.EmitLine(fn.Body.Pos.Line)
	fb.Emit(bytecodeNIL(), 0)
	fb.Emit(bytecodeRETURN(), 0)

	fb.SetLocalTable(sc.names, sc.types)
	if _, err := fb.Seal(); err != nil {
		c.errorf(fn.Pos, "%s", err)
	}
}

func bytecodeNIL() bytecode.Opcode    { return bytecode.NIL }
func bytecodeRETURN() bytecode.Opcode { return bytecode.RETURN }

func (s *fnScope) pushScope() { s.slots = append(s.slots, make(map[string]int)) }
func (s *fnScope) popScope()  { s.slots = s.slots[:len(s.slots)-1] }

func (s *fnScope) declare(name string, existingSlot int) int {
	if existingSlot >= 0 {
		s.slots[len(s.slots)-1][name] = existingSlot
		return existingSlot
	}
	slot := len(s.names)
	s.names = append(s.names, name)
	s.types = append(s.types, "")
	s.slots[len(s.slots)-1][name] = slot
	return slot
}

func (s *fnScope) declareTyped(name, typ string) int {
	slot := len(s.names)
	s.names = append(s.names, name)
	s.types = append(s.types, typ)
	s.slots[len(s.slots)-1][name] = slot
	return slot
}

func (s *fnScope) lookup(name string) (int, bool) {
	for i := len(s.slots) - 1; i >= 0; i-- {
		if slot, ok := s.slots[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

func (c *codegen) genBlock(sc *fnScope, b *BlockStmt) {
	sc.pushScope()
	for _, st := range b.Stmts {
		c.genStmt(sc, st)
	}
	sc.popScope()
}

func (c *codegen) genStmt(sc *fnScope, st Stmt) {
	switch s := st.(type) {
	case *BlockStmt:
		c.genBlock(sc, s)

	case *VarDeclStmt:
		sc.fb.EmitLine(s.Pos.Line)
		slot := sc.declareTyped(s.Name, string(s.Type))
		if s.Init != nil {
			c.genExpr(sc, s.Init)
		} else {
			sc.fb.Emit(bytecode.NIL, 0)
		}
		sc.fb.Emit(bytecode.SETLOCAL, uint32(slot))

	case *ExprStmt:
		sc.fb.EmitLine(s.Pos.Line)
		c.genExpr(sc, s.X)
		sc.fb.Emit(bytecode.POP, 0)

	case *ReturnStmt:
		sc.fb.EmitLine(s.Pos.Line)
		if s.X != nil {
			c.genExpr(sc, s.X)
		} else {
			sc.fb.Emit(bytecode.NIL, 0)
		}
		sc.fb.Emit(bytecode.RETURN, 0)

	case *DiscardStmt:
		sc.fb.EmitLine(s.Pos.Line)
		sc.fb.Emit(bytecode.DISCARD, 0)

	case *BreakStmt:
		sc.fb.EmitLine(s.Pos.Line)
		if len(sc.breakLbls) == 0 {
			c.errorf(s.Pos, "break outside a loop")
			return
		}
		sc.fb.EmitJump(bytecode.JMP, sc.breakLbls[len(sc.breakLbls)-1])

	case *ContinueStmt:
		sc.fb.EmitLine(s.Pos.Line)
		if len(sc.contLbls) == 0 {
			c.errorf(s.Pos, "continue outside a loop")
			return
		}
		sc.fb.EmitJump(bytecode.JMP, sc.contLbls[len(sc.contLbls)-1])

	case *IfStmt:
		sc.fb.EmitLine(s.Pos.Line)
		c.genExpr(sc, s.Cond)
		elseLbl := sc.fb.NewLabel()
		sc.fb.EmitJump(bytecode.JMPIFFALSE, elseLbl)
		c.genBlock(sc, s.Then)
		if s.Else != nil {
			endLbl := sc.fb.NewLabel()
			sc.fb.EmitJump(bytecode.JMP, endLbl)
			sc.fb.BindLabel(elseLbl)
			c.genStmt(sc, s.Else)
			sc.fb.BindLabel(endLbl)
		} else {
			sc.fb.BindLabel(elseLbl)
		}

	case *WhileStmt:
		sc.fb.EmitLine(s.Pos.Line)
		startLbl := sc.fb.NewLabel()
		endLbl := sc.fb.NewLabel()
		sc.fb.BindLabel(startLbl)
		c.genExpr(sc, s.Cond)
		sc.fb.EmitJump(bytecode.JMPIFFALSE, endLbl)
		sc.breakLbls = append(sc.breakLbls, endLbl)
		sc.contLbls = append(sc.contLbls, startLbl)
		c.genBlock(sc, s.Body)
		sc.breakLbls = sc.breakLbls[:len(sc.breakLbls)-1]
		sc.contLbls = sc.contLbls[:len(sc.contLbls)-1]
		sc.fb.EmitJump(bytecode.JMP, startLbl)
		sc.fb.BindLabel(endLbl)

	case *ForStmt:
		sc.fb.EmitLine(s.Pos.Line)
		sc.pushScope()
		if s.Init != nil {
			c.genStmt(sc, s.Init)
		}
		startLbl := sc.fb.NewLabel()
		endLbl := sc.fb.NewLabel()
		postLbl := sc.fb.NewLabel()
		sc.fb.BindLabel(startLbl)
		if s.Cond != nil {
			c.genExpr(sc, s.Cond)
			sc.fb.EmitJump(bytecode.JMPIFFALSE, endLbl)
		}
		sc.breakLbls = append(sc.breakLbls, endLbl)
		sc.contLbls = append(sc.contLbls, postLbl)
		c.genBlock(sc, s.Body)
		sc.breakLbls = sc.breakLbls[:len(sc.breakLbls)-1]
		sc.contLbls = sc.contLbls[:len(sc.contLbls)-1]
		sc.fb.BindLabel(postLbl)
		if s.Post != nil {
			c.genExpr(sc, s.Post)
			sc.fb.Emit(bytecode.POP, 0)
		}
		sc.fb.EmitJump(bytecode.JMP, startLbl)
		sc.fb.BindLabel(endLbl)
		sc.popScope()

	default:
		c.errorf(Position{}, "unhandled statement type %T", st)
	}
}

func (c *codegen) genExpr(sc *fnScope, e Expr) {
	switch x := e.(type) {
	case *IntLit:
		sc.fb.Emit(bytecode.CONST, c.gen.DefineConstant(bytecode.Constant{Kind: bytecode.ConstInt, I64: x.Val}))
	case *FloatLit:
		sc.fb.Emit(bytecode.CONST, c.gen.DefineConstant(bytecode.Constant{Kind: bytecode.ConstFloat, F64: x.Val}))
	case *BoolLit:
		if x.Val {
			sc.fb.Emit(bytecode.TRUE, 0)
		} else {
			sc.fb.Emit(bytecode.FALSE, 0)
		}
	case *StringLit:
		sc.fb.Emit(bytecode.CONST, c.gen.DefineConstant(bytecode.Constant{Kind: bytecode.ConstString, Str: x.Val}))

	case *Ident:
		if slot, ok := sc.lookup(x.Name); ok {
			sc.fb.Emit(bytecode.LOCAL, uint32(slot))
			return
		}
		gi := c.gen.DefineGlobal(x.Name, "")
		sc.fb.Emit(bytecode.GLOBAL, gi)

	case *UnaryExpr:
		c.genExpr(sc, x.X)
		switch x.Op {
		case MINUS:
			sc.fb.Emit(bytecode.NEG, 0)
		case PLUS:
			sc.fb.Emit(bytecode.POS, 0)
		case NOT:
			sc.fb.Emit(bytecode.NOT, 0)
		case TILDE:
			sc.fb.Emit(bytecode.BITNOT, 0)
		}

	case *BinaryExpr:
		c.genBinary(sc, x)

	case *MemberExpr:
		c.genExpr(sc, x.X)
		sc.fb.Emit(bytecode.ATTR, c.gen.DefineString(x.Name))

	case *IndexExpr:
		c.genExpr(sc, x.X)
		c.genExpr(sc, x.Idx)
		sc.fb.Emit(bytecode.INDEX, 0)

	case *CallExpr:
		c.genCall(sc, x)

	default:
		c.errorf(Position{}, "unhandled expression type %T", e)
	}
}

func (c *codegen) genBinary(sc *fnScope, x *BinaryExpr) {
	if assignOps[x.Op] {
		c.genAssign(sc, x)
		return
	}
	if x.Op == AND || x.Op == OR {
		c.genShortCircuit(sc, x)
		return
	}
	c.genExpr(sc, x.X)
	c.genExpr(sc, x.Y)
	sc.fb.Emit(binOpcode(x.Op), 0)
}

func (c *codegen) genShortCircuit(sc *fnScope, x *BinaryExpr) {
	// `a && b` / `a || b` lowered as: evaluate a; branch around b, leaving
	// a's truth value as the short-circuit result via DUP+POP bookkeeping.
	c.genExpr(sc, x.X)
	sc.fb.Emit(bytecode.DUP, 0)
	shortLbl := sc.fb.NewLabel()
	if x.Op == AND {
		sc.fb.EmitJump(bytecode.JMPIFFALSE, shortLbl)
	} else {
		sc.fb.EmitJump(bytecode.JMPIFTRUE, shortLbl)
	}
	sc.fb.Emit(bytecode.POP, 0)
	c.genExpr(sc, x.Y)
	sc.fb.BindLabel(shortLbl)
}

func (c *codegen) genAssign(sc *fnScope, x *BinaryExpr) {
	if x.Op != ASSIGN {
		// Compound assignment `a op= b` desugars to `a = a op b` against
		// the same lvalue, re-evaluating the lvalue's address only once
		// for the simple identifier/local case (the only lvalues this
		// front-end supports).
		rhs := &BinaryExpr{Pos: x.Pos, Op: compoundBase(x.Op), X: x.X, Y: x.Y}
		x = &BinaryExpr{Pos: x.Pos, Op: ASSIGN, X: x.X, Y: rhs}
	}
	switch lhs := x.X.(type) {
	case *Ident:
		c.genExpr(sc, x.Y)
		sc.fb.Emit(bytecode.DUP, 0)
		if slot, ok := sc.lookup(lhs.Name); ok {
			sc.fb.Emit(bytecode.SETLOCAL, uint32(slot))
		} else {
			gi := c.gen.DefineGlobal(lhs.Name, "")
			sc.fb.Emit(bytecode.SETGLOBAL, gi)
		}
	case *MemberExpr:
		c.genExpr(sc, lhs.X)
		c.genExpr(sc, x.Y)
		sc.fb.Emit(bytecode.DUP, 0)
		// Stack: obj, val, val -> reorder to obj, val for SETATTR leaving
		// val as the expression's result isn't representable without a
		// third slot; SETATTR here leaves no result, matching statement
		// usage (assignment-as-expression is otherwise unsupported).
		sc.fb.Emit(bytecode.POP, 0)
		sc.fb.Emit(bytecode.SETATTR, c.gen.DefineString(lhs.Name))
		sc.fb.Emit(bytecode.NIL, 0)
	case *IndexExpr:
		c.genExpr(sc, lhs.X)
		c.genExpr(sc, lhs.Idx)
		c.genExpr(sc, x.Y)
		sc.fb.Emit(bytecode.SETINDEX, 0)
		sc.fb.Emit(bytecode.NIL, 0)
	default:
		c.errorf(x.Pos, "invalid assignment target")
	}
}

func compoundBase(op Kind) Kind {
	switch op {
	case PLUS_ASSIGN:
		return PLUS
	case MINUS_ASSIGN:
		return MINUS
	case STAR_ASSIGN:
		return STAR
	case SLASH_ASSIGN:
		return SLASH
	}
	return op
}

func binOpcode(op Kind) bytecode.Opcode {
	switch op {
	case PLUS:
		return bytecode.ADD
	case MINUS:
		return bytecode.SUB
	case STAR:
		return bytecode.MUL
	case SLASH:
		return bytecode.DIV
	case PERCENT:
		return bytecode.MOD
	case AMP:
		return bytecode.BAND
	case PIPE:
		return bytecode.BOR
	case CARET:
		return bytecode.BXOR
	case SHL:
		return bytecode.SHL
	case SHR:
		return bytecode.SHR
	case EQL:
		return bytecode.EQ
	case NEQ:
		return bytecode.NE
	case LSS:
		return bytecode.LT
	case LEQ:
		return bytecode.LE
	case GTR:
		return bytecode.GT
	case GEQ:
		return bytecode.GE
	}
	return bytecode.NOP
}

func (c *codegen) genCall(sc *fnScope, x *CallExpr) {
	if fields, ok := builtinVectorFields[x.Fn]; ok {
		c.genVectorConstructor(sc, x, fields)
		return
	}
	if _, ok := c.env.FindStructure(x.Fn); ok {
		c.genStructConstructor(sc, x)
		return
	}
	idx, ok := c.funcIdx[x.Fn]
	if !ok {
		c.errorf(x.Pos, "call to undeclared function %q", x.Fn)
		return
	}
	for _, a := range x.Args {
		c.genExpr(sc, a)
	}
	sc.fb.Emit(bytecode.CALL, uint32(idx))
}

func (c *codegen) genVectorConstructor(sc *fnScope, x *CallExpr, fields []string) {
	sc.fb.Emit(bytecode.NEWOBJECT, c.gen.DefineString(x.Fn))
	if len(x.Args) == 1 {
		// vecN(scalar) splats the single argument across every field.
		for _, f := range fields {
			sc.fb.Emit(bytecode.DUP, 0)
			c.genExpr(sc, x.Args[0])
			sc.fb.Emit(bytecode.SETATTR, c.gen.DefineString(f))
		}
		return
	}
	for i, f := range fields {
		sc.fb.Emit(bytecode.DUP, 0)
		if i < len(x.Args) {
			c.genExpr(sc, x.Args[i])
		} else {
			sc.fb.Emit(bytecode.CONST, c.gen.DefineConstant(bytecode.Constant{Kind: bytecode.ConstFloat, F64: 0}))
		}
		sc.fb.Emit(bytecode.SETATTR, c.gen.DefineString(f))
	}
}

func (c *codegen) genStructConstructor(sc *fnScope, x *CallExpr) {
	st, _ := c.env.FindStructure(x.Fn)
	sc.fb.Emit(bytecode.NEWOBJECT, c.gen.DefineString(x.Fn))
	for i, f := range st.Fields {
		if i >= len(x.Args) {
			break
		}
		sc.fb.Emit(bytecode.DUP, 0)
		c.genExpr(sc, x.Args[i])
		sc.fb.Emit(bytecode.SETATTR, c.gen.DefineString(f.Name))
	}
}
