package glsl

import (
	"fmt"

	"shaderdbg/bytecode"
	"shaderdbg/compiler"
)

// Frontend implements compiler.Frontend for the small GLSL-like subset
// this package parses. It is the only concrete front-end the debugger
// ships with (spec.md §6 puts the rest out of scope for the core).
type Frontend struct{}

// New returns a ready-to-use Frontend.
func New() *Frontend { return &Frontend{} }

func (*Frontend) Language() compiler.Language { return compiler.LanguageGLSL }

// Parse compiles source for the given stage, merging newly-declared
// structures/globals/functions into shared so a later stage sharing the
// same Compiler sees them.
func (f *Frontend) Parse(stage compiler.Stage, source string, shared *compiler.Environment) (*bytecode.Image, error) {
	p := NewParser(source)
	file, err := p.ParseFile()
	if err != nil {
		return nil, err
	}

	gen := bytecode.NewGenerator()
	cg := newCodegen(gen, shared, file)
	if err := cg.Generate(); err != nil {
		return nil, err
	}
	return gen.Finalize(), nil
}

// ParseImmediate compiles a single expression fragment against a frozen
// Environment snapshot, per spec.md §4.6. This front-end's immediate mode
// supports literals, globals, unary, arithmetic, bitwise and comparison
// operators, member/index access, and vector/struct construction; it
// rejects the short-circuit && and || operators and assignment, and it
// does not support calling user-defined
// functions (their bodies live in the paused program's own image, not in
// the fresh one-function image Immediate produces), matching the
// invariant that immediate-mode evaluation never mutates unrelated state.
func (f *Frontend) ParseImmediate(fragment string, snapshot *compiler.Environment) (*compiler.ImmediateProgram, error) {
	p := NewParser(fragment)
	expr := p.parseExprPublic()
	if p.err != nil {
		return nil, p.err
	}
	if err := p.sc.LastError(); err != nil {
		return nil, &compiler.ParseError{Message: err.Error()}
	}

	gen := bytecode.NewGenerator()
	for _, st := range snapshot.Structures {
		fields := make([]bytecode.StructureField, len(st.Fields))
		for i, fl := range st.Fields {
			fields[i] = bytecode.StructureField{Name: fl.Name, Type: fl.Type}
		}
		gen.DefineStructure(bytecode.StructureEntry{Name: st.Name, Fields: fields})
	}
	// DefineGlobal dedups by name: when snapshot.Globals carries a local
	// that shadows a same-named global (ImmediateWithLocals prepends
	// locals ahead of the ordinary globals), the second occurrence
	// collapses onto the first slot and every later global's image slot
	// no longer matches its index into snapshot.Globals. Record the
	// resolved slot per name instead of relying on loop position.
	globalSlot := make(map[string]uint32, len(snapshot.Globals))
	for _, g := range snapshot.Globals {
		globalSlot[g.Name] = gen.DefineGlobal(g.Name, g.Type)
	}

	fb := gen.DefineFunction("$immediate", nil, "", nil, nil, false)
	ic := &immediateCodegen{gen: gen, env: snapshot, globalSlot: globalSlot, fb: fb}
	ic.gen1(expr)
	if ic.err != nil {
		return nil, ic.err
	}
	fb.Emit(bytecode.RETURN, 0)
	if _, err := fb.Seal(); err != nil {
		return nil, err
	}

	img := gen.Finalize()
	return &compiler.ImmediateProgram{Image: img, EntryIndex: img.FunctionByName("$immediate")}, nil
}

// parseExprPublic exposes expression parsing for ParseImmediate without
// widening Parser's exported surface for ordinary translation-unit
// parsing, which always goes through ParseFile.
func (p *Parser) parseExprPublic() Expr { return p.parseExpr() }

// immediateCodegen lowers a single Expr against a frozen Environment
// snapshot; unlike codegen, it never declares new globals or functions —
// an identifier or call not already present in the snapshot is a compile
// error.
type immediateCodegen struct {
	gen        *bytecode.Generator
	env        *compiler.Environment
	globalSlot map[string]uint32
	fb         *bytecode.FunctionBuilder
	err        error
}

func (c *immediateCodegen) errorf(pos Position, format string, args ...any) {
	if c.err == nil {
		c.err = &compiler.ParseError{
			Pos:     compiler.Position{Line: pos.Line, Column: pos.Column},
			Message: fmt.Sprintf(format, args...),
		}
	}
}

func (c *immediateCodegen) gen1(e Expr) {
	if c.err != nil {
		return
	}
	switch x := e.(type) {
	case *IntLit:
		c.fb.Emit(bytecode.CONST, c.gen.DefineConstant(bytecode.Constant{Kind: bytecode.ConstInt, I64: x.Val}))
	case *FloatLit:
		c.fb.Emit(bytecode.CONST, c.gen.DefineConstant(bytecode.Constant{Kind: bytecode.ConstFloat, F64: x.Val}))
	case *BoolLit:
		if x.Val {
			c.fb.Emit(bytecode.TRUE, 0)
		} else {
			c.fb.Emit(bytecode.FALSE, 0)
		}
	case *StringLit:
		c.fb.Emit(bytecode.CONST, c.gen.DefineConstant(bytecode.Constant{Kind: bytecode.ConstString, Str: x.Val}))

	case *Ident:
		if slot, ok := c.globalSlot[x.Name]; ok {
			c.fb.Emit(bytecode.GLOBAL, slot)
			return
		}
		c.errorf(x.Pos, "undefined identifier %q in immediate expression", x.Name)

	case *UnaryExpr:
		c.gen1(x.X)
		switch x.Op {
		case MINUS:
			c.fb.Emit(bytecode.NEG, 0)
		case PLUS:
			c.fb.Emit(bytecode.POS, 0)
		case NOT:
			c.fb.Emit(bytecode.NOT, 0)
		case TILDE:
			c.fb.Emit(bytecode.BITNOT, 0)
		}

	case *BinaryExpr:
		if x.Op == AND || x.Op == OR {
			c.errorf(x.Pos, "short-circuit operators are not supported in immediate expressions")
			return
		}
		if assignOps[x.Op] {
			c.errorf(x.Pos, "assignment is not supported in immediate expressions")
			return
		}
		c.gen1(x.X)
		c.gen1(x.Y)
		c.fb.Emit(binOpcode(x.Op), 0)

	case *MemberExpr:
		c.gen1(x.X)
		c.fb.Emit(bytecode.ATTR, c.gen.DefineString(x.Name))

	case *IndexExpr:
		c.gen1(x.X)
		c.gen1(x.Idx)
		c.fb.Emit(bytecode.INDEX, 0)

	case *CallExpr:
		if fields, ok := builtinVectorFields[x.Fn]; ok {
			c.genVectorCtor(x, fields)
			return
		}
		if st, ok := c.env.FindStructure(x.Fn); ok {
			c.genStructCtor(x, st)
			return
		}
		c.errorf(x.Pos, "function calls are not supported in immediate expressions")

	default:
		c.errorf(Position{}, "unhandled expression type %T", e)
	}
}

func (c *immediateCodegen) genVectorCtor(x *CallExpr, fields []string) {
	c.fb.Emit(bytecode.NEWOBJECT, c.gen.DefineString(x.Fn))
	for i, f := range fields {
		c.fb.Emit(bytecode.DUP, 0)
		if i < len(x.Args) {
			c.gen1(x.Args[i])
		} else if len(x.Args) == 1 {
			c.gen1(x.Args[0])
		} else {
			c.fb.Emit(bytecode.CONST, c.gen.DefineConstant(bytecode.Constant{Kind: bytecode.ConstFloat, F64: 0}))
		}
		c.fb.Emit(bytecode.SETATTR, c.gen.DefineString(f))
	}
}

func (c *immediateCodegen) genStructCtor(x *CallExpr, st compiler.Structure) {
	c.fb.Emit(bytecode.NEWOBJECT, c.gen.DefineString(x.Fn))
	for i, f := range st.Fields {
		if i >= len(x.Args) {
			break
		}
		c.fb.Emit(bytecode.DUP, 0)
		c.gen1(x.Args[i])
		c.fb.Emit(bytecode.SETATTR, c.gen.DefineString(f.Name))
	}
}

// Tokenize implements compiler.Tokenizer for this language's lexical
// rules, used by compiler.MacroTable to pre-tokenize macro replacement
// text per spec.md §4.6.
func Tokenize(fragment string) ([]compiler.Token, error) {
	sc := NewScanner(fragment)
	var toks []compiler.Token
	for {
		t := sc.Next()
		if t.Kind == EOF {
			break
		}
		toks = append(toks, compiler.Token{Text: t.Text, Kind: t.Kind.String()})
	}
	if err := sc.LastError(); err != nil {
		return nil, err
	}
	return toks, nil
}
