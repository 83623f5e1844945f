package compiler

// Token is one lexical unit of a macro's replacement text, produced by a
// Frontend-supplied tokenizer so that a macro's body is stored pre-tokenized
// rather than as raw source text, per spec.md §4.6 ("add_macro(name,
// source_fragment) must tokenize the fragment via the preprocessor's
// scanner and store the token sequence").
type Token struct {
	Text string
	Kind string
}

// Tokenizer splits a fragment of source text into Tokens. A concrete
// front-end supplies its own (its preprocessor/scanner); MacroTable only
// depends on this narrow contract.
type Tokenizer func(fragment string) ([]Token, error)

// Macro is a name bound to a fixed, pre-tokenized replacement sequence.
// Define creates object-like macros only (Params nil); function-like macros
// (parameterized, e.g. `#define MAX(a,b) ...`) come only from the separate,
// explicitly-named DefineFunctionLike entry point, so the distinction is
// never silently blurred.
type Macro struct {
	Name    string
	Params  []string // non-nil only for function-like macros
	Tokens  []Token
}

// IsFunctionLike reports whether m takes parameters.
func (m Macro) IsFunctionLike() bool { return m.Params != nil }

// MacroTable is the preprocessor symbol table shared by every translation
// unit a Frontend compiles within one Compiler instance.
type MacroTable struct {
	tokenize Tokenizer
	macros   map[string]Macro
}

// NewMacroTable creates an empty MacroTable. tokenize is used by Define and
// DefineFunctionLike to pre-tokenize replacement text; it may be nil, in
// which case Define stores a single opaque Token holding the raw fragment
// (useful for front-ends/tests that don't need real tokenization).
func NewMacroTable(tokenize Tokenizer) *MacroTable {
	return &MacroTable{tokenize: tokenize, macros: make(map[string]Macro)}
}

// Define adds (or replaces) an object-like macro: name bound to source,
// tokenized via the table's Tokenizer. It is the Go-side implementation of
// the original AddMacro(name, source) contract.
func (t *MacroTable) Define(name, source string) error {
	toks, err := t.tokenizeFragment(source)
	if err != nil {
		return err
	}
	t.macros[name] = Macro{Name: name, Tokens: toks}
	return nil
}

// DefineFunctionLike adds (or replaces) a function-like macro taking the
// given parameter names. This is the forward-capability entry point the
// spec's resolved Open Question calls for; AddMacro/Define never accepts
// parameters.
func (t *MacroTable) DefineFunctionLike(name string, params []string, body string) error {
	toks, err := t.tokenizeFragment(body)
	if err != nil {
		return err
	}
	ps := append([]string(nil), params...)
	t.macros[name] = Macro{Name: name, Params: ps, Tokens: toks}
	return nil
}

func (t *MacroTable) tokenizeFragment(fragment string) ([]Token, error) {
	if t.tokenize == nil {
		return []Token{{Text: fragment, Kind: "fragment"}}, nil
	}
	return t.tokenize(fragment)
}

// Get returns the macro bound to name, if any.
func (t *MacroTable) Get(name string) (Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

// Clear removes every defined macro.
func (t *MacroTable) Clear() {
	t.macros = make(map[string]Macro)
}

// Names returns the currently-defined macro names in no particular order.
func (t *MacroTable) Names() []string {
	names := make([]string, 0, len(t.macros))
	for n := range t.macros {
		names = append(names, n)
	}
	return names
}
