// Package surface implements the textual IR surface syntax: the
// "-t/--text" parser collaborator named in spec.md §6, which lexes a
// Bril-like textual form and emits the same ir.Program the JSON decoder
// produces. internal/ir never imports this package — only the CLI
// boundary (internal/cli) does, preserving the core's "consumes only
// JSON" rule.
//
// Grounded on the teacher's grammar package (github.com/alecthomas/
// participle/v2 struct-tag grammar, SourceElement-style sum types via
// multiple alternated pointer fields, a MustStateful lexer). The grammar
// itself has no teacher analogue — Kanso is a contract language, not an
// IR text format — so its shape is new, built to the minimal textual
// surface spec.md describes rather than a full bril grammar.
package surface

import "github.com/alecthomas/participle/v2/lexer"

// Program is the parsed textual-IR unit: an ordered list of functions.
type Program struct {
	Functions []*Function `@@*`
}

// Function is "@name(p1: t1, p2: t2): ret { ... }".
type Function struct {
	Pos    lexer.Position
	Name   string   `"@" @Ident "("`
	Params []*Param `[ @@ { "," @@ } ] ")"`
	Ret    *Type    `[ ":" @@ ]`
	Body   *Block   `@@`
}

// Param is "name: type".
type Param struct {
	Name string `@Ident ":"`
	Type *Type  `@@`
}

// Type is a base name, or "ptr<elem>" recursively.
type Type struct {
	Name string `@Ident`
	Elem *Type  `[ "<" @@ ">" ]`
}

// Block is the brace-delimited body of a function: an interleaved
// sequence of labels and instructions, matching ir.Function.Code's flat
// as-parsed form.
type Block struct {
	Items []*Code `"{" @@* "}"`
}

// Code is one line of a function body: either a label or an
// instruction.
type Code struct {
	Label *Label `  @@`
	Instr *Instr `| @@`
}

// Label is ".name:".
type Label struct {
	Pos  lexer.Position
	Name string `"." @Ident ":"`
}

// Instr is "[dest =] op operand*;" — the single production that covers
// all three instruction families (const/value/effect): whether a
// parsed Instr becomes an ir.ConstInstr, ir.ValueInstr, or
// ir.EffectInstr is decided in convert.go from the presence of Dest and
// whether Op is "const", not by the grammar.
type Instr struct {
	Pos      lexer.Position
	Dest     *Dest      `[ @@ ]`
	Op       string     `@Ident`
	Operands []*Operand `@@*`
	Semi     string     `";"`
}

// Dest is "name: type =", consuming its own trailing "=" so Instr's Op
// always starts cleanly at the opcode.
type Dest struct {
	Name string `@Ident ":"`
	Type *Type  `@@ "="`
}

// Operand is one of a literal, a ".label" reference, an "@func"
// reference, or a bare variable name — whichever of the four
// alternatives matches first wins, the same sum-type-via-alternated-
// pointer-fields idiom the teacher's grammar uses throughout (e.g.
// SourceElement, PrimaryExpr).
type Operand struct {
	Literal *Literal `  @@`
	Label   *string  `| "." @Ident`
	Func    *string  `| "@" @Ident`
	Name    *string  `| @Ident`
}

// Literal is a const instruction's single operand: exactly one of the
// four kinds ir.Literal can hold.
type Literal struct {
	Bool  *string `  @("true" | "false")`
	Float *string `| @Float`
	Int   *string `| @Integer`
	Char  *string `| @Char`
}
