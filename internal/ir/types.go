// Package ir implements the instruction facade, program model, and JSON
// codec for the intermediate representation described by the toolkit's
// specification: three instruction families (constants, value-producing
// operations, effects) plus labels, typed over Int/Bool/Float/Char/Ptr.
package ir

import "fmt"

// Position locates a token in the original source text, carried through
// from the textual surface syntax (or a textual IR file) so that
// diagnostics can print a caret-underlined source line.
type Position struct {
	Line   int `json:"row"`
	Column int `json:"col"`
}

// Type is one of Int | Bool | Float | Char | Ptr(Type).
type Type interface {
	fmt.Stringer
	Equal(Type) bool
}

// IntType is the 64-bit signed integer type.
type IntType struct{}

// BoolType is the boolean type.
type BoolType struct{}

// FloatType is the IEEE-754 double type.
type FloatType struct{}

// CharType is a single Unicode scalar value.
type CharType struct{}

// PtrType is a pointer to another Type. Pointers appear only on the
// memory-operation family, which this toolkit treats as an opaque
// effect barrier rather than something to alias-analyse.
type PtrType struct {
	Elem Type
}

func (IntType) String() string   { return "int" }
func (BoolType) String() string  { return "bool" }
func (FloatType) String() string { return "float" }
func (CharType) String() string  { return "char" }
func (p PtrType) String() string { return "ptr<" + p.Elem.String() + ">" }

func (IntType) Equal(o Type) bool   { _, ok := o.(IntType); return ok }
func (BoolType) Equal(o Type) bool  { _, ok := o.(BoolType); return ok }
func (FloatType) Equal(o Type) bool { _, ok := o.(FloatType); return ok }
func (CharType) Equal(o Type) bool  { _, ok := o.(CharType); return ok }
func (p PtrType) Equal(o Type) bool {
	op, ok := o.(PtrType)
	return ok && p.Elem.Equal(op.Elem)
}

// LiteralKind tags the active field of a Literal.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitBool
	LitFloat
	LitChar
)

// Literal is one of Int(i64) | Bool | Float(f64) | Char(char). It is a
// plain comparable struct (rather than an interface) so that it can be
// used directly as a value or as a map key by the folding table, LVN's
// value-numbering table, and the constant-propagation lattice.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Bool  bool
	Float float64
	Char  rune
}

func Int(v int64) Literal     { return Literal{Kind: LitInt, Int: v} }
func Bool(v bool) Literal     { return Literal{Kind: LitBool, Bool: v} }
func Float(v float64) Literal { return Literal{Kind: LitFloat, Float: v} }
func Char(v rune) Literal     { return Literal{Kind: LitChar, Char: v} }

// Type returns the declared type tag that matches this literal's kind.
func (l Literal) Type() Type {
	switch l.Kind {
	case LitInt:
		return IntType{}
	case LitBool:
		return BoolType{}
	case LitFloat:
		return FloatType{}
	case LitChar:
		return CharType{}
	default:
		panic(fmt.Sprintf("ir: unknown literal kind %d", l.Kind))
	}
}

func (l Literal) String() string {
	switch l.Kind {
	case LitInt:
		return fmt.Sprintf("%d", l.Int)
	case LitBool:
		return fmt.Sprintf("%t", l.Bool)
	case LitFloat:
		return fmt.Sprintf("%g", l.Float)
	case LitChar:
		return fmt.Sprintf("%q", l.Char)
	default:
		return "<invalid literal>"
	}
}
