package dataflow

import (
	"fmt"
	"sort"
	"strings"

	"brilkit/internal/block"
	"brilkit/internal/ir"
)

// --- Reaching definitions -------------------------------------------------

// Definition names a single reaching-definition fact: variable `Name` was
// last assigned in block `Block`.
type Definition struct {
	Name  string
	Block int
}

// DefSet is a set of Definition facts.
type DefSet map[Definition]struct{}

func newDefSet() DefSet { return DefSet{} }

func (s DefSet) add(d Definition) DefSet {
	out := make(DefSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	out[d] = struct{}{}
	return out
}

// ReachingDefs is the reaching-definitions analysis: a definition of `x`
// in block B reaches a block U if there is a path from B to U along
// which `x` is not redefined.
//
// Grounded on the original implementation's ReachingDefs: init seeds
// the entry block with one synthetic Definition per function parameter
// (bound in block 0); meet is set union; transfer kills every incoming
// definition whose name the block redefines, then adds one definition
// per name the block itself defines.
type ReachingDefs struct{}

func (ReachingDefs) Entry(fn *block.Function) DefSet {
	out := newDefSet()
	for _, arg := range fn.Args {
		out = out.add(Definition{Name: arg.Name, Block: 0})
	}
	return out
}

func (ReachingDefs) Init(fn *block.Function) DefSet { return newDefSet() }

func (ReachingDefs) Meet(vals []DefSet) DefSet {
	out := newDefSet()
	for _, v := range vals {
		for d := range v {
			out[d] = struct{}{}
		}
	}
	return out
}

func (ReachingDefs) Transfer(idx int, b *block.Block, in DefSet) DefSet {
	defines := map[string]struct{}{}
	for _, instr := range b.Instrs {
		if dest, ok := instr.Dest(); ok {
			defines[dest] = struct{}{}
		}
	}

	out := newDefSet()
	for d := range in {
		if _, redefined := defines[d.Name]; !redefined {
			out[d] = struct{}{}
		}
	}

	for name := range defines {
		out[Definition{Name: name, Block: idx}] = struct{}{}
	}
	return out
}

func (ReachingDefs) Equal(a, b DefSet) bool {
	if len(a) != len(b) {
		return false
	}
	for d := range a {
		if _, ok := b[d]; !ok {
			return false
		}
	}
	return true
}

func (d DefSet) String() string {
	items := make([]string, 0, len(d))
	for def := range d {
		items = append(items, fmt.Sprintf("%s@%d", def.Name, def.Block))
	}
	sort.Strings(items)
	return "{" + strings.Join(items, ", ") + "}"
}

// --- Live variables --------------------------------------------------------

// StringSet is a set of variable names.
type StringSet map[string]struct{}

func newStringSet() StringSet { return StringSet{} }

// LiveVars is the live-variables analysis: a backward analysis over
// variable names, run against cfg.Reverse(). A variable is live at a
// point if some path from that point reads it before it is redefined.
//
// Grounded on the original implementation's LiveVars: meet is set
// union; transfer walks the block in reverse, removing each
// instruction's destination before adding its arguments (so a
// self-referential instruction like `x = add x 1` still keeps `x` live
// into the block).
type LiveVars struct{}

func (LiveVars) Entry(fn *block.Function) StringSet { return newStringSet() }
func (LiveVars) Init(fn *block.Function) StringSet  { return newStringSet() }

func (LiveVars) Meet(vals []StringSet) StringSet {
	out := newStringSet()
	for _, v := range vals {
		for name := range v {
			out[name] = struct{}{}
		}
	}
	return out
}

func (LiveVars) Transfer(idx int, b *block.Block, in StringSet) StringSet {
	out := make(StringSet, len(in))
	for name := range in {
		out[name] = struct{}{}
	}

	for i := len(b.Instrs) - 1; i >= 0; i-- {
		instr := b.Instrs[i]
		if dest, ok := instr.Dest(); ok {
			delete(out, dest)
		}
		for _, arg := range instr.Args() {
			out[arg] = struct{}{}
		}
	}
	return out
}

func (LiveVars) Equal(a, b StringSet) bool {
	if len(a) != len(b) {
		return false
	}
	for name := range a {
		if _, ok := b[name]; !ok {
			return false
		}
	}
	return true
}

func (s StringSet) String() string {
	items := make([]string, 0, len(s))
	for name := range s {
		items = append(items, name)
	}
	sort.Strings(items)
	return "{" + strings.Join(items, ", ") + "}"
}

// --- Constant propagation ---------------------------------------------------

// ConstValue is a constant-propagation lattice element: either a known
// literal, or Top (more than one literal reaches this point, or a
// non-constant value does).
type ConstValue struct {
	Known bool
	Lit   ir.Literal
}

// Top is the "not a single known constant" lattice element.
var Top = ConstValue{Known: false}

// Const wraps a known literal.
func Const(lit ir.Literal) ConstValue { return ConstValue{Known: true, Lit: lit} }

func (v ConstValue) String() string {
	if !v.Known {
		return "T"
	}
	return v.Lit.String()
}

// ConstMap maps variable names to their constant-propagation lattice
// value.
type ConstMap map[string]ConstValue

// ConstProp is the constant-propagation analysis: track, for each
// variable, whether every path to this point assigns it the same
// known literal.
//
// Grounded on the original implementation's ConstProp: meet takes the
// union of keys, keeping a binding only where every reaching definition
// agrees (any disagreement widens to Top); transfer folds each
// instruction's arguments against the current map via the constant
// folding table (see internal/fold), recording the result (Top if the
// fold did not yield a literal).
type ConstProp struct {
	Fold func(instr ir.Instr, args func(string) (ir.Literal, bool)) (ir.Literal, bool)
}

func (ConstProp) Entry(fn *block.Function) ConstMap { return ConstMap{} }
func (ConstProp) Init(fn *block.Function) ConstMap  { return ConstMap{} }

func (ConstProp) Meet(vals []ConstMap) ConstMap {
	out := ConstMap{}
	for _, v := range vals {
		for name, val := range v {
			if existing, ok := out[name]; ok {
				if existing != val {
					out[name] = Top
				}
			} else {
				out[name] = val
			}
		}
	}
	return out
}

func (c ConstProp) Transfer(idx int, b *block.Block, in ConstMap) ConstMap {
	out := make(ConstMap, len(in))
	for k, v := range in {
		out[k] = v
	}

	lookup := func(name string) (ir.Literal, bool) {
		v, ok := out[name]
		if !ok || !v.Known {
			return ir.Literal{}, false
		}
		return v.Lit, true
	}

	for _, instr := range b.Instrs {
		dest, ok := instr.Dest()
		if !ok {
			continue
		}
		if c.Fold == nil {
			out[dest] = Top
			continue
		}
		if lit, ok := c.Fold(instr, lookup); ok {
			out[dest] = Const(lit)
		} else {
			out[dest] = Top
		}
	}
	return out
}

func (ConstProp) Equal(a, b ConstMap) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || bv != v {
			return false
		}
	}
	return true
}

func (m ConstMap) String() string {
	items := make([]string, 0, len(m))
	for name, v := range m {
		items = append(items, fmt.Sprintf("%s = %s", name, v))
	}
	sort.Strings(items)
	return "{" + strings.Join(items, ", ") + "}"
}

// --- Available expressions ---------------------------------------------------

// Expr is a pure computation available-expressions tracks: either a
// literal constant or an opcode applied to argument names.
type Expr struct {
	IsConst bool
	Lit     ir.Literal
	Op      string
	Args    string // space-joined, since Expr must be a comparable map key
}

func exprOf(instr ir.Instr) (Expr, bool) {
	if !instr.IsPure() {
		return Expr{}, false
	}
	switch v := instr.(type) {
	case *ir.ConstInstr:
		return Expr{IsConst: true, Lit: v.Value}, true
	case *ir.ValueInstr:
		return Expr{Op: v.Op, Args: strings.Join(v.ArgNames, " ")}, true
	default:
		return Expr{}, false
	}
}

func (e Expr) contains(name string) bool {
	if e.IsConst {
		return false
	}
	for _, a := range strings.Fields(e.Args) {
		if a == name {
			return true
		}
	}
	return false
}

func (e Expr) String() string {
	if e.IsConst {
		return e.Lit.String()
	}
	return e.Op + " " + e.Args
}

// ExprSet is an available-expressions lattice value: Full represents
// the dataflow Top element (every expression is available, used only
// as the Init seed before a block's first transfer), and a non-full set
// otherwise.
type ExprSet struct {
	Full bool
	Set  map[Expr]struct{}
}

func fullExprSet() ExprSet  { return ExprSet{Full: true} }
func emptyExprSet() ExprSet { return ExprSet{Set: map[Expr]struct{}{}} }

// AvailableExpr is the available-expressions analysis: an expression is
// available at a point if every path to that point has already
// computed it and none of its operands have since been redefined.
//
// Grounded on the original implementation's AvailableExpr: entry block
// starts empty (nothing computed yet); every other block starts at Top
// (the universal set) so that meet (set intersection) degrades
// gracefully before the first transfer; transfer adds each pure
// instruction's expression, then removes every expression mentioning a
// redefined name.
type AvailableExpr struct{}

func (AvailableExpr) Entry(fn *block.Function) ExprSet { return emptyExprSet() }
func (AvailableExpr) Init(fn *block.Function) ExprSet  { return fullExprSet() }

func (AvailableExpr) Meet(vals []ExprSet) ExprSet {
	out := fullExprSet()
	for _, v := range vals {
		out = intersect(out, v)
	}
	return out
}

func intersect(a, b ExprSet) ExprSet {
	if a.Full {
		return b
	}
	if b.Full {
		return a
	}
	out := emptyExprSet()
	for e := range a.Set {
		if _, ok := b.Set[e]; ok {
			out.Set[e] = struct{}{}
		}
	}
	return out
}

func (AvailableExpr) Transfer(idx int, b *block.Block, in ExprSet) ExprSet {
	out := ExprSet{Full: in.Full}
	if !in.Full {
		out.Set = make(map[Expr]struct{}, len(in.Set))
		for e := range in.Set {
			out.Set[e] = struct{}{}
		}
	}

	for _, instr := range b.Instrs {
		if e, ok := exprOf(instr); ok {
			if out.Full {
				out = emptyExprSet()
			}
			out.Set[e] = struct{}{}
		}
		if dest, ok := instr.Dest(); ok && !out.Full {
			for e := range out.Set {
				if e.contains(dest) {
					delete(out.Set, e)
				}
			}
		}
	}
	return out
}

func (AvailableExpr) Equal(a, b ExprSet) bool {
	if a.Full != b.Full {
		return false
	}
	if a.Full {
		return true
	}
	if len(a.Set) != len(b.Set) {
		return false
	}
	for e := range a.Set {
		if _, ok := b.Set[e]; !ok {
			return false
		}
	}
	return true
}

func (s ExprSet) String() string {
	if s.Full {
		return "T"
	}
	items := make([]string, 0, len(s.Set))
	for e := range s.Set {
		items = append(items, e.String())
	}
	sort.Strings(items)
	return "{" + strings.Join(items, ", ") + "}"
}
