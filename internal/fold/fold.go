// Package fold implements the constant folding table: a pure, total
// function from (opcode, literal arguments) to an optional result
// literal, plus a value table that interns folded results so later
// instructions can fold through previously-folded ones.
//
// Grounded on the original implementation's lessons/3/src/fold.rs
// (the Foldable trait and its per-opcode literal semantics).
package fold

import (
	"brilkit/internal/ir"
)

// Lookup resolves a variable name to its currently-known literal value,
// or false if it is not currently known to be constant.
type Lookup func(name string) (ir.Literal, bool)

// Fold attempts to fold instr given the current constant bindings in
// lookup. It returns the instruction's destination name, the folded
// literal (if the fold succeeded), and whether a dest exists at all
// (effect instructions have none and are never folded).
//
// const instructions fold trivially to their own literal. A value
// instruction folds if every one of its arguments resolves via lookup
// and the opcode's table entry accepts their combined type. `id`
// forwards its single argument unchanged. A binary arithmetic/
// comparison opcode whose argument types don't match its table entry,
// or whose opcode is impure (call, load) or otherwise has no table
// entry, does not fold — it is not a FoldError, just "not constant".
func Fold(instr ir.Instr, lookup Lookup) (dest string, lit ir.Literal, hasDest bool, folded bool) {
	switch v := instr.(type) {
	case *ir.ConstInstr:
		return v.DestName, v.Value, true, true
	case *ir.ValueInstr:
		args := make([]ir.Literal, len(v.ArgNames))
		for i, name := range v.ArgNames {
			lit, ok := lookup(name)
			if !ok {
				return v.DestName, ir.Literal{}, true, false
			}
			args[i] = lit
		}
		result, ok := Eval(v.Op, args)
		return v.DestName, result, true, ok
	default:
		return "", ir.Literal{}, false, false
	}
}

// EvalOrError is Eval, but raises the one fold-time condition that is a
// fatal pass error rather than "just not constant": integer division by
// a statically-known zero. Callers that already know an instruction's
// arguments are all constant (LVN) should use this instead of Eval so
// the division-by-zero case surfaces as an *ir.FoldError instead of
// silently leaving the instruction unfolded.
func EvalOrError(op string, args []ir.Literal) (ir.Literal, bool, error) {
	if DivByZero(op, args) {
		return ir.Literal{}, false, &ir.FoldError{Msg: "division by zero"}
	}
	lit, ok := Eval(op, args)
	return lit, ok, nil
}

// Eval is the folding table itself: the pure function from (opcode,
// literal arguments) to an optional result literal. It never returns an
// error — a type mismatch (e.g. add applied to bools) is a bug an
// upstream verifier (internal/ir/check) should have already caught, so
// Eval simply declines to fold (ok == false) rather than raising a
// FoldError; FoldError is reserved for EvalOrError's division-by-zero
// case.
func Eval(op string, args []ir.Literal) (ir.Literal, bool) {
	switch op {
	case ir.OpID:
		if len(args) != 1 {
			return ir.Literal{}, false
		}
		return args[0], true

	case "add", "sub", "mul", "div", "eq", "gt", "ge", "lt", "le":
		a, b, ok := intArgs(args)
		if !ok {
			return ir.Literal{}, false
		}
		return evalIntOp(op, a, b)

	case "and", "or":
		a, b, ok := boolArgs(args)
		if !ok {
			return ir.Literal{}, false
		}
		switch op {
		case "and":
			return ir.Bool(a && b), true
		default:
			return ir.Bool(a || b), true
		}

	case "not":
		if len(args) != 1 || args[0].Kind != ir.LitBool {
			return ir.Literal{}, false
		}
		return ir.Bool(!args[0].Bool), true

	case "fadd", "fsub", "fmul", "fdiv", "feq", "fgt", "fge", "flt", "fle":
		a, b, ok := floatArgs(args)
		if !ok {
			return ir.Literal{}, false
		}
		return evalFloatOp(op, a, b)

	case "ceq", "cgt", "cge", "clt", "cle":
		a, b, ok := charArgs(args)
		if !ok {
			return ir.Literal{}, false
		}
		return evalCharOp(op, a, b)

	default:
		return ir.Literal{}, false
	}
}

func intArgs(args []ir.Literal) (int64, int64, bool) {
	if len(args) != 2 || args[0].Kind != ir.LitInt || args[1].Kind != ir.LitInt {
		return 0, 0, false
	}
	return args[0].Int, args[1].Int, true
}

func boolArgs(args []ir.Literal) (bool, bool, bool) {
	if len(args) != 2 || args[0].Kind != ir.LitBool || args[1].Kind != ir.LitBool {
		return false, false, false
	}
	return args[0].Bool, args[1].Bool, true
}

func floatArgs(args []ir.Literal) (float64, float64, bool) {
	if len(args) != 2 || args[0].Kind != ir.LitFloat || args[1].Kind != ir.LitFloat {
		return 0, 0, false
	}
	return args[0].Float, args[1].Float, true
}

func charArgs(args []ir.Literal) (rune, rune, bool) {
	if len(args) != 2 || args[0].Kind != ir.LitChar || args[1].Kind != ir.LitChar {
		return 0, 0, false
	}
	return args[0].Char, args[1].Char, true
}

// DivByZero reports the specific case that must surface as a FoldError
// rather than silently declining to fold: integer division by zero
// has no literal result, but it is also not "not a constant" — it is a
// fatal fold-time fact about the program.
func DivByZero(op string, args []ir.Literal) bool {
	_, b, ok := intArgs(args)
	return op == "div" && ok && b == 0
}

func evalIntOp(op string, a, b int64) (ir.Literal, bool) {
	switch op {
	case "add":
		return ir.Int(a + b), true
	case "sub":
		return ir.Int(a - b), true
	case "mul":
		return ir.Int(a * b), true
	case "div":
		if b == 0 {
			return ir.Literal{}, false
		}
		return ir.Int(a / b), true
	case "eq":
		return ir.Bool(a == b), true
	case "gt":
		return ir.Bool(a > b), true
	case "ge":
		return ir.Bool(a >= b), true
	case "lt":
		return ir.Bool(a < b), true
	case "le":
		return ir.Bool(a <= b), true
	default:
		return ir.Literal{}, false
	}
}

func evalFloatOp(op string, a, b float64) (ir.Literal, bool) {
	switch op {
	case "fadd":
		return ir.Float(a + b), true
	case "fsub":
		return ir.Float(a - b), true
	case "fmul":
		return ir.Float(a * b), true
	case "fdiv":
		return ir.Float(a / b), true
	case "feq":
		return ir.Bool(a == b), true
	case "fgt":
		return ir.Bool(a > b), true
	case "fge":
		return ir.Bool(a >= b), true
	case "flt":
		return ir.Bool(a < b), true
	case "fle":
		return ir.Bool(a <= b), true
	default:
		return ir.Literal{}, false
	}
}

func evalCharOp(op string, a, b rune) (ir.Literal, bool) {
	switch op {
	case "ceq":
		return ir.Bool(a == b), true
	case "cgt":
		return ir.Bool(a > b), true
	case "cge":
		return ir.Bool(a >= b), true
	case "clt":
		return ir.Bool(a < b), true
	case "cle":
		return ir.Bool(a <= b), true
	default:
		return ir.Literal{}, false
	}
}

// Table interns the folded value of every constant it sees, so a later
// instruction's fold can resolve an earlier instruction's destination.
//
// Grounded on the original implementation's ValueTable: a flat
// name-to-literal map populated by Intern, consulted via Get.
type Table struct {
	values map[string]ir.Literal
}

// NewTable returns an empty value table.
func NewTable() *Table { return &Table{values: map[string]ir.Literal{}} }

// Get resolves name to its interned literal.
func (t *Table) Get(name string) (ir.Literal, bool) {
	lit, ok := t.values[name]
	return lit, ok
}

// Intern folds instr against the table's current bindings and, if it
// folds to a literal, records its destination as that literal.
func (t *Table) Intern(instr ir.Instr) {
	dest, lit, hasDest, ok := Fold(instr, t.Get)
	if hasDest && ok {
		t.values[dest] = lit
	}
}
