// Package lvn implements Local Value Numbering with integrated constant
// folding: within one basic block, every instruction is assigned a
// value number, redundant recomputation of an already-known value is
// replaced with a cheap copy, and a computation whose operands are all
// known constants is folded in place.
//
// Grounded on the original implementation's lessons/3/src/lvn.rs
// (LVNTable/LVNValue/LVNPass), with two corrections to its clobber/
// build_ref wiring:
//
//   - The reference's "new value" branch called build_ref, which — for
//     a brand-new table row — can only ever reference the row's own
//     just-inserted name, producing a self-referential `x = id x` that
//     reads x before it is defined. That call belongs on the "value
//     already existed" branch instead, where build_ref's job —
//     replacing a redundant recomputation with a copy of the value's
//     canonical representative — is actually sound.
//   - The reference only renamed (clobbered) a table row's
//     representative when the *redundant* write's own destination was
//     reassigned later in the block, leaving a freshly-computed row's
//     representative free to go stale if its destination is reassigned
//     before the block ends: a later redundant hit on that same value
//     would then alias itself to whatever the name holds *now*, not
//     what it held at the point of the original computation. This
//     toolkit runs the clobber check uniformly, before deciding whether
//     the row is new or reused, so a row's representative name is never
//     one the block goes on to overwrite. Running the clobber uniformly
//     introduces its own ordering hazard: on the reused-row path, the
//     reference must still be built from the name an earlier instruction
//     actually wrote the value into, not from the clobber's brand-new
//     (as yet unwritten) name, so runBlock captures that name before the
//     clobber runs and passes it into buildRef explicitly.
package lvn

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"brilkit/internal/block"
	"brilkit/internal/fold"
	"brilkit/internal/ir"
)

type valueKind int

const (
	kindLiteral valueKind = iota
	kindOp
	kindUnknown
)

// value is an interned LVN value: a literal, a pure operation applied
// to other values (identified by their table index, so that congruent
// subexpressions collapse together), or an opaque unique value for
// anything impure.
type value struct {
	kind valueKind
	lit  ir.Literal
	op   string
	typ  string
	args []int
	uid  int
}

func (v value) key() string {
	switch v.kind {
	case kindLiteral:
		return "L:" + v.typ + ":" + v.lit.String()
	case kindOp:
		parts := make([]string, len(v.args))
		for i, a := range v.args {
			parts[i] = strconv.Itoa(a)
		}
		return "O:" + v.typ + ":" + v.op + ":" + strings.Join(parts, ",")
	default:
		return "U:" + strconv.Itoa(v.uid)
	}
}

func (v value) String() string {
	switch v.kind {
	case kindLiteral:
		return v.typ + " " + v.lit.String()
	case kindOp:
		parts := make([]string, len(v.args))
		for i, a := range v.args {
			parts[i] = fmt.Sprintf("<%d>", a)
		}
		return v.op + " " + strings.Join(parts, " ")
	default:
		return "?"
	}
}

type row struct {
	name  string
	value value
}

// table is the per-block value-numbering table.
//
// Grounded on the original implementation's LVNTable: a flat row list
// (table), a map from interned value key to its row index (vtable), and
// a map from the current name for each row index (ntable). Distinct
// names can alias the same row (a redundant definition), and a row's
// own name can later be clobbered to a fresh synthetic name when its
// variable is about to be reassigned within the same block.
type table struct {
	vid    int
	rows   []row
	vtable map[string]int
	ntable map[string]int
}

func newTable(args []ir.Parameter) *table {
	t := &table{vtable: map[string]int{}, ntable: map[string]int{}}
	for _, arg := range args {
		idx := len(t.rows)
		t.rows = append(t.rows, row{name: arg.Name, value: t.uniqueValue()})
		t.ntable[arg.Name] = idx
	}
	return t
}

func (t *table) uniqueValue() value {
	v := value{kind: kindUnknown, uid: t.vid}
	t.vid++
	return v
}

func (t *table) idx(name string) (int, bool) {
	idx, ok := t.ntable[name]
	return idx, ok
}

func (t *table) idxOrInsert(name string) int {
	if idx, ok := t.ntable[name]; ok {
		return idx
	}
	idx := len(t.rows)
	t.rows = append(t.rows, row{name: name, value: t.uniqueValue()})
	t.ntable[name] = idx
	return idx
}

func (t *table) representative(idx int) string { return t.rows[idx].name }
func (t *table) valueAt(idx int) value         { return t.rows[idx].value }

func (t *table) literalLookup(name string) (ir.Literal, bool) {
	idx, ok := t.idx(name)
	if !ok {
		return ir.Literal{}, false
	}
	v := t.valueAt(idx)
	if v.kind != kindLiteral {
		return ir.Literal{}, false
	}
	return v.lit, true
}

// intern assigns instr's destination a value number, folding through
// already-known literals and detecting congruent subexpressions.
// Returns existed (this exact value was already in the table under some
// other row), the row index, and hasDest (false for effect
// instructions, which never intern).
func (t *table) intern(instr ir.Instr) (existed bool, idx int, hasDest bool, err error) {
	dest, ok := instr.Dest()
	if !ok {
		return false, 0, false, nil
	}

	var v value
	switch vi := instr.(type) {
	case *ir.ConstInstr:
		v = value{kind: kindLiteral, lit: vi.Value, typ: vi.DeclType.String()}
	case *ir.ValueInstr:
		if lit, folded, foldErr := t.tryFold(vi); foldErr != nil {
			return false, 0, true, foldErr
		} else if folded {
			v = value{kind: kindLiteral, lit: lit, typ: vi.DeclType.String()}
		} else if !vi.IsPure() {
			v = t.uniqueValue()
		} else if vi.Op == ir.OpID {
			argIdx, _ := t.idx(vi.ArgNames[0])
			v = t.valueAt(argIdx)
		} else {
			argIdxs := make([]int, len(vi.ArgNames))
			for i, a := range vi.ArgNames {
				argIdxs[i], _ = t.idx(a)
			}
			if vi.IsCommutative() {
				sort.Ints(argIdxs)
			}
			v = value{kind: kindOp, op: vi.Op, typ: vi.DeclType.String(), args: argIdxs}
		}
	default:
		return false, 0, false, nil
	}

	if existingIdx, ok := t.vtable[v.key()]; ok {
		t.ntable[dest] = existingIdx
		return true, existingIdx, true, nil
	}

	newIdx := len(t.rows)
	t.rows = append(t.rows, row{name: dest, value: v})
	t.vtable[v.key()] = newIdx
	t.ntable[dest] = newIdx
	return false, newIdx, true, nil
}

func (t *table) tryFold(instr *ir.ValueInstr) (ir.Literal, bool, error) {
	args := make([]ir.Literal, len(instr.ArgNames))
	for i, name := range instr.ArgNames {
		lit, ok := t.literalLookup(name)
		if !ok {
			return ir.Literal{}, false, nil
		}
		args[i] = lit
	}
	if instr.Op == ir.OpID {
		return args[0], true, nil
	}
	lit, ok, err := fold.EvalOrError(instr.Op, args)
	return lit, ok, err
}

// transform rewrites instr's argument names to their canonical
// representative, so congruent subexpressions compare equal regardless
// of which alias of a value they were written against.
func (t *table) transform(instr ir.Instr) ir.Instr {
	args := instr.Args()
	if len(args) == 0 {
		return instr
	}
	out := instr.Clone()
	newArgs := make([]string, len(args))
	for i, a := range args {
		idx := t.idxOrInsert(a)
		newArgs[i] = t.representative(idx)
	}
	out.SetArgs(newArgs)
	return out
}

// buildRef constructs a cheap instruction that reads idx's current
// value under name dest: a const if the value is a known literal, or an
// id-copy of representative otherwise. representative must be the name
// that already holds idx's value — callers that clobber idx's row
// before calling buildRef must capture it beforehand, since
// t.representative(idx) would otherwise resolve to the clobbered row's
// brand-new (as yet unwritten) name instead of the name an earlier
// instruction actually computed the value into.
func (t *table) buildRef(dest string, idx int, representative string, declType ir.Type) ir.Instr {
	v := t.valueAt(idx)
	switch v.kind {
	case kindLiteral:
		return &ir.ConstInstr{DestName: dest, DeclType: declType, Value: v.lit}
	case kindOp:
		return &ir.ValueInstr{DestName: dest, DeclType: declType, Op: ir.OpID, ArgNames: []string{representative}}
	default:
		return nil
	}
}

func (t *table) clobber(idx int, name string) {
	t.rows[idx].name = name
	t.ntable[name] = idx
}

// Pass runs LVN over every block of a function, resetting its value
// table at the start of each block (value numbering is local, not
// global, by construction).
type Pass struct {
	nid   int
	names map[string]struct{}
}

// NewPass returns a fresh LVN pass.
func NewPass() *Pass { return &Pass{names: map[string]struct{}{}} }

func (p *Pass) Name() string { return "lvn" }
func (p *Pass) Description() string {
	return "local value numbering with integrated constant folding"
}

func (p *Pass) uniqueName(pref string) string {
	for {
		name := fmt.Sprintf("_%s_%d", pref, p.nid)
		p.nid++
		if _, taken := p.names[name]; !taken {
			return name
		}
	}
}

// Before collects every name already in use in fn, so synthetic clobber
// names never collide with a real variable.
func (p *Pass) Before(fn *ir.Function) error {
	for _, arg := range fn.Args {
		p.names[arg.Name] = struct{}{}
	}
	for _, code := range fn.Code {
		if instr, ok := code.(ir.Instr); ok {
			if dest, ok := instr.Dest(); ok {
				p.names[dest] = struct{}{}
			}
		}
	}
	return nil
}

func (p *Pass) After(fn *ir.Function) error { return nil }

// RunFunction runs LVN block by block and reports whether anything
// changed.
func (p *Pass) RunFunction(fn *ir.Function) (bool, error) {
	bf := block.FromFunction(fn)
	changed := false

	for _, b := range bf.Blocks {
		newInstrs, blockChanged, err := p.runBlock(fn.Args, b.Instrs)
		if err != nil {
			return changed, err
		}
		if blockChanged {
			changed = true
			b.Instrs = newInstrs
		}
	}

	if changed {
		out := block.ToFunction(bf)
		fn.Code = out.Code
	}
	return changed, nil
}

func (p *Pass) runBlock(args []ir.Parameter, instrs []ir.Instr) ([]ir.Instr, bool, error) {
	t := newTable(args)

	lastWrite := map[string]int{}
	for i, instr := range instrs {
		if dest, ok := instr.Dest(); ok {
			lastWrite[dest] = i
		}
	}

	out := make([]ir.Instr, len(instrs))
	changed := false

	for i, orig := range instrs {
		instr := t.transform(orig)

		existed, idx, hasDest, err := t.intern(instr)
		if err != nil {
			return nil, false, err
		}
		if !hasDest {
			out[i] = instr
			if !instrEqual(orig, instr) {
				changed = true
			}
			continue
		}

		dest, _ := instr.Dest()
		declType, _ := instr.Type()

		// Capture idx's representative before any clobber-rename below
		// changes it: when existed is true, this instruction is a
		// redundant recomputation and buildRef must copy from the name an
		// earlier instruction already wrote the value into, not from a
		// synthetic name the clobber is about to introduce and that no
		// instruction has written yet.
		priorRepresentative := t.representative(idx)

		// A row's representative name must never be one this block
		// reassigns later: if it were, a future redundant hit on this same
		// value would alias itself to whatever the name holds by then,
		// not what it held here. Rename now, before the row can be found
		// again, regardless of whether this row is new or reused.
		if lastWrite[dest] > i {
			newName := p.uniqueName(dest)
			t.clobber(idx, newName)
			instr = instr.Clone()
			instr.SetDest(newName)
			dest = newName
		}

		var result ir.Instr
		if !existed {
			// A freshly-interned value only ever gets rewritten when it
			// folded to a literal; an Op value has no prior representative
			// to copy from yet, so the instruction that computed it stands.
			if t.valueAt(idx).kind == kindLiteral {
				result = t.buildRef(dest, idx, t.representative(idx), declType)
			} else {
				result = instr
			}
		} else {
			if ref := t.buildRef(dest, idx, priorRepresentative, declType); ref != nil {
				result = ref
			} else {
				result = instr
			}
		}

		out[i] = result
		if !instrEqual(orig, result) {
			changed = true
		}
	}

	return out, changed, nil
}

func instrEqual(a, b ir.Instr) bool {
	if a.Opcode() != b.Opcode() {
		return false
	}
	ad, aok := a.Dest()
	bd, bok := b.Dest()
	if aok != bok || ad != bd {
		return false
	}
	aArgs, bArgs := a.Args(), b.Args()
	if len(aArgs) != len(bArgs) {
		return false
	}
	for i := range aArgs {
		if aArgs[i] != bArgs[i] {
			return false
		}
	}
	return true
}
