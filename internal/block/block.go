// Package block segments a function's flat instruction stream into basic
// blocks and provides the block-form function representation every
// later analysis (CFG, dataflow, LVN, TDCE, SSA) is built on top of.
package block

import "brilkit/internal/ir"

// Block is a maximal straight-line run of instructions: a label (if any)
// followed by instructions none of which, except possibly the last, is
// a terminator.
type Block struct {
	Label   string // empty if the block is unlabeled
	HasName bool
	Instrs  []ir.Instr
	Entry   bool
}

// IsEmpty reports whether the block has no instructions.
func (b *Block) IsEmpty() bool { return len(b.Instrs) == 0 }

// Terminator returns the block's terminating instruction and true, or
// nil and false if the block falls through to its successor.
func (b *Block) Terminator() (ir.Instr, bool) {
	if len(b.Instrs) == 0 {
		return nil, false
	}
	last := b.Instrs[len(b.Instrs)-1]
	if last.IsTerminator() {
		return last, true
	}
	return nil, false
}

// Function is a function represented as a sequence of basic blocks
// instead of a flat instruction stream, with a label-to-index map for
// O(1) jump-target resolution.
type Function struct {
	Name     string
	Args     []ir.Parameter
	RetType  ir.Type
	Blocks   []*Block
	Position *ir.Position

	nameMap map[string]int
}

// Len reports the number of blocks.
func (f *Function) Len() int { return len(f.Blocks) }

// PrependEmptyEntry inserts a new, unlabeled, empty entry block ahead of
// f's current entry block and clears that block's Entry flag, if and
// only if the current entry carries a label. A labeled entry can be the
// target of a back edge (a loop header with no preheader), putting it
// in its own dominance frontier; without a synthetic predecessor-only
// block ahead of it, nothing models the real "function entry" edge
// distinct from the back edge, so a dataflow consumer (SSA shadow-
// variable placement, in particular) cannot tell the initial argument
// value apart from a value only ever set by the loop's back edge. A
// no-op when the entry has no label, since only a label-carrying block
// can be a back-edge target at all.
func (f *Function) PrependEmptyEntry() {
	if len(f.Blocks) == 0 || !f.Blocks[0].HasName {
		return
	}
	f.Blocks[0].Entry = false
	f.Blocks = append([]*Block{{Entry: true}}, f.Blocks...)
	for label, idx := range f.nameMap {
		f.nameMap[label] = idx + 1
	}
}

// BlockIndex resolves a label to its block index.
func (f *Function) BlockIndex(label string) (int, bool) {
	idx, ok := f.nameMap[label]
	return idx, ok
}

// FromFunction segments fn's flat instruction stream into basic blocks.
// A new block starts at every label and after every terminator
// instruction (jmp, br, ret). The first block produced is marked as the
// function's entry block.
//
// Grounded on the original implementation's BBFunction::from(Function):
// a label always starts a new block (closing the one in progress, if
// any); a terminator always closes the block it ends, label or not.
func FromFunction(fn *ir.Function) *Function {
	out := &Function{
		Name:     fn.Name,
		Args:     fn.Args,
		RetType:  fn.RetType,
		Position: fn.Position,
		nameMap:  map[string]int{},
	}

	var cur *Block
	flush := func() {
		if cur != nil {
			out.Blocks = append(out.Blocks, cur)
			cur = nil
		}
	}

	for _, code := range fn.Code {
		switch c := code.(type) {
		case *ir.Label:
			flush()
			cur = &Block{Label: c.Name, HasName: true}
		case ir.Instr:
			if cur == nil {
				cur = &Block{}
			}
			cur.Instrs = append(cur.Instrs, c)
			if c.IsTerminator() {
				flush()
			}
		}
	}
	flush()

	if len(out.Blocks) > 0 {
		out.Blocks[0].Entry = true
	}

	for i, b := range out.Blocks {
		if b.HasName {
			out.nameMap[b.Label] = i
		}
	}

	return out
}

// ToFunction flattens a block-form function back to the flat
// instruction-stream representation used by the IR core and the JSON
// codec.
func ToFunction(bf *Function) *ir.Function {
	fn := &ir.Function{
		Name:     bf.Name,
		Args:     bf.Args,
		RetType:  bf.RetType,
		Position: bf.Position,
	}
	for _, b := range bf.Blocks {
		if b.HasName {
			fn.Code = append(fn.Code, &ir.Label{Name: b.Label})
		}
		for _, instr := range b.Instrs {
			fn.Code = append(fn.Code, instr)
		}
	}
	return fn
}
