// Package cfg builds the control-flow graph of a block-form function: a
// successor edge per block (Exit/Branch/Jump) plus the derived
// predecessor lists, with a reversed view for backward analyses.
package cfg

import (
	"fmt"

	"brilkit/internal/block"
	"brilkit/internal/ir"
)

// EdgeKind classifies a block's outgoing control flow.
type EdgeKind int

const (
	// EdgeExit marks a block with no successors (a ret, or the last
	// block in the function falling off the end).
	EdgeExit EdgeKind = iota
	// EdgeJump marks an unconditional single successor (an explicit
	// jmp, or an implicit fall-through to the next block).
	EdgeJump
	// EdgeBranch marks a conditional two-way successor (a br).
	EdgeBranch
)

// FlowEdge is a block's outgoing control-flow edge.
type FlowEdge struct {
	Kind        EdgeKind
	Jump        int // valid when Kind == EdgeJump
	BranchTrue  int // valid when Kind == EdgeBranch
	BranchFalse int // valid when Kind == EdgeBranch
}

// Targets returns the block indices this edge flows to.
func (e FlowEdge) Targets() []int {
	switch e.Kind {
	case EdgeJump:
		return []int{e.Jump}
	case EdgeBranch:
		return []int{e.BranchTrue, e.BranchFalse}
	default:
		return nil
	}
}

// CFG is the control-flow graph of a single block-form function.
type CFG struct {
	Func     *block.Function
	succs    []FlowEdge
	preds    [][]int
	reversed bool
}

// Build constructs the CFG for bf. A block ending in jmp/br uses its
// label operands to resolve successor indices; a block ending in ret
// has no successors; any other block (including one ending in a
// non-terminator) falls through to the next block, or exits if it is
// the last block in the function.
//
// Grounded on the original implementation's CFG::new: successor
// resolution by last-instruction inspection, with implicit fall-through
// for the all-other case.
func Build(bf *block.Function) (*CFG, error) {
	n := len(bf.Blocks)
	succs := make([]FlowEdge, n)

	for i, b := range bf.Blocks {
		edge, err := successorOf(bf, i, b, n)
		if err != nil {
			return nil, err
		}
		succs[i] = edge
	}

	preds := make([][]int, n)
	for i, e := range succs {
		for _, t := range e.Targets() {
			preds[t] = append(preds[t], i)
		}
	}

	return &CFG{Func: bf, succs: succs, preds: preds}, nil
}

func successorOf(bf *block.Function, i int, b *block.Block, n int) (FlowEdge, error) {
	term, ok := b.Terminator()
	if !ok {
		if i+1 < n {
			return FlowEdge{Kind: EdgeJump, Jump: i + 1}, nil
		}
		return FlowEdge{Kind: EdgeExit}, nil
	}

	switch term.Opcode() {
	case ir.OpJump:
		target, err := resolveLabel(bf, term.Labels()[0])
		if err != nil {
			return FlowEdge{}, err
		}
		return FlowEdge{Kind: EdgeJump, Jump: target}, nil
	case ir.OpBranch:
		labels := term.Labels()
		t, err := resolveLabel(bf, labels[0])
		if err != nil {
			return FlowEdge{}, err
		}
		f, err := resolveLabel(bf, labels[1])
		if err != nil {
			return FlowEdge{}, err
		}
		return FlowEdge{Kind: EdgeBranch, BranchTrue: t, BranchFalse: f}, nil
	case ir.OpReturn:
		return FlowEdge{Kind: EdgeExit}, nil
	default:
		return FlowEdge{}, fmt.Errorf("cfg: unrecognised terminator opcode %q", term.Opcode())
	}
}

func resolveLabel(bf *block.Function, label string) (int, error) {
	idx, ok := bf.BlockIndex(label)
	if !ok {
		return 0, &ir.LabelError{Label: label}
	}
	return idx, nil
}

// Reverse returns a view of the CFG with predecessor and successor
// queries swapped, for backward dataflow analyses (e.g. live variables).
func (c *CFG) Reverse() *CFG {
	return &CFG{Func: c.Func, succs: c.succs, preds: c.preds, reversed: !c.reversed}
}

// Len reports the number of blocks.
func (c *CFG) Len() int { return len(c.Func.Blocks) }

// IsEntry reports whether idx is the dataflow-entry block in this view:
// the function's one real entry block (index 0) when forward, or any
// block whose forward edge exits the function when reversed. This is
// deliberately narrower than "has no predecessors" — an unreachable
// block also has no predecessors, but is not an entry, and must not be
// seeded as dominating (or reaching) anything.
func (c *CFG) IsEntry(idx int) bool {
	if c.reversed {
		return c.succs[idx].Kind == EdgeExit
	}
	return c.Func.Blocks[idx].Entry
}

// Preds returns idx's predecessor block indices in this view.
func (c *CFG) Preds(idx int) []int {
	if c.reversed {
		return c.succs[idx].Targets()
	}
	out := make([]int, len(c.preds[idx]))
	copy(out, c.preds[idx])
	return out
}

// Succs returns idx's successor block indices in this view.
func (c *CFG) Succs(idx int) []int {
	if c.reversed {
		out := make([]int, len(c.preds[idx]))
		copy(out, c.preds[idx])
		return out
	}
	return c.succs[idx].Targets()
}

// Block returns the block at idx.
func (c *CFG) Block(idx int) *block.Block { return c.Func.Blocks[idx] }

// Edge returns the unreversed forward edge for idx, for callers (e.g.
// DOT rendering) that need to distinguish branch-true/branch-false.
func (c *CFG) Edge(idx int) FlowEdge { return c.succs[idx] }
