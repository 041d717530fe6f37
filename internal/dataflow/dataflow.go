// Package dataflow implements the generic worklist-based dataflow
// engine the toolkit's canonical analyses (reaching definitions, live
// variables, constant propagation, available expressions, dominator
// sets) are all instances of.
package dataflow

import (
	"fmt"
	"strings"

	"brilkit/internal/block"
	"brilkit/internal/cfg"
)

// Analysis is one dataflow lattice: how to seed entry blocks, how to
// seed every other block before its first visit, how to combine
// multiple predecessor (or successor, for backward analyses) values,
// and how to transform a value across one block. Val equality is
// delegated to Equal rather than required of Val itself, since several
// lattices (live variables, available expressions) are most naturally
// represented as maps, which Go cannot compare with ==.
type Analysis[Val any] interface {
	// Entry returns the value flowing into the function's entry block
	// (or, for a reversed analysis, its exit block) before the first
	// transfer.
	Entry(fn *block.Function) Val
	// Init returns the value every non-entry block starts with before
	// its first transfer.
	Init(fn *block.Function) Val
	// Meet combines the out-values (in-values, if reversed) of a
	// block's predecessors into its in-value.
	Meet(vals []Val) Val
	// Transfer computes a block's out-value from its in-value. idx is
	// the block's own index, needed by analyses whose facts are
	// labelled by defining block (reaching definitions, dominator
	// sets).
	Transfer(idx int, b *block.Block, in Val) Val
	// Equal reports whether two lattice values are the same, used to
	// detect a fixed point.
	Equal(a, b Val) bool
}

// Result holds the per-block in/out values the engine converged on.
type Result[Val any] struct {
	CFG *cfg.CFG
	In  []Val
	Out []Val
}

// Run executes the worklist algorithm described in the spec's dataflow
// section: a FIFO queue of block indices, seeded with every block; pop
// a block, recompute its in-value from its predecessors (or its seed
// value if it is an entry block), run the transfer function, and if
// the out-value changed, push every successor. Terminates because every
// lattice's Meet/Transfer pair is monotone and every lattice has finite
// height, per the analyses registered in this package.
//
// Grounded on the original implementation's DataflowPass::func: a
// std::collections::LinkedList used as a FIFO queue, reseeded from
// cfg.is_entry/preds/succs so the same engine drives both forward and
// backward analyses via cfg.Reverse().
func Run[Val any](g *cfg.CFG, a Analysis[Val]) *Result[Val] {
	n := g.Len()
	in := make([]Val, n)
	out := make([]Val, n)

	seed := a.Init(g.Func)
	for i := range in {
		in[i] = seed
		out[i] = seed
	}

	worklist := make([]int, n)
	for i := range worklist {
		worklist[i] = i
	}

	for len(worklist) > 0 {
		i := worklist[0]
		worklist = worklist[1:]

		if g.IsEntry(i) {
			in[i] = a.Entry(g.Func)
		} else {
			preds := g.Preds(i)
			vals := make([]Val, len(preds))
			for j, p := range preds {
				vals[j] = out[p]
			}
			in[i] = a.Meet(vals)
		}

		newOut := a.Transfer(i, g.Block(i), in[i])
		if !a.Equal(newOut, out[i]) {
			out[i] = newOut
			worklist = append(worklist, g.Succs(i)...)
		}
	}

	return &Result[Val]{CFG: g, In: in, Out: out}
}

// Format renders a dataflow result in the diagnostic form used by the
// toolkit's analysis CLIs: one ".<label>:" section per block with its
// in/out values, via the supplied stringer.
func Format[Val any](r *Result[Val], name string, show func(Val) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s {\n", name)
	for i := range r.In {
		label := r.CFG.Block(i).Label
		if label == "" {
			label = fmt.Sprintf("%d", i)
		}
		fmt.Fprintf(&b, ".%s:\n", label)
		fmt.Fprintf(&b, "  in:  %s\n", show(r.In[i]))
		fmt.Fprintf(&b, "  out: %s\n", show(r.Out[i]))
	}
	b.WriteString("}\n")
	return b.String()
}
