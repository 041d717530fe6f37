// Package dom builds a function's dominator tree from the generic
// dataflow engine's dominator-sets analysis (not Lengauer-Tarjan): a
// block A dominates block B if every path from the function's entry to
// B passes through A. The tree appends one synthetic row, index Len(),
// for the function's exit, so that a block dominating every return path
// shows up as dominating the exit too.
package dom

import (
	"brilkit/internal/block"
	"brilkit/internal/cfg"
	"brilkit/internal/dataflow"
)

// IntSet is a set of block indices.
type IntSet map[int]struct{}

func newIntSet(vals ...int) IntSet {
	s := make(IntSet, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

func (s IntSet) clone() IntSet {
	out := make(IntSet, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

func (s IntSet) equal(o IntSet) bool {
	if len(s) != len(o) {
		return false
	}
	for v := range s {
		if _, ok := o[v]; !ok {
			return false
		}
	}
	return true
}

func intersect(sets []IntSet) IntSet {
	if len(sets) == 0 {
		return newIntSet()
	}
	out := sets[0].clone()
	for _, s := range sets[1:] {
		for v := range out {
			if _, ok := s[v]; !ok {
				delete(out, v)
			}
		}
	}
	return out
}

// dominatorSets is the dataflow.Analysis computing, for every block, the
// set of blocks that dominate it. Grounded on the original
// implementation's DominatorPass: the entry block dominates only
// itself; every other block starts pessimistic (dominated by every
// block, i.e. the full block-index set); meet is set intersection;
// transfer always adds the block's own index to its accumulated
// dominator set.
type dominatorSets struct{ n int }

func (d dominatorSets) Entry(fn *block.Function) IntSet { return newIntSet(0) }

func (d dominatorSets) Init(fn *block.Function) IntSet {
	all := make([]int, d.n)
	for i := range all {
		all[i] = i
	}
	return newIntSet(all...)
}

func (d dominatorSets) Meet(vals []IntSet) IntSet { return intersect(vals) }

func (d dominatorSets) Transfer(idx int, b *block.Block, in IntSet) IntSet {
	out := in.clone()
	out[idx] = struct{}{}
	return out
}

func (d dominatorSets) Equal(a, b IntSet) bool { return a.equal(b) }

// Tree is a function's dominator tree plus its dominance frontiers,
// indexed over 0..Len()-1 for real blocks and ExitIdx() for the
// synthetic exit node.
type Tree struct {
	CFG                *cfg.CFG
	strictDoms         []IntSet // length n+1, includes the exit row
	immediateDoms      []int    // -1 means no immediate dominator
	dominanceFrontiers []IntSet
}

// Build computes the dominator tree for g.
//
// Grounded on the original implementation's DominatorTree::new: run the
// dominator-sets dataflow analysis, append a synthetic exit row (the
// intersection of the out-sets of every block with no successor),
// derive "dominated by" sets (dom_bys) by transposing the raw dominator
// sets, compute each node's dominance frontier as the successors of
// everything it dominates that it does not itself dominate, strip each
// block's self-membership to get strict dominators, then derive each
// block's immediate dominator as the one strict dominator that is not
// itself dominated by another of the block's strict dominators.
func Build(g *cfg.CFG) *Tree {
	n := g.Len()
	result := dataflow.Run[IntSet](g, dominatorSets{n: n})

	doms := make([]IntSet, n+1)
	copy(doms, result.Out)

	var exitSets []IntSet
	for i := 0; i < n; i++ {
		if g.Edge(i).Kind == cfg.EdgeExit {
			exitSets = append(exitSets, result.Out[i])
		}
	}
	doms[n] = intersect(exitSets)

	domBys := make([]IntSet, n+1)
	for i := range domBys {
		domBys[i] = newIntSet()
	}
	for i, set := range doms {
		for d := range set {
			domBys[d][i] = struct{}{}
		}
	}

	frontiers := make([]IntSet, n+1)
	for i, dominated := range domBys {
		candidates := newIntSet()
		for d := range dominated {
			if d < n {
				for _, s := range g.Succs(d) {
					candidates[s] = struct{}{}
				}
			}
		}
		front := newIntSet()
		for c := range candidates {
			if _, ok := dominated[c]; !ok {
				front[c] = struct{}{}
			}
		}
		frontiers[i] = front
	}

	strict := make([]IntSet, n+1)
	for i, set := range doms {
		s := set.clone()
		delete(s, i)
		strict[i] = s
	}

	immediate := make([]int, n+1)
	for i, sdoms := range strict {
		nonImmediate := newIntSet()
		for d := range sdoms {
			for other := range strict[d] {
				nonImmediate[other] = struct{}{}
			}
		}
		found := -1
		for d := range sdoms {
			if _, ok := nonImmediate[d]; !ok {
				found = d
				break
			}
		}
		immediate[i] = found
	}

	return &Tree{
		CFG:                g,
		strictDoms:         strict,
		immediateDoms:      immediate,
		dominanceFrontiers: frontiers,
	}
}

// ExitIdx is the synthetic exit node's index.
func (t *Tree) ExitIdx() int { return len(t.strictDoms) - 1 }

// StrictDoms returns the set of blocks that strictly dominate idx.
func (t *Tree) StrictDoms(idx int) IntSet { return t.strictDoms[idx] }

// Dominators returns the set of blocks that dominate idx, including idx
// itself.
func (t *Tree) Dominators(idx int) IntSet {
	out := t.strictDoms[idx].clone()
	out[idx] = struct{}{}
	return out
}

// ImmediateDom returns idx's immediate dominator, or -1 if idx is the
// entry block (or the one unreachable block with none).
func (t *Tree) ImmediateDom(idx int) int { return t.immediateDoms[idx] }

// DominanceFrontier returns idx's dominance frontier.
func (t *Tree) DominanceFrontier(idx int) IntSet { return t.dominanceFrontiers[idx] }

// StrictlyDominates reports whether a strictly dominates b.
func (t *Tree) StrictlyDominates(a, b int) bool {
	_, ok := t.strictDoms[b][a]
	return ok
}

// Dominates reports whether a dominates b (a == b counts).
func (t *Tree) Dominates(a, b int) bool {
	return a == b || t.StrictlyDominates(a, b)
}

// Children returns the blocks whose immediate dominator is idx, i.e.
// idx's children in the dominator tree.
func (t *Tree) Children(idx int) []int {
	var out []int
	for i, dom := range t.immediateDoms {
		if dom == idx {
			out = append(out, i)
		}
	}
	return out
}
