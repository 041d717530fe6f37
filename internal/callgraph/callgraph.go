// Package callgraph builds the function-level call graph of a program:
// one node per function, one edge per call site, with predecessor and
// successor queries mirroring internal/cfg's CFG shape but at function
// rather than block granularity.
//
// Grounded on the original implementation's utils/src/reps/
// call_graph.rs (CallGraph::new: an idx_map from function name to
// index, succs built by scanning every Call instruction's callees and
// deduplicating, preds derived from succs).
package callgraph

import "brilkit/internal/ir"

// CallGraph is the call graph of a whole program.
type CallGraph struct {
	prog  *ir.Program
	index map[string]int
	preds [][]int
	succs [][]int
}

// Build scans every function for call instructions (a ValueInstr or
// EffectInstr whose Funcs() is non-empty) and records an edge from the
// calling function to each callee. A callee name with no matching
// function in prog is skipped — an undefined-function reference is
// internal/ir/check's concern, not this package's.
func Build(prog *ir.Program) *CallGraph {
	n := len(prog.Functions)
	index := make(map[string]int, n)
	for i, fn := range prog.Functions {
		index[fn.Name] = i
	}

	succs := make([][]int, n)
	for i, fn := range prog.Functions {
		seen := map[int]struct{}{}
		for _, code := range fn.Code {
			instr, ok := code.(ir.Instr)
			if !ok {
				continue
			}
			for _, callee := range instr.Funcs() {
				j, ok := index[callee]
				if !ok {
					continue
				}
				if _, dup := seen[j]; dup {
					continue
				}
				seen[j] = struct{}{}
				succs[i] = append(succs[i], j)
			}
		}
	}

	preds := make([][]int, n)
	for i, js := range succs {
		for _, j := range js {
			preds[j] = append(preds[j], i)
		}
	}

	return &CallGraph{prog: prog, index: index, preds: preds, succs: succs}
}

// Len reports the number of functions (nodes) in the graph.
func (g *CallGraph) Len() int { return len(g.prog.Functions) }

// Index resolves a function name to its node index.
func (g *CallGraph) Index(name string) (int, bool) {
	idx, ok := g.index[name]
	return idx, ok
}

// Func returns the function at idx.
func (g *CallGraph) Func(idx int) *ir.Function { return g.prog.Functions[idx] }

// Preds returns the indices of functions that call idx.
func (g *CallGraph) Preds(idx int) []int {
	out := make([]int, len(g.preds[idx]))
	copy(out, g.preds[idx])
	return out
}

// Succs returns the indices of functions idx calls.
func (g *CallGraph) Succs(idx int) []int {
	out := make([]int, len(g.succs[idx]))
	copy(out, g.succs[idx])
	return out
}
