// Package tdce implements Trivial Dead Code Elimination: a function-wide
// fixed-point sweep that drops any Constant/Value instruction whose
// destination is never read anywhere in the function, followed by a
// single backward per-block pass that additionally drops a write that
// is overwritten before it is ever read within its own block.
//
// Grounded on the original implementation's lessons/3/src/tdce.rs
// (TDCEPass::before for the global sweep, TDCEPass::basic_block for the
// local reverse-scan pass).
package tdce

import (
	"brilkit/internal/block"
	"brilkit/internal/ir"
)

// Pass runs the global fixed-point sweep (in Before) followed by the
// local per-block reverse scan (in RunFunction), matching the
// reference's split between its FunctionPass before/basic_block hooks.
type Pass struct {
	changed bool
}

// NewPass returns a fresh TDCE pass.
func NewPass() *Pass { return &Pass{} }

func (p *Pass) Name() string        { return "tdce" }
func (p *Pass) Description() string { return "trivial dead code elimination" }

// Before runs the global sweep to a fixed point: repeatedly collect
// every name read anywhere in the function, drop any value-producing
// instruction whose destination is not among them, and repeat until a
// full pass removes nothing.
func (p *Pass) Before(fn *ir.Function) error {
	p.changed = false
	for {
		read := readSet(fn.Code)

		kept := make([]ir.Code, 0, len(fn.Code))
		removedAny := false
		for _, code := range fn.Code {
			instr, ok := code.(ir.Instr)
			if !ok {
				kept = append(kept, code)
				continue
			}
			dest, hasDest := instr.Dest()
			if hasDest && !read[dest] {
				removedAny = true
				continue
			}
			kept = append(kept, code)
		}
		fn.Code = kept

		if !removedAny {
			break
		}
		p.changed = true
	}
	return nil
}

func readSet(code []ir.Code) map[string]bool {
	read := map[string]bool{}
	for _, c := range code {
		instr, ok := c.(ir.Instr)
		if !ok {
			continue
		}
		for _, arg := range instr.Args() {
			read[arg] = true
		}
	}
	return read
}

// After is a no-op; all of this pass's work happens in Before and
// RunFunction.
func (p *Pass) After(fn *ir.Function) error { return nil }

// RunFunction runs the local, single-backward-pass sweep over every
// block: a write that is immediately overwritten, without being read in
// between, is dead even if its value is read later in the function
// (the global sweep already ruled that out).
//
// Grounded on the reference's basic_block: walk the block in reverse
// maintaining a "written but not yet read" set; a destination already
// in that set means the instruction about to be (re-)written was never
// read since its last write, so the earlier write is dead. A live
// instruction's arguments are removed from the set, since reading a
// name makes its most recent preceding write demonstrably used.
func (p *Pass) RunFunction(fn *ir.Function) (bool, error) {
	bf := block.FromFunction(fn)
	changed := p.changed

	for _, b := range bf.Blocks {
		newInstrs, blockChanged := sweepBlock(b.Instrs)
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

func sweepBlock(instrs []ir.Instr) ([]ir.Instr, bool) {
	writtenUnread := map[string]bool{}
	kept := make([]ir.Instr, 0, len(instrs))
	changed := false

	for i := len(instrs) - 1; i >= 0; i-- {
		instr := instrs[i]

		live := true
		if dest, hasDest := instr.Dest(); hasDest {
			if writtenUnread[dest] {
				live = false
			} else {
				writtenUnread[dest] = true
			}
		}

		if !live {
			changed = true
			continue
		}

		for _, arg := range instr.Args() {
			delete(writtenUnread, arg)
		}

		kept = append(kept, instr)
	}

	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	return kept, changed
}
