// Package ssa constructs and destructs SSA form using the shadow-
// variable get/set encoding rather than explicit phi nodes: a block in
// the dominance frontier of a write reads a per-predecessor "shadow"
// variable at its top (get) and each predecessor sets that shadow to
// its own renamed value just before leaving (set).
//
// Grounded on the original implementation's lessons/6/src/bin/
// to-ssa.rs (NameStack, PhiNodes, ToSSA::rename) and from-ssa.rs
// (FromSSA, lowering set to id and dropping get).
package ssa

import (
	"fmt"
	"sort"

	"brilkit/internal/block"
	"brilkit/internal/cfg"
	"brilkit/internal/dom"
	"brilkit/internal/ir"
)

// nameStack tracks, for each original variable name, the stack of
// renamed names currently in scope, scoped by dominator-tree recursion
// depth so that popping a level undoes exactly the pushes that
// recursion level made.
//
// Grounded on the original implementation's NameStack: levels records,
// for each nesting depth, how many names were pushed onto each
// variable's stack, so popLevel truncates each variable's stack by
// exactly its own count at that depth.
type nameStack struct {
	levels []map[string]int
	names  map[string][]string
}

func newNameStack() *nameStack { return &nameStack{names: map[string][]string{}} }

func (s *nameStack) pushLevel() { s.levels = append(s.levels, map[string]int{}) }

func (s *nameStack) popLevel() {
	if len(s.levels) == 0 {
		return
	}
	level := s.levels[len(s.levels)-1]
	s.levels = s.levels[:len(s.levels)-1]
	for name, count := range level {
		stack := s.names[name]
		s.names[name] = stack[:len(stack)-count]
	}
}

func (s *nameStack) get(name string) string {
	stack := s.names[name]
	if len(stack) == 0 {
		return name
	}
	return stack[len(stack)-1]
}

func (s *nameStack) push(name, newName string) string {
	s.names[name] = append(s.names[name], newName)
	if len(s.levels) > 0 {
		s.levels[len(s.levels)-1][name]++
	}
	return newName
}

func shadowName(name string, bidx int) string {
	return fmt.Sprintf("%s.%d.shadow", name, bidx)
}

func uniqueName(name string, bidx, iidx int) string {
	return fmt.Sprintf("%s.%d.%d", name, bidx, iidx)
}

// write is a (type, name) pair written somewhere in the function; the
// type is carried along so the synthesized get/set instructions can be
// declared with it.
type write struct {
	typ  ir.Type
	name string
}

// phiNodes computes, for every block, the set of variables that need a
// shadow get at that block's entry: everything written in a block whose
// dominance frontier includes this one.
//
// Grounded on the original implementation's PhiNodes::new.
type phiNodes struct {
	nodes []map[write]struct{}
}

func buildPhiNodes(bf *block.Function, tree *dom.Tree) *phiNodes {
	n := bf.Len()
	writes := make([]map[write]struct{}, n)
	for i, b := range bf.Blocks {
		set := map[write]struct{}{}
		for _, instr := range b.Instrs {
			dest, ok := instr.Dest()
			if !ok {
				continue
			}
			typ, ok := instr.Type()
			if !ok {
				continue
			}
			set[write{typ: typ, name: dest}] = struct{}{}
		}
		writes[i] = set
	}

	nodes := make([]map[write]struct{}, n)
	for i := range nodes {
		nodes[i] = map[write]struct{}{}
	}
	for bidx := 0; bidx < n; bidx++ {
		for df := range tree.DominanceFrontier(bidx) {
			if df >= n {
				continue // the synthetic exit row never hosts instructions
			}
			for w := range writes[bidx] {
				nodes[df][w] = struct{}{}
			}
		}
	}

	return &phiNodes{nodes: nodes}
}

// get returns block idx's phi writes in a stable, name-sorted order so
// the synthesized get instructions come out in deterministic order
// across runs.
func (p *phiNodes) get(idx int) []write {
	out := make([]write, 0, len(p.nodes[idx]))
	for w := range p.nodes[idx] {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ToSSA converts fn into shadow-variable SSA form in place.
//
// Grounded on the original implementation's ToSSA::function/rename, with
// two corrections beyond the reference:
//
//   - The reference appends every synthesized `set` unconditionally to
//     the end of the block's instruction list, which would place it
//     after the block's terminator (if any) — dead code (or worse, past
//     the point where the block's flat encoding has already moved on).
//     This toolkit inserts synthesized sets immediately before the
//     block's terminator instead, and at the true end only for a
//     fallthrough block that has none.
//   - A labeled entry block that is also a loop header (reached by a
//     back edge, with no preheader) sits in its own dominance frontier,
//     so a phi placed there needs a real predecessor-only edge to read
//     the function's actual argument value from — otherwise the only
//     modeled write comes from the back edge, and the shadow get at the
//     top of the block reads before any set ever runs on the function's
//     first, non-looping pass through it. block.Function.
//     PrependEmptyEntry adds a synthetic empty entry block ahead of any
//     labeled entry to supply that edge; it is a no-op when the entry
//     is unlabeled.
func ToSSA(fn *ir.Function) error {
	bf := block.FromFunction(fn)
	bf.PrependEmptyEntry()
	g, err := cfg.Build(bf)
	if err != nil {
		return err
	}
	tree := dom.Build(g)
	phi := buildPhiNodes(bf, tree)

	stack := newNameStack()
	rename(bf, g, tree, phi, 0, stack)

	out := block.ToFunction(bf)
	fn.Code = out.Code
	return nil
}

func rename(bf *block.Function, g *cfg.CFG, tree *dom.Tree, phi *phiNodes, bidx int, stack *nameStack) {
	stack.pushLevel()
	defer stack.popLevel()

	b := bf.Blocks[bidx]

	gets := make([]ir.Instr, 0, len(phi.get(bidx)))
	for _, w := range phi.get(bidx) {
		shadow := shadowName(w.name, bidx)
		stack.push(w.name, shadow)
		gets = append(gets, &ir.ValueInstr{DestName: shadow, DeclType: w.typ, Op: ir.OpGet})
	}

	originalLen := len(b.Instrs)
	for i := 0; i < originalLen; i++ {
		switch instr := b.Instrs[i].(type) {
		case *ir.ConstInstr:
			instr.DestName = stack.push(instr.DestName, uniqueName(instr.DestName, bidx, i))
		case *ir.ValueInstr:
			for ai, arg := range instr.ArgNames {
				instr.ArgNames[ai] = stack.get(arg)
			}
			instr.DestName = stack.push(instr.DestName, uniqueName(instr.DestName, bidx, i))
		case *ir.EffectInstr:
			for ai, arg := range instr.ArgNames {
				instr.ArgNames[ai] = stack.get(arg)
			}
		}
	}

	var sets []ir.Instr
	for _, succ := range g.Succs(bidx) {
		for _, w := range phi.get(succ) {
			sets = append(sets, &ir.EffectInstr{
				Op:       ir.OpSet,
				ArgNames: []string{shadowName(w.name, succ), stack.get(w.name)},
			})
		}
	}

	b.Instrs = spliceBlock(gets, b.Instrs, sets)

	for _, child := range tree.Children(bidx) {
		if child >= bf.Len() {
			continue // the synthetic exit row is never a real block to recurse into
		}
		rename(bf, g, tree, phi, child, stack)
	}
}

// spliceBlock places gets at the front of body, and sets immediately
// before body's terminator (or at the end, if body falls through).
func spliceBlock(gets, body, sets []ir.Instr) []ir.Instr {
	out := make([]ir.Instr, 0, len(gets)+len(body)+len(sets))
	out = append(out, gets...)

	if len(body) > 0 && body[len(body)-1].IsTerminator() {
		out = append(out, body[:len(body)-1]...)
		out = append(out, sets...)
		out = append(out, body[len(body)-1])
	} else {
		out = append(out, body...)
		out = append(out, sets...)
	}
	return out
}

// FromSSA lowers shadow-variable SSA form back to ordinary mutable-
// variable form in place: every `set dest src` becomes `dest: ty = id
// src`, and every `get` instruction (now dead, its value always
// supplied by a preceding set) is dropped.
//
// Grounded on the original implementation's FromSSA::function.
func FromSSA(fn *ir.Function) {
	types := map[string]ir.Type{}
	for _, code := range fn.Code {
		instr, ok := code.(ir.Instr)
		if !ok {
			continue
		}
		dest, ok := instr.Dest()
		if !ok {
			continue
		}
		if typ, ok := instr.Type(); ok {
			types[dest] = typ
		}
	}

	kept := make([]ir.Code, 0, len(fn.Code))
	for _, code := range fn.Code {
		switch instr := code.(type) {
		case *ir.EffectInstr:
			if instr.Op == ir.OpSet {
				dest, src := instr.ArgNames[0], instr.ArgNames[1]
				kept = append(kept, &ir.ValueInstr{
					DestName: dest,
					DeclType: types[src],
					Op:       ir.OpID,
					ArgNames: []string{src},
				})
				continue
			}
			kept = append(kept, instr)
		case *ir.ValueInstr:
			if instr.Op == ir.OpGet {
				continue
			}
			kept = append(kept, instr)
		default:
			kept = append(kept, code)
		}
	}
	fn.Code = kept
}
