// Package trace implements the trace recorder and splicer described by
// the toolkit's specification: an external interpreter drives a program
// up to a length budget, calling Push at every dynamically-executed
// instruction; Take then wraps the recording as a guarded speculative
// unit that Splice prepends to the host function.
//
// Grounded on the original implementation's lessons/12/src/trace.rs
// (Trace::push/take) and lessons/12/src/bin/brilitrace.rs (the
// (bbidx, iidx) splicing walk). One simplification against the
// reference: brilirs numifies variables into integer slots for
// interpreter speed (NumifiedInstruction) and reads the dynamic
// condition through that numbered array; this toolkit's reference
// interpreter (internal/refinterp) is not performance-sensitive, so
// Push reads state directly by variable name instead of through a
// parallel numbered-argument array.
package trace

import (
	"fmt"
	"strings"

	"brilkit/internal/block"
	"brilkit/internal/ir"
	"brilkit/internal/lvn"
	"brilkit/internal/tdce"
)

// State is the dynamic state the interpreter collaborator shares with
// the trace recorder at each step: the current variable bindings and
// the program being executed (so a traced call can look up its
// callee's formal parameter names).
type State struct {
	Env     map[string]ir.Literal
	Program *ir.Program
}

type returnDest struct {
	name string
	typ  ir.Type
}

// memoryOps can never be traced, pure address arithmetic or not: the
// trace has no alias information and splicing a memory op into a
// speculative region it might not commit is unsound.
var memoryOps = map[string]bool{
	ir.OpStore: true, ir.OpFree: true, ir.OpLoad: true, ir.OpAlloc: true, ir.OpPtrAdd: true,
}

// Trace accumulates a straight-line recording of one dynamic execution
// path, inlining pure calls and converting branches to guards as it
// goes.
type Trace struct {
	prefix             []string
	maxLen             int
	instrs             []ir.Instr
	returnDestinations []returnDest
	done               bool
}

// NewTrace returns an empty recorder with the given instruction budget.
func NewTrace(maxLen int) *Trace {
	return &Trace{maxLen: maxLen}
}

// Done reports whether the recorder has stopped accepting instructions
// (either it hit an untraceable instruction or ran out of budget).
func (t *Trace) Done() bool { return t.done }

func prefixName(name string, prefix []string) string {
	if len(prefix) == 0 {
		return name
	}
	joined := prefix[0]
	for _, p := range prefix[1:] {
		joined += "_" + p
	}
	return fmt.Sprintf("__trace_%s_%s", joined, name)
}

func (t *Trace) prefixInstr(instr ir.Instr) ir.Instr {
	out := instr.Clone()
	if dest, ok := out.Dest(); ok {
		out.SetDest(prefixName(dest, t.prefix))
	}
	args := out.Args()
	if len(args) > 0 {
		renamed := make([]string, len(args))
		for i, a := range args {
			renamed[i] = prefixName(a, t.prefix)
		}
		out.SetArgs(renamed)
	}
	return out
}

// Push records one dynamically-executed instruction. On an
// untraceable instruction or a full trace, it marks the recorder done
// and returns the reason without panicking: the caller (the
// interpreter driving execution) stops stepping and the partial trace
// is still usable, per the toolkit's error-handling design (TraceError
// never aborts a pipeline).
func (t *Trace) Push(instr ir.Instr, state *State) error {
	if len(t.instrs) >= t.maxLen {
		t.done = true
		return ir.ErrFull{}
	}
	if t.done {
		return &ir.TraceError{Msg: "trace is already done"}
	}
	t.done = true

	origArgs := instr.Args()
	prefixed := t.prefixInstr(instr)

	var toAppend []ir.Instr

	switch pi := prefixed.(type) {
	case *ir.EffectInstr:
		switch pi.Op {
		case ir.OpBranch:
			x := false
			if lit, ok := state.Env[origArgs[0]]; ok {
				x = lit.Bool
			}
			condName := fmt.Sprintf("__trace%d_cond", len(t.instrs))
			op := ir.OpID
			if !x {
				op = ir.OpNot
			}
			toAppend = []ir.Instr{
				&ir.ValueInstr{DestName: condName, DeclType: ir.BoolType{}, Op: op, ArgNames: []string{pi.ArgNames[0]}},
				&ir.EffectInstr{Op: ir.OpGuard, ArgNames: []string{condName}, LabelRefs: []string{"__trace_failed"}},
			}
		case ir.OpReturn:
			t.prefix = t.prefix[:len(t.prefix)-1]
			rd := t.returnDestinations[len(t.returnDestinations)-1]
			t.returnDestinations = t.returnDestinations[:len(t.returnDestinations)-1]
			toAppend = []ir.Instr{
				&ir.ValueInstr{DestName: rd.name, DeclType: rd.typ, Op: ir.OpID, ArgNames: []string{pi.ArgNames[0]}},
			}
		case ir.OpCall:
			return &ir.TraceError{Msg: "attempted to trace non-pure instruction"}
		case ir.OpJump:
			toAppend = nil
		case ir.OpPrint:
			return &ir.TraceError{Msg: "attempted to trace non-pure instruction"}
		case ir.OpNop, ir.OpSet:
			toAppend = []ir.Instr{pi}
		case ir.OpStore, ir.OpFree:
			return &ir.TraceError{Msg: "memory operations cannot be traced"}
		default:
			return &ir.TraceError{Msg: fmt.Sprintf("unsupported effect %q in trace", pi.Op)}
		}
	case *ir.ValueInstr:
		if memoryOps[pi.Op] {
			return &ir.TraceError{Msg: "memory operations cannot be traced"}
		}
		if pi.Op == ir.OpCall {
			callee := pi.FuncRefs[0]
			t.prefix = append(t.prefix, callee)
			t.returnDestinations = append(t.returnDestinations, returnDest{name: pi.DestName, typ: pi.DeclType})

			fn := state.Program.FuncByName(callee)
			toAppend = make([]ir.Instr, 0, len(fn.Args))
			for i, arg := range fn.Args {
				argName := prefixName(arg.Name, t.prefix)
				toAppend = append(toAppend, &ir.ValueInstr{
					DestName: argName, DeclType: arg.Type, Op: ir.OpID, ArgNames: []string{pi.ArgNames[i]},
				})
			}
		} else if !instr.IsPure() {
			return &ir.TraceError{Msg: "attempted to trace non-pure instruction"}
		} else {
			toAppend = []ir.Instr{pi}
		}
	case *ir.ConstInstr:
		toAppend = []ir.Instr{pi}
	}

	t.instrs = append(t.instrs, toAppend...)
	t.done = false
	return nil
}

// Take simplifies the recording with LVN and TDCE and returns the
// spliceable instruction list: speculate, the simplified body, commit,
// a jump to the continuation label, the failure label, and (during
// simplification only) a sentinel print of every name that must
// survive into the continuation — dropped before the result is
// returned.
//
// Grounded on the reference's Trace::take.
func (t *Trace) Take() []ir.Code {
	written := map[string]bool{}
	var args []ir.Parameter
	seenArg := map[string]bool{}

	for _, instr := range t.instrs {
		for _, a := range instr.Args() {
			if !written[a] && !seenArg[a] {
				typ, _ := instr.Type()
				args = append(args, ir.Parameter{Name: a, Type: typ})
				seenArg[a] = true
			}
		}
		if dest, ok := instr.Dest(); ok {
			written[dest] = true
		}
	}

	escaping := map[string]bool{}
	var escapingOrder []string
	for _, instr := range t.instrs {
		dest, ok := instr.Dest()
		if !ok || strings.HasPrefix(dest, "__trace") {
			continue
		}
		if !escaping[dest] {
			escaping[dest] = true
			escapingOrder = append(escapingOrder, dest)
		}
	}

	var code []ir.Code
	code = append(code, &ir.EffectInstr{Op: ir.OpSpeculate})
	for _, instr := range t.instrs {
		code = append(code, instr)
	}
	code = append(code,
		&ir.EffectInstr{Op: ir.OpCommit},
		&ir.EffectInstr{Op: ir.OpJump, LabelRefs: []string{"__trace_succeeded"}},
		&ir.Label{Name: "__trace_failed"},
		&ir.EffectInstr{Op: ir.OpPrint, ArgNames: escapingOrder},
	)

	fn := &ir.Function{Name: "__trace", Args: args, Code: code}

	lvnPass := lvn.NewPass()
	_ = lvnPass.Before(fn)
	_, _ = lvnPass.RunFunction(fn)
	_ = lvnPass.After(fn)

	tdcePass := tdce.NewPass()
	_ = tdcePass.Before(fn)
	_, _ = tdcePass.RunFunction(fn)
	_ = tdcePass.After(fn)

	bf := block.FromFunction(fn)
	out := block.ToFunction(bf).Code

	return dropLastPrint(out)
}

// Splice inserts a taken trace's code into fn's flat instruction stream
// at the (bbidx, iidx) continuation point the interpreter reported, and
// prepends the traced code to the whole function: the speculative
// region runs first, and on success jumps to __trace_succeeded, which
// this function inserts exactly where execution actually left off.
//
// Grounded on brilitrace.rs's main(): walk fn's flat Code counting
// blocks by label crossings rather than by re-segmenting into
// block.Function, decrementing iidx once the walk has reached bbidx's
// block and decrementing bbidx at every label, until both reach zero —
// that is the continuation instruction — then insert the label there.
func Splice(fn *ir.Function, tracedCode []ir.Code, bbidx, iidx int) {
	insertAt := len(fn.Code)
	for idx := range fn.Code {
		if bbidx == 0 && iidx == 0 {
			insertAt = idx
			break
		}
		if bbidx == 0 {
			iidx--
		}
		if _, ok := fn.Code[idx].(*ir.Label); ok {
			bbidx--
		}
	}

	spliced := make([]ir.Code, 0, len(fn.Code)+1)
	spliced = append(spliced, fn.Code[:insertAt]...)
	spliced = append(spliced, &ir.Label{Name: "__trace_succeeded"})
	spliced = append(spliced, fn.Code[insertAt:]...)

	out := make([]ir.Code, 0, len(tracedCode)+len(spliced))
	out = append(out, tracedCode...)
	out = append(out, spliced...)
	fn.Code = out
}

// dropLastPrint removes the sentinel print instruction emitted by Take
// to keep escaping names alive across LVN/TDCE; it is always the last
// instruction in the simplified function, since __trace_failed's block
// holds nothing else.
func dropLastPrint(code []ir.Code) []ir.Code {
	if len(code) == 0 {
		return code
	}
	if _, ok := code[len(code)-1].(*ir.EffectInstr); ok {
		return code[:len(code)-1]
	}
	return code
}
