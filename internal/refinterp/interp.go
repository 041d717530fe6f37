// Package refinterp is a deliberately partial reference interpreter:
// just enough of straight-line, branchy, and recursive-call integer/
// bool/float execution to drive the trace recorder (internal/trace)
// and its tests end to end. It is not a general bril interpreter — no
// memory operations, no SSA get/set execution, no speculate/commit
// rollback semantics — those remain out of scope per the toolkit's
// specification; this package exists only to produce a realistic
// (*trace.Trace, bbidx, iidx) result for cmd/trace and package trace's
// own tests.
//
// Grounded on the *shape* of the original implementation's
// lessons/12 interp module: a State shared with the trace recorder,
// get_arg-style environment lookups, and the Trace.push driving loop —
// not a port of its full opcode semantics.
package refinterp

import (
	"fmt"
	"strconv"

	"brilkit/internal/block"
	"brilkit/internal/fold"
	"brilkit/internal/ir"
	"brilkit/internal/trace"
)

// frame is one activation record: the block-form function being
// executed, the current (block, instruction) program counter, the live
// variable bindings, and — for a called (non-entry) frame — where the
// caller wants its return value delivered.
type frame struct {
	fn  *block.Function
	bb  int
	ii  int
	env map[string]ir.Literal

	hasReturnDest bool
	returnDest    string
}

// Interpreter executes a program's "main" function under a bril-like
// semantics, driving a trace.Trace alongside every instruction it
// steps.
type Interpreter struct {
	prog   *ir.Program
	blocks map[string]*block.Function
}

var _ trace.Interpreter = (*Interpreter)(nil)

// New builds an interpreter over prog, segmenting every function into
// block form up front.
func New(prog *ir.Program) *Interpreter {
	blocks := make(map[string]*block.Function, len(prog.Functions))
	for _, fn := range prog.Functions {
		blocks[fn.Name] = block.FromFunction(fn)
	}
	return &Interpreter{prog: prog, blocks: blocks}
}

// ExecuteMain runs main until it completes, the trace recorder's length
// budget is spent, or the recorder refuses an instruction (print, an
// effect-only call, a memory operation), whichever comes first,
// returning the
// recorded trace and the (block, instruction) coordinates at which
// recording stopped — the continuation point the splicer needs.
//
// Grounded on the reference's execute_main / brilitrace's driving loop.
func (in *Interpreter) ExecuteMain(maxLen int, argv []string) (*trace.Trace, int, int, error) {
	main, ok := in.blocks["main"]
	if !ok {
		return nil, 0, 0, fmt.Errorf("no main function found in the program")
	}

	env, err := bindArgv(main.Args, argv)
	if err != nil {
		return nil, 0, 0, err
	}

	tr := trace.NewTrace(maxLen)
	stack := []*frame{{fn: main, env: env}}

	var lastBB, lastII int

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.bb >= len(top.fn.Blocks) {
			stack = stack[:len(stack)-1]
			continue
		}
		blk := top.fn.Blocks[top.bb]
		if top.ii >= len(blk.Instrs) {
			top.bb++
			top.ii = 0
			continue
		}

		instr := blk.Instrs[top.ii]
		lastBB, lastII = top.bb, top.ii

		if !tr.Done() {
			if pushErr := tr.Push(instr, &trace.State{Env: top.env, Program: in.prog}); pushErr != nil {
				return tr, lastBB, lastII, nil
			}
		}

		switch v := instr.(type) {
		case *ir.ConstInstr:
			top.env[v.DestName] = v.Value
			top.ii++

		case *ir.ValueInstr:
			if v.Op == ir.OpCall {
				callee := in.blocks[v.FuncRefs[0]]
				calleeSig := in.prog.FuncByName(v.FuncRefs[0])
				if callee == nil || calleeSig == nil {
					return tr, lastBB, lastII, fmt.Errorf("call to undefined function %q", v.FuncRefs[0])
				}
				childEnv := map[string]ir.Literal{}
				for i, p := range calleeSig.Args {
					childEnv[p.Name] = top.env[v.ArgNames[i]]
				}
				top.ii++
				stack = append(stack, &frame{fn: callee, env: childEnv, hasReturnDest: true, returnDest: v.DestName})
			} else {
				args := make([]ir.Literal, len(v.ArgNames))
				for i, a := range v.ArgNames {
					args[i] = top.env[a]
				}
				if lit, ok := fold.Eval(v.Op, args); ok {
					top.env[v.DestName] = lit
				}
				top.ii++
			}

		case *ir.EffectInstr:
			switch v.Op {
			case ir.OpBranch:
				cond := top.env[v.ArgNames[0]].Bool
				target := v.LabelRefs[1]
				if cond {
					target = v.LabelRefs[0]
				}
				idx, ok := top.fn.BlockIndex(target)
				if !ok {
					return tr, lastBB, lastII, fmt.Errorf("branch to undefined label %q", target)
				}
				top.bb, top.ii = idx, 0

			case ir.OpJump:
				idx, ok := top.fn.BlockIndex(v.LabelRefs[0])
				if !ok {
					return tr, lastBB, lastII, fmt.Errorf("jump to undefined label %q", v.LabelRefs[0])
				}
				top.bb, top.ii = idx, 0

			case ir.OpReturn:
				var retVal ir.Literal
				if len(v.ArgNames) > 0 {
					retVal = top.env[v.ArgNames[0]]
				}
				stack = stack[:len(stack)-1]
				if len(stack) > 0 && top.hasReturnDest {
					stack[len(stack)-1].env[top.returnDest] = retVal
				}

			default:
				// print, call (effect-only), nop, store/free/alloc, guard/
				// speculate/commit: none of these affect control flow or
				// the bindings this interpreter tracks, so stepping past
				// them is sufficient for driving a trace.
				top.ii++
			}
		}
	}

	return tr, lastBB, lastII, nil
}

func bindArgv(params []ir.Parameter, argv []string) (map[string]ir.Literal, error) {
	env := map[string]ir.Literal{}
	if len(argv) != len(params) {
		return nil, fmt.Errorf("main expects %d arguments, got %d", len(params), len(argv))
	}
	for i, p := range params {
		raw := argv[i]
		switch p.Type.(type) {
		case ir.IntType:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", p.Name, err)
			}
			env[p.Name] = ir.Int(n)
		case ir.BoolType:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", p.Name, err)
			}
			env[p.Name] = ir.Bool(b)
		case ir.FloatType:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", p.Name, err)
			}
			env[p.Name] = ir.Float(f)
		default:
			return nil, fmt.Errorf("argument %q: unsupported main parameter type %s", p.Name, p.Type)
		}
	}
	return env, nil
}
