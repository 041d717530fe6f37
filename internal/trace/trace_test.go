package trace_test

import (
	"testing"

	"brilkit/internal/ir"
	"brilkit/internal/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intT() ir.Type  { return ir.IntType{} }
func boolT() ir.Type { return ir.BoolType{} }

func TestPushBranchEmitsGuardOnTrueCondition(t *testing.T) {
	tr := trace.NewTrace(10)
	state := &trace.State{Env: map[string]ir.Literal{"cond": ir.Bool(true)}}

	instr := &ir.EffectInstr{Op: ir.OpBranch, ArgNames: []string{"cond"}, LabelRefs: []string{"then", "else"}}
	require.NoError(t, tr.Push(instr, state))
	assert.False(t, tr.Done())

	code := tr.Take()
	var sawGuard, sawID bool
	for _, c := range code {
		if vi, ok := c.(*ir.ValueInstr); ok && vi.Op == ir.OpID {
			sawID = true
		}
		if ei, ok := c.(*ir.EffectInstr); ok && ei.Op == ir.OpGuard {
			sawGuard = true
			require.Equal(t, []string{"__trace_failed"}, ei.LabelRefs)
		}
	}
	assert.True(t, sawGuard, "a true branch must still synthesize a guard")
	assert.True(t, sawID, "a true branch's condition is captured via an id copy, not not")
}

func TestPushBranchEmitsNotOnFalseCondition(t *testing.T) {
	tr := trace.NewTrace(10)
	state := &trace.State{Env: map[string]ir.Literal{"cond": ir.Bool(false)}}

	instr := &ir.EffectInstr{Op: ir.OpBranch, ArgNames: []string{"cond"}, LabelRefs: []string{"then", "else"}}
	require.NoError(t, tr.Push(instr, state))

	code := tr.Take()
	var sawNot bool
	for _, c := range code {
		if vi, ok := c.(*ir.ValueInstr); ok && vi.Op == ir.OpNot {
			sawNot = true
		}
	}
	assert.True(t, sawNot, "a false branch's condition must be captured via a not, so the guard fails exactly when the dynamic branch would have gone the other way")
}

func TestPushJumpRecordsNothing(t *testing.T) {
	tr := trace.NewTrace(10)
	require.NoError(t, tr.Push(&ir.EffectInstr{Op: ir.OpJump, LabelRefs: []string{"l"}}, &trace.State{}))

	code := tr.Take()
	// speculate, commit, jump, label: nothing from the traced jump itself.
	assert.Len(t, code, 4)
}

func TestPushRejectsPrint(t *testing.T) {
	tr := trace.NewTrace(10)
	err := tr.Push(&ir.EffectInstr{Op: ir.OpPrint, ArgNames: []string{"x"}}, &trace.State{})
	require.Error(t, err)
	assert.True(t, tr.Done())
}

func TestPushRejectsLoad(t *testing.T) {
	tr := trace.NewTrace(10)
	err := tr.Push(&ir.ValueInstr{Op: ir.OpLoad, DestName: "v", DeclType: intT(), ArgNames: []string{"p"}}, &trace.State{})
	require.Error(t, err)
}

func TestPushStopsAtLengthBudget(t *testing.T) {
	tr := trace.NewTrace(1)
	require.NoError(t, tr.Push(&ir.ConstInstr{DestName: "a", DeclType: intT(), Value: ir.Int(1)}, &trace.State{}))
	err := tr.Push(&ir.ConstInstr{DestName: "b", DeclType: intT(), Value: ir.Int(2)}, &trace.State{})
	require.Error(t, err)
	assert.True(t, tr.Done())
}

func TestPushInlinesPureCallAndReturn(t *testing.T) {
	tr := trace.NewTrace(10)
	prog := &ir.Program{Functions: []*ir.Function{
		{Name: "add1", Args: []ir.Parameter{{Name: "a", Type: intT()}}, RetType: intT()},
	}}
	state := &trace.State{Env: map[string]ir.Literal{"x": ir.Int(5)}, Program: prog}

	callInstr := &ir.ValueInstr{DestName: "y", DeclType: intT(), Op: ir.OpCall, FuncRefs: []string{"add1"}, ArgNames: []string{"x"}}
	require.NoError(t, tr.Push(callInstr, state))

	addInstr := &ir.ValueInstr{DestName: "r", DeclType: intT(), Op: "add", ArgNames: []string{"a", "a"}}
	require.NoError(t, tr.Push(addInstr, state))

	retInstr := &ir.EffectInstr{Op: ir.OpReturn, ArgNames: []string{"r"}}
	require.NoError(t, tr.Push(retInstr, state))

	code := tr.Take()
	var sawBindA, sawReturnCopy bool
	for _, c := range code {
		vi, ok := c.(*ir.ValueInstr)
		if !ok {
			continue
		}
		if vi.Op == ir.OpID && len(vi.ArgNames) == 1 && vi.ArgNames[0] == "x" {
			sawBindA = true
		}
		if vi.DestName == "y" {
			sawReturnCopy = true
		}
	}
	assert.True(t, sawBindA, "the call must bind its argument into the callee's prefixed name via an id copy of the caller's actual")
	assert.True(t, sawReturnCopy, "the return must copy the callee's result into the call's original destination name")
}

func TestTakeDropsSentinelPrintButKeepsFailureLabel(t *testing.T) {
	tr := trace.NewTrace(10)
	require.NoError(t, tr.Push(&ir.ConstInstr{DestName: "v", DeclType: intT(), Value: ir.Int(3)}, &trace.State{}))

	code := tr.Take()
	var sawLabel bool
	for _, c := range code {
		if ei, ok := c.(*ir.EffectInstr); ok {
			assert.NotEqual(t, ir.OpPrint, ei.Op, "the sentinel print must be dropped")
		}
		if l, ok := c.(*ir.Label); ok && l.Name == "__trace_failed" {
			sawLabel = true
		}
	}
	assert.True(t, sawLabel)
}

func TestSpliceInsertsTraceAndSucceededLabelAtContinuationPoint(t *testing.T) {
	fn := &ir.Function{
		Name: "main",
		Code: []ir.Code{
			&ir.ConstInstr{DestName: "a", DeclType: intT(), Value: ir.Int(1)},
			&ir.ConstInstr{DestName: "b", DeclType: intT(), Value: ir.Int(2)},
			&ir.Label{Name: "cont"},
			&ir.EffectInstr{Op: ir.OpPrint, ArgNames: []string{"a"}},
			&ir.EffectInstr{Op: ir.OpReturn},
		},
	}

	tracedCode := []ir.Code{&ir.EffectInstr{Op: ir.OpSpeculate}}

	// bbidx=1, iidx=0: one label crossed (the "cont" label at index 2),
	// so the continuation point is the print instruction right after it.
	trace.Splice(fn, tracedCode, 1, 0)

	require.Len(t, fn.Code, len(tracedCode)+6)
	assert.Equal(t, ir.OpSpeculate, fn.Code[0].(*ir.EffectInstr).Op)

	var sawSucceeded bool
	var succeededIdx int
	for i, c := range fn.Code {
		if l, ok := c.(*ir.Label); ok && l.Name == "__trace_succeeded" {
			sawSucceeded = true
			succeededIdx = i
		}
	}
	require.True(t, sawSucceeded)

	next, ok := fn.Code[succeededIdx+1].(*ir.EffectInstr)
	require.True(t, ok)
	assert.Equal(t, ir.OpPrint, next.Op)
}

func TestTakeWrapsBodyInSpeculateCommitJump(t *testing.T) {
	tr := trace.NewTrace(10)
	require.NoError(t, tr.Push(&ir.ConstInstr{DestName: "v", DeclType: intT(), Value: ir.Int(3)}, &trace.State{}))

	code := tr.Take()
	require.GreaterOrEqual(t, len(code), 4)
	first, ok := code[0].(*ir.EffectInstr)
	require.True(t, ok)
	assert.Equal(t, ir.OpSpeculate, first.Op)

	var sawCommit, sawJump bool
	for _, c := range code {
		if ei, ok := c.(*ir.EffectInstr); ok {
			if ei.Op == ir.OpCommit {
				sawCommit = true
			}
			if ei.Op == ir.OpJump {
				sawJump = true
				assert.Equal(t, []string{"__trace_succeeded"}, ei.LabelRefs)
			}
		}
	}
	assert.True(t, sawCommit)
	assert.True(t, sawJump)
}
