package refinterp_test

import (
	"testing"

	"brilkit/internal/ir"
	"brilkit/internal/refinterp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intT() ir.Type  { return ir.IntType{} }
func boolT() ir.Type { return ir.BoolType{} }

// straightLineProgram: main(n) computes n+1 and prints it, no branches,
// no calls — the simplest possible trace-driving program.
func straightLineProgram() *ir.Program {
	return &ir.Program{Functions: []*ir.Function{
		{
			Name: "main",
			Args: []ir.Parameter{{Name: "n", Type: intT()}},
			Code: []ir.Code{
				&ir.ConstInstr{DestName: "one", DeclType: intT(), Value: ir.Int(1)},
				&ir.ValueInstr{DestName: "sum", DeclType: intT(), Op: "add", ArgNames: []string{"n", "one"}},
				&ir.EffectInstr{Op: ir.OpPrint, ArgNames: []string{"sum"}},
				&ir.EffectInstr{Op: ir.OpReturn},
			},
		},
	}}
}

func TestExecuteMainRecordsStraightLineProgramUpToPrint(t *testing.T) {
	prog := straightLineProgram()
	in := refinterp.New(prog)

	tr, bb, ii, err := in.ExecuteMain(100, []string{"4"})
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.GreaterOrEqual(t, bb, 0)
	assert.GreaterOrEqual(t, ii, 0)

	code := tr.Take()
	var sawSum bool
	for _, c := range code {
		if vi, ok := c.(*ir.ValueInstr); ok && vi.Op == "add" {
			sawSum = true
		}
	}
	assert.True(t, sawSum, "the add computing sum must survive into the trace, since print (which reads it) is the first untraceable instruction reached")
}

// branchyProgram: main(cond) takes one of two constant branches, then
// prints the result — exercises branch-to-guard conversion end to end.
func branchyProgram() *ir.Program {
	return &ir.Program{Functions: []*ir.Function{
		{
			Name: "main",
			Args: []ir.Parameter{{Name: "cond", Type: boolT()}},
			Code: []ir.Code{
				&ir.EffectInstr{Op: ir.OpBranch, ArgNames: []string{"cond"}, LabelRefs: []string{"then", "else"}},
				&ir.Label{Name: "then"},
				&ir.ConstInstr{DestName: "y", DeclType: intT(), Value: ir.Int(10)},
				&ir.EffectInstr{Op: ir.OpJump, LabelRefs: []string{"done"}},
				&ir.Label{Name: "else"},
				&ir.ConstInstr{DestName: "y", DeclType: intT(), Value: ir.Int(20)},
				&ir.EffectInstr{Op: ir.OpJump, LabelRefs: []string{"done"}},
				&ir.Label{Name: "done"},
				&ir.EffectInstr{Op: ir.OpPrint, ArgNames: []string{"y"}},
				&ir.EffectInstr{Op: ir.OpReturn},
			},
		},
	}}
}

func TestExecuteMainFollowsTheTakenBranch(t *testing.T) {
	prog := branchyProgram()
	in := refinterp.New(prog)

	tr, _, _, err := in.ExecuteMain(100, []string{"true"})
	require.NoError(t, err)

	code := tr.Take()
	var sawGuard, sawThenConst bool
	for _, c := range code {
		if ei, ok := c.(*ir.EffectInstr); ok && ei.Op == ir.OpGuard {
			sawGuard = true
		}
		if ci, ok := c.(*ir.ConstInstr); ok && ci.Value == ir.Int(10) {
			sawThenConst = true
		}
	}
	assert.True(t, sawGuard, "the branch must be recorded as a guard")
	assert.True(t, sawThenConst, "cond was true, so the interpreter must actually execute the then branch's constant")
}

func TestBindArgvRejectsWrongArity(t *testing.T) {
	prog := straightLineProgram()
	in := refinterp.New(prog)

	_, _, _, err := in.ExecuteMain(100, []string{})
	require.Error(t, err)
}

// callProgram: main(x) calls add1(x), which returns x+1, then prints it —
// exercises the call-frame push/pop and return-value delivery path. x is
// main's argument rather than a constant, so the LVN run inside
// Trace.Take cannot fold the inlined addition away.
func callProgram() *ir.Program {
	return &ir.Program{Functions: []*ir.Function{
		{
			Name: "main",
			Args: []ir.Parameter{{Name: "x", Type: intT()}},
			Code: []ir.Code{
				&ir.ValueInstr{DestName: "y", DeclType: intT(), Op: ir.OpCall, FuncRefs: []string{"add1"}, ArgNames: []string{"x"}},
				&ir.EffectInstr{Op: ir.OpPrint, ArgNames: []string{"y"}},
				&ir.EffectInstr{Op: ir.OpReturn},
			},
		},
		{
			Name:    "add1",
			Args:    []ir.Parameter{{Name: "a", Type: intT()}},
			RetType: intT(),
			Code: []ir.Code{
				&ir.ConstInstr{DestName: "one", DeclType: intT(), Value: ir.Int(1)},
				&ir.ValueInstr{DestName: "r", DeclType: intT(), Op: "add", ArgNames: []string{"a", "one"}},
				&ir.EffectInstr{Op: ir.OpReturn, ArgNames: []string{"r"}},
			},
		},
	}}
}

func TestExecuteMainInlinesPureCallIntoTrace(t *testing.T) {
	prog := callProgram()
	in := refinterp.New(prog)

	tr, _, _, err := in.ExecuteMain(100, []string{"5"})
	require.NoError(t, err)

	code := tr.Take()
	var sawReturnCopyToY, sawPrefixedAdd bool
	for _, c := range code {
		if vi, ok := c.(*ir.ValueInstr); ok {
			if vi.DestName == "y" && vi.Op == ir.OpID {
				sawReturnCopyToY = true
			}
			if vi.Op == "add" {
				sawPrefixedAdd = true
			}
		}
	}
	assert.True(t, sawReturnCopyToY, "add1's return value must be copied back into main's call destination y")
	assert.True(t, sawPrefixedAdd, "add1's own addition must be inlined into the trace")
}
