package fold_test

import (
	"testing"

	"brilkit/internal/fold"
	"brilkit/internal/ir"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalIntArithmetic(t *testing.T) {
	lit, ok := fold.Eval("add", []ir.Literal{ir.Int(2), ir.Int(3)})
	require.True(t, ok)
	assert.Equal(t, ir.Int(5), lit)

	lit, ok = fold.Eval("mul", []ir.Literal{ir.Int(4), ir.Int(5)})
	require.True(t, ok)
	assert.Equal(t, ir.Int(20), lit)
}

func TestEvalComparisons(t *testing.T) {
	lit, ok := fold.Eval("gt", []ir.Literal{ir.Int(5), ir.Int(3)})
	require.True(t, ok)
	assert.Equal(t, ir.Bool(true), lit)
}

func TestEvalBooleanOps(t *testing.T) {
	lit, ok := fold.Eval("and", []ir.Literal{ir.Bool(true), ir.Bool(false)})
	require.True(t, ok)
	assert.Equal(t, ir.Bool(false), lit)

	lit, ok = fold.Eval("not", []ir.Literal{ir.Bool(false)})
	require.True(t, ok)
	assert.Equal(t, ir.Bool(true), lit)
}

func TestEvalFloatOps(t *testing.T) {
	lit, ok := fold.Eval("fdiv", []ir.Literal{ir.Float(6), ir.Float(3)})
	require.True(t, ok)
	assert.Equal(t, ir.Float(2), lit)
}

func TestEvalCharOps(t *testing.T) {
	lit, ok := fold.Eval("clt", []ir.Literal{ir.Char('a'), ir.Char('b')})
	require.True(t, ok)
	assert.Equal(t, ir.Bool(true), lit)
}

func TestEvalRejectsTypeMismatch(t *testing.T) {
	_, ok := fold.Eval("add", []ir.Literal{ir.Bool(true), ir.Int(1)})
	assert.False(t, ok)
}

func TestEvalDivByZeroDoesNotSilentlyFold(t *testing.T) {
	_, ok := fold.Eval("div", []ir.Literal{ir.Int(1), ir.Int(0)})
	assert.False(t, ok)
}

func TestEvalOrErrorRaisesFoldErrorOnDivByZero(t *testing.T) {
	_, _, err := fold.EvalOrError("div", []ir.Literal{ir.Int(1), ir.Int(0)})
	require.Error(t, err)
	var ferr *ir.FoldError
	assert.ErrorAs(t, err, &ferr)
}

func TestTableInternsConstAndForwardsThroughId(t *testing.T) {
	table := fold.NewTable()
	table.Intern(&ir.ConstInstr{DestName: "a", DeclType: ir.IntType{}, Value: ir.Int(7)})
	table.Intern(&ir.ValueInstr{DestName: "b", DeclType: ir.IntType{}, Op: ir.OpID, ArgNames: []string{"a"}})

	lit, ok := table.Get("b")
	require.True(t, ok)
	assert.Equal(t, ir.Int(7), lit)
}

func TestFoldDeclinesWhenArgNotConstant(t *testing.T) {
	table := fold.NewTable()
	_, _, hasDest, folded := fold.Fold(&ir.ValueInstr{DestName: "c", Op: "add", ArgNames: []string{"x", "y"}}, table.Get)
	assert.True(t, hasDest)
	assert.False(t, folded)
}
