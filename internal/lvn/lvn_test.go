package lvn_test

import (
	"testing"

	"brilkit/internal/ir"
	"brilkit/internal/lvn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intT() ir.Type { return ir.IntType{} }

func constInstr(dest string, v int64) *ir.ConstInstr {
	return &ir.ConstInstr{DestName: dest, DeclType: intT(), Value: ir.Int(v)}
}

func valueInstr(dest, op string, args ...string) *ir.ValueInstr {
	return &ir.ValueInstr{DestName: dest, DeclType: intT(), Op: op, ArgNames: args}
}

func runLVN(t *testing.T, fn *ir.Function) bool {
	t.Helper()
	p := lvn.NewPass()
	require.NoError(t, p.Before(fn))
	changed, err := p.RunFunction(fn)
	require.NoError(t, err)
	require.NoError(t, p.After(fn))
	return changed
}

func TestFoldsConstantArithmetic(t *testing.T) {
	fn := &ir.Function{Name: "main", Code: []ir.Code{
		constInstr("a", 2),
		constInstr("b", 3),
		valueInstr("c", "add", "a", "b"),
		&ir.EffectInstr{Op: ir.OpPrint, ArgNames: []string{"c"}},
	}}

	changed := runLVN(t, fn)
	require.True(t, changed)

	c, ok := fn.Code[2].(*ir.ConstInstr)
	require.True(t, ok, "expected add to fold to a const, got %T", fn.Code[2])
	assert.Equal(t, ir.Int(5), c.Value)
}

func TestEliminatesRedundantComputation(t *testing.T) {
	fn := &ir.Function{Name: "main", Code: []ir.Code{
		&ir.ValueInstr{DestName: "x", DeclType: intT(), Op: ir.OpID, ArgNames: []string{"p"}},
		&ir.ValueInstr{DestName: "y", DeclType: intT(), Op: ir.OpID, ArgNames: []string{"p"}},
		valueInstr("sum1", "add", "x", "p"),
		valueInstr("sum2", "add", "y", "p"),
		&ir.EffectInstr{Op: ir.OpPrint, ArgNames: []string{"sum1", "sum2"}},
	}, Args: []ir.Parameter{{Name: "p", Type: intT()}}}

	changed := runLVN(t, fn)
	require.True(t, changed)

	sum2, ok := fn.Code[3].(*ir.ValueInstr)
	require.True(t, ok)
	assert.Equal(t, ir.OpID, sum2.Op)
	assert.Equal(t, []string{"sum1"}, sum2.ArgNames)
}

func TestCommutativeArgumentOrderDoesNotMatter(t *testing.T) {
	fn := &ir.Function{Name: "main", Code: []ir.Code{
		valueInstr("s1", "add", "a", "b"),
		valueInstr("s2", "add", "b", "a"),
		&ir.EffectInstr{Op: ir.OpPrint, ArgNames: []string{"s1", "s2"}},
	}, Args: []ir.Parameter{{Name: "a", Type: intT()}, {Name: "b", Type: intT()}}}

	changed := runLVN(t, fn)
	require.True(t, changed)

	s2, ok := fn.Code[1].(*ir.ValueInstr)
	require.True(t, ok)
	assert.Equal(t, ir.OpID, s2.Op)
	assert.Equal(t, []string{"s1"}, s2.ArgNames)
}

func TestClobberRenamesEarlierRedundantDefinition(t *testing.T) {
	fn := &ir.Function{Name: "main", Code: []ir.Code{
		valueInstr("x", "add", "a", "b"),
		valueInstr("y", "add", "a", "b"), // redundant with x, but x is reassigned below
		valueInstr("x", "mul", "a", "b"), // clobbers x with a new value
		&ir.EffectInstr{Op: ir.OpPrint, ArgNames: []string{"x", "y"}},
	}, Args: []ir.Parameter{{Name: "a", Type: intT()}, {Name: "b", Type: intT()}}}

	changed := runLVN(t, fn)
	require.True(t, changed)

	first, ok := fn.Code[0].(*ir.ValueInstr)
	require.True(t, ok)
	assert.NotEqual(t, "x", first.DestName, "a row whose name will be reassigned later in the block must be clobbered off that name")

	y, ok := fn.Code[1].(*ir.ValueInstr)
	require.True(t, ok)
	assert.Equal(t, ir.OpID, y.Op)
	assert.Equal(t, []string{first.DestName}, y.ArgNames, "y must alias the renamed row, not the stale name x (which the third instruction reassigns to mul's result)")

	third, ok := fn.Code[2].(*ir.ValueInstr)
	require.True(t, ok)
	assert.Equal(t, "x", third.DestName)
	assert.Equal(t, "mul", third.Op)
}

// TestRedundantHitOnAReassignedDestinationDoesNotSelfReference exercises
// the existed==true && lastWrite[dest]>i path specifically: the second
// instruction is a redundant recomputation (aliasing the row the first
// instruction created) whose own destination is reassigned later in the
// block. buildRef must copy from the row's pre-clobber representative
// ("a"), not from the clobber's brand-new, as-yet-unwritten name — a
// prior bug built the reference after the clobber ran and produced a
// self-referential `newName = id newName` that reads its own value
// before ever writing it.
func TestRedundantHitOnAReassignedDestinationDoesNotSelfReference(t *testing.T) {
	fn := &ir.Function{Name: "main", Code: []ir.Code{
		valueInstr("a", "add", "x", "y"),
		valueInstr("c", "add", "x", "y"), // redundant with a, but c is reassigned below
		constInstr("c", 9),
		&ir.EffectInstr{Op: ir.OpPrint, ArgNames: []string{"c"}},
	}, Args: []ir.Parameter{{Name: "x", Type: intT()}, {Name: "y", Type: intT()}}}

	changed := runLVN(t, fn)
	require.True(t, changed)

	second, ok := fn.Code[1].(*ir.ValueInstr)
	require.True(t, ok)
	assert.Equal(t, ir.OpID, second.Op)
	assert.NotEqual(t, second.DestName, "c", "the clobbered row must not keep the name c, since c is reassigned next")
	require.Len(t, second.ArgNames, 1)
	assert.Equal(t, "a", second.ArgNames[0], "must copy from the name that already holds the value, not from its own (not yet written) clobbered name")
	assert.NotEqual(t, second.DestName, second.ArgNames[0], "must never read the value from the same name it is about to write")

	third, ok := fn.Code[2].(*ir.ConstInstr)
	require.True(t, ok)
	assert.Equal(t, "c", third.DestName)
	assert.Equal(t, ir.Int(9), third.Value)

	printInstr, ok := fn.Code[3].(*ir.EffectInstr)
	require.True(t, ok)
	assert.Equal(t, []string{"c"}, printInstr.ArgNames, "print must still read the literal 9, unaffected by the renamed alias")
}

func TestLoadIsNeverTreatedAsRedundant(t *testing.T) {
	fn := &ir.Function{Name: "main", Code: []ir.Code{
		valueInstr("a", ir.OpLoad, "p"),
		valueInstr("b", ir.OpLoad, "p"),
		&ir.EffectInstr{Op: ir.OpPrint, ArgNames: []string{"a", "b"}},
	}, Args: []ir.Parameter{{Name: "p", Type: ir.PtrType{Elem: intT()}}}}

	changed := runLVN(t, fn)
	assert.False(t, changed)

	b, ok := fn.Code[1].(*ir.ValueInstr)
	require.True(t, ok)
	assert.Equal(t, ir.OpLoad, b.Op)
}

func TestDivisionByKnownZeroRaisesFoldError(t *testing.T) {
	fn := &ir.Function{Name: "main", Code: []ir.Code{
		constInstr("a", 1),
		constInstr("z", 0),
		valueInstr("bad", "div", "a", "z"),
	}}

	p := lvn.NewPass()
	require.NoError(t, p.Before(fn))
	_, err := p.RunFunction(fn)
	require.Error(t, err)
	var ferr *ir.FoldError
	assert.ErrorAs(t, err, &ferr)
}

func TestResetsValueTablePerBlock(t *testing.T) {
	fn := &ir.Function{Name: "main", Code: []ir.Code{
		valueInstr("x", "add", "a", "b"),
		&ir.EffectInstr{Op: ir.OpJump, LabelRefs: []string{"next"}},
		&ir.Label{Name: "next"},
		valueInstr("y", "add", "a", "b"),
		&ir.EffectInstr{Op: ir.OpPrint, ArgNames: []string{"x", "y"}},
	}, Args: []ir.Parameter{{Name: "a", Type: intT()}, {Name: "b", Type: intT()}}}

	changed := runLVN(t, fn)
	assert.False(t, changed, "the second add is in a different block and must not be treated as redundant")

	y, ok := fn.Code[3].(*ir.ValueInstr)
	require.True(t, ok)
	assert.Equal(t, "add", y.Op)
}
