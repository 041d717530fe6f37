package ir_test

import (
	"testing"

	"brilkit/internal/ir"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addProgram = `{
  "functions": [
    {
      "name": "main",
      "args": [{"name": "a", "type": "int"}],
      "instrs": [
        {"op": "const", "dest": "b", "type": "int", "value": 3},
        {"op": "add", "dest": "c", "type": "int", "args": ["a", "b"]},
        {"op": "print", "args": ["c"]},
        {"op": "ret"}
      ]
    }
  ]
}`

func TestDecodeDecodesConstValueEffect(t *testing.T) {
	prog, err := ir.Decode([]byte(addProgram))
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)

	fn := prog.Functions[0]
	assert.Equal(t, "main", fn.Name)
	require.Len(t, fn.Args, 1)
	assert.Equal(t, "a", fn.Args[0].Name)
	assert.Equal(t, ir.IntType{}, fn.Args[0].Type)
	require.Len(t, fn.Code, 4)

	c, ok := fn.Code[0].(*ir.ConstInstr)
	require.True(t, ok)
	assert.Equal(t, ir.Int(3), c.Value)

	v, ok := fn.Code[1].(*ir.ValueInstr)
	require.True(t, ok)
	assert.Equal(t, "add", v.Op)
	assert.True(t, v.IsPure())
	assert.True(t, v.IsCommutative())
	assert.Equal(t, []string{"a", "b"}, v.Args())

	e, ok := fn.Code[2].(*ir.EffectInstr)
	require.True(t, ok)
	assert.False(t, e.IsPure())

	r, ok := fn.Code[3].(*ir.EffectInstr)
	require.True(t, ok)
	assert.True(t, r.IsTerminator())
}

func TestEncodeDecodeRoundTrips(t *testing.T) {
	prog, err := ir.Decode([]byte(addProgram))
	require.NoError(t, err)

	out, err := ir.Encode(prog)
	require.NoError(t, err)

	prog2, err := ir.Decode(out)
	require.NoError(t, err)

	require.Equal(t, len(prog.Functions), len(prog2.Functions))
	assert.Equal(t, prog.Functions[0].Name, prog2.Functions[0].Name)
	assert.Equal(t, len(prog.Functions[0].Code), len(prog2.Functions[0].Code))
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := ir.Decode([]byte(`{"functions":[{"name":"f","args":[{"name":"a","type":"weird"}],"instrs":[]}]}`))
	require.Error(t, err)
	var perr *ir.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestPtrTypeRoundTrips(t *testing.T) {
	src := `{"functions":[{"name":"f","args":[{"name":"p","type":{"ptr":"int"}}],"instrs":[]}]}`
	prog, err := ir.Decode([]byte(src))
	require.NoError(t, err)

	pt, ok := prog.Functions[0].Args[0].Type.(ir.PtrType)
	require.True(t, ok)
	assert.Equal(t, ir.IntType{}, pt.Elem)

	out, err := ir.Encode(prog)
	require.NoError(t, err)
	prog2, err := ir.Decode(out)
	require.NoError(t, err)
	assert.True(t, prog.Functions[0].Args[0].Type.Equal(prog2.Functions[0].Args[0].Type))
}

func TestFormatProgramPrintsTextualForm(t *testing.T) {
	prog, err := ir.Decode([]byte(addProgram))
	require.NoError(t, err)

	out := ir.FormatProgram(prog)
	assert.Contains(t, out, "@main(a: int)")
	assert.Contains(t, out, "const 3")
	assert.Contains(t, out, "add a b")
}
