package dataflow_test

import (
	"testing"

	"brilkit/internal/block"
	"brilkit/internal/cfg"
	"brilkit/internal/dataflow"
	"brilkit/internal/ir"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diamondProgram = `{
  "functions": [
    {
      "name": "main",
      "args": [{"name": "a", "type": "int"}],
      "instrs": [
        {"op": "const", "dest": "one", "type": "int", "value": 1},
        {"op": "gt", "dest": "cond", "type": "bool", "args": ["a", "one"]},
        {"op": "br", "args": ["cond"], "labels": ["left", "right"]},
        {"label": "left"},
        {"op": "const", "dest": "x", "type": "int", "value": 2},
        {"op": "jmp", "labels": ["join"]},
        {"label": "right"},
        {"op": "const", "dest": "x", "type": "int", "value": 3},
        {"label": "join"},
        {"op": "print", "args": ["x"]},
        {"op": "ret"}
      ]
    }
  ]
}`

func buildCFG(t *testing.T) *cfg.CFG {
	t.Helper()
	prog, err := ir.Decode([]byte(diamondProgram))
	require.NoError(t, err)
	bf := block.FromFunction(prog.Functions[0])
	g, err := cfg.Build(bf)
	require.NoError(t, err)
	return g
}

func TestReachingDefsPropagatesArgIntoEntry(t *testing.T) {
	g := buildCFG(t)
	res := dataflow.Run[dataflow.DefSet](g, dataflow.ReachingDefs{})

	_, ok := res.In[0][dataflow.Definition{Name: "a", Block: 0}]
	assert.True(t, ok)
}

func TestReachingDefsKillsOnRedefinition(t *testing.T) {
	g := buildCFG(t)
	res := dataflow.Run[dataflow.DefSet](g, dataflow.ReachingDefs{})

	joinIdx, ok := g.Func.BlockIndex("join")
	require.True(t, ok)

	_, fromLeft := res.In[joinIdx][dataflow.Definition{Name: "x", Block: 1}]
	_, fromRight := res.In[joinIdx][dataflow.Definition{Name: "x", Block: 2}]
	assert.True(t, fromLeft)
	assert.True(t, fromRight)
}

func TestLiveVarsIsBackward(t *testing.T) {
	g := buildCFG(t)
	res := dataflow.Run[dataflow.StringSet](g.Reverse(), dataflow.LiveVars{})

	leftIdx, ok := g.Func.BlockIndex("left")
	require.True(t, ok)
	_, live := res.Out[leftIdx]["x"]
	assert.False(t, live, "x is defined in left, not read before that, so it is not live-in to left")

	_, condLiveIn := res.Out[0]["cond"]
	assert.False(t, condLiveIn, "cond is defined and consumed inside block 0, so it is not live-in to it")
}

func TestAvailableExprIntersectsAtJoin(t *testing.T) {
	g := buildCFG(t)
	res := dataflow.Run[dataflow.ExprSet](g, dataflow.AvailableExpr{})

	joinIdx, ok := g.Func.BlockIndex("join")
	require.True(t, ok)
	assert.False(t, res.In[joinIdx].Full)
}

func TestConstPropFoldsThroughFold(t *testing.T) {
	fold := func(instr ir.Instr, lookup func(string) (ir.Literal, bool)) (ir.Literal, bool) {
		if c, ok := instr.(*ir.ConstInstr); ok {
			return c.Value, true
		}
		return ir.Literal{}, false
	}

	g := buildCFG(t)
	res := dataflow.Run[dataflow.ConstMap](g, dataflow.ConstProp{Fold: fold})

	v, ok := res.Out[0]["one"]
	require.True(t, ok)
	assert.Equal(t, dataflow.Const(ir.Int(1)), v)
}
