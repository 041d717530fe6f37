package dom_test

import (
	"testing"

	"brilkit/internal/block"
	"brilkit/internal/cfg"
	"brilkit/internal/dom"
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

func buildTree(t *testing.T, src string) (*dom.Tree, *block.Function) {
	t.Helper()
	prog, err := ir.Decode([]byte(src))
	require.NoError(t, err)
	bf := block.FromFunction(prog.Functions[0])
	g, err := cfg.Build(bf)
	require.NoError(t, err)
	return dom.Build(g), bf
}

func TestEntryDominatesEverything(t *testing.T) {
	tree, bf := buildTree(t, diamondProgram)
	for i := 0; i < bf.Len(); i++ {
		assert.True(t, tree.Dominates(0, i))
	}
}

func TestJoinIsNotDominatedByEitherBranch(t *testing.T) {
	tree, bf := buildTree(t, diamondProgram)
	leftIdx, _ := bf.BlockIndex("left")
	rightIdx, _ := bf.BlockIndex("right")
	joinIdx, _ := bf.BlockIndex("join")

	assert.False(t, tree.StrictlyDominates(leftIdx, joinIdx))
	assert.False(t, tree.StrictlyDominates(rightIdx, joinIdx))
	assert.Equal(t, 0, tree.ImmediateDom(joinIdx))
}

func TestDominanceFrontierOfBranchIncludesJoin(t *testing.T) {
	tree, bf := buildTree(t, diamondProgram)
	leftIdx, _ := bf.BlockIndex("left")
	joinIdx, _ := bf.BlockIndex("join")

	_, ok := tree.DominanceFrontier(leftIdx)[joinIdx]
	assert.True(t, ok)
}

func TestExitRowReflectsAllReturnPaths(t *testing.T) {
	tree, bf := buildTree(t, diamondProgram)
	exitIdx := tree.ExitIdx()
	assert.Equal(t, bf.Len(), exitIdx)

	assert.True(t, tree.Dominates(0, exitIdx))
}

// P2: an unreachable block dominates nothing and is dominated by
// nothing but itself, since no path from the entry ever reaches it.
const unreachableProgram = `{
  "functions": [
    {
      "name": "main",
      "instrs": [
        {"op": "ret"},
        {"label": "dead"},
        {"op": "const", "dest": "z", "type": "int", "value": 0},
        {"op": "ret"}
      ]
    }
  ]
}`

func TestUnreachableBlockIsNotDominatedByEntry(t *testing.T) {
	tree, bf := buildTree(t, unreachableProgram)
	deadIdx, ok := bf.BlockIndex("dead")
	require.True(t, ok)

	assert.False(t, tree.Dominates(0, deadIdx))
	assert.Empty(t, tree.StrictDoms(deadIdx))
}
