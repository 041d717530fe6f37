package pass_test

import (
	"errors"
	"testing"

	"brilkit/internal/ir"
	"brilkit/internal/pass"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPass struct {
	runs    int
	stopAt  int
	changes []bool
}

func (p *countingPass) Name() string        { return "counting" }
func (p *countingPass) Description() string { return "counts its own invocations" }

func (p *countingPass) Run(prog *ir.Program) (bool, error) {
	changed := p.runs < p.stopAt
	p.runs++
	return changed, nil
}

func TestRunToFixedPointStopsWhenNoChange(t *testing.T) {
	p := &countingPass{stopAt: 3}
	iterations, err := pass.RunToFixedPoint(p, &ir.Program{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, iterations) // 3 changed runs + 1 confirming no-change run
}

func TestRunToFixedPointRespectsLimit(t *testing.T) {
	p := &countingPass{stopAt: 100}
	iterations, err := pass.RunToFixedPoint(p, &ir.Program{}, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, iterations)
}

type erroringPass struct{}

func (erroringPass) Name() string            { return "erroring" }
func (erroringPass) Description() string     { return "always fails" }
func (erroringPass) Run(*ir.Program) (bool, error) {
	return false, errors.New("boom")
}

func TestPipelineStopsAtFirstError(t *testing.T) {
	p := pass.NewPipeline(&countingPass{stopAt: 1}, erroringPass{}, &countingPass{stopAt: 1})
	results, err := p.Run(&ir.Program{})
	require.Error(t, err)
	assert.Len(t, results, 1)
}

type funcPass struct{ visited []string }

func (p *funcPass) Name() string        { return "visitor" }
func (p *funcPass) Description() string { return "records visited function names" }
func (p *funcPass) Before(fn *ir.Function) error { return nil }
func (p *funcPass) After(fn *ir.Function) error  { return nil }

func (p *funcPass) RunFunction(fn *ir.Function) (bool, error) {
	p.visited = append(p.visited, fn.Name)
	return false, nil
}

func TestRunAsPassVisitsEveryFunction(t *testing.T) {
	fp := &funcPass{}
	prog := &ir.Program{Functions: []*ir.Function{{Name: "a"}, {Name: "b"}}}

	_, err := pass.RunAsPass(fp).Run(prog)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, fp.visited)
}
