// Package pass defines the toolkit's pass framework: whole-program
// transformations, per-function transformations, and read-only
// analyses, plus a pipeline runner that sequences them and reports what
// changed. Generalised from the teacher's OptimizationPass/
// OptimizationPipeline shape (internal/ir/optimizations.go) from a
// single flat interface into three roles, since the spec distinguishes
// analyses (which must not mutate) from transformations.
package pass

import (
	"fmt"

	"brilkit/internal/ir"
)

// Pass is a whole-program transformation.
type Pass interface {
	Name() string
	Description() string
	// Run transforms prog in place and reports whether it changed
	// anything.
	Run(prog *ir.Program) (bool, error)
}

// FunctionPass is a transformation applied one function at a time, with
// hooks a pass can use to do setup/teardown work once per function
// around its per-block transform.
type FunctionPass interface {
	Name() string
	Description() string
	Before(fn *ir.Function) error
	RunFunction(fn *ir.Function) (bool, error)
	After(fn *ir.Function) error
}

// RunAsPass adapts a FunctionPass into a whole-program Pass.
func RunAsPass(fp FunctionPass) Pass { return &functionPassAdapter{fp} }

type functionPassAdapter struct{ fp FunctionPass }

func (a *functionPassAdapter) Name() string        { return a.fp.Name() }
func (a *functionPassAdapter) Description() string { return a.fp.Description() }

func (a *functionPassAdapter) Run(prog *ir.Program) (bool, error) {
	changed := false
	for _, fn := range prog.Functions {
		if err := a.fp.Before(fn); err != nil {
			return changed, fmt.Errorf("%s: %w", a.fp.Name(), err)
		}
		fnChanged, err := a.fp.RunFunction(fn)
		if err != nil {
			return changed, fmt.Errorf("%s: %w", a.fp.Name(), err)
		}
		changed = changed || fnChanged
		if err := a.fp.After(fn); err != nil {
			return changed, fmt.Errorf("%s: %w", a.fp.Name(), err)
		}
	}
	return changed, nil
}

// AnalysisPass is a read-only pass that produces a result without
// mutating the program; its Run signature intentionally has no "changed"
// return, since an analysis never changes anything by definition.
type AnalysisPass[Result any] interface {
	Name() string
	Run(prog *ir.Program) (Result, error)
}

// Pipeline sequences passes and reports, for each, whether it fired.
// Grounded on the teacher's OptimizationPipeline.Run: iterate passes in
// registration order, run each, and note whether it changed the
// program — generalised to propagate errors instead of only booleans,
// since this toolkit's passes raise typed errors (FoldError, TypeError)
// the teacher's gas-focused passes never needed to.
type Pipeline struct {
	passes []Pass
}

// NewPipeline builds an empty pipeline; passes run in the order added.
func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes}
}

// Add appends a pass to the pipeline.
func (p *Pipeline) Add(pass Pass) { p.passes = append(p.passes, pass) }

// StepResult reports one pass's outcome.
type StepResult struct {
	Name    string
	Changed bool
}

// Run executes every pass in order against prog, stopping at the first
// error.
func (p *Pipeline) Run(prog *ir.Program) ([]StepResult, error) {
	results := make([]StepResult, 0, len(p.passes))
	for _, pass := range p.passes {
		changed, err := pass.Run(prog)
		if err != nil {
			return results, fmt.Errorf("%s: %w", pass.Name(), err)
		}
		results = append(results, StepResult{Name: pass.Name(), Changed: changed})
	}
	return results, nil
}

// RunToFixedPoint repeats pass until it reports no change, or until
// limit iterations have run (0 means unbounded), mirroring the original
// implementation's tdce.rs loop ("while changes are made, repeat").
// TDCE's global sweep runs its own loop of that shape inside
// tdce.Pass.Before rather than calling this function.
func RunToFixedPoint(pass Pass, prog *ir.Program, limit int) (int, error) {
	iterations := 0
	for limit == 0 || iterations < limit {
		changed, err := pass.Run(prog)
		iterations++
		if err != nil {
			return iterations, err
		}
		if !changed {
			break
		}
	}
	return iterations, nil
}
