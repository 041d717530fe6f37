package trace

// Interpreter is the external collaborator cmd/trace links against to
// produce one dynamic execution of a program's "main" function:
// component N (this package) only records and splices a trace, it
// never executes IR itself — driving execution is someone else's job,
// per spec.md's separation between the trace recorder and the
// interpreter that calls Push at each step.
//
// internal/refinterp.Interpreter implements this contract; a real bril
// interpreter would too, but building one is out of scope (spec.md's
// Non-goals).
type Interpreter interface {
	// ExecuteMain runs main until it completes, the trace recorder's
	// length budget is spent, or the recorder refuses an instruction,
	// returning the recorded trace and the (block, instruction)
	// coordinates at which recording stopped.
	ExecuteMain(maxLen int, argv []string) (*Trace, int, int, error)
}
