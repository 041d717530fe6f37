package ir

import "fmt"

// The error kinds named in the toolkit's error-handling design. Each is a
// plain Go error so callers can use errors.As to recover the positional
// detail needed for a caret diagnostic (see internal/ir/errors for the
// rendering side).

// ParseError reports malformed IR.
type ParseError struct {
	Msg      string
	Position *Position
}

func (e *ParseError) Error() string { return "parse error: " + e.Msg }

// TypeError reports IR that does not satisfy the declared-type contract.
type TypeError struct {
	Msg      string
	Position *Position
}

func (e *TypeError) Error() string { return "type error: " + e.Msg }

// LabelError reports a jump/branch/guard that references an unknown label.
type LabelError struct {
	Label    string
	Position *Position
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("undefined label %q", e.Label)
}

// FoldError reports a fold-time failure. The folding table raises it
// only for integer division by a constant zero (fold.EvalOrError); an
// operand type mismatch does not raise it, the table just declines to
// fold.
type FoldError struct {
	Msg string
}

func (e *FoldError) Error() string { return "fold error: " + e.Msg }

// TraceError reports an attempt to trace an impure or memory-touching
// instruction, or a push to a recorder that is already done; a push past
// the length budget returns ErrFull instead. TraceError does not abort a
// pass pipeline: the recorder marks itself done and returns its partial
// trace.
type TraceError struct {
	Msg string
}

func (e *TraceError) Error() string { return "trace error: " + e.Msg }

// ErrFull reports that the trace recorder is at capacity.
type ErrFull struct{}

func (ErrFull) Error() string { return "trace is full" }
