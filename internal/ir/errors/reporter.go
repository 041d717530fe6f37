// Package errors renders the toolkit's diagnostics: a caret-underlined,
// colourised error format carried over from the teacher's
// internal/errors package, generalised from ast.Position to ir.Position
// (and from a source-language AST's error codes to the IR error kinds
// named in the spec's error-handling design).
package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"brilkit/internal/ir"
)

// ErrorLevel is the severity of a diagnostic.
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// Diagnostic is a structured, positional compiler error.
type Diagnostic struct {
	Level    ErrorLevel
	Code     string
	Message  string
	Position *ir.Position
	Length   int
	Notes    []string
	HelpText string
}

// Reporter formats diagnostics against a single source text, the way
// the teacher's ErrorReporter formats against one file's lines.
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter builds a reporter for the given filename/source pair. When
// source is empty (no textual form is available, e.g. a pure-JSON
// pipeline), diagnostics are still rendered but without a source-line
// context.
func NewReporter(filename, source string) *Reporter {
	var lines []string
	if source != "" {
		lines = strings.Split(source, "\n")
	}
	return &Reporter{filename: filename, lines: lines}
}

// Format renders a diagnostic as a multi-line, colourised report.
func (r *Reporter) Format(d Diagnostic) string {
	var out strings.Builder

	levelColor := r.levelColor(d.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if d.Code != "" {
		out.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(d.Level)), d.Code, d.Message))
	} else {
		out.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(d.Level)), d.Message))
	}

	if d.Position == nil {
		out.WriteString("\n")
		return out.String()
	}

	width := r.lineNumberWidth(d.Position.Line)
	indent := strings.Repeat(" ", width)

	out.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n", indent, dim("-->"), r.filename, d.Position.Line, d.Position.Column))
	out.WriteString(fmt.Sprintf("%s %s\n", indent, dim("|")))

	if d.Position.Line > 0 && d.Position.Line <= len(r.lines) {
		line := r.lines[d.Position.Line-1]
		out.WriteString(fmt.Sprintf("%s %s %s\n", bold(fmt.Sprintf("%*d", width, d.Position.Line)), dim("|"), line))
		out.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("|"), r.marker(d.Position.Column, d.Length, d.Level)))
	}

	for _, note := range d.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		out.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("|"), noteColor("note:"), note))
	}

	if d.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		out.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("|"), helpColor("help:"), d.HelpText))
	}

	out.WriteString("\n")
	return out.String()
}

func (r *Reporter) levelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func (r *Reporter) marker(column, length int, level ErrorLevel) string {
	if length <= 0 {
		length = 1
	}
	spaces := strings.Repeat(" ", max(0, column-1))

	c := color.New(color.FgRed, color.Bold).SprintFunc()
	if level == Warning {
		c = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return spaces + c(strings.Repeat("^", length))
}

func (r *Reporter) lineNumberWidth(line int) int {
	w := len(fmt.Sprintf("%d", line))
	if w < 3 {
		w = 3
	}
	return w
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// FromErr maps one of the toolkit's ir error kinds onto a diagnostic and
// the process exit code the spec's error-handling design assigns it:
// 2 for ParseError/TypeError/LabelError (fatal, positional), 1 for
// anything else a pass raises. FoldError is always fatal (exit 1, not
// reported positionally). TraceError never reaches
// here: the trace recorder absorbs it and returns a partial trace.
func FromErr(err error) (Diagnostic, int) {
	switch e := err.(type) {
	case *ir.ParseError:
		return Diagnostic{Level: Error, Code: "E0100", Message: e.Msg, Position: e.Position}, 2
	case *ir.TypeError:
		return Diagnostic{Level: Error, Code: "E0003", Message: e.Msg, Position: e.Position}, 2
	case *ir.LabelError:
		return Diagnostic{Level: Error, Code: "E0601", Message: e.Error(), Position: e.Position}, 2
	case *ir.FoldError:
		return Diagnostic{Level: Error, Code: "E0700", Message: e.Msg}, 1
	default:
		return Diagnostic{Level: Error, Message: err.Error()}, 1
	}
}
