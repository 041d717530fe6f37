package surface

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"

	"brilkit/internal/ir"
)

var parser = participle.MustBuild[Program](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// Parse lexes and parses textual IR source into an ir.Program, the same
// shape the JSON decoder produces. filename is used only for position
// reporting.
//
// Grounded on the teacher's grammar.ParseFile: a single participle
// parser built once at package init (the grammar never changes at
// runtime), a participle.Error recovered into the toolkit's own
// *ir.ParseError rather than the teacher's reportParseError/color
// console write, so the caller (internal/cli) decides how and whether
// to render it.
func Parse(filename, source string) (*ir.Program, error) {
	prog, err := parser.ParseString(filename, source)
	if err != nil {
		if pe, ok := err.(participle.Error); ok {
			pos := pe.Position()
			return nil, &ir.ParseError{Msg: pe.Message(), Position: &ir.Position{Line: pos.Line, Column: pos.Column}}
		}
		return nil, &ir.ParseError{Msg: err.Error()}
	}
	return convert(prog)
}

// ParseFile reads path and parses it as textual IR.
func ParseFile(path string) (*ir.Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, string(source))
}
