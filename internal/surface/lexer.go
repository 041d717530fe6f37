package surface

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenises the textual IR surface syntax. Grounded on the
// teacher's grammar.KansoLexer: a single stateful "Root" state, longest-
// match-first ordering (Float before Integer so "4.5" isn't split),
// comments and whitespace elided at the parser boundary rather than
// here.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Float", `-?[0-9]+\.[0-9]+`, nil},
		{"Integer", `-?[0-9]+`, nil},
		{"Char", `'[^']'`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Punctuation", `[@.:;,=\{\}\(\)<>]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
