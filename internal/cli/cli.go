// Package cli implements the plumbing every cmd/<pass> executable
// shares: the common flag set spec.md §6 names (-f/--file, -t/--text,
// -l/--length, -p/--profile), JSON/text input dispatch (running the IR
// verifier before handing a program to a pass, the way
// original_source/lessons/12's brilitrace always runs
// brilirs::check::type_check first), JSON output, and the standard
// 0/1/2 exit-code/diagnostic-rendering convention from spec.md §7.
//
// Grounded on the teacher's cmd/kanso-cli/main.go (read file, parse,
// report-or-succeed, colourised banner) generalised from a single
// hand-rolled os.Args[1] positional argument into a shared flag.FlagSet
// every pass executable builds the same way.
package cli

import (
	"io"
	"os"

	"github.com/fatih/color"

	"brilkit/internal/ir"
	"brilkit/internal/ir/check"
	irerrors "brilkit/internal/ir/errors"
	"brilkit/internal/surface"

	"flag"
)

// Flags holds the shared flag set. Not every executable uses every
// field (Length/Profile matter only to cmd/trace), but registering the
// full common set on every pass keeps their usage lines consistent,
// matching the teacher's single "kanso <file.ka>" shape reused
// verbatim across kanso-cli and kanso-lsp.
type Flags struct {
	File    string
	Text    bool
	Length  int
	Profile bool
}

// RegisterFlags wires the shared flags onto fs. Go's flag package has
// no alias mechanism, so each of spec.md's short/long spellings gets
// its own registration pointing at the same field.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{Length: 100}
	fs.StringVar(&f.File, "f", "", "program path (default stdin)")
	fs.StringVar(&f.File, "file", "", "program path (default stdin)")
	fs.BoolVar(&f.Text, "t", false, "input is textual IR")
	fs.BoolVar(&f.Text, "text", false, "input is textual IR")
	fs.IntVar(&f.Length, "l", 100, "maximum trace length")
	fs.IntVar(&f.Length, "length", 100, "maximum trace length")
	fs.BoolVar(&f.Profile, "p", false, "reserved")
	fs.BoolVar(&f.Profile, "profile", false, "reserved")
	return f
}

// ReadSource reads the program text from f.File, or from stdin when
// f.File is empty, returning the name to use in diagnostics alongside
// the raw bytes.
func ReadSource(f *Flags, stdin io.Reader) (filename string, source []byte, err error) {
	if f.File == "" {
		data, err := io.ReadAll(stdin)
		return "<stdin>", data, err
	}
	data, err := os.ReadFile(f.File)
	return f.File, data, err
}

// LoadProgram decodes source as JSON, or — when f.Text is set — parses
// it as textual IR via internal/surface, then runs the IR verifier
// (internal/ir/check) before returning it. A verifier failure reports
// only its first violation, since spec.md §7 treats a TypeError/
// LabelError as fatal rather than something a pipeline should try to
// recover from.
func LoadProgram(f *Flags, filename string, source []byte) (*ir.Program, error) {
	var prog *ir.Program
	var err error
	if f.Text {
		prog, err = surface.Parse(filename, string(source))
	} else {
		prog, err = ir.Decode(source)
	}
	if err != nil {
		return nil, err
	}
	if errs := check.Check(prog); len(errs) > 0 {
		return nil, errs[0]
	}
	return prog, nil
}

// WriteProgram writes prog back out as JSON, the shape every pass
// executable produces on stdout.
func WriteProgram(w io.Writer, prog *ir.Program) error {
	data, err := ir.Encode(prog)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Fail renders err as a caret-underlined diagnostic against source and
// terminates the process with the exit code spec.md §7 assigns its
// kind (2 for a parse/type/label failure, 1 for anything else a pass
// raises), mirroring the teacher's reportParseError + os.Exit(1).
func Fail(filename string, source []byte, err error) {
	diag, code := irerrors.FromErr(err)
	reporter := irerrors.NewReporter(filename, string(source))
	io.WriteString(os.Stderr, reporter.Format(diag))
	os.Exit(code)
}

// Success prints a colourised confirmation banner, matching the
// teacher's color.Green("✅ Successfully processed %s", path) habit.
func Success(format string, args ...interface{}) {
	color.Green(format, args...)
}
