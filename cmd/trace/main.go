// Command trace drives the reference interpreter over a program's
// "main" function, records one dynamic execution path, and splices the
// recorded trace back into main as a speculate/commit guarded region —
// the toolkit's analogue of brilitrace.
package main

import (
	"flag"
	"fmt"
	"os"

	"brilkit/internal/cli"
	"brilkit/internal/refinterp"
	"brilkit/internal/trace"
)

func main() {
	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	flags := cli.RegisterFlags(fs)
	fs.Parse(os.Args[1:])
	argv := fs.Args()

	filename, source, err := cli.ReadSource(flags, os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	prog, err := cli.LoadProgram(flags, filename, source)
	if err != nil {
		cli.Fail(filename, source, err)
	}

	mainFn := prog.FuncByName("main")
	if mainFn == nil {
		fmt.Fprintln(os.Stderr, "program has no main function to trace")
		os.Exit(1)
	}

	interp := refinterp.New(prog)
	var collaborator trace.Interpreter = interp
	tr, bbidx, iidx, err := collaborator.ExecuteMain(flags.Length, argv)
	if err != nil {
		cli.Fail(filename, source, err)
	}

	tracedCode := tr.Take()
	trace.Splice(mainFn, tracedCode, bbidx, iidx)

	if err := cli.WriteProgram(os.Stdout, prog); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cli.Success("traced %d instruction(s) into main", len(tracedCode))
}
