// Command from-ssa destructs shadow-variable SSA form back to ordinary
// mutable-variable form (component M), writing the result back out as
// JSON.
package main

import (
	"flag"
	"fmt"
	"os"

	"brilkit/internal/cli"
	"brilkit/internal/ssa"
)

func main() {
	fs := flag.NewFlagSet("from-ssa", flag.ExitOnError)
	flags := cli.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	filename, source, err := cli.ReadSource(flags, os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	prog, err := cli.LoadProgram(flags, filename, source)
	if err != nil {
		cli.Fail(filename, source, err)
	}

	for _, fn := range prog.Functions {
		ssa.FromSSA(fn)
	}

	if err := cli.WriteProgram(os.Stdout, prog); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cli.Success("destructed SSA form in %s", filename)
}
