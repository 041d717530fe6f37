// Command to-ssa converts every function in a program to shadow-
// variable SSA form (component M), writing the result back out as
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
	fs := flag.NewFlagSet("to-ssa", flag.ExitOnError)
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
		if err := ssa.ToSSA(fn); err != nil {
			cli.Fail(filename, source, err)
		}
	}

	if err := cli.WriteProgram(os.Stdout, prog); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cli.Success("converted %s to SSA form", filename)
}
