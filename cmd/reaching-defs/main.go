// Command reaching-defs runs the reaching-definitions dataflow analysis
// (spec.md §4.F) over every function in a program and prints each
// block's in/out definition sets.
package main

import (
	"flag"
	"fmt"
	"os"

	"brilkit/internal/block"
	"brilkit/internal/cfg"
	"brilkit/internal/cli"
	"brilkit/internal/dataflow"
)

func main() {
	fs := flag.NewFlagSet("reaching-defs", flag.ExitOnError)
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
		bf := block.FromFunction(fn)
		g, err := cfg.Build(bf)
		if err != nil {
			cli.Fail(filename, source, err)
		}
		result := dataflow.Run[dataflow.DefSet](g, dataflow.ReachingDefs{})
		fmt.Print(dataflow.Format(result, fn.Name, func(v dataflow.DefSet) string { return v.String() }))
	}
}
