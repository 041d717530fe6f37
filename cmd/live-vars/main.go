// Command live-vars runs the live-variables dataflow analysis (spec.md
// §4.F) over every function in a program and prints each block's
// in/out live-variable sets. Live variables is a backward analysis, so
// it runs against cfg.Reverse().
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
	fs := flag.NewFlagSet("live-vars", flag.ExitOnError)
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
		result := dataflow.Run[dataflow.StringSet](g.Reverse(), dataflow.LiveVars{})
		fmt.Print(dataflow.Format(result, fn.Name, func(v dataflow.StringSet) string { return v.String() }))
	}
}
