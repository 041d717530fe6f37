// Command const-prop runs the constant-propagation dataflow analysis
// (spec.md §4.F) over every function in a program and prints each
// block's in/out constant maps. Folding reuses internal/fold's table so
// the lattice's notion of "constant" matches LVN/TDCE/trace exactly.
package main

import (
	"flag"
	"fmt"
	"os"

	"brilkit/internal/block"
	"brilkit/internal/cfg"
	"brilkit/internal/cli"
	"brilkit/internal/dataflow"
	"brilkit/internal/fold"
	"brilkit/internal/ir"
)

func main() {
	fs := flag.NewFlagSet("const-prop", flag.ExitOnError)
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

	analysis := dataflow.ConstProp{Fold: func(instr ir.Instr, lookup func(string) (ir.Literal, bool)) (ir.Literal, bool) {
		_, lit, hasDest, folded := fold.Fold(instr, fold.Lookup(lookup))
		if !hasDest {
			return ir.Literal{}, false
		}
		return lit, folded
	}}

	for _, fn := range prog.Functions {
		bf := block.FromFunction(fn)
		g, err := cfg.Build(bf)
		if err != nil {
			cli.Fail(filename, source, err)
		}
		result := dataflow.Run[dataflow.ConstMap](g, analysis)
		fmt.Print(dataflow.Format(result, fn.Name, func(v dataflow.ConstMap) string { return v.String() }))
	}
}
