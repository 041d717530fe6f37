// Command dominators builds the dominator tree (spec.md §4.G) for
// every function in a program and prints, per block, its immediate
// dominator and dominance frontier.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"brilkit/internal/block"
	"brilkit/internal/cfg"
	"brilkit/internal/cli"
	"brilkit/internal/dom"
)

func main() {
	fs := flag.NewFlagSet("dominators", flag.ExitOnError)
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
		tree := dom.Build(g)

		fmt.Printf("@%s {\n", fn.Name)
		for i := 0; i <= tree.ExitIdx(); i++ {
			label := blockLabel(bf, tree, i)
			fmt.Printf(".%s:\n", label)
			idom := tree.ImmediateDom(i)
			if idom < 0 {
				fmt.Println("  idom: none")
			} else {
				fmt.Printf("  idom: %s\n", blockLabel(bf, tree, idom))
			}
			fmt.Printf("  frontier: %s\n", formatFrontier(bf, tree, i))
		}
		fmt.Println("}")
	}
}

func blockLabel(bf *block.Function, tree *dom.Tree, idx int) string {
	if idx == tree.ExitIdx() {
		return "exit"
	}
	if label := bf.Blocks[idx].Label; label != "" {
		return label
	}
	return fmt.Sprintf("%d", idx)
}

func formatFrontier(bf *block.Function, tree *dom.Tree, idx int) string {
	front := tree.DominanceFrontier(idx)
	names := make([]string, 0, len(front))
	for b := range front {
		names = append(names, blockLabel(bf, tree, b))
	}
	sort.Strings(names)
	return fmt.Sprintf("%v", names)
}
