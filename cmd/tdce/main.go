// Command tdce runs Trivial Dead Code Elimination (component L) over
// every function in a program: a global fixed-point sweep followed by
// a local per-block reverse scan, writing the simplified program back
// out as JSON.
package main

import (
	"flag"
	"fmt"
	"os"

	"brilkit/internal/cli"
	"brilkit/internal/pass"
	"brilkit/internal/tdce"
)

func main() {
	fs := flag.NewFlagSet("tdce", flag.ExitOnError)
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

	tdcePass := pass.RunAsPass(tdce.NewPass())
	changed, err := tdcePass.Run(prog)
	if err != nil {
		cli.Fail(filename, source, err)
	}

	if err := cli.WriteProgram(os.Stdout, prog); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if changed {
		cli.Success("tdce eliminated dead code in %s", filename)
	} else {
		cli.Success("tdce made no changes to %s", filename)
	}
}
