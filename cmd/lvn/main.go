// Command lvn runs Local Value Numbering with integrated constant
// folding (component K) over every function in a program, writing the
// simplified program back out as JSON.
//
// Grounded on the teacher's cmd/kanso-cli/main.go: read, verify,
// transform, report success or a positional diagnostic — the same
// read/verify/run/emit shape every cmd/<pass> executable in this
// toolkit shares via internal/cli.
package main

import (
	"flag"
	"fmt"
	"os"

	"brilkit/internal/cli"
	"brilkit/internal/lvn"
	"brilkit/internal/pass"
)

func main() {
	fs := flag.NewFlagSet("lvn", flag.ExitOnError)
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

	lvnPass := pass.RunAsPass(lvn.NewPass())
	changed, err := lvnPass.Run(prog)
	if err != nil {
		cli.Fail(filename, source, err)
	}

	if err := cli.WriteProgram(os.Stdout, prog); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if changed {
		cli.Success("lvn simplified %s", filename)
	} else {
		cli.Success("lvn made no changes to %s", filename)
	}
}
