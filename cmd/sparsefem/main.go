// Package main provides the sparsefem CLI.
package main

import (
	"fmt"
	"io"
	"os"
)

const version = "v0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(out, "sparsefem %s\n", version)
		return nil
	case "dump":
		return runDump(args[1:], out)
	case "assemble":
		return runAssemble(args[1:], out)
	case "solve":
		return runSolve(args[1:], out)
	case "channel":
		return runChannel(args[1:], out)
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "sparsefem - sparse tensor assembly for finite elements")
	fmt.Fprintf(out, "Version: %s\n\n", version)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  version                                   Show version")
	fmt.Fprintln(out, "  dump <table>                              Print a table as a sparse tensor")
	fmt.Fprintln(out, "  assemble -element E -connectivity C -size N")
	fmt.Fprintln(out, "                                            Scatter an element tensor into a global tensor")
	fmt.Fprintln(out, "  solve -matrix A -rhs b                    Solve A·x = b by conjugate gradients")
	fmt.Fprintln(out, "  channel [-nx N] [-ny N] [-g G]            Solve Poiseuille flow and print the outlet profile")
}
