// Command graphcli is a thin demo CLI over the graph and cep packages.
// It exists to exercise the library end-to-end; its shape is explicitly
// not constrained by SPEC_FULL.md §1 (CLI entry points are plumbing).
package main

import (
	"fmt"
	"os"

	"github.com/untoldecay/graphcep/cmd/graphcli/cmd"
)

func main() {
	if err := cmd.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
