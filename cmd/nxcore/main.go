// Command nxcore preflights and runs filter pipelines over a hierarchical
// data graph.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/nxcore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nxcore:", err)
		os.Exit(cli.ExitCode(err))
	}
}
