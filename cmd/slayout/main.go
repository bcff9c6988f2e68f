// Command slayout infers EVM contract storage layouts from symbolic value
// graphs.
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/roach88/slayout/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "slayout: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
