// Command cruxe is the CLI entry point: init, doctor, index, sync,
// search, serve-mcp, state export/import, and prune-overlays, all
// wired through internal/cli.
package main

import (
	"fmt"
	"os"

	"github.com/cruxe/cruxe/internal/cli"
)

var version = "dev"

func main() {
	root := cli.RootCmd()
	root.Version = version

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cruxe: %v\n", err)
		os.Exit(1)
	}
}
