package main

import (
	"fmt"
	"os"

	"github.com/dockhand/dockhand/pkg/cli"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

func main() {
	if err := cli.Execute(Version); err != nil {
		fmt.Fprintln(os.Stderr, "dockhand:", err)
		os.Exit(1)
	}
}
