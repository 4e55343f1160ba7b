package main

import (
	"fmt"
	"os"

	"github.com/runnerr0/omnibar/internal/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Run(version); err != nil {
		fmt.Fprintln(os.Stderr, "omnibar:", err)
		os.Exit(1)
	}
}
