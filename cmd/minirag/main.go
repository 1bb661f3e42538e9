package main

import (
	"fmt"
	"os"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/cli"
)

// Version information (set via -ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
