// Package main provides the entry point for the packlint CLI.
package main

import (
	"os"

	"github.com/randalmurphal/packlint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
