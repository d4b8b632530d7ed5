// Package cli implements the packlint command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show packlint version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("packlint version 0.1.0-dev")
		},
	}
}
