// Package cli implements the packlint command-line interface.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/packlint/internal/config"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize packlint in a project",
		Long: `Initialize packlint in the given directory (default: current directory).

Writes a default config to .packlint/config.yaml with every validator
enabled and the standard exclude patterns. Edit the file to adjust
validators, severities, and layout directories for your project.

Examples:
  packlint init               # Initialize current directory
  packlint init ./content     # Initialize a subdirectory
  packlint init --force       # Overwrite existing configuration`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			// Check if already initialized
			if !force && config.IsInitializedAt(dir) {
				return fmt.Errorf("packlint already initialized. Use --force to reinitialize")
			}

			if err := config.InitAt(dir, force); err != nil {
				return err
			}

			printInitResult(dir)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite existing configuration")

	return cmd
}

// printInitResult prints the result of initialization
func printInitResult(dir string) {
	fmt.Println()
	fmt.Println("  ✓ packlint initialized")
	fmt.Println()

	fmt.Printf("  Config: %s\n", filepath.Join(dir, config.PacklintDir, config.ConfigFileName))

	fmt.Println()
	fmt.Println("  Next steps:")
	fmt.Println("    packlint validate            # Validate the package source")
	fmt.Println("    packlint watch               # Revalidate on every change")
	fmt.Println()
}
