// Package cli implements the packlint command-line interface.
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/packlint/internal/validator"
)

// validatorChecks is the one-line summary shown by the validators command.
var validatorChecks = map[string]string{
	"properties": "properties.xml exists, parses, and carries name, group and version",
	"filter":     "filter.xml parses and every content path is covered by a filter root",
	"names":      "resource names are free of illegal and unportable characters",
	"xmlwf":      "*.xml files are well-formed",
	"jsonwf":     "*.json files parse",
}

// newValidatorsCmd creates the validators command
func newValidatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validators",
		Short: "List registered validators",
		Long: `List registered validators with their effective settings.

Enabled state and severity overrides come from the validators section of
.packlint/config.yaml; "default" means the validator decides severity per
finding.

Examples:
  packlint validators`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(".")
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tENABLED\tSEVERITY\tCHECKS")
			for _, id := range validator.IDs() {
				enabled := "yes"
				severity := "default"
				if vc, ok := cfg.Validators[id]; ok {
					if !vc.On() {
						enabled = "no"
					}
					if vc.Severity != "" {
						severity = vc.Severity
					}
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, enabled, severity, validatorChecks[id])
			}
			return w.Flush()
		},
	}
}
