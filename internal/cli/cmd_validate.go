// Package cli implements the packlint command-line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	packerrors "github.com/randalmurphal/packlint/internal/errors"
	"github.com/randalmurphal/packlint/internal/orchestrator"
	"github.com/randalmurphal/packlint/internal/report"
	"github.com/randalmurphal/packlint/internal/state"
	"github.com/randalmurphal/packlint/internal/validator"
)

// newValidateCmd creates the validate command
func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Validate a content package project",
		Long: `Validate the content package project in dir (default: current directory).

Resolves the metadata and content roots, scans every resource in
deterministic order, and runs the validator chain over each one. The run
fails when any error-severity violation is found, or on any warning when
fail_on_warnings is set.

When a later step of the build plan runs full package validation, the run
is skipped instead (see skip_if_planned); incremental builds never skip.

Examples:
  packlint validate                    # validate current directory
  packlint validate ./content-package  # validate another project
  packlint validate --incremental      # incremental build, never skips
  packlint validate --fail-on-warnings # warnings fail the run too`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := "."
			if len(args) == 1 {
				base = args[0]
			}

			cfg, err := loadConfig(base)
			if err != nil {
				return err
			}

			// Flag overrides on top of file and environment
			if cmd.Flags().Changed("classifier") {
				cfg.Classifier, _ = cmd.Flags().GetString("classifier")
			}
			if cmd.Flags().Changed("fail-on-warnings") {
				cfg.FailOnWarnings, _ = cmd.Flags().GetBool("fail-on-warnings")
			}
			if cmd.Flags().Changed("skip-if-planned") {
				cfg.SkipIfPlanned, _ = cmd.Flags().GetBool("skip-if-planned")
			}
			if extra, _ := cmd.Flags().GetStringSlice("exclude"); len(extra) > 0 {
				cfg.Excludes = append(cfg.Excludes, extra...)
			}
			incremental, _ := cmd.Flags().GetBool("incremental")

			log := newLogger()

			var sink report.Sink
			if cfg.State.Enabled {
				store, serr := state.Open(statePath(base, cfg))
				if serr != nil {
					// Run bookkeeping is optional; validation proceeds without it.
					log.Warn("state store unavailable", "error", serr)
				} else {
					defer store.Close()
					sink = store
				}
			}

			ctx, cancel := signalContext()
			defer cancel()

			eng := orchestrator.New(log, cfg, orchestrator.Options{
				Base:        base,
				Incremental: incremental,
				Out:         os.Stdout,
				JSON:        jsonOut,
				Color:       useColor(),
				Verbose:     verbose,
				Sink:        sink,
			})

			outcome, err := eng.Run(ctx)
			if err != nil {
				return wrapRunError(err)
			}
			if outcome.Failed {
				return packerrors.ErrValidationFailed(
					outcome.Totals[validator.SeverityError],
					outcome.Totals[validator.SeverityWarning],
					cfg.FailOnWarnings,
				)
			}
			return nil
		},
	}

	cmd.Flags().Bool("incremental", false, "treat this run as part of an incremental build (never skips)")
	cmd.Flags().String("classifier", "", "package classifier for work directory metadata lookup")
	cmd.Flags().Bool("fail-on-warnings", false, "fail the run on warnings, not just errors")
	cmd.Flags().Bool("skip-if-planned", true, "skip when the build plan runs full validation later")
	cmd.Flags().StringSlice("exclude", nil, "additional exclude pattern (repeatable)")

	return cmd
}
