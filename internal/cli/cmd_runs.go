// Package cli implements the packlint command-line interface.
package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	packerrors "github.com/randalmurphal/packlint/internal/errors"
	"github.com/randalmurphal/packlint/internal/state"
)

// newRunsCmd creates the runs command
func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded validation runs",
		Long: `List recent validation runs with their outcome.

Every validate run and watch iteration is recorded in the state store
(.packlint/state.db) unless state is disabled in config.

Examples:
  packlint runs              # List recent runs
  packlint runs --limit 50   # Show more
  packlint runs show 3f2a    # Show one run with its violations`,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := openStore(".")
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("No validation runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "RUN ID\tRESULT\tERRORS\tWARNINGS\tSTARTED")
			for _, r := range runs {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
					shortID(r.ID), runResult(r), r.Errors, r.Warnings, formatRelativeTime(r.Started))
			}
			_ = w.Flush()

			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	cmd.AddCommand(newRunsShowCmd())

	return cmd
}

// newRunsShowCmd creates the runs show command.
func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run with its violations",
		Long: `Display one recorded validation run: outcome, counts, and every
violation it found. The run ID may be abbreviated to any unique prefix.

Examples:
  packlint runs show 3f2a`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(".")
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run, violations, err := store.GetRun(args[0])
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}
			if run == nil {
				return fmt.Errorf("run not found: %s", args[0])
			}

			fmt.Printf("Run ID: %s\n", run.ID)
			fmt.Printf("Result: %s\n", runResult(*run))
			if run.Skipped && run.SkipReason != "" {
				fmt.Printf("Skip Reason: %s\n", run.SkipReason)
			}
			if !run.Started.IsZero() {
				fmt.Printf("Started: %s\n", run.Started.Format(time.RFC3339))
			}
			if !run.Finished.IsZero() {
				fmt.Printf("Finished: %s\n", run.Finished.Format(time.RFC3339))
			}
			if run.Highest != "" {
				fmt.Printf("Highest Severity: %s\n", run.Highest)
			}

			fmt.Println("\nCounts:")
			fmt.Printf("  Errors: %d\n", run.Errors)
			fmt.Printf("  Warnings: %d\n", run.Warnings)
			fmt.Printf("  Infos: %d\n", run.Infos)

			if len(violations) > 0 {
				fmt.Println("\nViolations:")
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "  SEVERITY\tPATH\tVALIDATOR\tMESSAGE")
				for _, v := range violations {
					_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", v.Severity, v.Path, v.Validator, v.Message)
				}
				_ = w.Flush()
			}

			return nil
		},
	}
}

// openStore opens the run store for the project, or explains why it cannot.
func openStore(base string) (*state.Store, error) {
	cfg, err := loadConfig(base)
	if err != nil {
		return nil, err
	}
	if !cfg.State.Enabled {
		return nil, stderrors.New("run history is disabled (state.enabled: false in config)")
	}

	store, err := state.Open(statePath(base, cfg))
	if err != nil {
		return nil, packerrors.ErrStateUnavailable(statePath(base, cfg)).WithCause(err)
	}
	return store, nil
}

func runResult(r state.RunSummary) string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Failed:
		return "fail"
	default:
		return "pass"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatRelativeTime formats a time as relative (e.g., "2 hours ago")
func formatRelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
