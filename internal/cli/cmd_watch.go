// Package cli implements the packlint command-line interface.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/packlint/internal/config"
	"github.com/randalmurphal/packlint/internal/layout"
	"github.com/randalmurphal/packlint/internal/lock"
	"github.com/randalmurphal/packlint/internal/orchestrator"
	"github.com/randalmurphal/packlint/internal/report"
	"github.com/randalmurphal/packlint/internal/scanner"
	"github.com/randalmurphal/packlint/internal/state"
	watchtui "github.com/randalmurphal/packlint/internal/tui/watch"
	"github.com/randalmurphal/packlint/internal/watcher"
)

// newWatchCmd creates the watch command
func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Revalidate continuously while sources change",
		Long: `Watch the package roots and rerun validation whenever sources change.

Change bursts are debounced into one run, and rewrites that do not change
file content are ignored. Watch runs count as incremental, so the build
plan skip gate never applies.

With a terminal, results show in a live dashboard; use --plain (or pipe
the output) for plain text.

Examples:
  packlint watch            # dashboard in current directory
  packlint watch --plain    # plain text output
  press q or ctrl+c to stop`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := "."
			if len(args) == 1 {
				base = args[0]
			}
			plain, _ := cmd.Flags().GetBool("plain")

			cfg, err := loadConfig(base)
			if err != nil {
				return err
			}

			useTUI := !plain && !jsonOut && isatty.IsTerminal(os.Stdout.Fd())

			log := newLogger()
			if useTUI {
				// Log output corrupts the alt screen while the dashboard runs.
				log = slog.New(slog.NewTextHandler(io.Discard, nil))
			}

			// One watch session per project: a second one would fight
			// over the run store and double-validate every change.
			guard := lock.NewSessionGuard(filepath.Join(base, config.PacklintDir))
			if err := guard.Check(); err != nil {
				return err
			}
			if err := guard.Acquire(); err != nil {
				return err
			}
			defer guard.Release()

			lay, err := layout.Resolve(log, base, layout.Options{
				MetadataDirs: cfg.MetadataDirs,
				ContentDirs:  cfg.ContentDirs,
				WorkDir:      cfg.WorkDir,
				Classifier:   cfg.Classifier,
			})
			if err != nil {
				return wrapRunError(err)
			}

			sc, err := scanner.New(log, cfg.Excludes)
			if err != nil {
				return wrapRunError(err)
			}

			roots := make([]string, len(lay.Roots))
			for i, r := range lay.Roots {
				roots[i] = r.Path
			}

			var sink report.Sink
			if cfg.State.Enabled {
				store, serr := state.Open(statePath(base, cfg))
				if serr != nil {
					log.Warn("state store unavailable", "error", serr)
				} else {
					defer store.Close()
					sink = store
				}
			}

			ctx, cancel := signalContext()
			defer cancel()

			out := io.Writer(os.Stdout)
			if useTUI {
				out = nil
			}
			runOnce := func(ctx context.Context) (report.Outcome, error) {
				eng := orchestrator.New(log, cfg, orchestrator.Options{
					Base:        base,
					Incremental: true,
					Out:         out,
					JSON:        jsonOut,
					Color:       useColor(),
					Verbose:     verbose,
					Sink:        sink,
				})
				return eng.Run(ctx)
			}

			changed := make(chan []string, 1)
			w, err := watcher.New(watcher.Config{
				Roots:      roots,
				Logger:     log,
				DebounceMs: cfg.Watch.DebounceMs,
				Ignore:     ignoreFunc(lay.Roots, sc),
				OnChange: func(paths []string) {
					select {
					case changed <- paths:
					case <-ctx.Done():
					}
				},
			})
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			if useTUI {
				return watchWithDashboard(ctx, cancel, base, runOnce, changed)
			}
			return watchPlain(ctx, log, runOnce, changed)
		},
	}

	cmd.Flags().Bool("plain", false, "plain text output instead of the dashboard")

	return cmd
}

// watchPlain reruns validation on each change batch, streaming results to
// stdout. Run failures are printed and watching continues.
func watchPlain(ctx context.Context, log *slog.Logger, runOnce func(context.Context) (report.Outcome, error), changed <-chan []string) error {
	if _, err := runOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		PrintError(wrapRunError(err))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changed:
			log.Info("change detected", "files", len(paths))
			if _, err := runOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				PrintError(wrapRunError(err))
			}
		}
	}
}

// watchWithDashboard drives the TUI: one goroutine reruns validation on
// change batches and pushes results into the program, the other runs the
// program itself. Quitting the dashboard stops the loop.
func watchWithDashboard(ctx context.Context, cancel context.CancelFunc, base string, runOnce func(context.Context) (report.Outcome, error), changed <-chan []string) error {
	prog := tea.NewProgram(watchtui.New(base))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runAndReport := func(paths []string) {
			prog.Send(watchtui.RunStartedMsg{Paths: paths})
			o, err := runOnce(gctx)
			if err != nil {
				if gctx.Err() == nil {
					prog.Send(watchtui.RunErrorMsg{Err: wrapRunError(err)})
				}
				return
			}
			prog.Send(watchtui.RunFinishedMsg{Outcome: o})
		}

		runAndReport(nil)
		for {
			select {
			case <-gctx.Done():
				return nil
			case paths := <-changed:
				runAndReport(paths)
			}
		}
	})

	g.Go(func() error {
		_, err := prog.Run()
		cancel()
		return err
	})

	return g.Wait()
}

// ignoreFunc filters watch events through the scanner's exclude patterns,
// so the watcher and the scan agree on what counts as package content.
func ignoreFunc(roots []layout.Root, sc *scanner.Scanner) func(string) bool {
	return func(path string) bool {
		for _, r := range roots {
			rel, err := filepath.Rel(r.Path, path)
			if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
				continue
			}
			return sc.Excluded(filepath.ToSlash(rel))
		}
		return false
	}
}
