// Package cli implements the packlint command-line interface.
package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"

	"github.com/randalmurphal/packlint/internal/config"
	"github.com/randalmurphal/packlint/internal/state"
)

// loadConfig loads configuration for the given project base: --config wins,
// then the file viper discovered, then the project default path. Missing
// files yield defaults; the PACKLINT_* environment overlay applies on top.
func loadConfig(base string) (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = viper.ConfigFileUsed()
	}
	if path == "" {
		path = filepath.Join(base, config.PacklintDir, config.ConfigFileName)
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, err
	}
	config.ApplyEnvVars(cfg)
	return cfg, nil
}

// statePath resolves the run store location relative to the project base.
func statePath(base string, cfg *config.Config) string {
	p := cfg.State.Path
	if p == "" {
		p = filepath.FromSlash(state.DefaultPath)
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// useColor reports whether output should be colored: never under --no-color
// or --json, otherwise only when stdout is a terminal.
func useColor() bool {
	if noColor || jsonOut {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
