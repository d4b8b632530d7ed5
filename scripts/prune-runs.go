// Script to prune old validation runs from the state store.
// Run with: go run scripts/prune-runs.go [-days N]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/randalmurphal/packlint/internal/state"
)

func main() {
	days := flag.Int("days", 30, "prune runs started more than this many days ago")
	flag.Parse()

	// Find .packlint directory
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	packlintDir := filepath.Join(wd, ".packlint")
	if _, err := os.Stat(packlintDir); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "No .packlint directory found in %s\n", wd)
		os.Exit(1)
	}

	dbPath := filepath.Join(packlintDir, "state.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No state database found, nothing to prune")
		return
	}

	store, err := state.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening state store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	cutoff := time.Now().AddDate(0, 0, -*days)
	pruned, err := store.PruneRuns(cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning runs: %v\n", err)
		os.Exit(1)
	}

	if pruned == 0 {
		fmt.Println("No runs older than the cutoff, nothing to prune")
		return
	}
	fmt.Printf("Pruned %d runs started before %s\n", pruned, cutoff.Format("2006-01-02"))
}
