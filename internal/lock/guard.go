// Package lock prevents concurrent watch sessions on one project.
//
// Two watch processes over the same tree would double-validate every
// change and fight over the run store. The guard is advisory and
// same-machine only: a PID file under .packlint, cleaned up when the
// recorded process is gone.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// PIDFileName is the guard file inside the .packlint directory.
const PIDFileName = "watch.pid"

// SessionGuard serializes watch sessions per project directory.
type SessionGuard struct {
	dir string
}

// NewSessionGuard creates a guard rooted at the project's .packlint
// directory.
func NewSessionGuard(dir string) *SessionGuard {
	return &SessionGuard{dir: dir}
}

func (g *SessionGuard) pidFilePath() string {
	return filepath.Join(g.dir, PIDFileName)
}

// Check verifies no other watch session holds the guard. A guard file
// whose process no longer exists is stale and removed.
func (g *SessionGuard) Check() error {
	pidFile := g.pidFilePath()

	data, err := os.ReadFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		// Unreadable guard file, discard it
		_ = os.Remove(pidFile)
		return nil
	}

	if processExists(pid) {
		return &AlreadyRunningError{PID: pid}
	}

	_ = os.Remove(pidFile)
	return nil
}

// Acquire records the current process in the guard file. Call Check
// first.
func (g *SessionGuard) Acquire() error {
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return fmt.Errorf("create guard dir: %w", err)
	}
	if err := os.WriteFile(g.pidFilePath(), []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// Release removes the guard file. Safe when it is already gone.
func (g *SessionGuard) Release() {
	_ = os.Remove(g.pidFilePath())
}

// AlreadyRunningError means another watch session holds the guard.
type AlreadyRunningError struct {
	PID int
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("another watch session is already running (pid %d)", e.PID)
}

// processExists probes a PID with signal 0.
func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
