package watcher

import (
	"sort"
	"sync"
	"time"
)

// Debouncer coalesces bursts of change notifications into a single callback.
// Every path reported during the quiet interval is collected and handed to
// the callback as one sorted batch once the interval elapses without further
// triggers.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]struct{}
	timer    *time.Timer
	interval time.Duration
	callback func(paths []string)
	stopped  bool
}

// NewDebouncer creates a debouncer that fires callback after intervalMs
// milliseconds of quiet. Non-positive intervals fall back to 400ms.
func NewDebouncer(intervalMs int, callback func(paths []string)) *Debouncer {
	if intervalMs <= 0 {
		intervalMs = 400
	}
	return &Debouncer{
		pending:  make(map[string]struct{}),
		interval: time.Duration(intervalMs) * time.Millisecond,
		callback: callback,
	}
}

// Trigger records a changed path and restarts the quiet timer.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

// fire drains the pending set and invokes the callback outside the lock.
func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	d.pending = make(map[string]struct{})
	d.timer = nil
	d.mu.Unlock()

	sort.Strings(paths)
	d.callback(paths)
}

// Stop cancels any pending callback and drops collected paths. The debouncer
// ignores triggers after Stop.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = make(map[string]struct{})
}

// PendingCount returns the number of paths waiting to be reported.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
