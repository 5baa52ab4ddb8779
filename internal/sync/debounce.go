// Package sync schedules persistence of the in-memory ledger: a debounced
// local save after each burst of mutations, and a thin client for the cloud
// blob endpoints. Persistence failures never reach the mutation path.
package sync

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single call of fn, fired
// once the quiet period elapses after the last trigger. A trigger inside
// the window resets the timer; the pending call is the explicit cancellable
// task, not an implicit runtime timer.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	pending bool
	stopped bool
}

func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn after the quiet period, cancelling any pending run.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = true
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.mu.Unlock()
	d.fn()
}

// Flush runs a pending call immediately. Used on shutdown so the last burst
// of mutations is not lost to the debounce window.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	wasPending := d.pending
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	if wasPending {
		d.fn()
	}
}

// Stop cancels any pending call and disables further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
}
