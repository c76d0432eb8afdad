// Package debounce provides a cancellable timer that runs only the most
// recently scheduled function.
package debounce

import (
	"sync"
	"time"
)

// Timer delays calls and drops every call superseded before it fires.
// The zero value is not usable; create timers with New.
type Timer struct {
	delay time.Duration

	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
	done  chan bool
}

// New creates a timer with the given delay.
func New(delay time.Duration) *Timer {
	return &Timer{delay: delay}
}

// Schedule cancels any pending call and arranges for fn to run after the
// delay. The returned channel receives exactly one value: true once fn has
// returned, or false if the call was superseded or cancelled first.
func (t *Timer) Schedule(fn func()) <-chan bool {
	done := make(chan bool, 1)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.seq++
	seq := t.seq
	t.done = done
	t.timer = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		if t.seq != seq {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.done = nil
		t.mu.Unlock()

		fn()
		done <- true
	})
	return done
}

// Cancel drops the pending call, if any.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.seq++
}

// Pending reports whether a call is waiting to fire.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *Timer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.done != nil {
		t.done <- false
		t.done = nil
	}
}
