// Package state tracks the lifecycle of an in-flight fetch so callers can
// distinguish "never asked" from "loading" from "settled".
package state

import (
	"sync"
	"sync/atomic"
	"time"
)

// Phase is the lifecycle phase of a tracked fetch.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Tracker records the phase of a fetch and the error from its last failure.
// After Close, completions are no-ops: a response that arrives for a caller
// that has stopped caring must not disturb the recorded state.
type Tracker struct {
	mu         sync.Mutex
	phase      Phase
	err        error
	settledAt  time.Time
	interested atomic.Bool
}

// NewTracker returns an idle tracker that accepts completions.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.interested.Store(true)
	return t
}

// Begin marks the fetch as loading and clears any previous error.
func (t *Tracker) Begin() {
	if !t.interested.Load() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = Loading
	t.err = nil
}

// Succeed marks the fetch as ready. A no-op after Close.
func (t *Tracker) Succeed() {
	if !t.interested.Load() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = Ready
	t.err = nil
	t.settledAt = time.Now()
}

// Fail marks the fetch as failed and records the error. A no-op after Close.
func (t *Tracker) Fail(err error) {
	if !t.interested.Load() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = Failed
	t.err = err
	t.settledAt = time.Now()
}

// Close stops the tracker from accepting further completions.
func (t *Tracker) Close() {
	t.interested.Store(false)
}

// Phase returns the current lifecycle phase.
func (t *Tracker) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Err returns the error from the most recent failure, or nil.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// SettledAt returns when the tracker last reached Ready or Failed.
func (t *Tracker) SettledAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settledAt
}

// Loading reports whether a fetch is currently in flight.
func (t *Tracker) Loading() bool {
	return t.Phase() == Loading
}
