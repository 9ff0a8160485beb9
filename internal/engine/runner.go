package engine

import (
	"context"
	"sync"
)

// Runner serializes cycle execution and retains the most recent outcome.
// The daemon ticker, the HTTP trigger, and the watch screen all go through
// the same Runner, so at most one cycle runs at a time in this process.
//
// A second process against the same state store is not prevented; that is
// tolerated because every remote operation is idempotent, so a double run
// degrades to redundant no-ops.
type Runner struct {
	engine *Engine

	runMu sync.Mutex

	mu   sync.RWMutex
	last *Outcome
}

// NewRunner wraps an engine.
func NewRunner(e *Engine) *Runner {
	return &Runner{engine: e}
}

// RunCycle executes one cycle, blocking if another is in flight.
func (r *Runner) RunCycle(ctx context.Context) (*Outcome, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	outcome, err := r.engine.RunCycle(ctx)

	r.mu.Lock()
	r.last = outcome
	r.mu.Unlock()

	return outcome, err
}

// LastOutcome returns the most recent cycle's outcome, or nil when no
// cycle has run yet.
func (r *Runner) LastOutcome() *Outcome {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Busy reports whether a cycle is currently executing.
func (r *Runner) Busy() bool {
	if r.runMu.TryLock() {
		r.runMu.Unlock()
		return false
	}
	return true
}
