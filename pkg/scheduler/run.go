package scheduler

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// Run is the state shared by every batch of one install, update or remove
// operation. It replaces process-wide "aborted" and "active jobs" state:
// each operation creates its own Run and passes it down.
type Run struct {
	// ID identifies the run in logs and hooks.
	ID string

	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	aborted atomic.Bool
}

// NewRun creates a run bound to parent. Cancelling parent aborts the run.
func NewRun(parent context.Context) *Run {
	ctx, cancel := context.WithCancel(parent)
	return &Run{ID: uuid.NewString(), parent: parent, ctx: ctx, cancel: cancel}
}

// Context returns the run's context. It is cancelled on Abort, which
// terminates in-flight processes started with it.
func (r *Run) Context() context.Context { return r.ctx }

// Abort stops dispatching new tasks and cancels in-flight ones. Safe to call
// more than once and from any goroutine.
func (r *Run) Abort() {
	r.aborted.Store(true)
	r.cancel()
}

// Aborted reports whether Abort was called or the parent was cancelled.
func (r *Run) Aborted() bool {
	return r.aborted.Load() || r.parent.Err() != nil
}

// Close releases the run's context. It does not mark the run aborted.
func (r *Run) Close() { r.cancel() }
