package tasktracker

import (
	"sync/atomic"
)

// ShutdownState is one of the three states of the tracker's shutdown state
// machine, strictly forward-only per spec.md §4.1.
//
//	running (0) → shutting-down (1)   [Shutdown() entry]
//	shutting-down (1) → shutdown-complete (2)   [num_tasks_blocking_shutdown == 0]
//	shutdown-complete (2) → (terminal)
type ShutdownState uint64

const (
	// ShutdownStateRunning is the initial state; admission and dispatch
	// operate normally.
	ShutdownStateRunning ShutdownState = iota
	// ShutdownStateShuttingDown rejects all non-block-shutdown admission and
	// drops non-block-shutdown tasks at the run gate.
	ShutdownStateShuttingDown
	// ShutdownStateComplete is terminal: every block-shutdown task has run.
	ShutdownStateComplete
)

func (s ShutdownState) String() string {
	switch s {
	case ShutdownStateRunning:
		return "running"
	case ShutdownStateShuttingDown:
		return "shutting-down"
	case ShutdownStateComplete:
		return "shutdown-complete"
	default:
		return "unknown-shutdown-state"
	}
}

// shutdownLatch is a lock-free, cache-line-padded atomic state word for the
// shutdown state machine, consulted on every admission and run-gate check
// per spec.md §9 ("implement as an atomic enum with acquire/release, not a
// mutex-guarded field, so the fast path stays lock-free").
type shutdownLatch struct { // betteralign:ignore
	_ [64]byte      // cache line padding (before value)
	v atomic.Uint64 // ShutdownState value
	_ [56]byte      // pad to complete cache line (64 - 8 = 56)
}

func newShutdownLatch() *shutdownLatch {
	l := &shutdownLatch{}
	l.v.Store(uint64(ShutdownStateRunning))
	return l
}

// Load returns the current state atomically.
func (l *shutdownLatch) Load() ShutdownState {
	return ShutdownState(l.v.Load())
}

// TryTransition attempts to atomically move from one state to another,
// returning true iff it succeeded. Pure CAS, no validation of from/to
// legality beyond the caller only ever invoking the two legal transitions.
func (l *shutdownLatch) TryTransition(from, to ShutdownState) bool {
	return l.v.CompareAndSwap(uint64(from), uint64(to))
}

// HasStarted reports whether shutdown has at least begun (shutting-down or
// shutdown-complete).
func (l *shutdownLatch) HasStarted() bool {
	return l.Load() != ShutdownStateRunning
}

// IsComplete reports whether shutdown has fully drained.
func (l *shutdownLatch) IsComplete() bool {
	return l.Load() == ShutdownStateComplete
}
