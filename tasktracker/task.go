package tasktracker

import (
	"time"
	"weak"
)

// ShutdownBehavior controls whether a Task is allowed to run once shutdown
// has started, and whether Shutdown waits on it.
type ShutdownBehavior uint8

const (
	// ShutdownBehaviorSkipOnShutdown drops the task at the run gate once
	// shutdown has started. This is the default.
	ShutdownBehaviorSkipOnShutdown ShutdownBehavior = iota
	// ShutdownBehaviorContinueOnShutdown allows a task already running when
	// Shutdown is called to keep running; Shutdown never waits for it.
	ShutdownBehaviorContinueOnShutdown
	// ShutdownBehaviorBlockShutdown guarantees the task runs to completion
	// before Shutdown returns.
	ShutdownBehaviorBlockShutdown
)

func (b ShutdownBehavior) String() string {
	switch b {
	case ShutdownBehaviorSkipOnShutdown:
		return "skip-on-shutdown"
	case ShutdownBehaviorContinueOnShutdown:
		return "continue-on-shutdown"
	case ShutdownBehaviorBlockShutdown:
		return "block-shutdown"
	default:
		return "unknown-shutdown-behavior"
	}
}

// Priority is a task's priority class, used to pick the preempted heap and
// to decide whether the best-effort cap applies; ties within a heap are
// broken by sequenced-time and creation rank, not by priority. It carries no
// fairness guarantee beyond the two-tier best-effort/foreground split.
type Priority uint8

const (
	// PriorityUserVisible is the default priority — also Go's zero value for
	// Priority, matching spec.md §3's "default user-visible" so a
	// zero-valued TaskTraits needs no explicit normalization.
	PriorityUserVisible Priority = iota
	// PriorityBestEffort tasks are subject to the concurrency cap and are
	// preempted first.
	PriorityBestEffort
	// PriorityUserBlocking is foreground, never capped.
	PriorityUserBlocking
)

func (p Priority) String() string {
	switch p {
	case PriorityBestEffort:
		return "best-effort"
	case PriorityUserVisible:
		return "user-visible"
	case PriorityUserBlocking:
		return "user-blocking"
	default:
		return "unknown-priority"
	}
}

// IsForeground reports whether p is one of the two non-best-effort classes.
func (p Priority) IsForeground() bool { return p != PriorityBestEffort }

// TaskTraits is an immutable bundle of admission and execution hints
// attached to a Task at post time.
type TaskTraits struct {
	// ShutdownBehavior governs run-gate and Shutdown-wait semantics.
	ShutdownBehavior ShutdownBehavior
	// Priority governs preemption and dispatch ordering.
	Priority Priority
	// MayBlock declares the task may perform blocking I/O. Installed as the
	// I/O-allowed bit of the goroutine-local policy scope while it runs.
	MayBlock bool
	// WithBaseSyncPrimitives declares the task may wait on synchronization
	// primitives. Installed as the sync-primitives-allowed bit.
	WithBaseSyncPrimitives bool
}

// Task is an immutable, move-only record of a posted callable plus
// diagnostic metadata: post it once (a second WillPostTask of an admitted
// task fails fast). Construct with NewTask.
type Task struct {
	// PostedFrom is a diagnostic source location, e.g. "pkg.Func file.go:42".
	PostedFrom string
	// Runnable is the zero-argument closure to execute. Must be non-nil.
	Runnable func()
	// Delay is the minimum time that must elapse between admission and
	// eligibility to run. Zero means undelayed.
	Delay time.Duration

	// ExtensionID, if non-empty, routes the task to an alternative executor
	// registered via RegisterTaskExecutor; the tracker itself never sees
	// extension-routed tasks run (routing happens inside WillPostTask,
	// before admission accounting).
	ExtensionID string
	// ExtensionPayload is opaque to the tracker; it is forwarded verbatim to
	// the registered TaskExecutor for ExtensionID.
	ExtensionPayload any

	// runnerHandle is a non-owning (weak) back-reference to the task's
	// owning sequenced/single-thread task runner, installed as the
	// current-runner-handle policy field while the task executes. Weak so a
	// runner and its tasks never form an ownership cycle; see registry.go
	// and spec.md §9's "cyclic ownership risk" design note.
	runnerHandle weak.Pointer[runnerHandleBox]

	sequencedTime    int64 // assigned exactly once, by WillPostTask
	admittedAt       time.Time
	shutdownBehavior ShutdownBehavior // snapshotted by WillPostTask
}

// NewTask constructs a Task. runnerHandle may be nil if the caller has no
// runner to expose via CurrentSequencedTaskRunnerHandle /
// CurrentSingleThreadTaskRunnerHandle; otherwise pass the box returned by
// NewRunnerHandle. The task holds only a weak reference to it.
func NewTask(postedFrom string, runnable func(), delay time.Duration, runnerHandle *runnerHandleBox) *Task {
	if runnable == nil {
		panic(newContractViolation("NewTask", ErrInvalidTask))
	}
	t := &Task{
		PostedFrom: postedFrom,
		Runnable:   runnable,
		Delay:      delay,
	}
	if runnerHandle != nil {
		t.runnerHandle = weak.Make(runnerHandle)
	}
	return t
}

// SequencedTime returns the stamp assigned at admission, or zero if the task
// has not yet been admitted by WillPostTask.
func (t *Task) SequencedTime() int64 { return t.sequencedTime }

// readyToRun reports whether t's delay has elapsed per the tracker's
// configured DelaySource.
func (t *Task) readyToRun(source DelaySource) bool {
	if t.Delay <= 0 {
		return true
	}
	return source(t)
}
