package tasktracker

import "sync"

// simpleTaskRunner is a test-only helper modeled on the original
// TestSimpleTaskRunner (original_source/base/test/test_simple_task_runner.h):
// a minimal single-Sequence runner that posts tasks through a TaskTracker
// and drains them synchronously, so tests don't hand-write the
// WillPostTask/WillScheduleSequence/RunAndPopNextTask protocol inline.
// Unlike the original, delay and nestability are not simulated beyond what
// the tracker itself already handles; this runner only ever drives one
// Sequence.
type simpleTaskRunner struct {
	tr  *TaskTracker
	seq *Sequence
	// handle keeps the runner-handle box reachable; the sequence holds it
	// only weakly.
	handle *runnerHandleBox

	mu       sync.Mutex
	runnable bool // seq is currently admitted for dispatch (not parked)
}

// newSimpleTaskRunner creates a runner backed by a fresh Sequence with the
// given traits, exposing itself as the sequence's runner handle so tasks
// running on it can resolve CurrentSequencedTaskRunnerHandle back to it.
func newSimpleTaskRunner(tr *TaskTracker, traits TaskTraits) *simpleTaskRunner {
	r := &simpleTaskRunner{tr: tr}
	r.handle = NewRunnerHandle(r)
	r.seq = NewSequence(traits, r.handle)
	return r
}

// OnCanScheduleSequence implements CanScheduleSequenceObserver: the tracker
// calls this once a previously preempted sequence is clear to dispatch.
func (r *simpleTaskRunner) OnCanScheduleSequence(seq *Sequence) {
	r.mu.Lock()
	r.runnable = true
	r.mu.Unlock()
}

// Post admits task onto the runner's sequence and offers the sequence to
// the tracker if it was previously empty. Returns false if the tracker
// rejected admission outright (e.g. shutdown already complete for a
// non-block-shutdown task).
func (r *simpleTaskRunner) Post(task *Task, behavior ShutdownBehavior) bool {
	if !r.tr.WillPostTask(task, behavior) {
		return false
	}

	txn := r.seq.Lock()
	wasEmpty := txn.IsEmpty()
	txn.PushTask(task)
	txn.Unlock()

	if wasEmpty {
		admitted := r.tr.WillScheduleSequence(r.seq, r)
		r.mu.Lock()
		r.runnable = admitted
		r.mu.Unlock()
	}
	return true
}

// RunUntilIdle drains every task current clear to dispatch, including ones
// posted by tasks that run within this call, stopping once the sequence
// empties or is re-parked (best-effort preemption, or the execution fence).
func (r *simpleTaskRunner) RunUntilIdle() {
	for {
		r.mu.Lock()
		runnable := r.runnable
		r.mu.Unlock()
		if !runnable {
			return
		}

		next := r.tr.RunAndPopNextTask(r.seq, r)

		r.mu.Lock()
		r.runnable = next != nil
		r.mu.Unlock()

		if next == nil {
			return
		}
	}
}

// HasPendingTask reports whether the runner's sequence currently holds any
// task, run or not.
func (r *simpleTaskRunner) HasPendingTask() bool {
	txn := r.seq.Lock()
	defer txn.Unlock()
	return !txn.IsEmpty()
}
