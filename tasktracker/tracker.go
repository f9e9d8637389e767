package tasktracker

import (
	"sync"
	"sync/atomic"
	"time"
)

// TaskTracker mediates admission, dispatch gating, and orderly shutdown of
// tasks posted through Sequences, per spec.md §4.1. Its state is guarded by
// a single internal lock (the "scheduler lock") except for the shutdown
// state word and the two incomplete-task counters, which are atomics read
// on the fast admission/run-gate path (spec.md §5).
type TaskTracker struct {
	poolLabel string
	opts      *trackerOptions

	shutdown *shutdownLatch

	numIncompleteUndelayed   atomic.Int64
	numTasksBlockingShutdown atomic.Int64
	pendingFlush             atomic.Bool

	mu                     sync.Mutex
	cond                   *sync.Cond
	fenceEnabled           bool
	numScheduledBestEffort int
	bestEffortHeap         *PreemptedSequenceHeap
	foregroundHeap         *PreemptedSequenceHeap

	timeCounter atomic.Int64
}

// NewTaskTracker constructs a TaskTracker. poolLabel is used only for
// metrics routing (spec.md §6).
func NewTaskTracker(poolLabel string, opts ...Option) *TaskTracker {
	tr := &TaskTracker{
		poolLabel:      poolLabel,
		opts:           resolveTrackerOptions(opts),
		shutdown:       newShutdownLatch(),
		bestEffortHeap: NewPreemptedSequenceHeap(),
		foregroundHeap: NewPreemptedSequenceHeap(),
	}
	tr.cond = sync.NewCond(&tr.mu)
	return tr
}

func (tr *TaskTracker) nextSequencedTime() int64 {
	return tr.timeCounter.Add(1)
}

func (tr *TaskTracker) signalProgress() {
	tr.mu.Lock()
	tr.cond.Broadcast()
	tr.mu.Unlock()
}

func (tr *TaskTracker) withinBestEffortCapLocked() bool {
	max := tr.opts.maxConcurrentBestEffortSequences
	return max < 0 || tr.numScheduledBestEffort < max
}

// panicContractViolation logs err via the tracker's configured Logger
// (spec.md §10.1: "contract-violation panics, logged as error before the
// panic unwinds") and then panics with it.
func (tr *TaskTracker) panicContractViolation(op string, cause error) {
	err := newContractViolation(op, cause)
	tr.opts.logger.contractViolation(err)
	panic(err)
}

// WillPostTask accounts for task under behavior, per spec.md §4.1. Returns
// false (accounting nothing) iff shutdown has started and the task is not
// block-shutdown, or a block-shutdown task is posted during shutdown by a
// caller that is not itself currently running a block-shutdown task.
// Fails fast if task is invalid or was already admitted by an earlier
// WillPostTask.
func (tr *TaskTracker) WillPostTask(task *Task, behavior ShutdownBehavior) bool {
	if task == nil || task.Runnable == nil || task.sequencedTime != 0 {
		tr.panicContractViolation("WillPostTask", ErrInvalidTask)
	}

	if executor, routed := lookupTaskExecutor(task.ExtensionID); routed {
		executor.ExecuteTask(task, task.ExtensionPayload)
		return true
	}

	if tr.shutdown.HasStarted() {
		if behavior != ShutdownBehaviorBlockShutdown {
			tr.opts.logger.admissionRejected("WillPostTask", SequenceToken{}, behavior)
			return false
		}
		current, ok := globalPolicyScopes.current()
		if !ok || current.shutdownBehavior != ShutdownBehaviorBlockShutdown {
			tr.opts.logger.admissionRejected("WillPostTask", SequenceToken{}, behavior)
			return false
		}
	}

	task.sequencedTime = tr.nextSequencedTime()
	task.admittedAt = time.Now()
	task.shutdownBehavior = behavior

	if task.Delay <= 0 {
		tr.numIncompleteUndelayed.Add(1)
	}
	if behavior == ShutdownBehaviorBlockShutdown {
		tr.numTasksBlockingShutdown.Add(1)
	}
	return true
}

// WillScheduleSequence offers seq for dispatch, per spec.md §4.1. Returns
// true iff the fence is off and (seq's front task is foreground OR the
// best-effort cap has room); otherwise it parks seq in the matching
// PreemptedSequenceHeap, associating observer with it, and returns false.
// A seq with no tasks is never admitted and never parked.
func (tr *TaskTracker) WillScheduleSequence(seq *Sequence, observer CanScheduleSequenceObserver) bool {
	txn := seq.Lock()
	defer txn.Unlock()

	sequencedTime, ok := txn.sequencedTime()
	if !ok {
		return false
	}
	priority := txn.Traits().Priority

	tr.mu.Lock()
	defer tr.mu.Unlock()

	if !tr.fenceEnabled && (priority.IsForeground() || tr.withinBestEffortCapLocked()) {
		if !priority.IsForeground() {
			tr.numScheduledBestEffort++
		}
		return true
	}

	if priority.IsForeground() {
		tr.foregroundHeap.Insert(seq, observer, sequencedTime)
	} else {
		tr.bestEffortHeap.Insert(seq, observer, sequencedTime)
	}
	tr.opts.logger.sequencePreempted(seq.token, priority)
	return false
}

// runGateAllows implements spec.md §4.1's "run gate": a task may run iff
// shutdown has not started and its delay has elapsed, or shutdown has
// started and the task is block-shutdown.
func (tr *TaskTracker) runGateAllows(task *Task) bool {
	if !tr.shutdown.HasStarted() {
		return task.readyToRun(tr.opts.delaySource)
	}
	return task.shutdownBehavior == ShutdownBehaviorBlockShutdown
}

func resolveRunnerHandle(task *Task, seq *Sequence) any {
	if box := task.runnerHandle.Value(); box != nil {
		return box.handle
	}
	if box := seq.runnerHandle.Value(); box != nil {
		return box.handle
	}
	return nil
}

// RunAndPopNextTask runs seq's front task (or drops it, if the run gate
// denies it) and decides whether seq should be returned to the caller for
// continued draining, discarded, or re-preempted in favor of an
// earlier-queued best-effort sequence, per spec.md §4.1 steps 1-7.
//
// Preconditions: the caller holds the only outstanding "running" reference
// to seq, and seq was admitted (by WillScheduleSequence or by a prior
// RunAndPopNextTask return).
func (tr *TaskTracker) RunAndPopNextTask(seq *Sequence, observer CanScheduleSequenceObserver) *Sequence {
	txn := seq.Lock()
	front := txn.PeekFront()
	if front == nil {
		txn.Unlock()
		tr.panicContractViolation("RunAndPopNextTask", ErrSequenceEmpty)
	}
	traits := seq.Traits()
	wasBestEffort := traits.Priority == PriorityBestEffort

	if tr.runGateAllows(front) {
		pop := globalPolicyScopes.push(&policyState{
			sequenceToken:    seq.token,
			runnerHandle:     resolveRunnerHandle(front, seq),
			ioAllowed:        traits.MayBlock,
			syncAllowed:      traits.WithBaseSyncPrimitives,
			singletons:       front.shutdownBehavior != ShutdownBehaviorContinueOnShutdown,
			shutdownBehavior: front.shutdownBehavior,
		})
		txn.Unlock()

		start := time.Now()
		front.Runnable()
		elapsed := time.Since(start)
		pop()

		tr.opts.metrics.RecordHistogram(
			histogramName(tr.poolLabel, traits.Priority, traits.MayBlock || traits.WithBaseSyncPrimitives),
			elapsed.Microseconds(),
		)

		txn = seq.Lock()
	}

	popped := txn.PopFront()
	tr.accountPopped(popped)
	empty := txn.IsEmpty()

	var frontTime int64
	if !empty {
		frontTime, _ = txn.sequencedTime()
	}
	txn.Unlock()

	return tr.finishDispatch(seq, observer, empty, wasBestEffort, frontTime)
}

func (tr *TaskTracker) accountPopped(task *Task) {
	if task.Delay <= 0 {
		tr.numIncompleteUndelayed.Add(-1)
	}
	if task.shutdownBehavior == ShutdownBehaviorBlockShutdown {
		tr.numTasksBlockingShutdown.Add(-1)
	}
}

// finishDispatch implements spec.md §4.1 steps 6-7: the reschedule
// decision for a best-effort sequence whose front task just completed or
// was dropped, plus the flush/shutdown waiter wakeup.
func (tr *TaskTracker) finishDispatch(seq *Sequence, observer CanScheduleSequenceObserver, empty, wasBestEffort bool, frontTime int64) *Sequence {
	result := seq
	var promoted *Sequence
	var promotedObs CanScheduleSequenceObserver

	tr.mu.Lock()
	switch {
	case wasBestEffort && empty:
		tr.numScheduledBestEffort--
		if s, o, _, ok := tr.bestEffortHeap.PopMin(); ok {
			tr.numScheduledBestEffort++
			promoted, promotedObs = s, o
		}
		result = nil
	case wasBestEffort:
		if s, o, t, ok := tr.bestEffortHeap.Peek(); ok && t < frontTime {
			tr.bestEffortHeap.PopMin()
			tr.bestEffortHeap.Insert(seq, observer, frontTime)
			promoted, promotedObs = s, o
			result = nil
		}
	case empty:
		result = nil
	}
	tr.mu.Unlock()

	if promoted != nil {
		tr.opts.logger.sequencePromoted(promoted.token, PriorityBestEffort)
		promotedObs.OnCanScheduleSequence(promoted)
	}
	tr.signalProgress()
	return result
}

// Shutdown transitions the state machine from running to shutting-down,
// promotes every preempted best-effort sequence, and blocks until every
// block-shutdown task has completed, per spec.md §4.1. Calling it twice is
// a contract violation.
func (tr *TaskTracker) Shutdown() {
	if !tr.shutdown.TryTransition(ShutdownStateRunning, ShutdownStateShuttingDown) {
		tr.panicContractViolation("Shutdown", ErrAlreadyShutdown)
	}
	tr.opts.logger.shutdownPhase(ShutdownStateShuttingDown)

	tr.drainBestEffortForShutdown()

	tr.mu.Lock()
	for tr.numTasksBlockingShutdown.Load() != 0 {
		tr.cond.Wait()
	}
	tr.mu.Unlock()

	if !tr.shutdown.TryTransition(ShutdownStateShuttingDown, ShutdownStateComplete) {
		tr.panicContractViolation("Shutdown", ErrAlreadyShutdown)
	}
	tr.opts.logger.shutdownPhase(ShutdownStateComplete)
	tr.signalProgress()
}

func (tr *TaskTracker) drainBestEffortForShutdown() {
	for {
		tr.mu.Lock()
		seq, obs, _, ok := tr.bestEffortHeap.PopMin()
		tr.mu.Unlock()
		if !ok {
			return
		}
		tr.opts.logger.sequencePromoted(seq.token, PriorityBestEffort)
		obs.OnCanScheduleSequence(seq)
	}
}

// FlushForTesting blocks until every incomplete undelayed task has
// completed, or shutdown has started, whichever comes first.
func (tr *TaskTracker) FlushForTesting() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	for tr.numIncompleteUndelayed.Load() != 0 && !tr.shutdown.HasStarted() {
		tr.cond.Wait()
	}
}

// FlushAsyncForTesting invokes callback exactly once, from an arbitrary
// goroutine, once the FlushForTesting condition holds. At most one pending
// async flush is allowed; a second concurrent call fails fast.
func (tr *TaskTracker) FlushAsyncForTesting(callback func()) {
	if callback == nil {
		tr.panicContractViolation("FlushAsyncForTesting", ErrInvalidTask)
	}
	if !tr.pendingFlush.CompareAndSwap(false, true) {
		tr.panicContractViolation("FlushAsyncForTesting", ErrPendingFlush)
	}
	go func() {
		tr.mu.Lock()
		for tr.numIncompleteUndelayed.Load() != 0 && !tr.shutdown.HasStarted() {
			tr.cond.Wait()
		}
		tr.mu.Unlock()
		tr.pendingFlush.Store(false)
		callback()
	}()
}

// HasShutdownStarted reports whether Shutdown has been called.
func (tr *TaskTracker) HasShutdownStarted() bool { return tr.shutdown.HasStarted() }

// IsShutdownComplete reports whether Shutdown has fully drained.
func (tr *TaskTracker) IsShutdownComplete() bool { return tr.shutdown.IsComplete() }

type pendingNotification struct {
	seq      *Sequence
	observer CanScheduleSequenceObserver
}

// SetExecutionFenceEnabled turns the execution fence on or off, per
// spec.md §4.1. Enabling parks all future admissions regardless of
// priority; disabling drains both preempted heaps in ascending
// (priority, sequenced-time) order, notifying observers — best-effort up
// to the cap, foreground without limit.
func (tr *TaskTracker) SetExecutionFenceEnabled(enabled bool) {
	tr.mu.Lock()
	if tr.fenceEnabled == enabled {
		tr.mu.Unlock()
		return
	}
	tr.fenceEnabled = enabled
	tr.opts.logger.fenceToggled(enabled)

	if enabled {
		tr.mu.Unlock()
		return
	}

	var notify []pendingNotification
	for !tr.foregroundHeap.IsEmpty() {
		s, o, _, ok := tr.foregroundHeap.PopMin()
		if !ok {
			break
		}
		notify = append(notify, pendingNotification{s, o})
	}
	for tr.withinBestEffortCapLocked() {
		s, o, _, ok := tr.bestEffortHeap.PopMin()
		if !ok {
			break
		}
		tr.numScheduledBestEffort++
		notify = append(notify, pendingNotification{s, o})
	}
	tr.mu.Unlock()

	for _, n := range notify {
		tr.opts.logger.sequencePromoted(n.seq.token, n.seq.Traits().Priority)
		n.observer.OnCanScheduleSequence(n.seq)
	}
}

// PreemptedSequenceCount returns the number of sequences currently parked
// in the PreemptedSequenceHeap that holds priority's class: best-effort has
// its own heap, while user-visible and user-blocking share the foreground
// heap, so either foreground priority returns the same count. Test-only
// observability, mirroring the original suite's assertions on preempted
// queue depth.
func (tr *TaskTracker) PreemptedSequenceCount(priority Priority) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if priority.IsForeground() {
		return tr.foregroundHeap.Len()
	}
	return tr.bestEffortHeap.Len()
}
