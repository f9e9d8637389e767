// Package tasktracker implements the admission, dispatch-gating, and
// orderly-shutdown core of an in-process task scheduler.
//
// # Architecture
//
// Producers post [Task] values tagged with [TaskTraits] via
// [TaskTracker.WillPostTask]. Admitted tasks accumulate on a [Sequence], a
// single-consumer FIFO identified by an opaque [SequenceToken]. A sequence
// is offered to the tracker via [TaskTracker.WillScheduleSequence]; if the
// concurrency cap or the execution fence defers it, the sequence is parked
// in a [PreemptedSequenceHeap] and its [CanScheduleSequenceObserver] is
// notified later, on an arbitrary goroutine, exactly once. Otherwise a
// worker calls [TaskTracker.RunAndPopNextTask] to run the sequence's front
// task, install goroutine-local policy state for its duration, and decide
// whether the sequence should be re-dispatched, discarded, or yielded back
// to an earlier-queued preempted best-effort sequence.
//
// # Shutdown
//
// [TaskTracker.Shutdown] moves the tracker through a strict
// running → shutting-down → shutdown-complete state machine. Tasks tagged
// [ShutdownBehaviorBlockShutdown] are guaranteed to run to completion before
// Shutdown returns; tasks tagged [ShutdownBehaviorSkipOnShutdown] are
// dropped at the run gate once shutdown has started; tasks tagged
// [ShutdownBehaviorContinueOnShutdown] already running are never waited on.
//
// # Concurrency cap and fence
//
// [TaskTracker] admits best-effort sequences up to a configured
// [WithMaxConcurrentBestEffortSequences] cap; foreground (user-visible,
// user-blocking) sequences are never capped. [TaskTracker.SetExecutionFenceEnabled]
// additionally pauses all admission while enabled, parking every
// would-be-admitted sequence regardless of priority.
//
// # Thread safety
//
// The tracker's state is guarded by a single internal lock except for the
// shutdown-state word and the two incomplete-task counters, which are
// atomics read on the fast admission/run-gate path. Sequences themselves
// use a per-sequence transaction (a mutex) so producers pushing tasks never
// contend with the tracker's lock directly.
//
// # Goroutine-local policy
//
// [CurrentSequenceToken], [CurrentSequencedTaskRunnerHandle], and
// [CurrentSingleThreadTaskRunnerHandle] are valid only during the dynamic
// extent of a task's execution on the goroutine running it; they are
// installed and torn down by [TaskTracker.RunAndPopNextTask] via an
// internal policy scope keyed by goroutine id.
//
// # Usage
//
//	tr := tasktracker.NewTaskTracker("Example", tasktracker.WithMaxConcurrentBestEffortSequences(4))
//
//	traits := tasktracker.TaskTraits{
//		ShutdownBehavior: tasktracker.ShutdownBehaviorSkipOnShutdown,
//		Priority:         tasktracker.PriorityUserVisible,
//	}
//	seq := tasktracker.NewSequence(traits, nil)
//	task := tasktracker.NewTask("example.go:1", func() {
//		fmt.Println("hello")
//	}, 0, nil)
//
//	txn := seq.Lock()
//	if tr.WillPostTask(task, traits.ShutdownBehavior) {
//		txn.PushTask(task)
//	}
//	txn.Unlock()
//
//	if tr.WillScheduleSequence(seq, myObserver) {
//		// a worker drains seq by calling tr.RunAndPopNextTask(seq, myObserver)
//		// for as long as it returns seq, stopping once it returns nil.
//	}
//
//	tr.Shutdown()
package tasktracker
