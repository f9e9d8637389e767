package tasktracker

import (
	"sync"
	"sync/atomic"
)

// TaskExecutor runs tasks routed to it via Task.ExtensionID. Routing happens
// above the tracker (spec.md §6): the tracker never dispatches an
// extension-routed task itself.
type TaskExecutor interface {
	ExecuteTask(task *Task, payload any)
}

// extensionRegistry is the process-wide extension-executor registry named
// in spec.md §6 and §9 ("global state ... process-wide"). Registration is
// permitted only between process start and the first WillPostTask of any
// TaskTracker in the process; after that the registry freezes.
type extensionRegistry struct {
	mu        sync.Mutex
	executors map[string]TaskExecutor
}

var globalExtensionRegistry = &extensionRegistry{executors: make(map[string]TaskExecutor)}

// extensionRegistryFrozen is flipped to true by the first WillPostTask call
// in the process for a task not routed to a registered executor, per
// spec.md §9.
var extensionRegistryFrozen atomic.Bool

// RegisterTaskExecutor registers executor for extensionID. Must be called
// exactly once per id, and only before the process's first WillPostTask of a
// task not routed to a registered executor; a second registration, or one
// attempted after such a task has been posted, fails fast.
func RegisterTaskExecutor(extensionID string, executor TaskExecutor) {
	if extensionRegistryFrozen.Load() {
		panic(newContractViolation("RegisterTaskExecutor", ErrExtensionRegistryFrozen))
	}
	globalExtensionRegistry.mu.Lock()
	defer globalExtensionRegistry.mu.Unlock()
	if _, ok := globalExtensionRegistry.executors[extensionID]; ok {
		panic(newContractViolation("RegisterTaskExecutor", ErrExtensionAlreadyRegistered))
	}
	globalExtensionRegistry.executors[extensionID] = executor
}

// UnregisterTaskExecutor removes the executor registered for extensionID.
// Fails fast if none is registered.
func UnregisterTaskExecutor(extensionID string) {
	globalExtensionRegistry.mu.Lock()
	defer globalExtensionRegistry.mu.Unlock()
	if _, ok := globalExtensionRegistry.executors[extensionID]; !ok {
		panic(newContractViolation("UnregisterTaskExecutor", ErrExtensionNotRegistered))
	}
	delete(globalExtensionRegistry.executors, extensionID)
}

// lookupTaskExecutor returns the executor registered for extensionID, if
// any. A lookup that finds no executor (the path WillPostTask takes for a
// task it accounts for itself) freezes the registry as a side effect; a
// lookup that resolves to a registered executor does not.
func lookupTaskExecutor(extensionID string) (TaskExecutor, bool) {
	if extensionID == "" {
		extensionRegistryFrozen.Store(true)
		return nil, false
	}
	globalExtensionRegistry.mu.Lock()
	defer globalExtensionRegistry.mu.Unlock()
	executor, ok := globalExtensionRegistry.executors[extensionID]
	if !ok {
		extensionRegistryFrozen.Store(true)
	}
	return executor, ok
}
