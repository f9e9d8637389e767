package tasktracker

import (
	"sync"
	"sync/atomic"
	"weak"
)

// SequenceToken is a Sequence's fresh, opaque identity. Tokens are minted in
// creation order, so a token's numeric value doubles as the
// "sequence_creation_rank" spec.md §4.3 uses to break ties in the preempted
// heaps.
type SequenceToken struct {
	id uint64
}

// Valid reports whether t was minted by NewSequence (as opposed to the zero
// value returned when no sequence is in scope).
func (t SequenceToken) Valid() bool { return t.id != 0 }

var sequenceTokenCounter atomic.Uint64

func nextSequenceToken() SequenceToken {
	return SequenceToken{id: sequenceTokenCounter.Add(1)}
}

// Sequence is an ordered, single-consumer FIFO of tasks sharing an identity
// token. Every inspection or mutation happens under the sequence's own
// transaction (Lock/Unlock), per spec.md §5 — transactions on distinct
// sequences are independent, and the tracker's lock is never held across
// user code.
type Sequence struct {
	token  SequenceToken
	traits TaskTraits

	mu    sync.Mutex
	tasks taskIngress

	// runnerHandle is a weak back-reference to the task runner that owns
	// this sequence; see registry.go and spec.md §9's "cyclic ownership
	// risk" design note. Nil weak.Pointer if the sequence has no runner
	// back-reference.
	runnerHandle weak.Pointer[runnerHandleBox]

	// queued marks whether the sequence currently occupies a slot in a
	// PreemptedSequenceHeap, enforcing "a sequence cannot be double-inserted"
	// (spec.md §4.3).
	queued atomic.Bool
}

// NewSequence creates a fresh Sequence with the given traits. runnerHandle,
// if non-nil, is the strong box the sequence's owning task runner keeps
// alive; see NewRunnerHandle in registry.go. The sequence holds only a weak
// reference to it.
func NewSequence(traits TaskTraits, runnerHandle *runnerHandleBox) *Sequence {
	s := &Sequence{
		token:  nextSequenceToken(),
		traits: traits,
	}
	if runnerHandle != nil {
		s.runnerHandle = weak.Make(runnerHandle)
	}
	globalSequenceRegistry.register(s)
	return s
}

// Token returns the sequence's identity.
func (s *Sequence) Token() SequenceToken { return s.token }

// Traits returns the sequence's immutable trait bundle.
func (s *Sequence) Traits() TaskTraits { return s.traits }

// Lock acquires the sequence's transaction and returns a handle for
// inspecting or mutating its task queue. Always Unlock the returned
// transaction, typically via defer.
func (s *Sequence) Lock() *SequenceTransaction {
	s.mu.Lock()
	return &SequenceTransaction{seq: s}
}

// SequenceTransaction is the per-sequence transaction object named in
// spec.md §3 and §5. It wraps exclusive access to one Sequence's task
// queue; hold it for at most a single tracker call (lock order:
// sequence-transaction → tracker-lock).
type SequenceTransaction struct {
	seq      *Sequence
	unlocked bool
}

// Unlock releases the transaction. Safe to call more than once; a second
// call is a no-op rather than a panic, since defer+explicit-unlock is a
// common, harmless double-release pattern.
func (t *SequenceTransaction) Unlock() {
	if t.unlocked {
		return
	}
	t.unlocked = true
	t.seq.mu.Unlock()
}

// Sequence returns the underlying Sequence this transaction guards.
func (t *SequenceTransaction) Sequence() *Sequence { return t.seq }

// Token returns the sequence's identity.
func (t *SequenceTransaction) Token() SequenceToken { return t.seq.token }

// Traits returns the sequence's immutable trait bundle.
func (t *SequenceTransaction) Traits() TaskTraits { return t.seq.traits }

// PushTask enqueues task at the tail. The sequence never reorders tasks.
func (t *SequenceTransaction) PushTask(task *Task) {
	t.seq.tasks.Push(task)
}

// PeekFront returns the front task without removing it, or nil if empty.
func (t *SequenceTransaction) PeekFront() *Task {
	return t.seq.tasks.Peek()
}

// IsEmpty reports whether the sequence currently holds no tasks.
func (t *SequenceTransaction) IsEmpty() bool {
	return t.seq.tasks.Length() == 0
}

// PopFront removes and returns the front task. Popping an empty sequence is
// a contract violation (spec.md §8's round-trip law: "the (n+1)th call is
// undefined") and fails fast.
func (t *SequenceTransaction) PopFront() *Task {
	task, ok := t.seq.tasks.Pop()
	if !ok {
		panic(newContractViolation("Sequence.PopFront", ErrSequenceEmpty))
	}
	return task
}

// sequencedTime returns the front task's stamp and true, or (0, false) if
// the sequence is empty. This is the sequence's "current sequenced-time"
// per spec.md §3, used as the preempted-heap sort key.
func (t *SequenceTransaction) sequencedTime() (int64, bool) {
	front := t.seq.tasks.Peek()
	if front == nil {
		return 0, false
	}
	return front.sequencedTime, true
}
