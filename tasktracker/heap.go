package tasktracker

import "container/heap"

// preemptedEntry is one element of a PreemptedSequenceHeap: a sequence
// deferred by the concurrency cap or the execution fence, plus the
// observer to notify once it is cleared to run.
type preemptedEntry struct {
	sequence *Sequence
	observer CanScheduleSequenceObserver
	// key is snapshotted at insertion time: (sequenced_time,
	// sequence_creation_rank), per spec.md §4.3. The heap never re-reads
	// the sequence after insertion, so a later push onto a still-queued
	// sequence cannot perturb its position.
	sequencedTime int64
	creationRank  uint64
}

// preemptedHeapData implements container/heap.Interface, following the
// teacher's timerHeap (loop.go): a plain slice plus Len/Less/Swap/Push/Pop.
type preemptedHeapData []*preemptedEntry

func (h preemptedHeapData) Len() int { return len(h) }

func (h preemptedHeapData) Less(i, j int) bool {
	if h[i].sequencedTime != h[j].sequencedTime {
		return h[i].sequencedTime < h[j].sequencedTime
	}
	return h[i].creationRank < h[j].creationRank
}

func (h preemptedHeapData) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *preemptedHeapData) Push(x any) {
	*h = append(*h, x.(*preemptedEntry))
}

func (h *preemptedHeapData) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// PreemptedSequenceHeap is a min-heap of sequences deferred by the
// concurrency cap or the execution fence, keyed by (sequenced_time,
// sequence_creation_rank), per spec.md §4.3. Not safe for concurrent use;
// TaskTracker guards it with the scheduler lock.
type PreemptedSequenceHeap struct {
	data preemptedHeapData
}

// NewPreemptedSequenceHeap returns an empty heap.
func NewPreemptedSequenceHeap() *PreemptedSequenceHeap {
	return &PreemptedSequenceHeap{}
}

// Insert parks sequence with observer. Panics if sequence already occupies
// a slot in a PreemptedSequenceHeap ("sequence identity is unique per
// heap — a sequence cannot be double-inserted", spec.md §4.3).
func (h *PreemptedSequenceHeap) Insert(sequence *Sequence, observer CanScheduleSequenceObserver, sequencedTime int64) {
	if !sequence.queued.CompareAndSwap(false, true) {
		panic(newContractViolation("PreemptedSequenceHeap.Insert", ErrSequenceAlreadyQueued))
	}
	heap.Push(&h.data, &preemptedEntry{
		sequence:      sequence,
		observer:      observer,
		sequencedTime: sequencedTime,
		creationRank:  sequence.token.id,
	})
}

// PopMin removes and returns the entry with the smallest key, or false if
// the heap is empty.
func (h *PreemptedSequenceHeap) PopMin() (sequence *Sequence, observer CanScheduleSequenceObserver, sequencedTime int64, ok bool) {
	if len(h.data) == 0 {
		return nil, nil, 0, false
	}
	e := heap.Pop(&h.data).(*preemptedEntry)
	e.sequence.queued.Store(false)
	return e.sequence, e.observer, e.sequencedTime, true
}

// Peek returns the entry with the smallest key without removing it.
func (h *PreemptedSequenceHeap) Peek() (sequence *Sequence, observer CanScheduleSequenceObserver, sequencedTime int64, ok bool) {
	if len(h.data) == 0 {
		return nil, nil, 0, false
	}
	e := h.data[0]
	return e.sequence, e.observer, e.sequencedTime, true
}

// IsEmpty reports whether the heap holds no sequences.
func (h *PreemptedSequenceHeap) IsEmpty() bool { return len(h.data) == 0 }

// Len returns the number of parked sequences.
func (h *PreemptedSequenceHeap) Len() int { return len(h.data) }
