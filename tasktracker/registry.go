package tasktracker

import (
	"sync"
	"weak"
)

// runnerHandleBox is the strong box a task runner keeps alive and hands to
// NewTask/NewSequence; tasks and sequences hold only a weak.Pointer to it.
// This resolves spec.md §9's "cyclic ownership risk": a task runner owns
// its sequences, not vice versa, so the back-reference used only to set
// thread-local handles must never keep the runner alive.
type runnerHandleBox struct {
	handle any
}

// NewRunnerHandle wraps handle (the task runner itself, or any value it
// wants exposed via CurrentSequencedTaskRunnerHandle /
// CurrentSingleThreadTaskRunnerHandle) in a box suitable for passing to
// NewTask and NewSequence. The caller must keep the returned box reachable
// for as long as it wants the back-reference to resolve; once it is
// dropped, resolution silently returns false, exactly as if the runner had
// been destroyed.
func NewRunnerHandle(handle any) *runnerHandleBox {
	return &runnerHandleBox{handle: handle}
}

// sequenceRegistry tracks every live Sequence using weak pointers keyed by
// token, using the teacher's ring-buffer scavenging strategy (registry.go)
// so a side table lookup from SequenceToken back to *Sequence stays
// possible without the registry itself pinning sequences in memory.
type sequenceRegistry struct {
	mu   sync.RWMutex
	data map[SequenceToken]weak.Pointer[Sequence]
	ring []SequenceToken
	head int

	scavengeMu sync.Mutex
}

var globalSequenceRegistry = newSequenceRegistry()

func newSequenceRegistry() *sequenceRegistry {
	return &sequenceRegistry{
		data: make(map[SequenceToken]weak.Pointer[Sequence]),
		ring: make([]SequenceToken, 0, 1024),
	}
}

func (r *sequenceRegistry) register(s *Sequence) {
	wp := weak.Make(s)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[s.token] = wp
	r.ring = append(r.ring, s.token)
}

// LookupSequence resolves token back to its Sequence, if it is still
// reachable elsewhere (by a task runner, a worker, or a preempted heap).
func LookupSequence(token SequenceToken) (*Sequence, bool) {
	globalSequenceRegistry.mu.RLock()
	wp, ok := globalSequenceRegistry.data[token]
	globalSequenceRegistry.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s := wp.Value()
	return s, s != nil
}

// Scavenge performs a partial cleanup of the registry, dropping entries
// whose Sequence has been garbage collected. It processes up to batchSize
// ring-buffer slots per call and compacts the backing map once a full
// cycle completes with a low load factor, exactly as the teacher's promise
// registry does. Tests and long-running hosts may call this periodically;
// it is never required for correctness, only for bounding memory.
func (r *sequenceRegistry) Scavenge(batchSize int) {
	r.scavengeMu.Lock()
	defer r.scavengeMu.Unlock()

	if batchSize <= 0 {
		return
	}

	r.mu.RLock()
	ringLen := len(r.ring)
	if ringLen == 0 {
		r.mu.RUnlock()
		return
	}

	start := r.head
	end := min(start+batchSize, ringLen)

	type item struct {
		token SequenceToken
		idx   int
	}
	candidates := make([]item, 0, end-start)
	for i := start; i < end; i++ {
		tok := r.ring[i]
		if tok.Valid() {
			candidates = append(candidates, item{tok, i})
		}
	}

	wps := make([]weak.Pointer[Sequence], len(candidates))
	valid := candidates[:0]
	for _, c := range candidates {
		if wp, ok := r.data[c.token]; ok {
			wps[len(valid)] = wp
			valid = append(valid, c)
		}
	}
	wps = wps[:len(valid)]

	nextHead := end
	if nextHead >= ringLen {
		nextHead = 0
	}
	r.mu.RUnlock()

	cycleCompleted := nextHead == 0

	var dead []item
	for i, c := range valid {
		if wps[i].Value() == nil {
			dead = append(dead, c)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range dead {
		delete(r.data, c.token)
		if c.idx < len(r.ring) && r.ring[c.idx] == c.token {
			r.ring[c.idx] = SequenceToken{}
		}
	}
	r.head = nextHead

	if cycleCompleted {
		active := len(r.data)
		capacity := len(r.ring)
		if capacity > 256 && float64(active) < float64(capacity)*0.25 {
			r.compactAndRenew()
		}
	}
}

// compactAndRenew drops null markers from the ring and rebuilds the map so
// Go's hashmap bucket array is actually reclaimed. Must be called with
// mu held.
func (r *sequenceRegistry) compactAndRenew() {
	newRing := make([]SequenceToken, 0, len(r.data))
	newData := make(map[SequenceToken]weak.Pointer[Sequence], len(r.data))
	for _, tok := range r.ring {
		if tok.Valid() {
			if wp, ok := r.data[tok]; ok {
				newRing = append(newRing, tok)
				newData[tok] = wp
			}
		}
	}
	r.ring = newRing
	r.data = newData
	r.head = 0
}
