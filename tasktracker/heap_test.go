package tasktracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSequence(priority Priority) *Sequence {
	return NewSequence(TaskTraits{Priority: priority}, nil)
}

func TestPreemptedSequenceHeap_EmptyByDefault(t *testing.T) {
	h := NewPreemptedSequenceHeap()
	assert.True(t, h.IsEmpty())
	assert.Zero(t, h.Len())
	_, _, _, ok := h.PopMin()
	assert.False(t, ok)
	_, _, _, ok = h.Peek()
	assert.False(t, ok)
}

func TestPreemptedSequenceHeap_OrdersBySequencedTimeThenCreationRank(t *testing.T) {
	h := NewPreemptedSequenceHeap()

	// s1 is created before s2, so s1.token.id < s2.token.id: on a tie in
	// sequencedTime, s1 must win.
	s1 := newTestSequence(PriorityBestEffort)
	s2 := newTestSequence(PriorityBestEffort)

	h.Insert(s2, CanScheduleSequenceObserverFunc(func(*Sequence) {}), 5)
	h.Insert(s1, CanScheduleSequenceObserverFunc(func(*Sequence) {}), 5)

	first, _, _, ok := h.PopMin()
	require.True(t, ok)
	assert.Same(t, s1, first)

	second, _, _, ok := h.PopMin()
	require.True(t, ok)
	assert.Same(t, s2, second)
}

func TestPreemptedSequenceHeap_LowerSequencedTimeWinsRegardlessOfInsertOrder(t *testing.T) {
	h := NewPreemptedSequenceHeap()

	early := newTestSequence(PriorityBestEffort)
	late := newTestSequence(PriorityBestEffort)

	h.Insert(late, CanScheduleSequenceObserverFunc(func(*Sequence) {}), 100)
	h.Insert(early, CanScheduleSequenceObserverFunc(func(*Sequence) {}), 1)

	first, _, seqTime, ok := h.Peek()
	require.True(t, ok)
	assert.Same(t, early, first)
	assert.EqualValues(t, 1, seqTime)
}

func TestPreemptedSequenceHeap_DoubleInsertPanics(t *testing.T) {
	h := NewPreemptedSequenceHeap()
	s := newTestSequence(PriorityBestEffort)
	obs := CanScheduleSequenceObserverFunc(func(*Sequence) {})
	h.Insert(s, obs, 1)
	assert.Panics(t, func() {
		h.Insert(s, obs, 2)
	})
}

func TestPreemptedSequenceHeap_PopClearsQueuedFlag_AllowsReinsert(t *testing.T) {
	h := NewPreemptedSequenceHeap()
	s := newTestSequence(PriorityBestEffort)
	obs := CanScheduleSequenceObserverFunc(func(*Sequence) {})
	h.Insert(s, obs, 1)
	_, _, _, ok := h.PopMin()
	require.True(t, ok)
	assert.NotPanics(t, func() {
		h.Insert(s, obs, 2)
	})
}

func TestPreemptedSequenceHeap_PeekDoesNotRemove(t *testing.T) {
	h := NewPreemptedSequenceHeap()
	s := newTestSequence(PriorityBestEffort)
	obs := CanScheduleSequenceObserverFunc(func(*Sequence) {})
	h.Insert(s, obs, 1)
	_, _, _, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, h.Len())
}
