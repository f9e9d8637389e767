package tasktracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriority_ZeroValueIsUserVisible(t *testing.T) {
	var p Priority
	assert.Equal(t, PriorityUserVisible, p)
	assert.True(t, p.IsForeground())
}

func TestPriority_IsForeground(t *testing.T) {
	tests := []struct {
		name     string
		priority Priority
		want     bool
	}{
		{"best-effort", PriorityBestEffort, false},
		{"user-visible", PriorityUserVisible, true},
		{"user-blocking", PriorityUserBlocking, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.priority.IsForeground())
		})
	}
}

func TestPriority_String(t *testing.T) {
	tests := []struct {
		priority Priority
		want     string
	}{
		{PriorityBestEffort, "best-effort"},
		{PriorityUserVisible, "user-visible"},
		{PriorityUserBlocking, "user-blocking"},
		{Priority(99), "unknown-priority"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.priority.String())
	}
}

func TestShutdownBehavior_String(t *testing.T) {
	tests := []struct {
		behavior ShutdownBehavior
		want     string
	}{
		{ShutdownBehaviorSkipOnShutdown, "skip-on-shutdown"},
		{ShutdownBehaviorContinueOnShutdown, "continue-on-shutdown"},
		{ShutdownBehaviorBlockShutdown, "block-shutdown"},
		{ShutdownBehavior(99), "unknown-shutdown-behavior"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.behavior.String())
	}
}

func TestNewTask_NilRunnablePanics(t *testing.T) {
	require.Panics(t, func() {
		NewTask("test", nil, 0, nil)
	})
}

func TestNewTask_SequencedTimeZeroBeforeAdmission(t *testing.T) {
	task := NewTask("test", func() {}, 0, nil)
	assert.Zero(t, task.SequencedTime())
}

func TestTask_ReadyToRun(t *testing.T) {
	undelayed := NewTask("test", func() {}, 0, nil)
	assert.True(t, undelayed.readyToRun(defaultDelaySource()))

	delayed := NewTask("test", func() {}, time.Hour, nil)
	delayed.admittedAt = time.Now()
	assert.False(t, delayed.readyToRun(defaultDelaySource()))

	elapsed := NewTask("test", func() {}, time.Nanosecond, nil)
	elapsed.admittedAt = time.Now().Add(-time.Hour)
	assert.True(t, elapsed.readyToRun(defaultDelaySource()))
}

func TestTask_RunnerHandle_ResolvesWhileBoxReachable(t *testing.T) {
	box := NewRunnerHandle("my-runner")
	task := NewTask("test", func() {}, 0, box)
	seq := NewSequence(TaskTraits{}, nil)
	handle := resolveRunnerHandle(task, seq)
	require.NotNil(t, handle)
	assert.Equal(t, "my-runner", handle)
}

func TestTask_RunnerHandle_FallsBackToSequence(t *testing.T) {
	box := NewRunnerHandle("seq-runner")
	task := NewTask("test", func() {}, 0, nil)
	seq := NewSequence(TaskTraits{}, box)
	handle := resolveRunnerHandle(task, seq)
	require.NotNil(t, handle)
	assert.Equal(t, "seq-runner", handle)
}
