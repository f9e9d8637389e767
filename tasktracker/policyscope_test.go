package tasktracker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyScope_NoScopeByDefault(t *testing.T) {
	_, ok := CurrentSequenceToken()
	assert.False(t, ok)
	assert.False(t, IOAllowed())
	assert.False(t, SyncPrimitivesAllowed())
	assert.False(t, SingletonsAllowed())
}

func TestPolicyScope_PushExposesStateForDuration(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		pop := globalPolicyScopes.push(&policyState{
			sequenceToken:    SequenceToken{id: 7},
			ioAllowed:        true,
			syncAllowed:      true,
			singletons:       true,
			shutdownBehavior: ShutdownBehaviorSkipOnShutdown,
		})
		defer pop()

		tok, ok := CurrentSequenceToken()
		require.True(t, ok)
		assert.EqualValues(t, 7, tok.id)
		assert.True(t, IOAllowed())
		assert.True(t, SyncPrimitivesAllowed())
		assert.True(t, SingletonsAllowed())
	}()
	<-done
}

func TestPolicyScope_PopRestoresParentScope(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		popOuter := globalPolicyScopes.push(&policyState{sequenceToken: SequenceToken{id: 1}})
		popInner := globalPolicyScopes.push(&policyState{sequenceToken: SequenceToken{id: 2}})

		tok, ok := CurrentSequenceToken()
		require.True(t, ok)
		assert.EqualValues(t, 2, tok.id)

		popInner()

		tok, ok = CurrentSequenceToken()
		require.True(t, ok)
		assert.EqualValues(t, 1, tok.id)

		popOuter()

		_, ok = CurrentSequenceToken()
		assert.False(t, ok)
	}()
	<-done
}

func TestPolicyScope_IsolatedPerGoroutine(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		pop := globalPolicyScopes.push(&policyState{sequenceToken: SequenceToken{id: 100}})
		defer pop()
		tok, ok := CurrentSequenceToken()
		require.True(t, ok)
		assert.EqualValues(t, 100, tok.id)
	}()
	go func() {
		defer wg.Done()
		_, ok := CurrentSequenceToken()
		assert.False(t, ok)
	}()
	wg.Wait()
}

func TestCurrentRunnerHandle_ReturnsScopedHandle(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		pop := globalPolicyScopes.push(&policyState{runnerHandle: "scoped-handle"})
		defer pop()
		h, ok := CurrentSequencedTaskRunnerHandle()
		require.True(t, ok)
		assert.Equal(t, "scoped-handle", h)

		h2, ok := CurrentSingleThreadTaskRunnerHandle()
		require.True(t, ok)
		assert.Equal(t, h, h2)
	}()
	<-done
}
