//go:build !tasktrackerdebug

package tasktracker

import (
	"bytes"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
)

// TestReportPolicyViolation_ReleaseBuildLogsAndContinues exercises the
// !tasktrackerdebug half of the build-tag split: a violation is logged, not
// panicked.
func TestReportPolicyViolation_ReleaseBuildLogsAndContinues(t *testing.T) {
	var buf bytes.Buffer
	prior := defaultPolicyViolationLogger
	defer SetPolicyViolationLogger(prior)
	SetPolicyViolationLogger(NewLogger(&buf, logiface.LevelInformational))

	assert.NotPanics(t, func() {
		AssertIOAllowed()
	})
	assert.Contains(t, buf.String(), "AssertIOAllowed")
}

func TestSetPolicyViolationLogger_NilRestoresDefault(t *testing.T) {
	prior := defaultPolicyViolationLogger
	defer SetPolicyViolationLogger(prior)
	SetPolicyViolationLogger(nil)
	assert.NotNil(t, defaultPolicyViolationLogger)
}
