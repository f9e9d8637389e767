//go:build !tasktrackerdebug

package tasktracker

// reportPolicyViolation implements the release build's half of spec.md §7's
// "fail-fast under debug, silent under release" split for policy-scope
// misuse: the violation is logged and otherwise ignored, never panics.
func reportPolicyViolation(op string, cause error) {
	defaultPolicyViolationLogger.contractViolation(newContractViolation(op, cause))
}

// defaultPolicyViolationLogger is process-wide because AssertIOAllowed and
// its siblings are free functions, not TaskTracker methods: the policy
// scope they inspect is goroutine-local, not tracker-owned, so there is no
// per-tracker Logger to route through. Overridable for tests via
// SetPolicyViolationLogger.
var defaultPolicyViolationLogger = defaultLogger()

// SetPolicyViolationLogger overrides the Logger used by release-build
// AssertIOAllowed/AssertSyncPrimitivesAllowed/AssertSingletonsAllowed calls.
// Intended for tests that want to assert on the emitted log line instead of
// writing to the real default logger.
func SetPolicyViolationLogger(log *Logger) {
	if log == nil {
		log = defaultLogger()
	}
	defaultPolicyViolationLogger = log
}
