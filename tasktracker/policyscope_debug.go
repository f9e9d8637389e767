//go:build tasktrackerdebug

package tasktracker

// reportPolicyViolation implements the debug build's half of spec.md §7's
// "fail-fast under debug, silent under release" split for policy-scope
// misuse (e.g. AssertIOAllowed called off a task's goroutine, or while
// MayBlock is false). Mirrors the teacher's DEBUG-gated assertions.
func reportPolicyViolation(op string, cause error) {
	panic(newContractViolation(op, cause))
}
