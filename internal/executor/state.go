// Package executor runs a validated plan: it schedules tasks respecting
// their declared dependencies, bounds handler parallelism, and records
// per-task outcomes.
//
// All scheduling decisions (readiness computation, state transitions)
// happen on the single goroutine running the executor loop; only handler
// invocation is parallelized. That keeps the dependency bookkeeping free
// of races without any locking on the graph.
package executor

// State is the lifecycle position of one task.
//
// PENDING -> READY -> RUNNING -> {SUCCEEDED, FAILED, SKIPPED}
//
// SKIPPED is reached directly from PENDING or READY when a dependency
// fails; it propagates transitively so no downstream task is silently
// dropped.
type State string

const (
	StatePending   State = "PENDING"
	StateReady     State = "READY"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateSkipped   State = "SKIPPED"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateSkipped:
		return true
	default:
		return false
	}
}
