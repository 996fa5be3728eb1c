// Package replay implements deterministic re-execution of captured hook
// invocations (core/hooks.CapturedHookExecution) under user-controlled
// pacing and breakpoints.
package replay

// State is the closed set of states a replay Session moves through.
type State string

const (
	Scheduled State = "scheduled"
	Running   State = "running"
	Paused    State = "paused"
	Completed State = "completed"
	Failed    State = "failed"
	Stopped   State = "stopped"
)

var validEdges = map[State]map[State]bool{
	Scheduled: {Running: true, Stopped: true},
	Running:   {Paused: true, Completed: true, Failed: true, Stopped: true},
	Paused:    {Running: true, Stopped: true},
	Completed: {},
	Failed:    {},
	Stopped:   {},
}

// transitionAllowed reports whether from -> to is in validEdges; callers
// build the *coreerrors.Error for a rejected edge themselves.
func transitionAllowed(from, to State) bool {
	edges, ok := validEdges[from]
	return ok && edges[to]
}

// String implements fmt.Stringer.
func (s State) String() string { return string(s) }
