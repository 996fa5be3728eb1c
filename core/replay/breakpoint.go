package replay

import (
	"time"

	"github.com/lexlapax/rs-llmspell-sub006/core/hooks"
)

// BreakpointKind is the closed set of conditions a Breakpoint can trigger on.
type BreakpointKind string

const (
	// BreakOnHookID fires when the next hook to run matches HookID.
	BreakOnHookID BreakpointKind = "hook_id"
	// BreakOnTimestamp fires once the captured execution's timestamp is at
	// or after Timestamp.
	BreakOnTimestamp BreakpointKind = "timestamp"
	// BreakOnError fires when the hook's captured result was Halt or Error.
	BreakOnError BreakpointKind = "on_error"
	// BreakOnStateKey fires when session-state key StateKey equals StateValue.
	BreakOnStateKey BreakpointKind = "state_key_equals"
	// BreakOnHookCount fires once HookCount hooks have completed.
	BreakOnHookCount BreakpointKind = "hook_count"
)

// Breakpoint is a single pause condition registered on a Session.
type Breakpoint struct {
	ID       string
	Kind     BreakpointKind
	HookID   string
	Timestamp time.Time
	StateKey   string
	StateValue any
	HookCount  int

	// OneShot breakpoints auto-disable the first time they fire.
	OneShot bool
	Enabled bool
}

// evalContext is the information available to a Breakpoint at the moment a
// captured hook execution is about to run (or has just run).
type evalContext struct {
	upcoming       hooks.CapturedHookExecution
	hooksCompleted int
	lastResult     hooks.Result
	hadError       bool
	stateSnapshot  map[string]any
}

// matches reports whether bp's condition is satisfied given ctx. Breakpoints
// that inspect "the next hook" (HookID, Timestamp) are evaluated before that
// hook runs; count/error/state breakpoints are evaluated after.
func (bp Breakpoint) matches(ctx evalContext) bool {
	if !bp.Enabled {
		return false
	}
	switch bp.Kind {
	case BreakOnHookID:
		return ctx.upcoming.HookID == bp.HookID
	case BreakOnTimestamp:
		return !ctx.upcoming.Timestamp.Before(bp.Timestamp)
	case BreakOnError:
		return ctx.hadError
	case BreakOnHookCount:
		return ctx.hooksCompleted >= bp.HookCount
	case BreakOnStateKey:
		v, ok := ctx.stateSnapshot[bp.StateKey]
		return ok && v == bp.StateValue
	default:
		return false
	}
}
