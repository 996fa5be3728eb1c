package replay

import "time"

// Progress is a point-in-time snapshot of a Session's playback position.
type Progress struct {
	SessionID            string
	TotalHooks           int
	HooksCompleted       int
	CurrentHookID        string
	StartedAt            time.Time
	EstimatedRemaining   time.Duration
	SpeedMultiplier      float64
	ActiveBreakpointIDs  []string
	ProgressPercent      float64
	State                State
}

// computeProgress derives a Progress snapshot from the session's live
// counters. Estimated time remaining is recomputed from elapsed/completed,
// extrapolated over the hooks still to run and adjusted by the current
// speed multiplier; it is zero until at least one hook has completed.
func computeProgress(sessionID string, total, completed int, currentHookID string, startedAt time.Time, now time.Time, speed float64, activeBreakpoints []string, state State) Progress {
	var percent float64
	if total > 0 {
		percent = 100 * float64(completed) / float64(total)
	}

	var remaining time.Duration
	if completed > 0 && completed < total {
		elapsed := now.Sub(startedAt)
		perHook := elapsed / time.Duration(completed)
		remaining = perHook * time.Duration(total-completed)
		remaining = Apply(remaining, speed)
	}

	return Progress{
		SessionID:           sessionID,
		TotalHooks:          total,
		HooksCompleted:      completed,
		CurrentHookID:       currentHookID,
		StartedAt:           startedAt,
		EstimatedRemaining:  remaining,
		SpeedMultiplier:     speed,
		ActiveBreakpointIDs: activeBreakpoints,
		ProgressPercent:     percent,
		State:               state,
	}
}

// ProgressCallback is notified on every progress update or state transition.
type ProgressCallback func(Progress)
