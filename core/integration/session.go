package integration

import (
	"context"

	"github.com/lexlapax/rs-llmspell-sub006/core/state"
)

// RunContext carries the identifier layering a session-sharing collaborator
// (a UI, a multi-client notebook front end) needs to correlate state with a
// specific invocation, generalized from the teacher's run.Context
// (RunID/TurnID/SessionID/parent linkage for nested agent-as-tool runs).
// The infrastructure/application/conversation layering is kept; the
// Temporal-specific and tool-wire fields (ToolArgs, goa-ai's agent.Ident) are
// dropped since this package has no workflow engine or transport of its own.
type RunContext struct {
	// RunID identifies a single durable execution attempt.
	RunID string
	// TurnID groups the events of one conversational turn; a turn may span
	// more than one RunID across a pause/resume or retry.
	TurnID string
	// SessionID groups related turns/runs into one conversation or task.
	SessionID string
	// ParentRunID and ParentComponentID identify the enclosing run and
	// component when this run is a nested execution (agent-as-tool),
	// generalized from run.Context's ParentRunID/ParentAgentID. Both are
	// empty for a top-level run.
	ParentRunID       string
	ParentComponentID string
}

// StateScopes returns the core/state scopes this run's state should be
// readable/writable under, narrowest first: the run's own session scope,
// then (if set) the parent component's agent scope, letting a nested run inherit
// context accumulated by its parent without the two sharing a single scope.
func (rc RunContext) StateScopes() []state.Scope {
	scopes := make([]state.Scope, 0, 2)
	if rc.SessionID != "" {
		scopes = append(scopes, state.Session(rc.SessionID))
	}
	if rc.ParentComponentID != "" {
		scopes = append(scopes, state.Agent(rc.ParentComponentID))
	}
	return scopes
}

// SessionEventKind enumerates the events a session-sharing collaborator
// (a UI rendering a live conversation timeline) subscribes to.
type SessionEventKind string

const (
	SessionEventTurnStarted   SessionEventKind = "turn_started"
	SessionEventTurnCompleted SessionEventKind = "turn_completed"
	SessionEventRunStarted    SessionEventKind = "run_started"
	SessionEventRunCompleted  SessionEventKind = "run_completed"
	SessionEventStateChanged  SessionEventKind = "state_changed"
)

// SessionEvent is one entry in a session's shared timeline.
type SessionEvent struct {
	Kind    SessionEventKind
	Run     RunContext
	Seq     int
	Payload any
}

// SessionSink receives session events as they occur, for a UI or
// conversation-log collaborator to render or persist. Implementations decide
// their own buffering and fan-out; Publish is expected not to block the
// caller for long.
type SessionSink interface {
	Publish(ctx context.Context, event SessionEvent) error
}

// SessionShare is the contract a session-sharing collaborator implements to
// both observe a session's live event stream and enumerate its state scopes,
// without this package needing to know whether the collaborator is a
// websocket hub, a Jupyter-style notebook front end, or a flat log file.
type SessionShare interface {
	SessionSink
	// Scopes returns every state scope currently associated with sessionID,
	// narrowest first, for a collaborator that wants to snapshot or mirror
	// state rather than only observe the event stream.
	Scopes(sessionID string) []state.Scope
}
