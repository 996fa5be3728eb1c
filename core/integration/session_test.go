package integration

import (
	"context"
	"testing"

	"github.com/lexlapax/rs-llmspell-sub006/core/state"
)

func TestRunContextStateScopesSessionOnly(t *testing.T) {
	rc := RunContext{SessionID: "sess-1"}
	scopes := rc.StateScopes()
	if len(scopes) != 1 || scopes[0] != state.Session("sess-1") {
		t.Fatalf("got %+v, want [Session(sess-1)]", scopes)
	}
}

func TestRunContextStateScopesIncludesParentComponent(t *testing.T) {
	rc := RunContext{SessionID: "sess-1", ParentComponentID: "planner"}
	scopes := rc.StateScopes()
	want := []state.Scope{state.Session("sess-1"), state.Agent("planner")}
	if len(scopes) != 2 || scopes[0] != want[0] || scopes[1] != want[1] {
		t.Fatalf("got %+v, want %+v", scopes, want)
	}
}

func TestRunContextStateScopesEmptyWhenUnset(t *testing.T) {
	rc := RunContext{}
	if scopes := rc.StateScopes(); len(scopes) != 0 {
		t.Fatalf("expected no scopes for an unset RunContext, got %+v", scopes)
	}
}

type recordingSink struct {
	events []SessionEvent
}

func (r *recordingSink) Publish(ctx context.Context, event SessionEvent) error {
	r.events = append(r.events, event)
	return nil
}

func TestRecordingSinkSatisfiesSessionSinkContract(t *testing.T) {
	var sink SessionSink = &recordingSink{}
	rc := RunContext{SessionID: "sess-1", RunID: "run-1"}
	event := SessionEvent{Kind: SessionEventRunStarted, Run: rc, Seq: 1}
	if err := sink.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	rs := sink.(*recordingSink)
	if len(rs.events) != 1 || rs.events[0].Kind != SessionEventRunStarted {
		t.Fatalf("unexpected events recorded: %+v", rs.events)
	}
}

type fakeSessionShare struct {
	recordingSink
	scopes map[string][]state.Scope
}

func (f *fakeSessionShare) Scopes(sessionID string) []state.Scope {
	return f.scopes[sessionID]
}

func TestFakeSessionShareSatisfiesSessionShareContract(t *testing.T) {
	var share SessionShare = &fakeSessionShare{
		scopes: map[string][]state.Scope{"sess-1": {state.Session("sess-1")}},
	}
	if got := share.Scopes("sess-1"); len(got) != 1 || got[0] != state.Session("sess-1") {
		t.Fatalf("got %+v", got)
	}
	if err := share.Publish(context.Background(), SessionEvent{Kind: SessionEventTurnStarted}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}
