package replay

import (
	"testing"
	"time"

	"github.com/lexlapax/rs-llmspell-sub006/core/hooks"
)

func TestBreakOnHookIDMatches(t *testing.T) {
	bp := Breakpoint{Kind: BreakOnHookID, HookID: "hook-a:v1", Enabled: true}
	ctx := evalContext{upcoming: hooks.CapturedHookExecution{HookID: "hook-a:v1"}}
	if !bp.matches(ctx) {
		t.Fatalf("expected match on equal hook id")
	}
	ctx.upcoming.HookID = "hook-b:v1"
	if bp.matches(ctx) {
		t.Fatalf("expected no match on differing hook id")
	}
}

func TestBreakOnTimestampMatchesAtOrAfter(t *testing.T) {
	target := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bp := Breakpoint{Kind: BreakOnTimestamp, Timestamp: target, Enabled: true}

	if !bp.matches(evalContext{upcoming: hooks.CapturedHookExecution{Timestamp: target}}) {
		t.Fatalf("expected match at the exact timestamp")
	}
	if !bp.matches(evalContext{upcoming: hooks.CapturedHookExecution{Timestamp: target.Add(time.Second)}}) {
		t.Fatalf("expected match after the timestamp")
	}
	if bp.matches(evalContext{upcoming: hooks.CapturedHookExecution{Timestamp: target.Add(-time.Second)}}) {
		t.Fatalf("expected no match before the timestamp")
	}
}

func TestBreakOnErrorMatches(t *testing.T) {
	bp := Breakpoint{Kind: BreakOnError, Enabled: true}
	if !bp.matches(evalContext{hadError: true}) {
		t.Fatalf("expected match when hadError is true")
	}
	if bp.matches(evalContext{hadError: false}) {
		t.Fatalf("expected no match when hadError is false")
	}
}

func TestBreakOnHookCountMatchesAtOrAbove(t *testing.T) {
	bp := Breakpoint{Kind: BreakOnHookCount, HookCount: 5, Enabled: true}
	if bp.matches(evalContext{hooksCompleted: 4}) {
		t.Fatalf("expected no match below the threshold")
	}
	if !bp.matches(evalContext{hooksCompleted: 5}) {
		t.Fatalf("expected match at the threshold")
	}
	if !bp.matches(evalContext{hooksCompleted: 6}) {
		t.Fatalf("expected match above the threshold")
	}
}

func TestBreakOnStateKeyMatchesValue(t *testing.T) {
	bp := Breakpoint{Kind: BreakOnStateKey, StateKey: "phase", StateValue: "done", Enabled: true}
	if !bp.matches(evalContext{stateSnapshot: map[string]any{"phase": "done"}}) {
		t.Fatalf("expected match on equal state value")
	}
	if bp.matches(evalContext{stateSnapshot: map[string]any{"phase": "pending"}}) {
		t.Fatalf("expected no match on differing state value")
	}
	if bp.matches(evalContext{stateSnapshot: map[string]any{}}) {
		t.Fatalf("expected no match when the key is absent")
	}
}

func TestDisabledBreakpointNeverMatches(t *testing.T) {
	bp := Breakpoint{Kind: BreakOnError, Enabled: false}
	if bp.matches(evalContext{hadError: true}) {
		t.Fatalf("expected a disabled breakpoint to never match")
	}
}
