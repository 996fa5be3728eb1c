package replay

import (
	"testing"
	"time"
)

func TestComputeProgressPercent(t *testing.T) {
	now := time.Now()
	p := computeProgress("sess-1", 10, 5, "hook-6", now.Add(-5*time.Second), now, 1.0, nil, Running)
	if p.ProgressPercent != 50 {
		t.Errorf("ProgressPercent = %v, want 50", p.ProgressPercent)
	}
	if p.TotalHooks != 10 || p.HooksCompleted != 5 {
		t.Errorf("unexpected totals: %+v", p)
	}
}

func TestComputeProgressNoRemainingBeforeFirstHook(t *testing.T) {
	now := time.Now()
	p := computeProgress("sess-1", 10, 0, "hook-1", now, now, 1.0, nil, Running)
	if p.EstimatedRemaining != 0 {
		t.Errorf("expected zero estimated remaining before any hook completes, got %v", p.EstimatedRemaining)
	}
}

func TestComputeProgressRemainingAdjustedBySpeed(t *testing.T) {
	startedAt := time.Now().Add(-10 * time.Second)
	now := startedAt.Add(10 * time.Second)

	// 5 of 10 hooks done in 10s real time => 2s/hook average => 5 hooks
	// left => naive remaining 10s, halved by a speed-2 multiplier.
	p := computeProgress("sess-1", 10, 5, "hook-6", startedAt, now, 2.0, nil, Running)
	if p.EstimatedRemaining != 5*time.Second {
		t.Errorf("EstimatedRemaining = %v, want %v", p.EstimatedRemaining, 5*time.Second)
	}
}

func TestComputeProgressCompleteLeavesNoRemaining(t *testing.T) {
	now := time.Now()
	p := computeProgress("sess-1", 10, 10, "", now.Add(-time.Minute), now, 1.0, nil, Completed)
	if p.EstimatedRemaining != 0 {
		t.Errorf("expected zero estimated remaining once complete, got %v", p.EstimatedRemaining)
	}
	if p.ProgressPercent != 100 {
		t.Errorf("ProgressPercent = %v, want 100", p.ProgressPercent)
	}
}
