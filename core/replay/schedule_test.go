package replay

import (
	"testing"
	"time"
)

func TestImmediateScheduleFiresOnce(t *testing.T) {
	sched := ImmediateSchedule()
	now := time.Now()

	fireAt, ok := sched.NextExecution(now, 0)
	if !ok || !fireAt.Equal(now) {
		t.Fatalf("expected immediate fire at %v, got %v (ok=%v)", now, fireAt, ok)
	}

	if _, ok := sched.NextExecution(now, 1); ok {
		t.Fatalf("expected no second firing for an immediate schedule")
	}
}

func TestAtScheduleFiresOnceAtTime(t *testing.T) {
	target := time.Now().Add(time.Hour)
	sched := AtSchedule(target)

	fireAt, ok := sched.NextExecution(time.Now(), 0)
	if !ok || !fireAt.Equal(target) {
		t.Fatalf("expected fire at %v, got %v (ok=%v)", target, fireAt, ok)
	}
	if _, ok := sched.NextExecution(time.Now(), 1); ok {
		t.Fatalf("expected no second firing for an At schedule")
	}
}

func TestAtScheduleInThePastDoesNotFire(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	sched := AtSchedule(past)
	if _, ok := sched.NextExecution(time.Now(), 0); ok {
		t.Fatalf("expected no firing for an At schedule already in the past")
	}
}

func TestEveryScheduleRepeats(t *testing.T) {
	sched := EverySchedule(time.Minute)
	base := time.Now()

	first, ok := sched.NextExecution(base, 0)
	if !ok || !first.Equal(base) {
		t.Fatalf("expected first firing to be immediate at %v, got %v", base, first)
	}

	second, ok := sched.NextExecution(first, 1)
	if !ok || !second.Equal(first.Add(time.Minute)) {
		t.Fatalf("expected second firing one minute later, got %v", second)
	}
}

func TestCronScheduleParsesAndFires(t *testing.T) {
	sched, err := CronSchedule("*/5 * * * *")
	if err != nil {
		t.Fatalf("CronSchedule: %v", err)
	}
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	next, ok := sched.NextExecution(from, 0)
	if !ok {
		t.Fatalf("expected a next firing")
	}
	if next.Before(from) || next.Equal(from) {
		t.Fatalf("expected next firing after %v, got %v", from, next)
	}
	if next.Minute()%5 != 0 {
		t.Fatalf("expected firing minute to be a multiple of 5, got %d", next.Minute())
	}
}

func TestCronScheduleRejectsInvalidExpression(t *testing.T) {
	if _, err := CronSchedule("not a cron expression"); err == nil {
		t.Fatalf("expected an error for an invalid cron expression")
	}
}

func TestSchedulerDueAndAdvance(t *testing.T) {
	s := NewScheduler()
	now := time.Now()

	s.Register("job-a", ImmediateSchedule(), now)
	s.Register("job-b", AtSchedule(now.Add(time.Hour)), now)

	due := s.Due(now)
	if len(due) != 1 || due[0].ID != "job-a" {
		t.Fatalf("expected only job-a due, got %#v", due)
	}

	s.Advance("job-a", now)

	entry, ok := s.Get("job-a")
	if !ok {
		t.Fatalf("expected job-a to still be registered")
	}
	if entry.Active {
		t.Fatalf("expected job-a to be deactivated after its one-shot firing")
	}
	if entry.ExecutionCount != 1 {
		t.Fatalf("expected execution count 1, got %d", entry.ExecutionCount)
	}

	if due := s.Due(now); len(due) != 0 {
		t.Fatalf("expected no entries due after job-a was deactivated, got %#v", due)
	}
}

func TestSchedulerDeactivate(t *testing.T) {
	s := NewScheduler()
	now := time.Now()
	s.Register("job-a", EverySchedule(time.Second), now)

	s.Deactivate("job-a")

	if due := s.Due(now); len(due) != 0 {
		t.Fatalf("expected no due entries after Deactivate, got %#v", due)
	}
}
