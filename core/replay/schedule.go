package replay

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleKind is the closed set of ways a replay can be triggered.
type ScheduleKind string

const (
	Immediate ScheduleKind = "immediate"
	At        ScheduleKind = "at"
	Every     ScheduleKind = "every"
	Cron      ScheduleKind = "cron"
)

// Schedule describes when a replay should (re)start. Exactly one of At,
// Every, or CronExpr is meaningful, selected by Kind.
type Schedule struct {
	Kind     ScheduleKind
	At       time.Time
	Every    time.Duration
	CronExpr string

	parsed cron.Schedule
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ImmediateSchedule returns a Schedule that fires once, as soon as it is
// registered.
func ImmediateSchedule() Schedule { return Schedule{Kind: Immediate} }

// AtSchedule returns a Schedule that fires once at t.
func AtSchedule(t time.Time) Schedule { return Schedule{Kind: At, At: t} }

// EverySchedule returns a Schedule that fires repeatedly every d.
func EverySchedule(d time.Duration) Schedule { return Schedule{Kind: Every, Every: d} }

// CronSchedule parses expr (standard five-field cron syntax) and returns a
// recurring Schedule, or an error if expr is malformed.
func CronSchedule(expr string) (Schedule, error) {
	parsed, err := cronParser.Parse(expr)
	if err != nil {
		return Schedule{}, fmt.Errorf("replay: parsing cron expression %q: %w", expr, err)
	}
	return Schedule{Kind: Cron, CronExpr: expr, parsed: parsed}, nil
}

// NextExecution returns the next time this schedule fires at or after from,
// and whether the schedule fires again at all (Immediate and a
// once-already-fired At schedule do not).
func (s Schedule) NextExecution(from time.Time, executionCount int) (time.Time, bool) {
	switch s.Kind {
	case Immediate:
		if executionCount > 0 {
			return time.Time{}, false
		}
		return from, true
	case At:
		if executionCount > 0 || s.At.Before(from) {
			return time.Time{}, false
		}
		return s.At, true
	case Every:
		if s.Every <= 0 {
			return time.Time{}, false
		}
		if executionCount == 0 {
			return from, true
		}
		return from.Add(s.Every), true
	case Cron:
		if s.parsed == nil {
			parsed, err := cronParser.Parse(s.CronExpr)
			if err != nil {
				return time.Time{}, false
			}
			s.parsed = parsed
		}
		return s.parsed.Next(from), true
	default:
		return time.Time{}, false
	}
}

// Entry tracks the live scheduling state for one registered Schedule.
type Entry struct {
	ID             string
	Schedule       Schedule
	NextExecution  time.Time
	ExecutionCount int
	Active         bool
}

// Scheduler tracks a set of scheduled replay entries and advances them as
// time passes. It performs no I/O itself; callers drive Due/Advance from
// their own clock source (directly, or via core/replay/engine).
type Scheduler struct {
	entries map[string]*Entry
}

// NewScheduler constructs an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{entries: make(map[string]*Entry)}
}

// Register adds a new entry, computing its first NextExecution from now.
func (s *Scheduler) Register(id string, sched Schedule, now time.Time) *Entry {
	next, ok := sched.NextExecution(now, 0)
	e := &Entry{ID: id, Schedule: sched, Active: ok, NextExecution: next}
	s.entries = withEntry(s.entries, e)
	return e
}

// Deactivate marks an entry inactive without removing it, so history
// (ExecutionCount) is retained.
func (s *Scheduler) Deactivate(id string) {
	if e, ok := s.entries[id]; ok {
		e.Active = false
	}
}

// Get returns the entry for id.
func (s *Scheduler) Get(id string) (*Entry, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// Due returns every active entry whose NextExecution is at or before now,
// in ID order for determinism.
func (s *Scheduler) Due(now time.Time) []*Entry {
	var due []*Entry
	for _, e := range s.entries {
		if e.Active && !e.NextExecution.After(now) {
			due = append(due, e)
		}
	}
	return sortEntriesByID(due)
}

// Advance records that entry id fired at firedAt and recomputes its next
// execution time, deactivating the entry once its schedule is exhausted.
func (s *Scheduler) Advance(id string, firedAt time.Time) {
	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.ExecutionCount++
	next, ok := e.Schedule.NextExecution(firedAt, e.ExecutionCount)
	if !ok {
		e.Active = false
		return
	}
	e.NextExecution = next
}

func withEntry(m map[string]*Entry, e *Entry) map[string]*Entry {
	m[e.ID] = e
	return m
}

func sortEntriesByID(entries []*Entry) []*Entry {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].ID < entries[j-1].ID; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	return entries
}
