package hooks

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// CorrelationId identifies one cross-point trace. A child trace is always a
// fresh id; there is no encoded parent/child hierarchy in the id itself.
type CorrelationId string

// TraceStatus is the closed set of states a Trace can be in.
type TraceStatus int

const (
	Active TraceStatus = iota
	Completed
	Failed
	Abandoned
	Expired
)

func (s TraceStatus) String() string {
	switch s {
	case Active:
		return "Active"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	case Abandoned:
		return "Abandoned"
	case Expired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// TraceEvent records one occurrence within a trace.
type TraceEvent struct {
	EventID         string
	Component       ComponentId
	Point           Point
	EventType       string
	Message         string
	Timestamp       time.Time
	ElapsedFromStart time.Duration
	ParentEventID   string
	Data            map[string]any
	Metrics         map[string]float64
}

// Trace is the ordered record of a correlation's lifetime.
type Trace struct {
	ID           CorrelationId
	Events       []TraceEvent
	Components   map[ComponentId]bool
	Status       TraceStatus
	FailReason   string
	StartedAt    time.Time
	lastActivity time.Time
}

// BottleneckReport names a component/point pair whose cumulative duration
// exceeds half of the trace's total elapsed time.
type BottleneckReport struct {
	Component ComponentId
	Point     Point
	Duration  time.Duration
	Share     float64
}

// Analysis summarizes a completed or in-flight trace.
type Analysis struct {
	TotalDuration    time.Duration
	ByComponent      map[ComponentId]time.Duration
	ByPoint          map[Point]time.Duration
	Bottlenecks      []BottleneckReport
}

// CorrelationStore tracks open and recently closed traces, enforcing a
// per-trace event cap and a global active-trace cap with LRU-by-last
// -activity eviction.
type CorrelationStore struct {
	mu               sync.Mutex
	traces           map[CorrelationId]*Trace
	maxEventsPerTrace int
	maxActiveTraces   int
	nextID            uint64
}

// NewCorrelationStore constructs a store. maxEventsPerTrace and
// maxActiveTraces of 0 mean unbounded.
func NewCorrelationStore(maxEventsPerTrace, maxActiveTraces int) *CorrelationStore {
	return &CorrelationStore{
		traces:            make(map[CorrelationId]*Trace),
		maxEventsPerTrace: maxEventsPerTrace,
		maxActiveTraces:   maxActiveTraces,
	}
}

// Open starts a fresh trace and returns its id.
func (s *CorrelationStore) Open() CorrelationId {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := CorrelationId(fmt.Sprintf("trace-%d", s.nextID))
	now := time.Now()
	s.traces[id] = &Trace{
		ID:           id,
		Components:   make(map[ComponentId]bool),
		Status:       Active,
		StartedAt:    now,
		lastActivity: now,
	}
	s.evictIfNeeded()
	return id
}

// Record appends a TraceEvent to an active trace. Returns an error if the
// trace is unknown, not Active, or at its per-trace event cap.
func (s *CorrelationStore) Record(id CorrelationId, event TraceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traces[id]
	if !ok {
		return fmt.Errorf("hooks: unknown correlation id %q", id)
	}
	if t.Status != Active {
		return fmt.Errorf("hooks: trace %q is not active (%s)", id, t.Status)
	}
	if s.maxEventsPerTrace > 0 && len(t.Events) >= s.maxEventsPerTrace {
		return fmt.Errorf("hooks: trace %q exceeded max events (%d)", id, s.maxEventsPerTrace)
	}
	event.ElapsedFromStart = event.Timestamp.Sub(t.StartedAt)
	t.Events = append(t.Events, event)
	t.Components[event.Component] = true
	t.lastActivity = time.Now()
	return nil
}

// Complete marks a trace Completed.
func (s *CorrelationStore) Complete(id CorrelationId) error { return s.setStatus(id, Completed, "") }

// Fail marks a trace Failed with a reason.
func (s *CorrelationStore) Fail(id CorrelationId, reason string) error {
	return s.setStatus(id, Failed, reason)
}

func (s *CorrelationStore) setStatus(id CorrelationId, status TraceStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traces[id]
	if !ok {
		return fmt.Errorf("hooks: unknown correlation id %q", id)
	}
	t.Status = status
	t.FailReason = reason
	t.lastActivity = time.Now()
	return nil
}

// Get returns a copy of a trace's current state.
func (s *CorrelationStore) Get(id CorrelationId) (Trace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traces[id]
	if !ok {
		return Trace{}, false
	}
	return *t, true
}

// ByStatus returns the ids of every trace currently in the given status.
func (s *CorrelationStore) ByStatus(status TraceStatus) []CorrelationId {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []CorrelationId
	for id, t := range s.traces {
		if t.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ByComponent returns the ids of every trace that has recorded at least one
// event for component.
func (s *CorrelationStore) ByComponent(component ComponentId) []CorrelationId {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []CorrelationId
	for id, t := range s.traces {
		if t.Components[component] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Analyze computes per-component and per-hook-point durations and flags any
// component/point combination whose duration exceeds 50% of the trace's
// total elapsed time as a bottleneck.
func (s *CorrelationStore) Analyze(id CorrelationId) (Analysis, error) {
	s.mu.Lock()
	t, ok := s.traces[id]
	if !ok {
		s.mu.Unlock()
		return Analysis{}, fmt.Errorf("hooks: unknown correlation id %q", id)
	}
	events := make([]TraceEvent, len(t.Events))
	copy(events, t.Events)
	s.mu.Unlock()

	a := Analysis{
		ByComponent: make(map[ComponentId]time.Duration),
		ByPoint:     make(map[Point]time.Duration),
	}
	if len(events) == 0 {
		return a, nil
	}

	type key struct {
		component ComponentId
		point     Point
	}
	byKey := make(map[key]time.Duration)

	for i, e := range events {
		if i+1 >= len(events) {
			break // the last event has no successor to bound its duration
		}
		dur := events[i+1].ElapsedFromStart - e.ElapsedFromStart
		a.ByComponent[e.Component] += dur
		a.ByPoint[e.Point] += dur
		byKey[key{e.Component, e.Point}] += dur
		a.TotalDuration += dur
	}

	if a.TotalDuration > 0 {
		for k, dur := range byKey {
			share := float64(dur) / float64(a.TotalDuration)
			if share > 0.5 {
				a.Bottlenecks = append(a.Bottlenecks, BottleneckReport{
					Component: k.component,
					Point:     k.point,
					Duration:  dur,
					Share:     share,
				})
			}
		}
	}
	return a, nil
}

// evictIfNeeded enforces the global active-trace cap, marking the least
// recently active Active traces as Expired. Caller must hold s.mu.
func (s *CorrelationStore) evictIfNeeded() {
	if s.maxActiveTraces <= 0 {
		return
	}
	var active []*Trace
	for _, t := range s.traces {
		if t.Status == Active {
			active = append(active, t)
		}
	}
	if len(active) <= s.maxActiveTraces {
		return
	}
	sort.Slice(active, func(i, j int) bool { return active[i].lastActivity.Before(active[j].lastActivity) })
	toEvict := len(active) - s.maxActiveTraces
	for i := 0; i < toEvict; i++ {
		active[i].Status = Expired
	}
}
