package replay

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
	"github.com/lexlapax/rs-llmspell-sub006/core/hooks"
)

// Sleeper abstracts the delay primitive a Session uses between hooks so
// tests can substitute an instant, cancellable sleep. Implementations must
// return promptly (without sleeping the full duration) once ctx is done.
type Sleeper func(ctx context.Context, d time.Duration)

// RealSleeper sleeps for d or until ctx is cancelled, whichever comes first.
func RealSleeper(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Session drives a deterministic playback of a captured hook execution
// sequence for one correlation, honoring pause/resume/stop, speed, and
// breakpoints. Session is safe for concurrent use; control commands may be
// issued from a different goroutine than the one running Play.
type Session struct {
	mu sync.Mutex

	id            string
	correlationID hooks.CorrelationId
	executions    []hooks.CapturedHookExecution
	state         State
	speed         float64
	breakpoints   map[string]*Breakpoint
	completed     int
	startedAt     time.Time
	stepRequested bool

	sleep    Sleeper
	onStep   func(ctx context.Context, exec hooks.CapturedHookExecution) (hooks.Result, error)
	progress ProgressCallback
	onBreak  func(Breakpoint)
}

// NewSession constructs a Session over a fixed, pre-loaded sequence of
// captured hook executions. onStep is invoked once per execution (the
// actual replay of that hook); it is expected to deserialize and
// re-dispatch via the hook's ReplayableHook capability. The session sleeps
// with RealSleeper unless WithSleeper replaces it.
func NewSession(
	id string,
	correlationID hooks.CorrelationId,
	executions []hooks.CapturedHookExecution,
	onStep func(ctx context.Context, exec hooks.CapturedHookExecution) (hooks.Result, error),
) *Session {
	return &Session{
		id:            id,
		correlationID: correlationID,
		executions:    executions,
		state:         Scheduled,
		speed:         DefaultSpeed,
		breakpoints:   make(map[string]*Breakpoint),
		sleep:         RealSleeper,
		onStep:        onStep,
	}
}

// WithSleeper overrides the inter-hook delay primitive (for tests).
func (s *Session) WithSleeper(sleep Sleeper) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleep = sleep
	return s
}

// OnProgress registers the callback fired on every progress update or state
// transition.
func (s *Session) OnProgress(cb ProgressCallback) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = cb
	return s
}

// OnBreakpoint registers the callback fired each time a breakpoint hits.
func (s *Session) OnBreakpoint(cb func(Breakpoint)) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onBreak = cb
	return s
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddBreakpoint registers bp, enabling it.
func (s *Session) AddBreakpoint(bp Breakpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp.Enabled = true
	s.breakpoints[bp.ID] = &bp
}

// RemoveBreakpoint unregisters the breakpoint with the given id.
func (s *Session) RemoveBreakpoint(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.breakpoints, id)
}

// SetSpeed clamps and applies a new speed multiplier, taking effect at the
// next inter-hook delay boundary.
func (s *Session) SetSpeed(multiplier float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = ClampSpeed(multiplier)
}

// Pause transitions a Running session to Paused.
func (s *Session) Pause() error {
	return s.transition(Paused)
}

// Resume transitions a Paused session back to Running. Only valid from Paused.
func (s *Session) Resume() error {
	s.mu.Lock()
	if s.state != Paused {
		from := s.state
		s.mu.Unlock()
		return coreerrors.Transition(string(from), string(Running))
	}
	s.state = Running
	s.mu.Unlock()
	s.emitProgress()
	return nil
}

// Stop transitions to Stopped from any non-terminal state.
func (s *Session) Stop() error {
	return s.transition(Stopped)
}

// StepNext advances exactly one hook while Paused, then returns to Paused
// (or a terminal state if that was the last hook). Only valid from Paused.
func (s *Session) StepNext(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Paused {
		from := s.state
		s.mu.Unlock()
		return coreerrors.Transition(string(from), "step")
	}
	s.stepRequested = true
	s.mu.Unlock()
	return s.Play(ctx)
}

func (s *Session) transition(to State) error {
	s.mu.Lock()
	from := s.state
	if !transitionAllowed(from, to) {
		s.mu.Unlock()
		return coreerrors.Transition(string(from), string(to))
	}
	s.state = to
	s.mu.Unlock()
	s.emitProgress()
	return nil
}

// Play drives the session to completion, honoring Pause/Stop/StepNext
// issued concurrently. It returns when the session reaches a terminal
// state (Completed, Failed, Stopped) or, if StepNext requested exactly one
// hook, after that single hook runs.
func (s *Session) Play(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.state == Scheduled:
		s.state = Running
		s.startedAt = time.Now()
	case s.state == Running:
		// already running, nothing to change
	case s.stepRequested:
		// StepNext resuming from Paused: run one hook, then re-pause.
		s.state = Running
	default:
		from := s.state
		s.mu.Unlock()
		return coreerrors.Transition(string(from), string(Running))
	}
	stepOnly := s.stepRequested
	s.stepRequested = false
	s.mu.Unlock()
	s.emitProgress()

	for {
		s.mu.Lock()
		if s.state != Running {
			s.mu.Unlock()
			return nil
		}
		if s.completed >= len(s.executions) {
			s.state = Completed
			s.mu.Unlock()
			s.emitProgress()
			return nil
		}
		exec := s.executions[s.completed]
		s.mu.Unlock()

		if ctx.Err() != nil {
			s.mu.Lock()
			s.state = Stopped
			s.mu.Unlock()
			s.emitProgress()
			return ctx.Err()
		}

		if bp := s.hitBreakpointBefore(exec); bp != nil {
			s.pauseOnBreakpoint(*bp)
			if stepOnly {
				return nil
			}
			return nil
		}

		result, err := s.onStep(ctx, exec)
		hadError := err != nil || result.Terminal()

		s.mu.Lock()
		s.completed++
		completed := s.completed
		speed := s.speed
		s.mu.Unlock()

		if errBp := s.hitBreakpointAfter(exec, completed, result, hadError); errBp != nil {
			s.pauseOnBreakpoint(*errBp)
			if stepOnly {
				return nil
			}
			return nil
		}

		if err != nil {
			s.mu.Lock()
			s.state = Failed
			s.mu.Unlock()
			s.emitProgress()
			return err
		}

		s.emitProgress()

		if stepOnly {
			s.mu.Lock()
			if s.completed < len(s.executions) {
				s.state = Paused
			} else {
				s.state = Completed
			}
			s.mu.Unlock()
			s.emitProgress()
			return nil
		}

		if s.completed < len(s.executions) {
			delay := Apply(interExecutionDelay(s.executions, s.completed), speed)
			s.sleep(ctx, delay)
		}
	}
}

func (s *Session) hitBreakpointBefore(exec hooks.CapturedHookExecution) *Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bp := range sortedBreakpoints(s.breakpoints) {
		if bp.Kind != BreakOnHookID && bp.Kind != BreakOnTimestamp {
			continue
		}
		ectx := evalContext{upcoming: exec}
		if bp.matches(ectx) {
			return bp
		}
	}
	return nil
}

func (s *Session) hitBreakpointAfter(exec hooks.CapturedHookExecution, completed int, result hooks.Result, hadError bool) *Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bp := range sortedBreakpoints(s.breakpoints) {
		if bp.Kind != BreakOnError && bp.Kind != BreakOnHookCount && bp.Kind != BreakOnStateKey {
			continue
		}
		ectx := evalContext{upcoming: exec, hooksCompleted: completed, lastResult: result, hadError: hadError, stateSnapshot: exec.Metadata}
		if bp.matches(ectx) {
			return bp
		}
	}
	return nil
}

func (s *Session) pauseOnBreakpoint(bp Breakpoint) {
	s.mu.Lock()
	s.state = Paused
	if bp.OneShot {
		if existing, ok := s.breakpoints[bp.ID]; ok {
			existing.Enabled = false
		}
	}
	cb := s.onBreak
	s.mu.Unlock()
	s.emitProgress()
	if cb != nil {
		cb(bp)
	}
}

func (s *Session) emitProgress() {
	s.mu.Lock()
	cb := s.progress
	if cb == nil {
		s.mu.Unlock()
		return
	}
	var currentHookID string
	if s.completed < len(s.executions) {
		currentHookID = s.executions[s.completed].HookID
	}
	p := computeProgress(s.id, len(s.executions), s.completed, currentHookID, s.startedAt, time.Now(), s.speed, activeBreakpointIDs(s.breakpoints), s.state)
	s.mu.Unlock()
	cb(p)
}

func activeBreakpointIDs(bps map[string]*Breakpoint) []string {
	var ids []string
	for _, bp := range bps {
		if bp.Enabled {
			ids = append(ids, bp.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func sortedBreakpoints(bps map[string]*Breakpoint) []*Breakpoint {
	out := make([]*Breakpoint, 0, len(bps))
	for _, bp := range bps {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// interExecutionDelay returns the real recorded gap between the execution
// at index-1 and index, or zero if index is out of range or there is no
// prior execution to measure from.
func interExecutionDelay(executions []hooks.CapturedHookExecution, index int) time.Duration {
	if index <= 0 || index >= len(executions) {
		return 0
	}
	d := executions[index].Timestamp.Sub(executions[index-1].Timestamp)
	if d < 0 {
		return 0
	}
	return d
}

// ErrNoSuchSession is returned by a Controller when asked to act on an
// unknown session id.
var ErrNoSuchSession = errors.New("replay: no such session")
