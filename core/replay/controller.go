package replay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lexlapax/rs-llmspell-sub006/core/hooks"
)

// StepFunc replays one captured hook execution, typically by deserializing
// its context via the originating hook's ReplayableHook capability and
// re-dispatching it. Controller passes this through to every Session it
// creates.
type StepFunc func(ctx context.Context, exec hooks.CapturedHookExecution) (hooks.Result, error)

// Controller is the embedder-facing replay API: it owns a Scheduler for
// recurring replay kickoffs and a registry of live Session objects, keyed
// by session id (the spec's "execution_id").
type Controller struct {
	mu        sync.Mutex
	scheduler *Scheduler
	sessions  map[string]*Session
	step      StepFunc
}

// NewController constructs a Controller. step is used for every Session
// created via Schedule.
func NewController(step StepFunc) *Controller {
	return &Controller{
		scheduler: NewScheduler(),
		sessions:  make(map[string]*Session),
		step:      step,
	}
}

// Schedule registers a replay request: an execution id, the correlation id
// whose captured executions should be replayed, the schedule describing
// when to (re)start, and the executions to play back. It returns the new
// Session, already registered with the internal Scheduler under sched.
func (c *Controller) Schedule(executionID string, correlationID hooks.CorrelationId, executions []hooks.CapturedHookExecution, sched Schedule, now time.Time) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.sessions[executionID]; exists {
		return nil, fmt.Errorf("replay: execution id %q already scheduled", executionID)
	}

	session := NewSession(executionID, correlationID, executions, c.step)
	c.sessions[executionID] = session
	c.scheduler.Register(executionID, sched, now)
	return session, nil
}

// Get returns the Session for executionID.
func (c *Controller) Get(executionID string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[executionID]
	if !ok {
		return nil, ErrNoSuchSession
	}
	return s, nil
}

// Pause, Resume, StopSession, SetSpeed, AddBreakpoint, RemoveBreakpoint, and
// StepNext all look up the named session and delegate; each returns
// ErrNoSuchSession for an unknown id.

func (c *Controller) Pause(executionID string) error {
	s, err := c.Get(executionID)
	if err != nil {
		return err
	}
	return s.Pause()
}

func (c *Controller) Resume(executionID string) error {
	s, err := c.Get(executionID)
	if err != nil {
		return err
	}
	return s.Resume()
}

func (c *Controller) StopSession(executionID string) error {
	s, err := c.Get(executionID)
	if err != nil {
		return err
	}
	return s.Stop()
}

func (c *Controller) SetSpeed(executionID string, multiplier float64) error {
	s, err := c.Get(executionID)
	if err != nil {
		return err
	}
	s.SetSpeed(multiplier)
	return nil
}

func (c *Controller) AddBreakpoint(executionID string, bp Breakpoint) error {
	s, err := c.Get(executionID)
	if err != nil {
		return err
	}
	s.AddBreakpoint(bp)
	return nil
}

func (c *Controller) RemoveBreakpoint(executionID, breakpointID string) error {
	s, err := c.Get(executionID)
	if err != nil {
		return err
	}
	s.RemoveBreakpoint(breakpointID)
	return nil
}

func (c *Controller) StepNext(ctx context.Context, executionID string) error {
	s, err := c.Get(executionID)
	if err != nil {
		return err
	}
	return s.StepNext(ctx)
}

// Play runs the named session to completion (or to a pause/stop point).
func (c *Controller) Play(ctx context.Context, executionID string) error {
	s, err := c.Get(executionID)
	if err != nil {
		return err
	}
	return s.Play(ctx)
}
