package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// ShutdownPriority orders multi-agent shutdown batches.
type ShutdownPriority int

const (
	PriorityBackground ShutdownPriority = iota
	PriorityNormal
	PriorityCritical
)

// ShutdownRequest names the agent to stop and the timeout/priority to apply.
type ShutdownRequest struct {
	AgentID string
	Timeout time.Duration
	Priority ShutdownPriority
}

// ShutdownHook runs during an agent's shutdown, in descending priority
// order. The canonical hooks are a logging hook and a resource-cleanup
// hook; callers may register additional ones.
type ShutdownHook interface {
	Name() string
	Priority() int
	Run(ctx context.Context, agentID string) error
}

// ShutdownResult reports the outcome of shutting down a single agent.
type ShutdownResult struct {
	AgentID  string
	Success  bool
	TimedOut bool
	Err      error
}

// ShutdownEvent is emitted throughout a shutdown_agent call.
type ShutdownEvent struct {
	AgentID string
	Phase   string // "started", "hook_ran", "hook_failed", "completed", "timed_out"
	Detail  string
}

// ShutdownEventSink receives ShutdownEvents.
type ShutdownEventSink interface {
	OnShutdownEvent(event ShutdownEvent)
}

// Coordinator runs shutdown hooks for one or many agents, enforcing a
// per-agent timeout and forcing Terminated on breach.
type Coordinator struct {
	hooks []ShutdownHook
	sinks []ShutdownEventSink
}

// NewCoordinator constructs a Coordinator with the given shutdown hooks,
// which need not be pre-sorted; NewCoordinator sorts them by descending
// Priority.
func NewCoordinator(hooks []ShutdownHook, sinks ...ShutdownEventSink) *Coordinator {
	sorted := append([]ShutdownHook(nil), hooks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority() > sorted[j].Priority() })
	return &Coordinator{hooks: sorted, sinks: sinks}
}

func (c *Coordinator) emit(event ShutdownEvent) {
	for _, s := range c.sinks {
		s.OnShutdownEvent(event)
	}
}

// ShutdownAgent transitions machine to ShuttingDown, runs the registered
// hooks in priority order (the first hook that fails ends the run and the
// remaining hooks are not run), waits up to req.Timeout for the hooks to finish,
// and forces machine to Terminated on timeout (returning a non-success
// result rather than an error, since forced termination is itself a valid
// outcome the caller must observe).
func (c *Coordinator) ShutdownAgent(ctx context.Context, req ShutdownRequest, machine *Machine) ShutdownResult {
	c.emit(ShutdownEvent{AgentID: req.AgentID, Phase: "started"})

	if err := machine.Transition(ShuttingDown); err != nil {
		return ShutdownResult{AgentID: req.AgentID, Success: false, Err: err}
	}

	done := make(chan error, 1)
	go func() {
		for _, h := range c.hooks {
			if err := h.Run(ctx, req.AgentID); err != nil {
				c.emit(ShutdownEvent{AgentID: req.AgentID, Phase: "hook_failed", Detail: h.Name() + ": " + err.Error()})
				done <- fmt.Errorf("lifecycle: shutdown hook %q: %w", h.Name(), err)
				return
			}
			c.emit(ShutdownEvent{AgentID: req.AgentID, Phase: "hook_ran", Detail: h.Name()})
		}
		done <- nil
	}()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			_ = machine.Transition(Terminated)
			c.emit(ShutdownEvent{AgentID: req.AgentID, Phase: "completed", Detail: "failed"})
			return ShutdownResult{AgentID: req.AgentID, Success: false, Err: err}
		}
		if err := machine.Transition(Terminated); err != nil {
			return ShutdownResult{AgentID: req.AgentID, Success: false, Err: err}
		}
		c.emit(ShutdownEvent{AgentID: req.AgentID, Phase: "completed", Detail: "success"})
		return ShutdownResult{AgentID: req.AgentID, Success: true}
	case <-timer.C:
		_ = machine.Transition(Terminated)
		c.emit(ShutdownEvent{AgentID: req.AgentID, Phase: "timed_out"})
		return ShutdownResult{AgentID: req.AgentID, Success: false, TimedOut: true}
	}
}

// ShutdownAgentsByPriority sorts requests by descending Priority and
// executes them serially, preserving submission order within a priority
// class.
func (c *Coordinator) ShutdownAgentsByPriority(
	ctx context.Context,
	requests []ShutdownRequest,
	machines map[string]*Machine,
) []ShutdownResult {
	sorted := append([]ShutdownRequest(nil), requests...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })

	results := make([]ShutdownResult, 0, len(sorted))
	for _, req := range sorted {
		m, ok := machines[req.AgentID]
		if !ok {
			results = append(results, ShutdownResult{AgentID: req.AgentID, Success: false, Err: fmt.Errorf("lifecycle: no machine registered for agent %q", req.AgentID)})
			continue
		}
		results = append(results, c.ShutdownAgent(ctx, req, m))
	}
	return results
}
