package integration

import (
	"context"
	"fmt"
)

// SignalChannel is an engine-agnostic, point-to-point message channel,
// generalized from the teacher's Temporal-specific workflow signals
// (runtime/agent/interrupt.Controller talks directly to a
// engine.WorkflowContext.SignalChannel). A durable engine (Temporal) backs
// this with its native signal plumbing; an in-memory deployment backs it
// with a buffered Go channel; either way the interrupt/pause-resume
// contracts below only depend on this interface, not on any one engine.
type SignalChannel interface {
	// Send delivers value to the channel. Implementations decide whether
	// Send blocks on backpressure or drops when full; callers needing a
	// delivery guarantee should check the concrete implementation's docs.
	Send(ctx context.Context, value any) error
	// Receive blocks until a value is available or ctx is done, decoding it
	// into dst (a pointer).
	Receive(ctx context.Context, dst any) error
	// ReceiveAsync attempts a non-blocking receive into dst, reporting
	// whether a value was available.
	ReceiveAsync(dst any) bool
}

// Signal names for the pause/resume/clarification contract, generalized
// from runtime/agent/interrupt's SignalPause/SignalResume/
// SignalProvideClarification/SignalProvideToolResults constants.
const (
	SignalPause                = "integration.pause"
	SignalResume               = "integration.resume"
	SignalProvideClarification = "integration.provide.clarification"
	SignalProvideToolResults   = "integration.provide.toolresults"
)

// PauseRequest carries metadata attached to a pause signal.
type PauseRequest struct {
	ComponentID string
	Reason      string
	RequestedBy string
	Labels      map[string]string
	Metadata    map[string]any
}

// ResumeRequest carries metadata attached to a resume signal.
type ResumeRequest struct {
	ComponentID string
	Notes       string
	RequestedBy string
	Labels      map[string]string
}

// ClarificationAnswer carries a typed answer for a paused clarification
// request.
type ClarificationAnswer struct {
	ComponentID string
	ID          string
	Answer      string
	Labels      map[string]string
}

// ToolResultsSet carries externally-supplied results for an awaited tool
// call.
type ToolResultsSet struct {
	ComponentID string
	ID          string
	Results     map[string]any
}

// ChannelFactory constructs a SignalChannel for a named signal, abstracting
// how the caller's engine (inmem, Temporal) actually provisions channels.
type ChannelFactory func(name string) SignalChannel

// SignalController drains pause/resume/clarification/tool-result signals,
// mirroring runtime/agent/interrupt.Controller's polling/blocking surface
// but against the engine-agnostic SignalChannel instead of a Temporal
// workflow context directly.
type SignalController struct {
	pause   SignalChannel
	resume  SignalChannel
	clarify SignalChannel
	results SignalChannel
}

// NewSignalController builds a controller wiring all four signal channels
// via factory.
func NewSignalController(factory ChannelFactory) *SignalController {
	return &SignalController{
		pause:   factory(SignalPause),
		resume:  factory(SignalResume),
		clarify: factory(SignalProvideClarification),
		results: factory(SignalProvideToolResults),
	}
}

// PollPause attempts to dequeue a pause request without blocking.
func (c *SignalController) PollPause() (PauseRequest, bool) {
	if c == nil || c.pause == nil {
		return PauseRequest{}, false
	}
	var req PauseRequest
	if !c.pause.ReceiveAsync(&req) {
		return PauseRequest{}, false
	}
	return req, true
}

// WaitResume blocks until a resume request is delivered.
func (c *SignalController) WaitResume(ctx context.Context) (ResumeRequest, error) {
	if c == nil || c.resume == nil {
		return ResumeRequest{}, fmt.Errorf("integration: resume channel unavailable")
	}
	var req ResumeRequest
	if err := c.resume.Receive(ctx, &req); err != nil {
		return ResumeRequest{}, err
	}
	return req, nil
}

// WaitProvideClarification blocks until a clarification answer is delivered.
func (c *SignalController) WaitProvideClarification(ctx context.Context) (ClarificationAnswer, error) {
	if c == nil || c.clarify == nil {
		return ClarificationAnswer{}, fmt.Errorf("integration: clarification channel unavailable")
	}
	var ans ClarificationAnswer
	if err := c.clarify.Receive(ctx, &ans); err != nil {
		return ClarificationAnswer{}, err
	}
	return ans, nil
}

// WaitProvideToolResults blocks until external tool results are delivered.
func (c *SignalController) WaitProvideToolResults(ctx context.Context) (ToolResultsSet, error) {
	if c == nil || c.results == nil {
		return ToolResultsSet{}, fmt.Errorf("integration: tool-results channel unavailable")
	}
	var rs ToolResultsSet
	if err := c.results.Receive(ctx, &rs); err != nil {
		return ToolResultsSet{}, err
	}
	return rs, nil
}
