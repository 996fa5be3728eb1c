// Package agent implements the component runtime contract: the single
// BaseAgent execution interface every agent and tool in the system
// satisfies, the default validate/pre-hooks/body/post-hooks execution path,
// and the capabilities (Tool, ToolCapable) built on top of it. Grounded on
// the teacher's ToolExecutor/polymorphic-executor pattern
// (agents/runtime/runtime/types.go) generalized from "tool execution" to
// "any component execution."
package agent

import (
	"context"
	"fmt"

	"github.com/lexlapax/rs-llmspell-sub006/core/component"
	"github.com/lexlapax/rs-llmspell-sub006/core/hooks"
)

// BaseAgent is the single execution contract every component in the system
// satisfies: agents, tools, workflows, and composites alike.
type BaseAgent interface {
	// Metadata returns this component's stable identity.
	Metadata() component.Metadata
	// ValidateInput checks input before execution, mutating it in place if
	// the agent fills in defaults. A non-nil error short-circuits Execute
	// straight to HandleError.
	ValidateInput(input *component.Input) error
	// Execute runs the component's default path: validate, pre-hooks, body,
	// post-hooks, return. Errors at any stage flow to HandleError, whose
	// result becomes the visible Output (Execute itself still returns the
	// originating error so callers can distinguish "failed" runs from
	// "completed but the result describes an error").
	Execute(ctx context.Context, input component.Input) (component.Output, error)
	// HandleError converts err into the agent's visible error output. Called
	// internally by Execute, and by wrappers needing the same error
	// presentation outside the default path.
	HandleError(ctx context.Context, err error) component.Output
}

// Body is the concrete execution logic a component supplies; it runs
// between the pre- and post-execution hook chains.
type Body func(ctx context.Context, input component.Input) (component.Output, error)

// Validator checks or normalizes input before execution.
type Validator func(input *component.Input) error

// ErrorHandler converts an error into a visible Output. A nil ErrorHandler
// defaults to a minimal Output carrying the error's message.
type ErrorHandler func(ctx context.Context, err error) component.Output

// Agent is the default BaseAgent implementation: a Metadata value plus a
// Body, wired through a shared hooks.Dispatcher at BeforeAgentExecution/
// AfterAgentExecution the same way every other component point in this
// runtime is dispatched.
type Agent struct {
	meta       component.Metadata
	body       Body
	validate   Validator
	handleErr  ErrorHandler
	dispatcher *hooks.Dispatcher
}

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithValidator overrides input validation; the default accepts any input
// unchanged.
func WithValidator(v Validator) Option {
	return func(a *Agent) { a.validate = v }
}

// WithErrorHandler overrides error presentation.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *Agent) { a.handleErr = h }
}

// WithDispatcher wires a hooks.Dispatcher so pre/post hooks registered at
// BeforeAgentExecution/AfterAgentExecution run around body. A nil (default)
// dispatcher means no hooks run for this agent.
func WithDispatcher(d *hooks.Dispatcher) Option {
	return func(a *Agent) { a.dispatcher = d }
}

// New constructs an Agent. meta.Type defaults to component.TypeAgent if
// unset.
func New(meta component.Metadata, body Body, opts ...Option) *Agent {
	if meta.Type == "" {
		meta.Type = component.TypeAgent
	}
	a := &Agent{meta: meta, body: body}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Metadata returns the agent's identity.
func (a *Agent) Metadata() component.Metadata { return a.meta }

// ValidateInput runs the configured Validator, or accepts input unchanged if
// none was configured.
func (a *Agent) ValidateInput(input *component.Input) error {
	if a.validate == nil {
		return nil
	}
	return a.validate(input)
}

// Execute runs validate -> pre-hooks -> body -> post-hooks -> return. Any
// stage's error is both returned and converted via HandleError, whose
// result replaces the Output that stage would have produced; callers that
// only care about the visible result can ignore the error return and use
// the Output directly.
func (a *Agent) Execute(ctx context.Context, input component.Input) (component.Output, error) {
	if err := a.ValidateInput(&input); err != nil {
		return a.HandleError(ctx, fmt.Errorf("agent: validating input: %w", err)), err
	}

	componentID := hooks.ComponentId{Type: string(a.meta.Type), Name: a.meta.ID}

	value, err := a.runHookChain(ctx, hooks.BeforeAgentExecution, componentID, input)
	if err != nil {
		return a.HandleError(ctx, err), err
	}
	in, _ := value.(component.Input)

	out, err := a.body(ctx, in)
	if err != nil {
		return a.HandleError(ctx, fmt.Errorf("agent: executing body: %w", err)), err
	}

	value, err = a.runHookChain(ctx, hooks.AfterAgentExecution, componentID, out)
	if err != nil {
		return a.HandleError(ctx, err), err
	}
	out, _ = value.(component.Output)

	return out, nil
}

// runHookChain dispatches the hook chain at point, if a dispatcher is
// configured, and returns the (possibly Modified) flowing value. A Halt or
// Error result becomes a returned error naming the halting reason.
func (a *Agent) runHookChain(ctx context.Context, point hooks.Point, componentID hooks.ComponentId, value any) (any, error) {
	if a.dispatcher == nil {
		return value, nil
	}
	execCtx := &hooks.ExecContext{Point: point, Component: componentID, Value: value}
	chain, err := a.dispatcher.Dispatch(ctx, execCtx)
	if err != nil {
		return nil, fmt.Errorf("agent: dispatching %s hooks: %w", point, err)
	}
	if chain.Result.Terminal() {
		return nil, fmt.Errorf("agent: %s hooks halted execution: %s", point, chain.Result.Reason)
	}
	return chain.Value, nil
}

// HandleError converts err into a visible Output via the configured
// ErrorHandler, or a minimal default Output carrying the error's message.
func (a *Agent) HandleError(ctx context.Context, err error) component.Output {
	if a.handleErr != nil {
		return a.handleErr(ctx, err)
	}
	return component.Output{
		Text:     err.Error(),
		Metadata: map[string]any{"error": true},
	}
}

var _ BaseAgent = (*Agent)(nil)
