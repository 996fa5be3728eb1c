package integration

import (
	"context"

	"github.com/lexlapax/rs-llmspell-sub006/core/agent"
	"github.com/lexlapax/rs-llmspell-sub006/core/component"
	"github.com/lexlapax/rs-llmspell-sub006/core/tools"
)

// Orchestrator is the glue contract a multi-component planner/orchestrator
// collaborator implements, generalized from the teacher's Planner interface
// (runtime/agent/planner.Planner): given conversation-shaped input and a
// view onto available tools, decide what to run next. Unlike the teacher's
// Planner, this contract is agent/tool-agnostic rather than LLM-specific and
// carries no streaming callback surface of its own; a concrete orchestrator
// is expected to drive core/agent.Composition or call ToolCapable directly.
type Orchestrator interface {
	// Plan inspects input and the available tool catalog and returns the next
	// composition to run. Returning a zero-length Composition.Steps means the
	// orchestrator considers the interaction complete.
	Plan(ctx context.Context, input component.Input, catalog ToolCatalog) (agent.Composition, error)
}

// ToolCatalog is the read-only view onto available tools an Orchestrator
// plans against, satisfied directly by agent.ToolCapable.
type ToolCatalog interface {
	ListAvailableTools() []string
	GetToolInfo(name string) (tools.Schema, error)
}

// TemplateRenderer is the glue contract a template-rendering collaborator
// (a prompt template engine, a notebook cell renderer) implements to turn a
// component's output into a presentable form. Concrete implementations
// (Jupyter cell rendering, a specific template library) are out of scope
// here; this package only defines the seam an embedder plugs one into.
type TemplateRenderer interface {
	// Render renders name with data, returning the rendered bytes.
	Render(ctx context.Context, name string, data map[string]any) ([]byte, error)
	// HasTemplate reports whether name is known to the renderer, letting a
	// caller fall back to a default presentation instead of erroring.
	HasTemplate(name string) bool
}

// OrchestratedRun ties an Orchestrator, a ToolCapable registry, and a
// RunContext together for one end-to-end planning loop: plan, run the
// resulting composition, repeat until the orchestrator returns an empty
// composition or ctx is done. Every Plan call receives the run's original
// input; a composition's output is not passed back to the orchestrator.
type OrchestratedRun struct {
	Orchestrator Orchestrator
	Tools        agent.ToolCapable
	Run          RunContext
}

// Execute drives the plan/run loop to completion, returning the final
// output and every intermediate step output produced along the way.
func (o OrchestratedRun) Execute(ctx context.Context, input component.Input) (component.Output, []component.Output, error) {
	var all []component.Output
	current := input
	var last component.Output
	for {
		if err := ctx.Err(); err != nil {
			return last, all, err
		}
		plan, err := o.Orchestrator.Plan(ctx, current, o.Tools)
		if err != nil {
			return last, all, err
		}
		if len(plan.Steps) == 0 {
			return last, all, nil
		}
		out, steps, err := o.Tools.ComposeTools(ctx, plan, current)
		if err != nil {
			return last, all, err
		}
		all = append(all, steps...)
		last = out
	}
}
