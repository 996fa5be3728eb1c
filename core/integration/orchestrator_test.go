package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/lexlapax/rs-llmspell-sub006/core/agent"
	"github.com/lexlapax/rs-llmspell-sub006/core/component"
	"github.com/lexlapax/rs-llmspell-sub006/core/tools"
)

func newEchoCapable() *agent.DefaultToolCapable {
	d := agent.NewDefaultToolCapable()
	d.RegisterTool(agent.NewTool(tools.Schema{Name: "echo"}, component.Metadata{}, func(ctx context.Context, input component.Input) (component.Output, error) {
		return component.Output{Text: "echoed:" + input.Prompt}, nil
	}))
	return d
}

// countingOrchestrator plans one "echo" step, then stops after n plans.
type countingOrchestrator struct {
	calls int
	stop  int
}

func (o *countingOrchestrator) Plan(ctx context.Context, input component.Input, catalog ToolCatalog) (agent.Composition, error) {
	o.calls++
	if o.calls > o.stop {
		return agent.Composition{}, nil
	}
	return agent.Composition{Name: "loop", Steps: []agent.Step{{ToolName: "echo"}}}, nil
}

func TestOrchestratedRunExecutesUntilPlanIsEmpty(t *testing.T) {
	capable := newEchoCapable()
	run := OrchestratedRun{
		Orchestrator: &countingOrchestrator{stop: 2},
		Tools:        capable,
		Run:          RunContext{SessionID: "sess-1"},
	}

	final, steps, err := run.Execute(context.Background(), component.Input{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("len(steps) = %d, want 2", len(steps))
	}
	if final.Text != "echoed:hi" {
		t.Fatalf("final.Text = %q, want %q", final.Text, "echoed:hi")
	}
}

type erroringOrchestrator struct{}

func (erroringOrchestrator) Plan(ctx context.Context, input component.Input, catalog ToolCatalog) (agent.Composition, error) {
	return agent.Composition{}, errors.New("planning failed")
}

func TestOrchestratedRunPropagatesPlanError(t *testing.T) {
	run := OrchestratedRun{
		Orchestrator: erroringOrchestrator{},
		Tools:        newEchoCapable(),
		Run:          RunContext{},
	}
	_, _, err := run.Execute(context.Background(), component.Input{Prompt: "hi"})
	if err == nil {
		t.Fatalf("expected the orchestrator's planning error to propagate")
	}
}

func TestOrchestratedRunStopsImmediatelyOnEmptyPlan(t *testing.T) {
	run := OrchestratedRun{
		Orchestrator: &countingOrchestrator{stop: 0},
		Tools:        newEchoCapable(),
		Run:          RunContext{},
	}
	final, steps, err := run.Execute(context.Background(), component.Input{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(steps) != 0 {
		t.Fatalf("expected no steps to run, got %d", len(steps))
	}
	if final.Text != "" {
		t.Fatalf("expected a zero-value output, got %+v", final)
	}
}
