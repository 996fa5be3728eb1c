package agent

import (
	"context"
	"testing"

	"github.com/lexlapax/rs-llmspell-sub006/core/component"
)

func paramsAgent() *Agent {
	return New(component.Metadata{ID: "params-agent"}, func(ctx context.Context, input component.Input) (component.Output, error) {
		v, _ := input.Parameters.Get("name")
		return component.Output{Text: "hello " + toStr(v)}, nil
	})
}

func toStr(v any) string {
	s, _ := v.(string)
	return s
}

func TestAgentToolBundledModePassesNestedObjectThrough(t *testing.T) {
	w := NewAgentTool(paramsAgent())
	input := component.Input{Parameters: component.NewOrderedParams()}
	input.Parameters.Set("parameters", map[string]any{"name": "bundled"})

	out, err := w.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Text != "hello bundled" {
		t.Fatalf("Text = %q, want %q", out.Text, "hello bundled")
	}
}

func TestAgentToolBundledModeInjectsToolContext(t *testing.T) {
	agentUnderTest := New(component.Metadata{ID: "ctx-agent"}, func(ctx context.Context, input component.Input) (component.Output, error) {
		tc, ok := input.Parameters.Get("tool_context")
		if !ok {
			return component.Output{Text: "missing"}, nil
		}
		return component.Output{Text: toStr(tc.(map[string]any)["env"])}, nil
	})
	w := NewAgentTool(agentUnderTest, WithToolContext(map[string]any{"env": "prod"}))

	input := component.Input{Parameters: component.NewOrderedParams()}
	input.Parameters.Set("parameters", map[string]any{})

	out, err := w.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Text != "prod" {
		t.Fatalf("Text = %q, want %q", out.Text, "prod")
	}
}

func TestAgentToolUnbundledIdentityTransform(t *testing.T) {
	w := NewAgentTool(paramsAgent())
	input := component.Input{Parameters: component.NewOrderedParams()}
	input.Parameters.Set("name", "unbundled")

	out, err := w.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Text != "hello unbundled" {
		t.Fatalf("Text = %q, want %q", out.Text, "hello unbundled")
	}
}

func TestAgentToolUnbundledFieldExtractTransform(t *testing.T) {
	w := NewAgentTool(paramsAgent(), WithUnbundledParams(UnbundledParam{
		Name:      "payload",
		Transform: ParamTransform{Kind: TransformFieldExtract, Field: "name"},
	}))
	input := component.Input{Parameters: component.NewOrderedParams()}
	input.Parameters.Set("payload", map[string]any{"name": "extracted"})

	out, err := w.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Text != "hello extracted" {
		t.Fatalf("Text = %q, want %q", out.Text, "hello extracted")
	}
}

func TestAgentToolUnbundledJSONPathTransform(t *testing.T) {
	w := NewAgentTool(paramsAgent(), WithUnbundledParams(UnbundledParam{
		Name:      "payload",
		Transform: ParamTransform{Kind: TransformJSONPath, Path: "$.a.b"},
		TargetField: "name",
	}))
	input := component.Input{Parameters: component.NewOrderedParams()}
	input.Parameters.Set("payload", map[string]any{"a": map[string]any{"b": "deep"}})

	out, err := w.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Text != "hello deep" {
		t.Fatalf("Text = %q, want %q", out.Text, "hello deep")
	}
}

func TestAgentToolUnbundledCustomTransformDegradesWithoutFunc(t *testing.T) {
	w := NewAgentTool(paramsAgent(), WithUnbundledParams(UnbundledParam{
		Name:      "name",
		Transform: ParamTransform{Kind: TransformCustom},
	}))
	input := component.Input{Parameters: component.NewOrderedParams()}
	input.Parameters.Set("name", "raw")

	out, err := w.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Text != "hello raw" {
		t.Fatalf("Text = %q, want %q", out.Text, "hello raw")
	}
}

func TestAgentToolUnbundledTargetFieldPrompt(t *testing.T) {
	promptAgent := New(component.Metadata{ID: "prompt-agent"}, func(ctx context.Context, input component.Input) (component.Output, error) {
		return component.Output{Text: "prompt:" + input.Prompt}, nil
	})
	w := NewAgentTool(promptAgent, WithUnbundledParams(UnbundledParam{
		Name:        "text",
		Transform:   ParamTransform{Kind: TransformIdentity},
		TargetField: "prompt",
	}))
	input := component.Input{Parameters: component.NewOrderedParams()}
	input.Parameters.Set("text", "from param")

	out, err := w.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Text != "prompt:from param" {
		t.Fatalf("Text = %q, want %q", out.Text, "prompt:from param")
	}
}

func TestEvalJSONPathRootReturnsValueUnchanged(t *testing.T) {
	v, err := evalJSONPath(map[string]any{"x": 1}, "$")
	if err != nil {
		t.Fatalf("evalJSONPath: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok || m["x"].(float64) != 1 {
		t.Fatalf("unexpected root value: %+v", v)
	}
}

func TestEvalJSONPathArrayIndex(t *testing.T) {
	v, err := evalJSONPath(map[string]any{"items": []any{"a", "b", "c"}}, "$.items.1")
	if err != nil {
		t.Fatalf("evalJSONPath: %v", err)
	}
	if v != "b" {
		t.Fatalf("v = %v, want %q", v, "b")
	}
}
