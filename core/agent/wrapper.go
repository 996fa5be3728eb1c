package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lexlapax/rs-llmspell-sub006/core/component"
)

// AgentTool wraps a BaseAgent so it can be registered and invoked through
// ToolCapable like any other tool. Two calling conventions are supported,
// selected per-call by whether the caller's input carries a "parameters"
// entry:
//
//   - Bundled (default): the caller passes a single "parameters" object
//     parameter; its contents become the wrapped agent's Input.Parameters
//     verbatim, with an optional "tool_context" metadata entry injected
//     alongside.
//   - Unbundled: the caller passes individual named parameters; each is
//     routed through a configured ParamTransform into the wrapped agent's
//     input.
type AgentTool struct {
	wrapped           BaseAgent
	unbundled         []UnbundledParam
	injectToolContext bool
	toolContext       map[string]any
}

// UnbundledParam declares how one named caller-facing parameter maps onto
// the wrapped agent's input in unbundled mode.
type UnbundledParam struct {
	// Name is the parameter name the caller supplies.
	Name string
	// Transform converts the caller's raw value before it reaches the
	// wrapped agent.
	Transform ParamTransform
	// TargetField names where the transformed value lands in the wrapped
	// Input: "prompt" sets Input.Prompt; any other value (or empty) sets
	// Input.Parameters[TargetField], defaulting to Name.
	TargetField string
}

// ParamTransform converts one unbundled parameter's raw value.
type ParamTransform struct {
	Kind TransformKind
	// Field names the struct/map field to extract, for TransformFieldExtract.
	Field string
	// Path is a dotted JSON-path expression ("$.a.b"), for TransformJSONPath.
	Path string
	// Custom implements TransformCustom; if nil, a TransformCustom transform
	// degrades to TransformIdentity silently: no warning is logged or
	// returned when the degradation happens.
	Custom func(value any) (any, error)
}

// TransformKind enumerates the supported unbundled parameter transforms.
type TransformKind string

const (
	// TransformIdentity passes the raw value through unchanged.
	TransformIdentity TransformKind = "identity"
	// TransformToString renders the raw value as its string form.
	TransformToString TransformKind = "to_string"
	// TransformFieldExtract extracts one field from a map[string]any value.
	TransformFieldExtract TransformKind = "field_extract"
	// TransformJSONPath extracts a value via a dotted JSON-path expression
	// rooted at "$" (e.g. "$.a.b").
	TransformJSONPath TransformKind = "json_path"
	// TransformCustom applies a caller-supplied function.
	TransformCustom TransformKind = "custom"
)

// WrapperOption configures an AgentTool at construction time.
type WrapperOption func(*AgentTool)

// WithUnbundledParams configures the wrapper's unbundled-mode parameter
// list. Without this, unbundled-mode calls pass every parameter through
// unchanged under its own name.
func WithUnbundledParams(params ...UnbundledParam) WrapperOption {
	return func(w *AgentTool) { w.unbundled = params }
}

// WithToolContext injects the given metadata under "tool_context" in
// bundled-mode calls.
func WithToolContext(ctx map[string]any) WrapperOption {
	return func(w *AgentTool) {
		w.injectToolContext = true
		w.toolContext = ctx
	}
}

// NewAgentTool wraps agent for tool-style invocation.
func NewAgentTool(wrapped BaseAgent, opts ...WrapperOption) *AgentTool {
	w := &AgentTool{wrapped: wrapped}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Metadata delegates to the wrapped agent.
func (w *AgentTool) Metadata() component.Metadata { return w.wrapped.Metadata() }

// ValidateInput delegates to the wrapped agent.
func (w *AgentTool) ValidateInput(input *component.Input) error {
	return w.wrapped.ValidateInput(input)
}

// HandleError delegates to the wrapped agent.
func (w *AgentTool) HandleError(ctx context.Context, err error) component.Output {
	return w.wrapped.HandleError(ctx, err)
}

// Execute dispatches to bundled or unbundled mode based on whether input
// carries a "parameters" entry, then runs the wrapped agent.
func (w *AgentTool) Execute(ctx context.Context, input component.Input) (component.Output, error) {
	resolved, err := w.resolveInput(input)
	if err != nil {
		return w.HandleError(ctx, err), err
	}
	return w.wrapped.Execute(ctx, resolved)
}

func (w *AgentTool) resolveInput(input component.Input) (component.Input, error) {
	if raw, ok := input.Parameters.Get("parameters"); ok {
		return w.resolveBundled(raw, input)
	}
	return w.resolveUnbundled(input)
}

func (w *AgentTool) resolveBundled(raw any, original component.Input) (component.Input, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return component.Input{}, fmt.Errorf("agent: wrapper: bundled \"parameters\" value must be an object, got %T", raw)
	}
	params := component.NewOrderedParams()
	for k, v := range obj {
		params.Set(k, v)
	}
	if w.injectToolContext {
		params.Set("tool_context", w.toolContext)
	}
	return component.Input{
		Prompt:           original.Prompt,
		Media:            original.Media,
		Parameters:       params,
		OutputModalities: original.OutputModalities,
		Parent:           original.Parent,
	}, nil
}

func (w *AgentTool) resolveUnbundled(original component.Input) (component.Input, error) {
	params := component.NewOrderedParams()
	prompt := original.Prompt

	if len(w.unbundled) == 0 {
		for _, name := range original.Parameters.Names() {
			v, _ := original.Parameters.Get(name)
			params.Set(name, v)
		}
		return component.Input{Prompt: prompt, Media: original.Media, Parameters: params, OutputModalities: original.OutputModalities, Parent: original.Parent}, nil
	}

	for _, up := range w.unbundled {
		raw, ok := original.Parameters.Get(up.Name)
		if !ok {
			continue
		}
		value, err := applyTransform(up.Transform, raw)
		if err != nil {
			return component.Input{}, fmt.Errorf("agent: wrapper: transforming parameter %q: %w", up.Name, err)
		}
		target := up.TargetField
		if target == "" {
			target = up.Name
		}
		if target == "prompt" {
			if s, ok := value.(string); ok {
				prompt = s
			} else {
				prompt = fmt.Sprint(value)
			}
			continue
		}
		params.Set(target, value)
	}
	return component.Input{Prompt: prompt, Media: original.Media, Parameters: params, OutputModalities: original.OutputModalities, Parent: original.Parent}, nil
}

func applyTransform(t ParamTransform, value any) (any, error) {
	switch t.Kind {
	case "", TransformIdentity:
		return value, nil
	case TransformToString:
		return fmt.Sprint(value), nil
	case TransformFieldExtract:
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field_extract requires an object value, got %T", value)
		}
		extracted, ok := obj[t.Field]
		if !ok {
			return nil, fmt.Errorf("field_extract: field %q not present", t.Field)
		}
		return extracted, nil
	case TransformJSONPath:
		return evalJSONPath(value, t.Path)
	case TransformCustom:
		if t.Custom == nil {
			// Degrades to identity when no function was actually supplied.
			return value, nil
		}
		return t.Custom(value)
	default:
		return value, nil
	}
}

// evalJSONPath resolves a minimal dotted path rooted at "$" (e.g. "$.a.b",
// "$.items.0.name") against value, which is expected to be the result of an
// encoding/json decode (map[string]any / []any / scalars).
func evalJSONPath(value any, path string) (any, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return value, nil
	}

	// Normalize via a JSON round-trip so structs/other Go values behave the
	// same as map/slice literals.
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("json_path: encoding value: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("json_path: decoding value: %w", err)
	}

	cur := decoded
	for _, segment := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, fmt.Errorf("json_path: segment %q not found", segment)
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("json_path: invalid array index %q", segment)
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("json_path: cannot descend into %T at segment %q", cur, segment)
		}
	}
	return cur, nil
}

var _ BaseAgent = (*AgentTool)(nil)
