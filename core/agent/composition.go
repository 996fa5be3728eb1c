package agent

import (
	"context"
	"fmt"

	"github.com/lexlapax/rs-llmspell-sub006/core/component"
)

// ErrorStrategy governs how a composition reacts to a step failing.
type ErrorStrategy struct {
	// Kind selects the strategy.
	Kind ErrorStrategyKind
	// RetryCount is the number of additional attempts for ErrorRetry, beyond
	// the initial one.
	RetryCount int
}

// ErrorStrategyKind enumerates composition step error strategies.
type ErrorStrategyKind string

const (
	// ErrorFail aborts the composition, returning the step's error.
	ErrorFail ErrorStrategyKind = "fail"
	// ErrorContinue proceeds to the next step, recording the failure but not
	// aborting.
	ErrorContinue ErrorStrategyKind = "continue"
	// ErrorRetry re-attempts the step up to RetryCount additional times
	// before falling back to ErrorFail semantics.
	ErrorRetry ErrorStrategyKind = "retry"
	// ErrorSkip omits the step's output entirely and proceeds, as if it had
	// never run.
	ErrorSkip ErrorStrategyKind = "skip"
)

// Fail is the default error strategy: any step error aborts the composition.
func Fail() ErrorStrategy { return ErrorStrategy{Kind: ErrorFail} }

// Continue proceeds past a failing step, keeping its error output.
func Continue() ErrorStrategy { return ErrorStrategy{Kind: ErrorContinue} }

// Retry re-attempts a failing step up to n additional times.
func Retry(n int) ErrorStrategy { return ErrorStrategy{Kind: ErrorRetry, RetryCount: n} }

// Skip omits a failing step's output and proceeds.
func Skip() ErrorStrategy { return ErrorStrategy{Kind: ErrorSkip} }

// ContextMode governs what input a step receives from the steps before it.
type ContextMode struct {
	Kind ContextModeKind
	// Fields names the selected output fields to carry forward, when Kind is
	// ContextSelective. Recognized field names: "text", "media",
	// "tool_calls", "metadata".
	Fields []string
}

// ContextModeKind enumerates composition step context modes.
type ContextModeKind string

const (
	// ContextFull passes the composition's original Input; prior steps'
	// outputs are not carried forward in this mode.
	ContextFull ContextModeKind = "full"
	// ContextPrevious passes only the immediately preceding step's output.
	ContextPrevious ContextModeKind = "previous"
	// ContextSelective passes only the named fields of the immediately
	// preceding step's output.
	ContextSelective ContextModeKind = "selective"
)

// Full carries the composition's original Input forward as this step's
// context; prior steps' outputs are not included.
func Full() ContextMode { return ContextMode{Kind: ContextFull} }

// Previous carries only the immediately preceding step's output forward.
func Previous() ContextMode { return ContextMode{Kind: ContextPrevious} }

// Selective carries only the named output fields of the immediately
// preceding step forward.
func Selective(fields ...string) ContextMode {
	return ContextMode{Kind: ContextSelective, Fields: fields}
}

// Step is one stage of a tool Composition.
type Step struct {
	// ToolName names the registered tool this step invokes.
	ToolName string
	// Parameters seeds this step's input parameters; context carried forward
	// per ContextMode is merged on top under the "context" key, not into
	// Parameters itself, so a step's own parameters are never silently
	// overwritten by inherited context.
	Parameters map[string]any
	// OnError selects this step's failure handling. The zero value is
	// ErrorFail.
	OnError ErrorStrategy
	// Context selects what prior output this step receives. The zero value
	// is ContextFull.
	Context ContextMode
	// Parallel is an advisory hint that this step has no data dependency on
	// the step immediately before it and MAY be scheduled concurrently with
	// it; RunComposition executes steps sequentially regardless; embedders
	// with a concurrent executor may use this hint to reorder scheduling.
	Parallel bool
}

// Composition is an ordered sequence of tool invocations, each consuming
// some view of the steps before it.
type Composition struct {
	Name  string
	Steps []Step
}

// StepResult records one step's outcome within a ComposeTools run.
type StepResult struct {
	Step     Step
	Output   component.Output
	Err      error
	Skipped  bool
	Attempts int
}

// RunComposition executes comp's steps in order against reg, threading
// context forward per each step's ContextMode, and applying each step's
// ErrorStrategy on failure. It returns the last successful step's output
// (a step that failed under ErrorContinue does not replace it), every
// recorded step output in execution order, and the first unrecoverable error
// (an ErrorFail or exhausted ErrorRetry), if any.
func RunComposition(ctx context.Context, reg interface {
	InvokeTool(ctx context.Context, name string, input component.Input) (component.Output, error)
}, comp Composition, input component.Input) (component.Output, []component.Output, error) {
	var (
		outputs []component.Output
		last    component.Output
		prior   component.Output
		first   = true
	)

	for _, step := range comp.Steps {
		stepInput := buildStepInput(step, input, prior, first)

		out, err := invokeWithRetry(ctx, reg, step, stepInput)
		if err != nil {
			switch step.OnError.Kind {
			case ErrorSkip:
				// prior/first stay as they were: a skipped step leaves no
				// output behind, so the next step sees whatever the step
				// before this one produced (or the original input, if this
				// was the first step).
				continue
			case ErrorContinue:
				outputs = append(outputs, component.Output{Text: err.Error(), Metadata: map[string]any{"error": true, "step": step.ToolName}})
				prior = outputs[len(outputs)-1]
				first = false
				continue
			default: // ErrorFail, or unset
				return last, outputs, fmt.Errorf("agent: composition %q step %q: %w", comp.Name, step.ToolName, err)
			}
		}

		outputs = append(outputs, out)
		last = out
		prior = out
		first = false
	}

	return last, outputs, nil
}

func invokeWithRetry(ctx context.Context, reg interface {
	InvokeTool(ctx context.Context, name string, input component.Input) (component.Output, error)
}, step Step, stepInput component.Input) (component.Output, error) {
	attempts := 1
	if step.OnError.Kind == ErrorRetry && step.OnError.RetryCount > 0 {
		attempts += step.OnError.RetryCount
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		out, err := reg.InvokeTool(ctx, step.ToolName, stepInput)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return component.Output{}, lastErr
}

// buildStepInput merges step.Parameters with the context carried forward
// per step.Context into the step's actual Input: step.Parameters populate
// Parameters directly, and the carried-forward context (the composition's
// original Input for ContextFull and for the first step, the previous
// step's output, or selected fields of it) is attached under the
// conventional "context" parameter key, leaving the
// step's own declared parameters untouched.
func buildStepInput(step Step, original component.Input, prior component.Output, first bool) component.Input {
	params := component.NewOrderedParams()
	for name, value := range step.Parameters {
		params.Set(name, value)
	}

	if first {
		params.Set("context", original)
		return component.Input{Prompt: original.Prompt, Media: original.Media, Parameters: params, Parent: original.Parent}
	}

	switch step.Context.Kind {
	case ContextPrevious:
		params.Set("context", prior)
	case ContextSelective:
		params.Set("context", selectFields(prior, step.Context.Fields))
	default: // ContextFull
		params.Set("context", original)
	}
	return component.Input{Prompt: original.Prompt, Media: original.Media, Parameters: params, Parent: original.Parent}
}

// selectFields returns a map containing only the named Output fields of
// prior, for ContextSelective steps. Recognized names: "text", "media",
// "tool_calls", "metadata".
func selectFields(out component.Output, fields []string) map[string]any {
	selected := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case "text":
			selected["text"] = out.Text
		case "media":
			selected["media"] = out.Media
		case "tool_calls":
			selected["tool_calls"] = out.ToolCalls
		case "metadata":
			selected["metadata"] = out.Metadata
		}
	}
	return selected
}
