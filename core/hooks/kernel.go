package hooks

import "context"

// ExecutionContext is the typed payload for PreExecute/PostExecute kernel
// hooks: the component about to run (or that just ran) plus its input and,
// for PostExecute, its output.
type ExecutionContext struct {
	Component ComponentId
	Input     any
	Output    any
}

// DebugContext is the typed payload for PreDebug kernel hooks.
type DebugContext struct {
	Component ComponentId
	Command   string
	Args      map[string]any
}

// StateContext is the typed payload for StateChange kernel hooks.
type StateContext struct {
	Scope string
	Key   string
	Old   any
	New   any
}

// PreExecuteHandler is a richly-typed handler for the BeforeAgentExecution
// and BeforeToolExecution points, fixing the generic ExecContext.Value to
// an *ExecutionContext.
type PreExecuteHandler func(ctx context.Context, exec *ExecutionContext) Result

// PostExecuteHandler is the typed handler counterpart for
// AfterAgentExecution/AfterToolExecution.
type PostExecuteHandler func(ctx context.Context, exec *ExecutionContext) Result

// PreDebugHandler is the typed handler for debugger-originated hook points.
type PreDebugHandler func(ctx context.Context, dbg *DebugContext) Result

// StateChangeHandler is the typed handler for the StateChanged point.
type StateChangeHandler func(ctx context.Context, st *StateContext) Result

// typedHook adapts a richly-typed handler into the generic Hook interface
// by asserting ExecContext.Value to the expected payload type before
// calling through. Dispatch is unchanged: these still run through the same
// Dispatcher and Registry as any other hook.
type typedHook struct {
	meta    Metadata
	extract func(execCtx *ExecContext) (valid bool)
	run     func(ctx context.Context, execCtx *ExecContext) Result
}

func (h *typedHook) Metadata() Metadata { return h.meta }

func (h *typedHook) ShouldExecute(execCtx *ExecContext) bool { return h.extract(execCtx) }

func (h *typedHook) Execute(ctx context.Context, execCtx *ExecContext) Result {
	return h.run(ctx, execCtx)
}

// NewPreExecuteHook wraps fn as a Hook bound to an *ExecutionContext payload.
func NewPreExecuteHook(meta Metadata, fn PreExecuteHandler) Hook {
	return &typedHook{
		meta: meta,
		extract: func(execCtx *ExecContext) bool {
			_, ok := execCtx.Value.(*ExecutionContext)
			return ok
		},
		run: func(ctx context.Context, execCtx *ExecContext) Result {
			exec, ok := execCtx.Value.(*ExecutionContext)
			if !ok {
				return ErrorResult("pre_execute hook given non-ExecutionContext payload")
			}
			return fn(ctx, exec)
		},
	}
}

// NewPostExecuteHook wraps fn as a Hook bound to an *ExecutionContext payload.
func NewPostExecuteHook(meta Metadata, fn PostExecuteHandler) Hook {
	return &typedHook{
		meta: meta,
		extract: func(execCtx *ExecContext) bool {
			_, ok := execCtx.Value.(*ExecutionContext)
			return ok
		},
		run: func(ctx context.Context, execCtx *ExecContext) Result {
			exec, ok := execCtx.Value.(*ExecutionContext)
			if !ok {
				return ErrorResult("post_execute hook given non-ExecutionContext payload")
			}
			return fn(ctx, exec)
		},
	}
}

// NewPreDebugHook wraps fn as a Hook bound to a *DebugContext payload.
func NewPreDebugHook(meta Metadata, fn PreDebugHandler) Hook {
	return &typedHook{
		meta: meta,
		extract: func(execCtx *ExecContext) bool {
			_, ok := execCtx.Value.(*DebugContext)
			return ok
		},
		run: func(ctx context.Context, execCtx *ExecContext) Result {
			dbg, ok := execCtx.Value.(*DebugContext)
			if !ok {
				return ErrorResult("pre_debug hook given non-DebugContext payload")
			}
			return fn(ctx, dbg)
		},
	}
}

// NewStateChangeHook wraps fn as a Hook bound to a *StateContext payload.
func NewStateChangeHook(meta Metadata, fn StateChangeHandler) Hook {
	return &typedHook{
		meta: meta,
		extract: func(execCtx *ExecContext) bool {
			_, ok := execCtx.Value.(*StateContext)
			return ok
		},
		run: func(ctx context.Context, execCtx *ExecContext) Result {
			st, ok := execCtx.Value.(*StateContext)
			if !ok {
				return ErrorResult("state_change hook given non-StateContext payload")
			}
			return fn(ctx, st)
		},
	}
}
