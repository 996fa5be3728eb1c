package hooks_test

import (
	"context"

	"github.com/lexlapax/rs-llmspell-sub006/core/hooks"
)

// funcHook is a test double letting tests supply Execute/ShouldExecute
// inline without writing a concrete type per scenario.
type funcHook struct {
	meta          hooks.Metadata
	shouldExecute func(*hooks.ExecContext) bool
	execute       func(context.Context, *hooks.ExecContext) hooks.Result
	instantiated  *int
}

func newFuncHook(meta hooks.Metadata, execute func(context.Context, *hooks.ExecContext) hooks.Result) *funcHook {
	return &funcHook{meta: meta, execute: execute}
}

func (h *funcHook) Metadata() hooks.Metadata { return h.meta }

func (h *funcHook) ShouldExecute(execCtx *hooks.ExecContext) bool {
	if h.shouldExecute == nil {
		return true
	}
	return h.shouldExecute(execCtx)
}

func (h *funcHook) Execute(ctx context.Context, execCtx *hooks.ExecContext) hooks.Result {
	return h.execute(ctx, execCtx)
}
