// Package integration wires the core runtime's interception and replay
// primitives (C2/C5) to the external collaborators an embedder plugs in: a
// debugger-style kernel, a session-sharing UI, and a template/orchestrator
// layer. None of those collaborators are implemented here: concrete
// Jupyter kernels, wire transports, and template engines stay external
// collaborators. This package only defines the contracts and the glue that
// lets core/hooks' typed kernel wrappers and core/replay's session
// controller be driven by one.
package integration

import (
	"fmt"

	"github.com/lexlapax/rs-llmspell-sub006/core/hooks"
)

// KernelTaxonomy groups the named hook-point conventions a debugger-style
// kernel collaborator expects to register against: execution tracing
// (pre/post) and debug command interception, wired through core/hooks'
// already-typed kernel wrappers (core/hooks/kernel.go) rather than a second,
// integration-local hook abstraction. Registration delegates to
// BeforeAgentExecution/AfterAgentExecution for execution tracing; HealthCheck
// is reused as the debug-command point's gate, since the closed Point
// enumeration has no dedicated "debug" point and a debugger session is
// conceptually a health/introspection concern of the running component.
type KernelTaxonomy struct {
	registry *hooks.Registry
}

// NewKernelTaxonomy constructs a KernelTaxonomy bound to registry.
func NewKernelTaxonomy(registry *hooks.Registry) *KernelTaxonomy {
	return &KernelTaxonomy{registry: registry}
}

// RegisterPreExecute wires fn as a typed pre-execution kernel hook at
// BeforeAgentExecution, for a debugger that wants to intercept or annotate
// every agent invocation before it runs.
func (k *KernelTaxonomy) RegisterPreExecute(name string, priority hooks.Priority, fn hooks.PreExecuteHandler) error {
	return k.register(hooks.BeforeAgentExecution, name, priority, func() (hooks.Hook, error) {
		return hooks.NewPreExecuteHook(hooks.Metadata{Name: name, Priority: priority}, fn), nil
	})
}

// RegisterPostExecute wires fn as a typed post-execution kernel hook at
// AfterAgentExecution.
func (k *KernelTaxonomy) RegisterPostExecute(name string, priority hooks.Priority, fn hooks.PostExecuteHandler) error {
	return k.register(hooks.AfterAgentExecution, name, priority, func() (hooks.Hook, error) {
		return hooks.NewPostExecuteHook(hooks.Metadata{Name: name, Priority: priority}, fn), nil
	})
}

// RegisterPreDebug wires fn as a typed debug-command interception hook at
// HealthCheck, the closed Point enumeration's nearest analogue to a
// debugger-originated introspection request.
func (k *KernelTaxonomy) RegisterPreDebug(name string, priority hooks.Priority, fn hooks.PreDebugHandler) error {
	return k.register(hooks.HealthCheck, name, priority, func() (hooks.Hook, error) {
		return hooks.NewPreDebugHook(hooks.Metadata{Name: name, Priority: priority}, fn), nil
	})
}

// RegisterStateChange wires fn as a typed state-change kernel hook at
// StateChanged, for a debugger or UI wanting to mirror live state edits.
func (k *KernelTaxonomy) RegisterStateChange(name string, priority hooks.Priority, fn hooks.StateChangeHandler) error {
	return k.register(hooks.StateChanged, name, priority, func() (hooks.Hook, error) {
		return hooks.NewStateChangeHook(hooks.Metadata{Name: name, Priority: priority}, fn), nil
	})
}

func (k *KernelTaxonomy) register(point hooks.Point, name string, priority hooks.Priority, factory hooks.Factory) error {
	if err := k.registry.Register(point, hooks.Metadata{Name: name, Priority: priority}, factory, nil); err != nil {
		return fmt.Errorf("integration: registering kernel hook %q at %s: %w", name, point, err)
	}
	return nil
}
