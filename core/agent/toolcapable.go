package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lexlapax/rs-llmspell-sub006/core/component"
	"github.com/lexlapax/rs-llmspell-sub006/core/tools"
)

// ToolCapable is the capability interface an agent implements to discover,
// invoke, and compose tools. Most agents don't need it; DefaultToolCapable
// gives those a zero-value, spec-compliant "no tools available" embedding.
type ToolCapable interface {
	// DiscoverTools returns the tools currently registered with this agent.
	DiscoverTools(ctx context.Context) ([]Tool, error)
	// InvokeTool runs the named tool with input, routing through the tool's
	// own Execute (validate/pre-hooks/body/post-hooks) path.
	InvokeTool(ctx context.Context, name string, input component.Input) (component.Output, error)
	// ListAvailableTools returns the names of tools currently registered.
	ListAvailableTools() []string
	// ToolAvailable reports whether name is currently registered.
	ToolAvailable(name string) bool
	// GetToolInfo returns the schema for a registered tool.
	GetToolInfo(name string) (tools.Schema, error)
	// ComposeTools runs a multi-tool Composition and returns its final
	// output plus the per-step outputs in execution order.
	ComposeTools(ctx context.Context, comp Composition, input component.Input) (component.Output, []component.Output, error)
}

// ErrToolNotFound is returned by InvokeTool/GetToolInfo for an unregistered
// tool name.
type ErrToolNotFound struct{ Name string }

func (e ErrToolNotFound) Error() string {
	return fmt.Sprintf("agent: tool %q is not registered", e.Name)
}

// DefaultToolCapable is an embeddable, mutex-protected tool registry.
// Agents that need tool access embed this and call RegisterTool; agents that
// never invoke tools can embed it too and simply never register any, which
// satisfies ToolCapable with correct "no tools available" responses per the
// spec's default behavior for non-tool-using agents.
type DefaultToolCapable struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewDefaultToolCapable constructs an empty tool registry.
func NewDefaultToolCapable() *DefaultToolCapable {
	return &DefaultToolCapable{tools: make(map[string]Tool)}
}

// RegisterTool adds or replaces a tool in the registry.
func (d *DefaultToolCapable) RegisterTool(t Tool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tools == nil {
		d.tools = make(map[string]Tool)
	}
	d.tools[t.Metadata().ID] = t
}

// UnregisterTool removes a tool from the registry, if present.
func (d *DefaultToolCapable) UnregisterTool(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.tools, name)
}

// DiscoverTools returns all registered tools.
func (d *DefaultToolCapable) DiscoverTools(ctx context.Context) ([]Tool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Tool, 0, len(d.tools))
	for _, t := range d.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metadata().ID < out[j].Metadata().ID })
	return out, nil
}

// InvokeTool runs the named tool's Execute path.
func (d *DefaultToolCapable) InvokeTool(ctx context.Context, name string, input component.Input) (component.Output, error) {
	t, err := d.lookup(name)
	if err != nil {
		return component.Output{}, err
	}
	return t.Execute(ctx, input)
}

// ListAvailableTools returns registered tool names in sorted order.
func (d *DefaultToolCapable) ListAvailableTools() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToolAvailable reports whether name is registered.
func (d *DefaultToolCapable) ToolAvailable(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.tools[name]
	return ok
}

// GetToolInfo returns the schema of a registered tool.
func (d *DefaultToolCapable) GetToolInfo(name string) (tools.Schema, error) {
	t, err := d.lookup(name)
	if err != nil {
		return tools.Schema{}, err
	}
	return t.Schema(), nil
}

// ComposeTools runs comp's steps via the shared composition executor (see
// composition.go), against this registry.
func (d *DefaultToolCapable) ComposeTools(ctx context.Context, comp Composition, input component.Input) (component.Output, []component.Output, error) {
	return RunComposition(ctx, d, comp, input)
}

func (d *DefaultToolCapable) lookup(name string) (Tool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tools[name]
	if !ok {
		return nil, ErrToolNotFound{Name: name}
	}
	return t, nil
}

var _ ToolCapable = (*DefaultToolCapable)(nil)
