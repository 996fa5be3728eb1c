// Package component defines the identity and execution payload types shared
// by every component kind (agent, tool, workflow, hook, system). These types
// are the coordination keys used across the hooks, lifecycle, state, and
// replay subsystems, grounded on the identity/payload conventions the teacher
// uses for agent.Ident and run.Context.
package component

import "time"

// Type enumerates the component kinds recognized by the runtime.
type Type string

const (
	TypeAgent    Type = "agent"
	TypeTool     Type = "tool"
	TypeWorkflow Type = "workflow"
	TypeHook     Type = "hook"
	TypeSystem   Type = "system"
)

// ID is the coordination key used across the hooks, lifecycle, state, and
// replay subsystems: a (Type, Name) pair that stays stable across process
// restarts.
type ID struct {
	Type Type
	Name string
}

// String renders the ID as "<type>:<name>", the canonical form used when the
// ID needs to appear in log lines or as a map key.
func (id ID) String() string {
	return string(id.Type) + ":" + id.Name
}

// Metadata carries the immutable identity of an executable component.
type Metadata struct {
	// ID is the stable, process-lifetime name for this component.
	ID string
	// Type classifies the component.
	Type Type
	// Version is the component's semantic version.
	Version string
	// Description is a human-readable summary of the component's purpose.
	Description string
	// CreatedAt records when the component was registered.
	CreatedAt time.Time
	// UpdatedAt records the last metadata update.
	UpdatedAt time.Time
}

// ComponentID returns the coordination ID derived from this metadata.
func (m Metadata) ComponentID() ID {
	return ID{Type: m.Type, Name: m.ID}
}

// Media references a non-text payload attached to an input or output (an
// image, audio clip, or document). The runtime treats Media as opaque bytes
// plus a MIME type; interpretation is left to collaborators (model clients,
// tools).
type Media struct {
	MIMEType string
	Data     []byte
	URI      string
}

// Modality names an output modality hint (e.g. "text", "audio", "image").
type Modality string

// Input is the execution payload passed to a component's Execute method.
type Input struct {
	// Prompt is the free-text prompt or instruction for the component.
	Prompt string
	// Media lists any non-text payloads attached to the input.
	Media []Media
	// Parameters is an insertion-ordered mapping from parameter name to
	// structured value. Tools read their arguments from the conventional
	// "parameters" key; see the tools package for the schema contract.
	Parameters *OrderedParams
	// OutputModalities hints which output modalities the caller can render.
	OutputModalities []Modality
	// Parent optionally links this execution to the context of a parent
	// invocation, for nested agent-as-tool executions.
	Parent *ParentContext
}

// ParentContext links a nested execution back to the invocation that
// scheduled it.
type ParentContext struct {
	ComponentID      ID
	ExecutionID      string
	ParentToolCallID string
}

// ToolCallRecord captures a single tool invocation made during execution, for
// inclusion in Output.ToolCalls.
type ToolCallRecord struct {
	ToolName string
	CallID   string
	Args     map[string]any
	Result   any
	Err      error
}

// Output is the result of executing a component.
type Output struct {
	// Text is the component's primary textual response.
	Text string
	// Media lists any non-text payloads produced by the component.
	Media []Media
	// ToolCalls lists the tool invocations made while producing this output.
	ToolCalls []ToolCallRecord
	// Metadata carries free-form, implementation-defined annotations.
	Metadata map[string]any
	// TransferTo optionally names another component this execution wants to
	// hand control to (a routing hint interpreted by the caller).
	TransferTo string
}

// OrderedParams is an insertion-ordered name -> value mapping. Go maps do not
// preserve insertion order, so Parameters uses parallel slices instead; this
// mirrors the ordered-parameter contract in spec.md's AgentInput definition.
type OrderedParams struct {
	names  []string
	values map[string]any
}

// NewOrderedParams constructs an empty OrderedParams.
func NewOrderedParams() *OrderedParams {
	return &OrderedParams{values: make(map[string]any)}
}

// Set assigns value to name, preserving the original insertion position if
// name was already set.
func (p *OrderedParams) Set(name string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, exists := p.values[name]; !exists {
		p.names = append(p.names, name)
	}
	p.values[name] = value
}

// Get returns the value for name and whether it was present.
func (p *OrderedParams) Get(name string) (any, bool) {
	if p == nil || p.values == nil {
		return nil, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Names returns parameter names in insertion order.
func (p *OrderedParams) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Len returns the number of parameters set.
func (p *OrderedParams) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Map returns a plain map snapshot of the parameters. The returned map does
// not preserve ordering; use Names for ordered iteration.
func (p *OrderedParams) Map() map[string]any {
	out := make(map[string]any, p.Len())
	for _, n := range p.Names() {
		out[n] = p.values[n]
	}
	return out
}
