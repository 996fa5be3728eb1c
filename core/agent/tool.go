package agent

import (
	"github.com/lexlapax/rs-llmspell-sub006/core/component"
	"github.com/lexlapax/rs-llmspell-sub006/core/tools"
)

// Tool extends BaseAgent with the declarative metadata an embedder's
// planner, security gate, and resource manager need before invoking it: a
// parameter/return schema, a purpose category, and the trust tier and
// resource envelope it expects to run within.
type Tool interface {
	BaseAgent

	// Schema describes this tool's parameters, return type, category,
	// security level, and resource limits.
	Schema() tools.Schema
}

// ToolFunc adapts an Agent into a Tool by pairing it with a fixed
// tools.Schema. This is the common case: most tools are a single Body
// function plus a schema, with no need for a bespoke type.
type ToolFunc struct {
	*Agent
	schema tools.Schema
}

// NewTool constructs a Tool from a schema and body. The schema's Name becomes
// the agent's metadata ID unless meta.ID is already set.
func NewTool(schema tools.Schema, meta component.Metadata, body Body, opts ...Option) *ToolFunc {
	if meta.ID == "" {
		meta.ID = schema.Name
	}
	if meta.Description == "" {
		meta.Description = schema.Description
	}
	meta.Type = component.TypeTool
	return &ToolFunc{Agent: New(meta, body, opts...), schema: schema}
}

// Schema returns the tool's declared schema.
func (t *ToolFunc) Schema() tools.Schema { return t.schema }

var _ Tool = (*ToolFunc)(nil)
