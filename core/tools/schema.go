// Package tools defines the tool schema contract (§3 ToolSchema) and the
// shared parameter-extraction helpers tool implementations use to validate
// their payload against that schema. Schema validation is backed by
// github.com/santhosh-tekuri/jsonschema/v6, the same validator the teacher
// uses for tool payload/result schemas.
package tools

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ParamType enumerates the recognized JSON-schema-compatible parameter types.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
	ParamObject  ParamType = "object"
)

// Category classifies a tool's general purpose.
type Category string

const (
	CategoryFilesystem Category = "filesystem"
	CategoryAPI        Category = "api"
	CategoryUtility    Category = "utility"
	CategoryAnalysis   Category = "analysis"
)

// SecurityLevel declares the trust tier a tool requires to execute.
type SecurityLevel string

const (
	SecuritySafe       SecurityLevel = "safe"
	SecurityRestricted SecurityLevel = "restricted"
	SecurityPrivileged SecurityLevel = "privileged"
)

// ResourceLimits declares the resource envelope a tool expects to stay
// within. Zero values mean "no declared limit"; enforcement is the resource
// manager's responsibility (see the lifecycle package), not the schema's.
type ResourceLimits struct {
	MemoryBytes   int64
	CPUTime       int64 // nanoseconds
	DiskBytes     int64 // 0 means undeclared
	NetworkBPS    int64 // 0 means undeclared
}

// ParameterDef describes one declared tool parameter.
type ParameterDef struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     any
}

// Schema enumerates the metadata for a tool, per spec.md §3. Name/Description
// are shown to planners; Parameters/Returns describe the payload contract;
// Category/SecurityLevel/Limits are declarative policy inputs consumed by the
// lifecycle resource manager and an embedder's security gate.
type Schema struct {
	Name        string
	Description string
	Parameters  []ParameterDef
	Returns     ParamType
	Category    Category
	Security    SecurityLevel
	Limits      ResourceLimits
}

// AllowWildcardSecurity gates whether a SecurityLevel allowlist may contain
// the literal "*" value. Per spec.md's open question, wildcard allowlists
// grant full access and production deployments should reject them unless
// explicitly opted in; callers should leave this false unless they have
// deliberately decided to accept the blast radius.
var AllowWildcardSecurity = false

// ValidateAllowlist rejects a wildcard allowlist entry unless
// AllowWildcardSecurity has been explicitly set.
func ValidateAllowlist(allowed []string) error {
	if AllowWildcardSecurity {
		return nil
	}
	for _, a := range allowed {
		if a == "*" {
			return fmt.Errorf("tools: wildcard allowlist entry %q rejected; set tools.AllowWildcardSecurity=true to opt in", a)
		}
	}
	return nil
}

// JSONSchema renders the Schema's Parameters as a JSON Schema object document
// suitable for compilation with jsonschema.Compile.
func (s Schema) JSONSchema() ([]byte, error) {
	properties := make(map[string]any, len(s.Parameters))
	var required []string
	for _, p := range s.Parameters {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	doc := map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return json.Marshal(doc)
}

// Compile compiles the schema's JSON Schema representation into a reusable
// validator.
func (s Schema) Compile() (*jsonschema.Schema, error) {
	raw, err := s.JSONSchema()
	if err != nil {
		return nil, fmt.Errorf("tools: render json schema for %q: %w", s.Name, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("tools: decode rendered schema for %q: %w", s.Name, err)
	}
	c := jsonschema.NewCompiler()
	const resourceURL = "mem://tool-schema.json"
	if err := c.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("tools: add schema resource for %q: %w", s.Name, err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("tools: compile schema for %q: %w", s.Name, err)
	}
	return compiled, nil
}

// Validate checks params against the compiled schema. It is a convenience
// wrapper around Compile + Schema.Validate for call sites that don't need to
// cache the compiled validator across invocations.
func (s Schema) Validate(params map[string]any) error {
	compiled, err := s.Compile()
	if err != nil {
		return err
	}
	if err := compiled.Validate(params); err != nil {
		return fmt.Errorf("tools: validate params for %q: %w", s.Name, err)
	}
	return nil
}

// --- shared parameter-extraction helpers -----------------------------------
//
// Tools receive their arguments under the conventional "parameters" key of
// an AgentInput; these helpers do the required/optional extraction and basic
// validation every Tool.Execute needs, rather than each tool hand-rolling
// type assertions.

// RequiredString extracts a required string parameter.
func RequiredString(params map[string]any, name string) (string, error) {
	v, ok := params[name]
	if !ok {
		return "", fmt.Errorf("tools: missing required parameter %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("tools: parameter %q must be a string", name)
	}
	return s, nil
}

// OptionalString extracts an optional string parameter, returning def if
// absent.
func OptionalString(params map[string]any, name, def string) (string, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("tools: parameter %q must be a string", name)
	}
	return s, nil
}

// RequiredBool extracts a required boolean parameter.
func RequiredBool(params map[string]any, name string) (bool, error) {
	v, ok := params[name]
	if !ok {
		return false, fmt.Errorf("tools: missing required parameter %q", name)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("tools: parameter %q must be a boolean", name)
	}
	return b, nil
}

// OptionalBool extracts an optional boolean parameter, returning def if
// absent.
func OptionalBool(params map[string]any, name string, def bool) (bool, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("tools: parameter %q must be a boolean", name)
	}
	return b, nil
}

// RequiredInt extracts a required integer parameter. JSON numbers decode as
// float64; this helper accepts both float64 and int for callers that built
// params programmatically.
func RequiredInt(params map[string]any, name string) (int, error) {
	v, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("tools: missing required parameter %q", name)
	}
	return coerceInt(name, v)
}

// OptionalInt extracts an optional integer parameter, returning def if
// absent.
func OptionalInt(params map[string]any, name string, def int) (int, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return def, nil
	}
	return coerceInt(name, v)
}

func coerceInt(name string, v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("tools: parameter %q must be a number", name)
	}
}

// ValidateEnum checks that value is one of allowed.
func ValidateEnum(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("tools: parameter %q value %q is not one of %v", name, value, allowed)
}

// ValidatePath rejects paths that attempt to escape a base directory via
// ".." traversal, a minimal guard for filesystem-category tools.
func ValidatePath(path string) error {
	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "/../") {
		return fmt.Errorf("tools: path %q escapes its base directory", path)
	}
	return nil
}
