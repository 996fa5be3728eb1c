package state

import "strings"

// ScopeTag is the closed set of scope kinds a Scope may carry, plus the
// Custom escape hatch for embedder-defined namespaces.
type ScopeTag string

const (
	ScopeGlobal   ScopeTag = "global"
	ScopeUser     ScopeTag = "user"
	ScopeSession  ScopeTag = "session"
	ScopeAgent    ScopeTag = "agent"
	ScopeTool     ScopeTag = "tool"
	ScopeWorkflow ScopeTag = "workflow"
	ScopeHook     ScopeTag = "hook"
	ScopeCustom   ScopeTag = "custom"
)

// Scope namespaces state entries. Global carries no id; every other tag
// carries an entity id that disambiguates instances of that tag (a session
// id, an agent id, and so on).
type Scope struct {
	Tag ScopeTag
	ID  string
}

// Global returns the singleton global scope.
func Global() Scope { return Scope{Tag: ScopeGlobal} }

// User returns the scope for a given user id.
func User(id string) Scope { return Scope{Tag: ScopeUser, ID: id} }

// Session returns the scope for a given session id.
func Session(id string) Scope { return Scope{Tag: ScopeSession, ID: id} }

// Agent returns the scope for a given agent id.
func Agent(id string) Scope { return Scope{Tag: ScopeAgent, ID: id} }

// Tool returns the scope for a given tool id.
func Tool(id string) Scope { return Scope{Tag: ScopeTool, ID: id} }

// Workflow returns the scope for a given workflow id.
func Workflow(id string) Scope { return Scope{Tag: ScopeWorkflow, ID: id} }

// Hook returns the scope for a given hook id.
func Hook(id string) Scope { return Scope{Tag: ScopeHook, ID: id} }

// Custom returns an embedder-defined scope identified by an arbitrary tag
// string, for namespaces the closed enumeration doesn't anticipate.
func Custom(tag string) Scope { return Scope{Tag: ScopeCustom, ID: tag} }

// scopeSeparator delimits scope-tag, scope-id, and key segments in the
// canonical storage key. Prefix below escapes it (and the escape character
// `\`) in the scope id, so an id containing it cannot break prefix-safety; a
// key needs no escaping because it follows the prefix's final separator.
const scopeSeparator = "\x1f" // ASCII unit separator: never typed by humans

// Prefix returns the canonical, collision-free prefix for this scope. Every
// stored key for the scope begins with this exact string, and no key outside
// the scope can share it, which is what makes clear_scope/list_keys
// prefix-safe: ScopeTag's closed values never collide with each other, and
// appending the separator before ID prevents "user:ab" + "c" colliding with
// "user:a" + "bc".
func (s Scope) Prefix() string {
	if s.Tag == ScopeGlobal {
		return string(ScopeGlobal) + scopeSeparator
	}
	id := strings.ReplaceAll(strings.ReplaceAll(s.ID, `\`, `\\`), scopeSeparator, `\s`)
	return string(s.Tag) + scopeSeparator + id + scopeSeparator
}

// StorageKey returns the canonical (scope, key) storage key.
func (s Scope) StorageKey(key string) string {
	return s.Prefix() + key
}

// String renders the scope as "<tag>(<id>)" for logging, or "<tag>" for the
// idless Global scope.
func (s Scope) String() string {
	if s.Tag == ScopeGlobal {
		return string(ScopeGlobal)
	}
	return string(s.Tag) + "(" + s.ID + ")"
}

// TrimPrefix returns the key portion of a canonical storage key for this
// scope, and whether storageKey actually belonged to the scope.
func (s Scope) TrimPrefix(storageKey string) (string, bool) {
	prefix := s.Prefix()
	if !strings.HasPrefix(storageKey, prefix) {
		return "", false
	}
	return storageKey[len(prefix):], true
}
