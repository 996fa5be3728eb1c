// Package coreerrors defines the closed error-kind taxonomy shared by every
// core subsystem (state, hooks, lifecycle, replay, component runtime). Each
// kind carries the fields callers need to react programmatically, and all
// satisfy the standard error interface with Unwrap support so callers can use
// errors.As/errors.Is against the sentinel Kind values.
package coreerrors

import (
	"errors"
	"fmt"
)

// Kind enumerates the error categories from the propagation policy. Kind
// values are comparable and suitable for errors.Is checks against the Is
// method on Error.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindComponent        Kind = "component"
	KindTool             Kind = "tool"
	KindSecurity         Kind = "security"
	KindStorage          Kind = "storage"
	KindSerialization    Kind = "serialization"
	KindTransition       Kind = "transition"
	KindResourceExhausted Kind = "resource_exhausted"
	KindTimeout          Kind = "timeout"
	KindReplay           Kind = "replay"
	KindMigration        Kind = "migration"
)

// Error is the concrete error type produced by every core subsystem. Field(s)
// beyond Kind/Message/Cause are kind-specific and populated by the
// constructor helpers below.
type Error struct {
	Kind Kind
	// Message is a human-readable, sanitizer-safe description.
	Message string
	// Cause is the wrapped underlying error, if any.
	Cause error

	// Tool is set for KindTool errors: the tool name that failed.
	Tool string
	// SecurityViolation is set for KindSecurity errors: the violation kind
	// (e.g. "privileged_tool_denied", "wildcard_allowlist_rejected").
	SecurityViolation string
	// Operation is set for KindStorage errors: the store operation that failed
	// (e.g. "set", "get", "clear_scope").
	Operation string
	// FromState/ToState are set for KindTransition errors.
	FromState string
	ToState   string
	// ResourceType is set for KindResourceExhausted errors.
	ResourceType string
	// Direction is set for KindMigration errors ("up" or "down").
	Direction string
	// Field optionally hints which input field a KindValidation error concerns.
	Field string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Kind, enabling
// errors.Is(err, coreerrors.New(KindTimeout, "")) style checks when callers
// only care about the category.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs a bare Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation constructs a KindValidation error, optionally naming the field.
func Validation(message, field string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// Transition constructs a KindTransition error describing a rejected edge.
func Transition(from, to string) *Error {
	return &Error{
		Kind:      KindTransition,
		Message:   fmt.Sprintf("invalid lifecycle transition %s -> %s", from, to),
		FromState: from,
		ToState:   to,
	}
}

// ResourceExhausted constructs a KindResourceExhausted error for the given
// resource type.
func ResourceExhausted(resourceType, message string) *Error {
	return &Error{Kind: KindResourceExhausted, Message: message, ResourceType: resourceType}
}

// Storage constructs a KindStorage error naming the failed operation.
func Storage(operation, message string, cause error) *Error {
	return &Error{Kind: KindStorage, Message: message, Operation: operation, Cause: cause}
}

// Security constructs a KindSecurity error naming the violation kind.
func Security(violation, message string) *Error {
	return &Error{Kind: KindSecurity, Message: message, SecurityViolation: violation}
}

// ToolError constructs a KindTool error naming the failing tool.
func ToolError(tool, message string, cause error) *Error {
	return &Error{Kind: KindTool, Message: message, Tool: tool, Cause: cause}
}

// Migration constructs a KindMigration error naming the migration direction.
func Migration(direction, message string, cause error) *Error {
	return &Error{Kind: KindMigration, Message: message, Direction: direction, Cause: cause}
}

// Timeout constructs a KindTimeout error.
func Timeout(message string) *Error {
	return &Error{Kind: KindTimeout, Message: message}
}

// AsError extracts the *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	e, ok := AsError(err)
	if !ok {
		return "", false
	}
	return e.Kind, true
}
