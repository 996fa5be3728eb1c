package hooks

import (
	"context"
	"time"
)

// ExecContext carries the mutable flowing value plus ambient identity
// through a dispatch chain. Hooks read and optionally replace Value; they
// must not assume any other hook's side effects beyond what they receive.
type ExecContext struct {
	Point       Point
	Component   ComponentId
	Value       any
	Metadata    map[string]any
	Correlation CorrelationId
}

// ComponentId is the coordination key used across C2-C5: a (type, name)
// pair identifying an executable unit.
type ComponentId struct {
	Type string
	Name string
}

func (c ComponentId) String() string { return c.Type + ":" + c.Name }

// Metadata describes a registered hook instance. Name must be unique within
// a Point; Version participates in the replay_id for ReplayableHook.
type Metadata struct {
	Name        string
	Priority    Priority
	Language    string
	Tags        []string
	Version     string
	Description string
}

// Hook is the base interception contract. Implementations should be cheap
// to construct; heavyweight setup belongs behind a Factory so disabled
// hooks never pay for it.
type Hook interface {
	Metadata() Metadata
	ShouldExecute(ctx *ExecContext) bool
	Execute(ctx context.Context, execCtx *ExecContext) Result
}

// MetricHook is an optional capability a Hook may implement to observe its
// own execution for telemetry.
type MetricHook interface {
	RecordPreExecution(ctx context.Context, execCtx *ExecContext)
	RecordPostExecution(ctx context.Context, execCtx *ExecContext, result Result, duration time.Duration)
}

// ReplayableHook is an optional capability enabling a hook's invocations to
// be captured and later replayed. SerializeContext/DeserializeContext must
// round-trip modulo debugging metadata the hook is permitted to strip.
type ReplayableHook interface {
	ReplayID() string
	SerializeContext(execCtx *ExecContext) ([]byte, error)
	DeserializeContext(data []byte) (*ExecContext, error)
}

// Factory lazily constructs a Hook. Registration stores a Factory, not a
// Hook, so feature-gated or heavyweight hooks are only materialized on
// first dispatch.
type Factory func() (Hook, error)
