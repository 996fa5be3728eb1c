package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/lexlapax/rs-llmspell-sub006/core/state"
)

// ReplayScope is the well-known state scope captured hook executions are
// persisted under.
var ReplayScope = state.Hook("replay_capture")

// ReplayID is hook_name + ":" + hook_version; different versions never
// share a replay stream.
func ReplayID(hookName, hookVersion string) string {
	return hookName + ":" + hookVersion
}

// CapturedHookExecution is the append-only record of one ReplayableHook
// invocation, keyed by ExecutionID.
type CapturedHookExecution struct {
	ExecutionID       string
	CorrelationID     CorrelationId
	HookID            string // ReplayID of the hook that ran
	SerializedContext []byte
	SerializedResult  []byte
	Timestamp         time.Time
	Duration          time.Duration
	Metadata          map[string]any
}

// Capturer persists CapturedHookExecution records via C1 under ReplayScope.
type Capturer struct {
	store state.Base
	idGen func() string
}

// NewCapturer constructs a Capturer. idGen produces unique execution ids;
// callers typically supply a uuid generator in production and a
// deterministic sequence in tests.
func NewCapturer(store state.Base, idGen func() string) *Capturer {
	return &Capturer{store: store, idGen: idGen}
}

// Capture serializes execCtx and result through hook's ReplayableHook
// capability and persists the resulting record.
func (c *Capturer) Capture(
	ctx context.Context,
	hook ReplayableHook,
	correlation CorrelationId,
	execCtx *ExecContext,
	result Result,
	duration time.Duration,
) (CapturedHookExecution, error) {
	serializedCtx, err := hook.SerializeContext(execCtx)
	if err != nil {
		return CapturedHookExecution{}, fmt.Errorf("hooks: serializing context: %w", err)
	}
	serializedResult, err := json.Marshal(result)
	if err != nil {
		return CapturedHookExecution{}, fmt.Errorf("hooks: serializing result: %w", err)
	}

	rec := CapturedHookExecution{
		ExecutionID:       c.idGen(),
		CorrelationID:     correlation,
		HookID:            hook.ReplayID(),
		SerializedContext: serializedCtx,
		SerializedResult:  serializedResult,
		Timestamp:         time.Now(),
		Duration:          duration,
	}
	if err := state.SetTyped(ctx, c.store, ReplayScope, rec.ExecutionID, rec); err != nil {
		return CapturedHookExecution{}, fmt.Errorf("hooks: persisting capture: %w", err)
	}
	return rec, nil
}

// Load retrieves a previously captured execution by id.
func (c *Capturer) Load(ctx context.Context, executionID string) (CapturedHookExecution, bool, error) {
	return state.GetTyped[CapturedHookExecution](ctx, c.store, ReplayScope, executionID)
}

// ListAll returns every captured execution in ReplayScope, for the replay
// controller to schedule over.
func (c *Capturer) ListAll(ctx context.Context) ([]CapturedHookExecution, error) {
	entries, err := c.store.GetAllInScope(ctx, ReplayScope)
	if err != nil {
		return nil, err
	}
	out := make([]CapturedHookExecution, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("hooks: re-marshaling captured entry: %w", err)
		}
		var rec CapturedHookExecution
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("hooks: decoding captured entry: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// VerifyRoundTrip checks that DeserializeContext(SerializeContext(ctx))
// reproduces ctx. Debugging metadata (execCtx.Metadata) is excluded from
// the comparison since hooks are permitted to strip it.
func VerifyRoundTrip(hook ReplayableHook, execCtx *ExecContext) (bool, error) {
	data, err := hook.SerializeContext(execCtx)
	if err != nil {
		return false, err
	}
	restored, err := hook.DeserializeContext(data)
	if err != nil {
		return false, err
	}
	a := *execCtx
	b := *restored
	a.Metadata, b.Metadata = nil, nil
	return reflect.DeepEqual(a, b), nil
}
