package hooks_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexlapax/rs-llmspell-sub006/core/hooks"
	"github.com/lexlapax/rs-llmspell-sub006/core/state"
	"github.com/lexlapax/rs-llmspell-sub006/core/state/backends/inmem"
)

// replayableFuncHook is a minimal ReplayableHook test double: it
// JSON-encodes/decodes the exported fields of ExecContext.
type replayableFuncHook struct {
	*funcHook
	version string
}

func (h *replayableFuncHook) ReplayID() string { return hooks.ReplayID(h.meta.Name, h.version) }

func (h *replayableFuncHook) SerializeContext(execCtx *hooks.ExecContext) ([]byte, error) {
	return json.Marshal(struct {
		Point hooks.Point
		Value any
	}{Point: execCtx.Point, Value: execCtx.Value})
}

func (h *replayableFuncHook) DeserializeContext(data []byte) (*hooks.ExecContext, error) {
	var decoded struct {
		Point hooks.Point
		Value any
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	return &hooks.ExecContext{Point: decoded.Point, Value: decoded.Value}, nil
}

func TestReplayIDCombinesNameAndVersion(t *testing.T) {
	require.Equal(t, "audit:v1", hooks.ReplayID("audit", "v1"))
}

func TestCapturePersistsAndLoadsRecord(t *testing.T) {
	store := inmem.New()
	counter := 0
	capturer := hooks.NewCapturer(store, func() string {
		counter++
		return fmt.Sprintf("exec-%d", counter)
	})

	h := &replayableFuncHook{funcHook: newFuncHook(hooks.Metadata{Name: "audit"}, nil), version: "v1"}
	execCtx := &hooks.ExecContext{Point: hooks.BeforeToolExecution, Value: "payload"}

	rec, err := capturer.Capture(context.Background(), h, "trace-1", execCtx, hooks.ContinueResult(), 5*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "audit:v1", rec.HookID)

	loaded, ok, err := capturer.Load(context.Background(), rec.ExecutionID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec.HookID, loaded.HookID)

	all, err := capturer.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestVerifyRoundTripIgnoresDebugMetadata(t *testing.T) {
	h := &replayableFuncHook{funcHook: newFuncHook(hooks.Metadata{Name: "audit"}, nil), version: "v1"}
	execCtx := &hooks.ExecContext{
		Point:    hooks.BeforeToolExecution,
		Value:    "payload",
		Metadata: map[string]any{"debug_trace": "dropped on serialize"},
	}
	ok, err := hooks.VerifyRoundTrip(h, execCtx)
	require.NoError(t, err)
	require.True(t, ok)
}

var _ state.Base = (*inmem.Store)(nil)
