package hooks_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexlapax/rs-llmspell-sub006/core/hooks"
)

func TestRegisterRejectsDuplicateNameAtSamePoint(t *testing.T) {
	r := hooks.NewRegistry(nil, 0)
	factory := func() (hooks.Hook, error) {
		return newFuncHook(hooks.Metadata{Name: "dup"}, func(context.Context, *hooks.ExecContext) hooks.Result {
			return hooks.ContinueResult()
		}), nil
	}
	require.NoError(t, r.Register(hooks.BeforeAgentExecution, hooks.Metadata{Name: "dup"}, factory, nil))
	err := r.Register(hooks.BeforeAgentExecution, hooks.Metadata{Name: "dup"}, factory, nil)
	require.Error(t, err)
}

func TestGetHooksFiltersByFeatureGate(t *testing.T) {
	features := hooks.NewFeatures()
	r := hooks.NewRegistry(features, 0)
	instantiated := false
	factory := func() (hooks.Hook, error) {
		instantiated = true
		return newFuncHook(hooks.Metadata{Name: "gated"}, func(context.Context, *hooks.ExecContext) hooks.Result {
			return hooks.ContinueResult()
		}), nil
	}
	require.NoError(t, r.Register(hooks.BeforeAgentExecution, hooks.Metadata{Name: "gated"}, factory, []string{"feature_x"}))

	got, err := r.GetHooks(hooks.BeforeAgentExecution)
	require.NoError(t, err)
	require.Empty(t, got)
	require.False(t, instantiated, "disabled-by-feature hook must never be materialized")

	features.Enable("feature_x")
	got, err = r.GetHooks(hooks.BeforeAgentExecution)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, instantiated)
}

func TestGetHooksOrdersByDescendingPriority(t *testing.T) {
	r := hooks.NewRegistry(nil, 0)
	var order []string
	mk := func(name string, pri hooks.Priority) hooks.Factory {
		return func() (hooks.Hook, error) {
			return newFuncHook(hooks.Metadata{Name: name, Priority: pri}, func(context.Context, *hooks.ExecContext) hooks.Result {
				order = append(order, name)
				return hooks.ContinueResult()
			}), nil
		}
	}
	require.NoError(t, r.Register(hooks.BeforeAgentExecution, hooks.Metadata{Name: "low", Priority: hooks.PriorityLow}, mk("low", hooks.PriorityLow), nil))
	require.NoError(t, r.Register(hooks.BeforeAgentExecution, hooks.Metadata{Name: "high", Priority: hooks.PriorityHigh}, mk("high", hooks.PriorityHigh), nil))
	require.NoError(t, r.Register(hooks.BeforeAgentExecution, hooks.Metadata{Name: "normal", Priority: hooks.PriorityNormal}, mk("normal", hooks.PriorityNormal), nil))

	got, err := r.GetHooks(hooks.BeforeAgentExecution)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, h := range got {
		_ = h.Execute(context.Background(), &hooks.ExecContext{Point: hooks.BeforeAgentExecution})
	}
	require.Equal(t, []string{"high", "normal", "low"}, order)
}

func TestRegistryEvictsLeastRecentlyUsedPastCap(t *testing.T) {
	r := hooks.NewRegistry(nil, 1)
	mk := func(name string) hooks.Factory {
		return func() (hooks.Hook, error) {
			return newFuncHook(hooks.Metadata{Name: name}, func(context.Context, *hooks.ExecContext) hooks.Result {
				return hooks.ContinueResult()
			}), nil
		}
	}
	require.NoError(t, r.Register(hooks.BeforeAgentExecution, hooks.Metadata{Name: "a"}, mk("a"), nil))
	require.NoError(t, r.Register(hooks.AfterAgentExecution, hooks.Metadata{Name: "b"}, mk("b"), nil))

	_, err := r.GetHooks(hooks.BeforeAgentExecution)
	require.NoError(t, err)
	require.Equal(t, 1, r.LiveInstanceCount())

	_, err = r.GetHooks(hooks.AfterAgentExecution)
	require.NoError(t, err)
	require.Equal(t, 1, r.LiveInstanceCount(), "cap of 1 must evict the previously materialized hook")
}
