package state_test

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/lexlapax/rs-llmspell-sub006/core/state"
	"github.com/lexlapax/rs-llmspell-sub006/core/state/backends/inmem"
)

// TestSetGetDeleteRoundTrip verifies the universal invariant: for any scope S
// and key K, set(S,K,v); get(S,K) = Some(v); delete(S,K); get(S,K) = None.
func TestSetGetDeleteRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("set then get returns the stored value, delete then get returns none", prop.ForAll(
		func(key, value string) bool {
			store := state.Extend(inmem.New(), nil, nil)
			ctx := context.Background()
			scope := state.Session("prop-session")

			if err := store.Set(ctx, scope, key, value); err != nil {
				return false
			}
			entry, ok, err := store.Get(ctx, scope, key)
			if err != nil || !ok || entry.Value != value {
				return false
			}
			if err := store.Delete(ctx, scope, key); err != nil {
				return false
			}
			_, ok, err = store.Get(ctx, scope, key)
			return err == nil && !ok
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestCompareAndSwap(t *testing.T) {
	store := state.Extend(inmem.New(), nil, nil)
	ctx := context.Background()
	scope := state.Global()

	ok, err := store.CompareAndSwap(ctx, scope, "counter", nil, "v1")
	require.NoError(t, err)
	require.True(t, ok, "CAS against absent key with nil expected should succeed")

	ok, err = store.CompareAndSwap(ctx, scope, "counter", "wrong", "v2")
	require.NoError(t, err)
	require.False(t, ok, "CAS with mismatched expected value should fail")

	entry, _, err := store.Get(ctx, scope, "counter")
	require.NoError(t, err)
	require.Equal(t, "v1", entry.Value, "failed CAS must not mutate the value")

	ok, err = store.CompareAndSwap(ctx, scope, "counter", "v1", "v2")
	require.NoError(t, err)
	require.True(t, ok)

	entry, _, err = store.Get(ctx, scope, "counter")
	require.NoError(t, err)
	require.Equal(t, "v2", entry.Value)
}

func TestSetIfNotExists(t *testing.T) {
	store := state.Extend(inmem.New(), nil, nil)
	ctx := context.Background()
	scope := state.Agent("a1")

	ok, err := store.SetIfNotExists(ctx, scope, "k", "first")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.SetIfNotExists(ctx, scope, "k", "second")
	require.NoError(t, err)
	require.False(t, ok)

	entry, _, err := store.Get(ctx, scope, "k")
	require.NoError(t, err)
	require.Equal(t, "first", entry.Value)
}

func TestIncrement(t *testing.T) {
	store := state.Extend(inmem.New(), nil, nil)
	ctx := context.Background()
	scope := state.Workflow("w1")

	v, err := store.Increment(ctx, scope, "count", 3)
	require.NoError(t, err)
	require.Equal(t, int64(3), v)

	v, err = store.Increment(ctx, scope, "count", 4)
	require.NoError(t, err)
	require.Equal(t, int64(7), v)
}

func TestCopyAndMoveScope(t *testing.T) {
	store := state.Extend(inmem.New(), nil, nil)
	ctx := context.Background()
	from := state.Custom("tenant-a")
	to := state.Custom("tenant-b")

	require.NoError(t, store.Set(ctx, from, "k1", "v1"))
	require.NoError(t, store.Set(ctx, from, "k2", "v2"))

	require.NoError(t, store.CopyScope(ctx, from, to))
	toEntries, err := store.GetAllInScope(ctx, to)
	require.NoError(t, err)
	require.Len(t, toEntries, 2)

	fromEntries, err := store.GetAllInScope(ctx, from)
	require.NoError(t, err)
	require.Len(t, fromEntries, 2, "copy_scope must be non-destructive")

	require.NoError(t, store.MoveScope(ctx, from, to))
	fromEntries, err = store.GetAllInScope(ctx, from)
	require.NoError(t, err)
	require.Empty(t, fromEntries, "move_scope must empty the source scope")
}

func TestSetTypedGetTypedRoundTrip(t *testing.T) {
	type Profile struct {
		Name string
		Age  int
	}
	store := state.Extend(inmem.New(), nil, nil)
	ctx := context.Background()
	scope := state.User("u1")

	require.NoError(t, state.SetTyped(ctx, store, scope, "profile", Profile{Name: "Ada", Age: 30}))
	got, ok, err := state.GetTyped[Profile](ctx, store, scope, "profile")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Profile{Name: "Ada", Age: 30}, got)

	_, ok, err = state.GetTyped[Profile](ctx, store, scope, "missing")
	require.NoError(t, err)
	require.False(t, ok, "missing key must report ok=false with nil error")
}
