package inmem_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexlapax/rs-llmspell-sub006/core/state"
	"github.com/lexlapax/rs-llmspell-sub006/core/state/backends/inmem"
)

func TestSetWithTTLExpires(t *testing.T) {
	store := inmem.New()
	ctx := context.Background()
	scope := state.Global()

	require.NoError(t, store.SetWithTTL(ctx, scope, "k", "v", 10*time.Millisecond))

	_, ok, err := store.Get(ctx, scope, "k")
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok, err = store.Get(ctx, scope, "k")
	require.NoError(t, err)
	require.False(t, ok, "entry past its TTL deadline must report as absent")
}

func TestSetWithoutTTLNeverExpires(t *testing.T) {
	store := inmem.New()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, state.Global(), "k", "v"))
	// Setting over a previous TTL'd key must clear the deadline.
	require.NoError(t, store.SetWithTTL(ctx, state.Global(), "k", "v2", time.Millisecond))
	require.NoError(t, store.Set(ctx, state.Global(), "k", "v3"))
	time.Sleep(5 * time.Millisecond)
	entry, ok, err := store.Get(ctx, state.Global(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v3", entry.Value)
}

func TestConcurrentWritesAreRaceFree(t *testing.T) {
	store := inmem.New()
	ctx := context.Background()
	scope := state.Global()
	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			_ = store.Set(ctx, scope, "k", n)
		}(i)
	}
	for i := 0; i < 20; i++ {
		<-done
	}
	_, ok, err := store.Get(ctx, scope, "k")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestContextCancellationRejectsOperations(t *testing.T) {
	store := inmem.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.Set(ctx, state.Global(), "k", "v")
	require.Error(t, err)
}
