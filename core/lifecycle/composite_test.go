package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexlapax/rs-llmspell-sub006/core/lifecycle"
)

type noopInit struct{}

func (noopInit) Initialize(ctx context.Context) error { return nil }

type failingInit struct{}

func (failingInit) Initialize(ctx context.Context) error { return context.DeadlineExceeded }

type addedSink struct {
	added []lifecycle.ComponentAddedEvent
}

func (s *addedSink) OnComponentAdded(event lifecycle.ComponentAddedEvent) {
	s.added = append(s.added, event)
}

func TestInitializeCompositeBringsChildrenAndParentToReady(t *testing.T) {
	sink := &addedSink{}
	c := lifecycle.NewComposite("parent", false, sink)
	c.AddChild("child-a", noopInit{})
	c.AddChild("child-b", noopInit{})

	require.Len(t, sink.added, 2)
	require.NoError(t, c.InitializeComposite(context.Background(), time.Second))
	require.Equal(t, lifecycle.Ready, c.Machine().State())
}

func TestInitializeCompositeAbortsOnChildFailure(t *testing.T) {
	c := lifecycle.NewComposite("parent", false)
	c.AddChild("bad-child", failingInit{})
	err := c.InitializeComposite(context.Background(), time.Second)
	require.Error(t, err)
	require.Equal(t, lifecycle.Initializing, c.Machine().State())
}

func TestCascadingTransitionPropagatesToChildren(t *testing.T) {
	c := lifecycle.NewComposite("parent", true)
	c.AddChild("child-a", noopInit{})
	require.NoError(t, c.InitializeComposite(context.Background(), time.Second))

	require.NoError(t, c.Transition(lifecycle.Active))
	require.True(t, c.Healthy())
}

func TestNonCascadingTransitionLeavesChildrenUntouched(t *testing.T) {
	c := lifecycle.NewComposite("parent", false)
	c.AddChild("child-a", noopInit{})
	require.NoError(t, c.InitializeComposite(context.Background(), time.Second))

	require.NoError(t, c.Transition(lifecycle.Active))
	// Child stayed in Ready (healthy), since cascade is disabled and
	// Ready is itself a healthy state.
	require.True(t, c.Healthy())
}
