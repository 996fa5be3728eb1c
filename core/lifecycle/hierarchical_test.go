package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexlapax/rs-llmspell-sub006/core/lifecycle"
)

func setupHierarchy() *lifecycle.Hierarchy {
	h := lifecycle.NewHierarchy()
	root := lifecycle.NewMachine("root")
	mid := lifecycle.NewMachine("mid")
	leaf := lifecycle.NewMachine("leaf")
	h.Register("root", root, "")
	h.Register("mid", mid, "root")
	h.Register("leaf", leaf, "mid")
	return h
}

func TestCascadeDownReachesAllDescendants(t *testing.T) {
	h := setupHierarchy()
	errs := h.Cascade("root", lifecycle.Down, lifecycle.HierarchyEvent{Kind: lifecycle.HierarchyStateChange, To: lifecycle.Ready})
	require.Empty(t, errs)

	for _, name := range []string{"root", "mid", "leaf"} {
		m, ok := h.Machine(name)
		require.True(t, ok)
		require.Equal(t, lifecycle.Ready, m.State())
	}
}

func TestCascadeUpReachesAncestorsOnly(t *testing.T) {
	h := setupHierarchy()
	errs := h.Cascade("leaf", lifecycle.Up, lifecycle.HierarchyEvent{Kind: lifecycle.HierarchyStateChange, To: lifecycle.Ready})
	require.Empty(t, errs)

	for _, name := range []string{"leaf", "mid", "root"} {
		m, _ := h.Machine(name)
		require.Equal(t, lifecycle.Ready, m.State())
	}
}

func TestCascadeErrorSetsFlagAcrossHierarchy(t *testing.T) {
	h := setupHierarchy()
	errs := h.Cascade("root", lifecycle.Down, lifecycle.HierarchyEvent{Kind: lifecycle.HierarchyError, Reason: "disk full"})
	require.Empty(t, errs)

	leaf, _ := h.Machine("leaf")
	errored, reason := leaf.Errored()
	require.True(t, errored)
	require.Equal(t, "disk full", reason)
}
