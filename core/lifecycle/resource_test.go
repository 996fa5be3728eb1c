package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
	"github.com/lexlapax/rs-llmspell-sub006/core/lifecycle"
)

type recordingResourceHook struct {
	allocated, deallocated []lifecycle.Allocation
}

func (h *recordingResourceHook) OnAllocated(a lifecycle.Allocation)   { h.allocated = append(h.allocated, a) }
func (h *recordingResourceHook) OnDeallocated(a lifecycle.Allocation) { h.deallocated = append(h.deallocated, a) }

func TestAllocateWithinCapSucceeds(t *testing.T) {
	hook := &recordingResourceHook{}
	rm := lifecycle.NewResourceManager(map[lifecycle.ResourceType]int64{lifecycle.ResourceMemory: 100}, hook)
	alloc, err := rm.Allocate(lifecycle.AllocationRequest{AgentID: "a1", ResourceType: lifecycle.ResourceMemory, Amount: 50})
	require.NoError(t, err)
	require.NotEmpty(t, alloc.ID)
	require.Len(t, hook.allocated, 1)
	require.Equal(t, int64(50), rm.Usage("a1", lifecycle.ResourceMemory))
}

func TestAllocateOverCapFailsWithResourceExhausted(t *testing.T) {
	rm := lifecycle.NewResourceManager(map[lifecycle.ResourceType]int64{lifecycle.ResourceMemory: 100})
	_, err := rm.Allocate(lifecycle.AllocationRequest{AgentID: "a1", ResourceType: lifecycle.ResourceMemory, Amount: 60})
	require.NoError(t, err)
	_, err = rm.Allocate(lifecycle.AllocationRequest{AgentID: "a1", ResourceType: lifecycle.ResourceMemory, Amount: 60})
	require.Error(t, err)

	var coreErr *coreerrors.Error
	require.True(t, errors.As(err, &coreErr))
	require.Equal(t, coreerrors.KindResourceExhausted, coreErr.Kind)
}

func TestDeallocateIsIdempotent(t *testing.T) {
	hook := &recordingResourceHook{}
	rm := lifecycle.NewResourceManager(nil, hook)
	alloc, err := rm.Allocate(lifecycle.AllocationRequest{AgentID: "a1", ResourceType: lifecycle.ResourceCPU, Amount: 1})
	require.NoError(t, err)

	rm.Deallocate(alloc.ID)
	rm.Deallocate(alloc.ID)
	require.Len(t, hook.deallocated, 1, "second deallocate of the same id must be a no-op")
	require.Equal(t, int64(0), rm.Usage("a1", lifecycle.ResourceCPU))
}

func TestAllocateRespectsAdmissionLimitOnceBurstIsExhausted(t *testing.T) {
	rm := lifecycle.NewResourceManager(nil).WithAdmissionLimit(lifecycle.ResourceNetwork, 1, 2)

	_, err := rm.Allocate(lifecycle.AllocationRequest{AgentID: "a1", ResourceType: lifecycle.ResourceNetwork, Amount: 1})
	require.NoError(t, err)
	_, err = rm.Allocate(lifecycle.AllocationRequest{AgentID: "a2", ResourceType: lifecycle.ResourceNetwork, Amount: 1})
	require.NoError(t, err)

	_, err = rm.Allocate(lifecycle.AllocationRequest{AgentID: "a3", ResourceType: lifecycle.ResourceNetwork, Amount: 1})
	require.Error(t, err, "the burst of 2 should be exhausted by the first two allocations")

	var coreErr *coreerrors.Error
	require.True(t, errors.As(err, &coreErr))
	require.Equal(t, coreerrors.KindResourceExhausted, coreErr.Kind)
}

func TestAllocateWithoutAdmissionLimitIsUnaffected(t *testing.T) {
	rm := lifecycle.NewResourceManager(nil)
	for i := 0; i < 5; i++ {
		_, err := rm.Allocate(lifecycle.AllocationRequest{AgentID: "a1", ResourceType: lifecycle.ResourceToolAccess, Amount: 1})
		require.NoError(t, err)
	}
}

func TestDeallocateAllReleasesEveryAllocationForAgent(t *testing.T) {
	rm := lifecycle.NewResourceManager(nil)
	_, err := rm.Allocate(lifecycle.AllocationRequest{AgentID: "a1", ResourceType: lifecycle.ResourceMemory, Amount: 10})
	require.NoError(t, err)
	_, err = rm.Allocate(lifecycle.AllocationRequest{AgentID: "a1", ResourceType: lifecycle.ResourceNetwork, Amount: 5})
	require.NoError(t, err)

	rm.DeallocateAll("a1")
	require.Equal(t, int64(0), rm.Usage("a1", lifecycle.ResourceMemory))
	require.Equal(t, int64(0), rm.Usage("a1", lifecycle.ResourceNetwork))
}
