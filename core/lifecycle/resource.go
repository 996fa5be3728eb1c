package lifecycle

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
)

// ResourceType is the closed enumeration of accountable resource kinds.
type ResourceType string

const (
	ResourceMemory     ResourceType = "Memory"
	ResourceCPU        ResourceType = "Cpu"
	ResourceFileHandles ResourceType = "FileHandles"
	ResourceToolAccess  ResourceType = "ToolAccess"
	ResourceNetwork     ResourceType = "Network"
)

// AllocationRequest describes a caller's ask for a resource grant.
type AllocationRequest struct {
	AgentID      string
	ResourceType ResourceType
	Amount       int64
}

// Allocation is a granted resource reservation.
type Allocation struct {
	ID           string
	AgentID      string
	ResourceType ResourceType
	Amount       int64
	AcquiredAt   time.Time
}

// ResourceHook observes allocate/deallocate events on a ResourceManager.
type ResourceHook interface {
	OnAllocated(a Allocation)
	OnDeallocated(a Allocation)
}

// ResourceManager enforces pre-declared per-resource-type caps and tracks
// per-agent allocation sums so they never exceed the configured cap. A
// per-resource-type rate.Limiter additionally gates admission: the cap
// bounds how much an agent can hold at once, the limiter bounds how fast
// new allocations of that type are granted across all agents, matching the
// "bounded semaphore per resource type for admission" concurrency policy.
type ResourceManager struct {
	mu          sync.Mutex
	caps        map[ResourceType]int64
	limiters    map[ResourceType]*rate.Limiter
	allocations map[string]Allocation   // allocation id -> Allocation
	byAgent     map[string]map[ResourceType]int64
	hooks       []ResourceHook
	nextID      uint64
}

// NewResourceManager constructs a manager with the given per-resource-type
// caps. A resource type absent from caps has no limit enforced.
func NewResourceManager(caps map[ResourceType]int64, hooks ...ResourceHook) *ResourceManager {
	c := make(map[ResourceType]int64, len(caps))
	for k, v := range caps {
		c[k] = v
	}
	return &ResourceManager{
		caps:        c,
		limiters:    make(map[ResourceType]*rate.Limiter),
		allocations: make(map[string]Allocation),
		byAgent:     make(map[string]map[ResourceType]int64),
		hooks:       hooks,
	}
}

// WithAdmissionLimit installs a token-bucket admission gate for rt, where
// each allocation consumes tokens equal to its Amount: at most burst units
// may be granted immediately, refilling at limitPerSecond units per second
// thereafter. Allocate rejects with ResourceExhausted once the bucket is
// empty rather than blocking, since allocation is expected to stay well
// under the 50ms performance floor. Returns r for chaining at construction
// time, the way callers already chain NewResourceManager's variadic hooks.
func (r *ResourceManager) WithAdmissionLimit(rt ResourceType, limitPerSecond float64, burst int) *ResourceManager {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[rt] = rate.NewLimiter(rate.Limit(limitPerSecond), burst)
	return r
}

// Allocate grants a request or fails with a coreerrors.KindResourceExhausted
// error if the agent's running total for that resource type would exceed
// the configured cap.
func (r *ResourceManager) Allocate(req AllocationRequest) (Allocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, limited := r.limiters[req.ResourceType]; limited && !limiter.AllowN(time.Now(), int(req.Amount)) {
		return Allocation{}, coreerrors.ResourceExhausted(
			string(req.ResourceType),
			fmt.Sprintf("agent %q exceeded the admission rate for %s (requested %d)",
				req.AgentID, req.ResourceType, req.Amount),
		)
	}

	cap, capped := r.caps[req.ResourceType]
	current := r.byAgent[req.AgentID][req.ResourceType]
	if capped && current+req.Amount > cap {
		return Allocation{}, coreerrors.ResourceExhausted(
			string(req.ResourceType),
			fmt.Sprintf("agent %q would exceed cap %d for %s (current %d, requested %d)",
				req.AgentID, cap, req.ResourceType, current, req.Amount),
		)
	}

	r.nextID++
	alloc := Allocation{
		ID:           fmt.Sprintf("alloc-%d", r.nextID),
		AgentID:      req.AgentID,
		ResourceType: req.ResourceType,
		Amount:       req.Amount,
		AcquiredAt:   time.Now(),
	}
	r.allocations[alloc.ID] = alloc
	if r.byAgent[req.AgentID] == nil {
		r.byAgent[req.AgentID] = make(map[ResourceType]int64)
	}
	r.byAgent[req.AgentID][req.ResourceType] += req.Amount

	for _, h := range r.hooks {
		h.OnAllocated(alloc)
	}
	return alloc, nil
}

// Deallocate releases a single allocation. Idempotent: deallocating an
// unknown or already-released id is a no-op.
func (r *ResourceManager) Deallocate(id string) {
	r.mu.Lock()
	alloc, ok := r.allocations[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.allocations, id)
	if agent, ok := r.byAgent[alloc.AgentID]; ok {
		agent[alloc.ResourceType] -= alloc.Amount
		if agent[alloc.ResourceType] <= 0 {
			delete(agent, alloc.ResourceType)
		}
		if len(agent) == 0 {
			delete(r.byAgent, alloc.AgentID)
		}
	}
	r.mu.Unlock()

	for _, h := range r.hooks {
		h.OnDeallocated(alloc)
	}
}

// DeallocateAll releases every allocation owned by agentID. Total: agents
// with no allocations are a no-op.
func (r *ResourceManager) DeallocateAll(agentID string) {
	r.mu.Lock()
	var ids []string
	for id, alloc := range r.allocations {
		if alloc.AgentID == agentID {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Deallocate(id)
	}
}

// Usage returns the agent's current allocation sum for a resource type.
func (r *ResourceManager) Usage(agentID string, rt ResourceType) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byAgent[agentID][rt]
}
