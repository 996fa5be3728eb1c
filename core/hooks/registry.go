package hooks

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// entry is a registered hook slot: a factory plus the gating and LRU
// bookkeeping the registry needs to decide whether and when to materialize
// it.
type entry struct {
	point            Point
	name             string
	priority         Priority
	factory          Factory
	requiredFeatures []string
	enabled          bool

	mu          sync.Mutex
	instance    Hook
	accessCount uint64
	lastAccess  time.Time
}

// Registry is the selective, lazy, bounded hook registry for one process.
// Hooks are organized per Point; a global Features set plus per-feature
// dependency edges gate whether a registered hook is materialized.
type Registry struct {
	mu       sync.Mutex
	features *Features
	points   map[Point][]*entry
	maxLive  int // 0 means unbounded
}

// NewRegistry constructs a Registry gated by features, with maxLiveInstances
// bounding the number of simultaneously materialized hook instances across
// all points (0 disables the cap).
func NewRegistry(features *Features, maxLiveInstances int) *Registry {
	if features == nil {
		features = NewFeatures()
	}
	return &Registry{
		features: features,
		points:   make(map[Point][]*entry),
		maxLive:  maxLiveInstances,
	}
}

// Register adds a hook factory at a point. Returns an error if a hook with
// the same name is already registered at that point.
func (r *Registry) Register(point Point, meta Metadata, factory Factory, requiredFeatures []string) error {
	if meta.Name == "" {
		return fmt.Errorf("hooks: metadata.Name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.points[point] {
		if e.name == meta.Name {
			return fmt.Errorf("hooks: hook %q already registered at point %q", meta.Name, point)
		}
	}
	r.points[point] = append(r.points[point], &entry{
		point:            point,
		name:             meta.Name,
		priority:         meta.Priority,
		factory:          factory,
		requiredFeatures: requiredFeatures,
		enabled:          true,
	})
	return nil
}

// SetEnabled toggles a registered hook's enabled flag without removing it.
func (r *Registry) SetEnabled(point Point, name string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.points[point] {
		if e.name == name {
			e.enabled = enabled
			return true
		}
	}
	return false
}

// GetHooks returns the materialized hooks registered at point, in
// descending priority order, filtered by enabled flag and required-feature
// satisfaction. Materialization happens lazily on first access here.
func (r *Registry) GetHooks(point Point) ([]Hook, error) {
	r.mu.Lock()
	candidates := make([]*entry, 0, len(r.points[point]))
	for _, e := range r.points[point] {
		if !e.enabled {
			continue
		}
		if !r.features.Satisfied(e.requiredFeatures) {
			continue
		}
		candidates = append(candidates, e)
	}
	r.mu.Unlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority > candidates[j].priority
	})

	now := time.Now()
	protected := make(map[*entry]bool, len(candidates))
	hooks := make([]Hook, 0, len(candidates))
	for _, e := range candidates {
		h, err := r.materialize(e, now)
		if err != nil {
			return nil, fmt.Errorf("hooks: materializing %q at %q: %w", e.name, point, err)
		}
		protected[e] = true
		hooks = append(hooks, h)
	}
	r.evictIfNeeded(protected)
	return hooks, nil
}

func (r *Registry) materialize(e *entry, now time.Time) (Hook, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.instance == nil {
		h, err := e.factory()
		if err != nil {
			return nil, err
		}
		e.instance = h
	}
	e.accessCount++
	e.lastAccess = now
	return e.instance, nil
}

// evictIfNeeded enforces the live-instance cap, evicting instantiated
// entries not in protected (the current dispatch's hooks), ordered by
// last-access then access count (oldest/least-used first).
func (r *Registry) evictIfNeeded(protected map[*entry]bool) {
	if r.maxLive <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var live []*entry
	for _, entries := range r.points {
		for _, e := range entries {
			e.mu.Lock()
			if e.instance != nil {
				live = append(live, e)
			}
			e.mu.Unlock()
		}
	}
	if len(live) <= r.maxLive {
		return
	}

	evictable := make([]*entry, 0, len(live))
	for _, e := range live {
		if !protected[e] {
			evictable = append(evictable, e)
		}
	}
	sort.Slice(evictable, func(i, j int) bool {
		ei, ej := evictable[i], evictable[j]
		if !ei.lastAccess.Equal(ej.lastAccess) {
			return ei.lastAccess.Before(ej.lastAccess)
		}
		return ei.accessCount < ej.accessCount
	})

	toEvict := len(live) - r.maxLive
	for i := 0; i < toEvict && i < len(evictable); i++ {
		evictable[i].mu.Lock()
		evictable[i].instance = nil
		evictable[i].mu.Unlock()
	}
}

// LiveInstanceCount reports how many hook instances are currently
// materialized, for diagnostics and tests.
func (r *Registry) LiveInstanceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, entries := range r.points {
		for _, e := range entries {
			e.mu.Lock()
			if e.instance != nil {
				count++
			}
			e.mu.Unlock()
		}
	}
	return count
}
