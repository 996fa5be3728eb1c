package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ComponentAddedEvent fires when a child is registered with a Composite.
type ComponentAddedEvent struct {
	Parent string
	Child  string
}

// CompositeEventSink receives ComponentAdded notifications from a Composite.
type CompositeEventSink interface {
	OnComponentAdded(event ComponentAddedEvent)
}

// ChildInitializer is the minimal contract a child component exposes to a
// Composite: an initialize step the composite runs under a shared timeout.
type ChildInitializer interface {
	Initialize(ctx context.Context) error
}

// Composite owns a set of child lifecycle machines and optionally cascades
// parent transitions to them.
type Composite struct {
	mu        sync.Mutex
	name      string
	machine   *Machine
	children  map[string]*Machine
	childInit map[string]ChildInitializer
	cascade   bool
	sinks     []CompositeEventSink
}

// NewComposite constructs a Composite. cascade controls whether parent
// transitions (via Transition) propagate to every child.
func NewComposite(name string, cascade bool, sinks ...CompositeEventSink) *Composite {
	return &Composite{
		name:      name,
		machine:   NewMachine(name),
		children:  make(map[string]*Machine),
		childInit: make(map[string]ChildInitializer),
		cascade:   cascade,
		sinks:     sinks,
	}
}

// Machine returns the composite's own lifecycle machine.
func (c *Composite) Machine() *Machine { return c.machine }

// AddChild registers a child component, creating its lifecycle record and
// firing ComponentAdded to every sink.
func (c *Composite) AddChild(name string, init ChildInitializer) {
	c.mu.Lock()
	c.children[name] = NewMachine(name)
	c.childInit[name] = init
	c.mu.Unlock()
	for _, s := range c.sinks {
		s.OnComponentAdded(ComponentAddedEvent{Parent: c.name, Child: name})
	}
}

// InitializeComposite initializes every child under initTimeout, then
// transitions the composite itself to Ready. A child initialization error
// aborts the remaining children and returns the error; the composite stays
// in Initializing.
func (c *Composite) InitializeComposite(ctx context.Context, initTimeout time.Duration) error {
	c.mu.Lock()
	names := make([]string, 0, len(c.children))
	for name := range c.children {
		names = append(names, name)
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	for _, name := range names {
		c.mu.Lock()
		child := c.children[name]
		init := c.childInit[name]
		c.mu.Unlock()

		if init != nil {
			if err := init.Initialize(ctx); err != nil {
				return fmt.Errorf("lifecycle: initializing child %q: %w", name, err)
			}
		}
		if err := child.Transition(Ready); err != nil {
			return err
		}
	}
	return c.machine.Transition(Ready)
}

// Transition moves the composite to state to, cascading the same
// transition to every child when cascade is enabled. Cascade failures on
// individual children are collected but do not stop the others.
func (c *Composite) Transition(to State) error {
	if err := c.machine.Transition(to); err != nil {
		return err
	}
	if !c.cascade {
		return nil
	}
	c.mu.Lock()
	children := make([]*Machine, 0, len(c.children))
	for _, m := range c.children {
		children = append(children, m)
	}
	c.mu.Unlock()

	var firstErr error
	for _, m := range children {
		if err := m.Transition(to); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Healthy aggregates child health: healthy when every child is in Ready,
// Active, or Paused (i.e. not still Initializing, ShuttingDown, Terminated,
// or in an error state).
func (c *Composite) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.children {
		if errored, _ := m.Errored(); errored {
			return false
		}
		switch m.State() {
		case Ready, Active, Paused:
		default:
			return false
		}
	}
	return true
}
