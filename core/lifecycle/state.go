// Package lifecycle implements the per-component state machine, composite
// and hierarchical lifecycle propagation, resource accounting, shutdown
// coordination, and health monitoring that sit above C1/C2 and under C3.
package lifecycle

import (
	"sync"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
)

// State is the closed set of per-component lifecycle states.
type State string

const (
	Initializing State = "Initializing"
	Ready        State = "Ready"
	Active       State = "Active"
	Paused       State = "Paused"
	ShuttingDown State = "ShuttingDown"
	Terminated   State = "Terminated"
)

// validEdges enumerates every accepted transition; anything absent is
// rejected with a typed coreerrors.KindTransition error.
var validEdges = map[State]map[State]bool{
	Initializing: {Ready: true},
	Ready:        {Active: true, ShuttingDown: true},
	Active:       {Paused: true, ShuttingDown: true},
	Paused:       {Active: true, ShuttingDown: true},
	ShuttingDown: {Terminated: true},
	Terminated:   {},
}

// Listener observes state machine activity. OnTransition fires after a
// successful transition; OnError fires when Error()/Recover() toggle the
// orthogonal error flag.
type Listener interface {
	OnTransition(component string, from, to State)
	OnError(component string, active bool, reason string)
}

// Machine is a per-component state machine with an orthogonal error flag.
// Entering error requires an explicit Error(reason) call, accepted in any
// state; exiting requires Recover(), which always lands on Ready.
type Machine struct {
	mu         sync.Mutex
	component  string
	state      State
	errored    bool
	errorMsg   string
	listeners  []Listener
}

// NewMachine constructs a Machine starting in Initializing.
func NewMachine(component string, listeners ...Listener) *Machine {
	return &Machine{component: component, state: Initializing, listeners: listeners}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Errored reports whether the orthogonal error flag is set, and its reason.
func (m *Machine) Errored() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errored, m.errorMsg
}

// Transition attempts to move from the current state to to. Returns a
// *coreerrors.Error with Kind KindTransition if the edge is not in
// validEdges.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	from := m.state
	allowed := validEdges[from][to]
	if allowed {
		m.state = to
	}
	m.mu.Unlock()

	if !allowed {
		return coreerrors.Transition(string(from), string(to))
	}
	for _, l := range m.listeners {
		l.OnTransition(m.component, from, to)
	}
	return nil
}

// Error sets the orthogonal error flag. It does not change State.
func (m *Machine) Error(reason string) {
	m.mu.Lock()
	m.errored = true
	m.errorMsg = reason
	m.mu.Unlock()
	for _, l := range m.listeners {
		l.OnError(m.component, true, reason)
	}
}

// Recover clears the error flag and forces State to Ready.
func (m *Machine) Recover() {
	m.mu.Lock()
	m.errored = false
	m.errorMsg = ""
	m.state = Ready
	m.mu.Unlock()
	for _, l := range m.listeners {
		l.OnError(m.component, false, "")
	}
}
