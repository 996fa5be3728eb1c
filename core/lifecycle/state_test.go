package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexlapax/rs-llmspell-sub006/core/coreerrors"
	"github.com/lexlapax/rs-llmspell-sub006/core/lifecycle"
)

func TestValidTransitionsSucceed(t *testing.T) {
	m := lifecycle.NewMachine("agent-1")
	require.NoError(t, m.Transition(lifecycle.Ready))
	require.NoError(t, m.Transition(lifecycle.Active))
	require.NoError(t, m.Transition(lifecycle.Paused))
	require.NoError(t, m.Transition(lifecycle.Active))
	require.NoError(t, m.Transition(lifecycle.ShuttingDown))
	require.NoError(t, m.Transition(lifecycle.Terminated))
}

func TestInvalidTransitionRejectedWithTypedError(t *testing.T) {
	m := lifecycle.NewMachine("agent-1")
	err := m.Transition(lifecycle.Terminated)
	require.Error(t, err)

	var coreErr *coreerrors.Error
	require.True(t, errors.As(err, &coreErr))
	require.Equal(t, coreerrors.KindTransition, coreErr.Kind)
	require.Equal(t, "Initializing", coreErr.FromState)
	require.Equal(t, "Terminated", coreErr.ToState)
	require.Equal(t, lifecycle.Initializing, m.State(), "rejected transition must not change state")
}

func TestErrorFlagIsOrthogonalToState(t *testing.T) {
	m := lifecycle.NewMachine("agent-1")
	require.NoError(t, m.Transition(lifecycle.Ready))
	require.NoError(t, m.Transition(lifecycle.Active))

	m.Error("tool panicked")
	errored, reason := m.Errored()
	require.True(t, errored)
	require.Equal(t, "tool panicked", reason)
	require.Equal(t, lifecycle.Active, m.State(), "error flag must not itself change state")

	m.Recover()
	errored, _ = m.Errored()
	require.False(t, errored)
	require.Equal(t, lifecycle.Ready, m.State())
}

type recordingListener struct {
	transitions []string
}

func (l *recordingListener) OnTransition(component string, from, to lifecycle.State) {
	l.transitions = append(l.transitions, string(from)+"->"+string(to))
}
func (l *recordingListener) OnError(component string, active bool, reason string) {}

func TestListenerObservesTransitions(t *testing.T) {
	listener := &recordingListener{}
	m := lifecycle.NewMachine("agent-1", listener)
	require.NoError(t, m.Transition(lifecycle.Ready))
	require.Equal(t, []string{"Initializing->Ready"}, listener.transitions)
}
