package replay

import "testing"

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		{Scheduled, Running, true},
		{Scheduled, Paused, false},
		{Running, Paused, true},
		{Running, Completed, true},
		{Running, Failed, true},
		{Running, Stopped, true},
		{Paused, Running, true},
		{Paused, Stopped, true},
		{Paused, Completed, false},
		{Completed, Running, false},
		{Failed, Running, false},
		{Stopped, Running, false},
	}
	for _, c := range cases {
		if got := transitionAllowed(c.from, c.to); got != c.want {
			t.Errorf("transitionAllowed(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestStateString(t *testing.T) {
	if Running.String() != "running" {
		t.Errorf("String() = %q, want %q", Running.String(), "running")
	}
}
