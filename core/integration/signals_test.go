package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// memChannel is a minimal in-memory SignalChannel for exercising
// SignalController without depending on a real engine.
type memChannel struct {
	mu  sync.Mutex
	buf []any
	ch  chan struct{}
}

func newMemChannel() *memChannel {
	return &memChannel{ch: make(chan struct{}, 16)}
}

func (m *memChannel) Send(ctx context.Context, value any) error {
	m.mu.Lock()
	m.buf = append(m.buf, value)
	m.mu.Unlock()
	select {
	case m.ch <- struct{}{}:
	default:
	}
	return nil
}

func (m *memChannel) Receive(ctx context.Context, dst any) error {
	for {
		if m.ReceiveAsync(dst) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.ch:
		}
	}
}

func (m *memChannel) ReceiveAsync(dst any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.buf) == 0 {
		return false
	}
	v := m.buf[0]
	m.buf = m.buf[1:]
	switch d := dst.(type) {
	case *PauseRequest:
		*d = v.(PauseRequest)
	case *ResumeRequest:
		*d = v.(ResumeRequest)
	case *ClarificationAnswer:
		*d = v.(ClarificationAnswer)
	case *ToolResultsSet:
		*d = v.(ToolResultsSet)
	default:
		return false
	}
	return true
}

func newTestController() (*SignalController, map[string]*memChannel) {
	channels := map[string]*memChannel{}
	factory := func(name string) SignalChannel {
		c := newMemChannel()
		channels[name] = c
		return c
	}
	return NewSignalController(factory), channels
}

func TestSignalControllerPollPauseReturnsFalseWhenEmpty(t *testing.T) {
	ctrl, _ := newTestController()
	if _, ok := ctrl.PollPause(); ok {
		t.Fatalf("expected no pause request to be pending")
	}
}

func TestSignalControllerPollPauseReturnsDeliveredRequest(t *testing.T) {
	ctrl, channels := newTestController()
	want := PauseRequest{ComponentID: "agent-1", Reason: "manual"}
	if err := channels[SignalPause].Send(context.Background(), want); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, ok := ctrl.PollPause()
	if !ok {
		t.Fatalf("expected a pending pause request")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSignalControllerWaitResumeBlocksUntilDelivered(t *testing.T) {
	ctrl, channels := newTestController()
	want := ResumeRequest{ComponentID: "agent-1", Notes: "continue"}

	errCh := make(chan error, 1)
	resultCh := make(chan ResumeRequest, 1)
	go func() {
		got, err := ctrl.WaitResume(context.Background())
		errCh <- err
		resultCh <- got
	}()

	time.Sleep(10 * time.Millisecond)
	if err := channels[SignalResume].Send(context.Background(), want); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("WaitResume: %v", err)
	}
	if got := <-resultCh; got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSignalControllerWaitResumeRespectsContextCancellation(t *testing.T) {
	ctrl, _ := newTestController()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := ctrl.WaitResume(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSignalControllerNilControllerReturnsError(t *testing.T) {
	var ctrl *SignalController
	if _, ok := ctrl.PollPause(); ok {
		t.Fatalf("expected nil controller to report no pending pause")
	}
	if _, err := ctrl.WaitResume(context.Background()); err == nil {
		t.Fatalf("expected nil controller to error on WaitResume")
	}
}
