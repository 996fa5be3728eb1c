// Package health implements a distributed component-health tracker: a
// ping/pong mechanism backed by goa.design/pulse replicated maps and a
// distributed ticker, so only one node in a cluster drives the probe for a
// given component while every node observes the same health state.
package health

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"goa.design/pulse/pool"
	"goa.design/pulse/rmap"

	"github.com/lexlapax/rs-llmspell-sub006/core/telemetry"
)

// PingFunc probes a component's responsiveness. The ping loop calls
// Tracker.RecordPong itself when PingFunc returns nil; a failing or slow PingFunc simply
// lets the staleness threshold lapse, which Health already accounts for.
type PingFunc func(ctx context.Context, component string) error

type (
	// Tracker tracks distributed health status for components registered
	// via StartMonitoring. It mirrors the lifecycle Monitor's
	// ResponsivenessCheck but for cross-node components where only one
	// node should actually issue the ping at a time.
	Tracker interface {
		// Health returns the current health state for a component.
		Health(component string) (Status, error)
		// RecordPong records a pong response for a component.
		RecordPong(ctx context.Context, component string) error
		// IsHealthy reports whether a component has ponged within the
		// staleness threshold.
		IsHealthy(component string) bool
		// StartMonitoring registers a component for distributed ping/pong
		// tracking across every node sharing the underlying maps.
		StartMonitoring(ctx context.Context, component string) error
		// StopMonitoring unregisters a component from tracking.
		StopMonitoring(ctx context.Context, component string)
		// Close stops all ping loops and releases resources.
		Close() error
	}

	// Status reports derived health for a component.
	Status struct {
		Healthy            bool
		LastPong           time.Time
		Age                time.Duration
		StalenessThreshold time.Duration
	}

	// Option configures optional Tracker settings.
	Option func(*options)

	options struct {
		pingInterval        time.Duration
		missedPingThreshold int
		logger              telemetry.Logger
	}

	tracker struct {
		ping                PingFunc
		healthMap           *rmap.Map
		registryMap         *rmap.Map
		poolNode            *pool.Node
		pingInterval        time.Duration
		missedPingThreshold int
		stalenessThreshold  time.Duration
		logger              telemetry.Logger

		mu      sync.RWMutex
		tickers map[string]*pool.Ticker
		cancels map[string]context.CancelFunc

		closeOnce sync.Once
		closeCh   chan struct{}
	}
)

const (
	// DefaultPingInterval is the default interval between health check pings.
	DefaultPingInterval = 10 * time.Second
	// DefaultMissedPingThreshold is the default number of consecutive
	// missed pings before marking a component as unhealthy.
	DefaultMissedPingThreshold = 3

	healthKeyPrefix   = "lifecycle:health:"
	registryKeyPrefix = "lifecycle:monitored:"
)

// WithPingInterval sets the interval between health check pings.
func WithPingInterval(d time.Duration) Option {
	return func(o *options) { o.pingInterval = d }
}

// WithMissedPingThreshold sets how many consecutive missed pings mark a
// component unhealthy.
func WithMissedPingThreshold(n int) Option {
	return func(o *options) { o.missedPingThreshold = n }
}

// WithLogger overrides the tracker's logger (default: noop).
func WithLogger(l telemetry.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewTracker constructs a distributed Tracker. ping is invoked once per
// monitored component per tick by whichever node currently owns that
// component's distributed ticker; healthMap/registryMap are two pulse
// replicated maps (last-pong timestamps and cross-node monitoring
// registration respectively); node creates the distributed tickers.
func NewTracker(ping PingFunc, healthMap, registryMap *rmap.Map, node *pool.Node, opts ...Option) (Tracker, error) {
	if ping == nil {
		return nil, fmt.Errorf("health: ping function is required")
	}
	if healthMap == nil {
		return nil, fmt.Errorf("health: health map is required for distributed tracking")
	}
	if registryMap == nil {
		return nil, fmt.Errorf("health: registry map is required for cross-node coordination")
	}
	if node == nil {
		return nil, fmt.Errorf("health: pool node is required for distributed tickers")
	}

	o := &options{
		pingInterval:        DefaultPingInterval,
		missedPingThreshold: DefaultMissedPingThreshold,
		logger:              telemetry.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = telemetry.NewNoopLogger()
	}

	stalenessThreshold := time.Duration(o.missedPingThreshold+1) * o.pingInterval

	registryEvents := registryMap.Subscribe()

	t := &tracker{
		ping:                ping,
		healthMap:           healthMap,
		registryMap:         registryMap,
		poolNode:            node,
		pingInterval:        o.pingInterval,
		missedPingThreshold: o.missedPingThreshold,
		stalenessThreshold:  stalenessThreshold,
		logger:              o.logger,
		tickers:             make(map[string]*pool.Ticker),
		cancels:             make(map[string]context.CancelFunc),
		closeCh:             make(chan struct{}),
	}

	go t.watchRegistryChanges(registryEvents)
	t.syncWithRegistry()

	return t, nil
}

func (t *tracker) RecordPong(ctx context.Context, component string) error {
	ts := time.Now().UnixNano()
	if _, err := t.healthMap.Set(ctx, healthKey(component), strconv.FormatInt(ts, 10)); err != nil {
		return fmt.Errorf("health: record pong: %w", err)
	}
	return nil
}

func (t *tracker) Health(component string) (Status, error) {
	val, ok := t.healthMap.Get(healthKey(component))
	if !ok {
		return Status{StalenessThreshold: t.stalenessThreshold}, nil
	}
	ts, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return Status{}, fmt.Errorf("health: parse last pong timestamp for %q: %w", component, err)
	}
	lastPong := time.Unix(0, ts)
	age := time.Since(lastPong)
	return Status{
		Healthy:            age <= t.stalenessThreshold,
		LastPong:           lastPong,
		Age:                age,
		StalenessThreshold: t.stalenessThreshold,
	}, nil
}

func (t *tracker) IsHealthy(component string) bool {
	s, err := t.Health(component)
	return err == nil && s.Healthy
}

func (t *tracker) StartMonitoring(ctx context.Context, component string) error {
	ts := time.Now().UnixNano()
	if _, err := t.registryMap.Set(ctx, registryKey(component), strconv.FormatInt(ts, 10)); err != nil {
		return fmt.Errorf("health: register component: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if cancel, ok := t.cancels[component]; ok {
		cancel()
		delete(t.cancels, component)
	}
	if ticker, ok := t.tickers[component]; ok {
		ticker.Close()
		delete(t.tickers, component)
	}
	return t.startTickerLocked(component)
}

func (t *tracker) StopMonitoring(ctx context.Context, component string) {
	if _, err := t.registryMap.Delete(ctx, registryKey(component)); err != nil {
		t.logger.Error(ctx, "unregister component failed", "component", component, "err", err)
	}
	if _, err := t.healthMap.Delete(ctx, healthKey(component)); err != nil {
		t.logger.Error(ctx, "delete component health failed", "component", component, "err", err)
	}
	t.stopTicker(component)
}

func (t *tracker) Close() error {
	t.closeOnce.Do(func() {
		close(t.closeCh)
		t.mu.Lock()
		defer t.mu.Unlock()
		for _, cancel := range t.cancels {
			cancel()
		}
		for _, ticker := range t.tickers {
			ticker.Close()
		}
		t.tickers = make(map[string]*pool.Ticker)
		t.cancels = make(map[string]context.CancelFunc)
	})
	return nil
}

func (t *tracker) watchRegistryChanges(events <-chan rmap.EventKind) {
	defer t.registryMap.Unsubscribe(events)
	for {
		select {
		case <-t.closeCh:
			return
		case <-events:
			t.syncWithRegistry()
		}
	}
}

func (t *tracker) syncWithRegistry() {
	registered := make(map[string]bool)
	for _, key := range t.registryMap.Keys() {
		if name := componentFromRegistryKey(key); name != "" {
			registered[name] = true
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for name := range registered {
		if _, ok := t.tickers[name]; !ok {
			if err := t.startTickerLocked(name); err != nil {
				t.logger.Error(context.Background(), "start ticker failed", "component", name, "err", err)
			}
		}
	}
	for name := range t.tickers {
		if !registered[name] {
			t.stopTickerLocked(name)
		}
	}
}

func (t *tracker) startTickerLocked(component string) error {
	if _, ok := t.tickers[component]; ok {
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	tickerName := fmt.Sprintf("lifecycle:ping:%s", component)
	ticker, err := t.poolNode.NewTicker(loopCtx, tickerName, t.pingInterval)
	if err != nil {
		cancel()
		return fmt.Errorf("health: create distributed ticker: %w", err)
	}
	t.tickers[component] = ticker
	t.cancels[component] = cancel
	go t.runPingLoop(loopCtx, component, ticker)
	return nil
}

func (t *tracker) stopTicker(component string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTickerLocked(component)
}

func (t *tracker) stopTickerLocked(component string) {
	if cancel, ok := t.cancels[component]; ok {
		cancel()
		delete(t.cancels, component)
	}
	if ticker, ok := t.tickers[component]; ok {
		ticker.Stop()
		delete(t.tickers, component)
	}
}

func (t *tracker) runPingLoop(ctx context.Context, component string, ticker *pool.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.ping(ctx, component); err != nil {
				t.logger.Warn(ctx, "ping failed", "component", component, "err", err)
				continue
			}
			if err := t.RecordPong(ctx, component); err != nil {
				t.logger.Error(ctx, "record pong failed", "component", component, "err", err)
			}
		}
	}
}

func healthKey(component string) string   { return healthKeyPrefix + component }
func registryKey(component string) string { return registryKeyPrefix + component }

func componentFromRegistryKey(key string) string {
	if !strings.HasPrefix(key, registryKeyPrefix) {
		return ""
	}
	return strings.TrimPrefix(key, registryKeyPrefix)
}
