package health

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"goa.design/pulse/pool"
	"goa.design/pulse/rmap"
)

var iterCounter atomic.Int64

func noopPing(ctx context.Context, component string) error { return nil }

// TestStaleComponentReportsUnhealthy mirrors the staleness-threshold property
// the teacher's toolset health tracker validates: a component whose last
// recorded pong exceeds (missedPingThreshold+1)*pingInterval is unhealthy,
// independent of real ping timing.
func TestStaleComponentReportsUnhealthy(t *testing.T) {
	rdb := getRedis(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("component is unhealthy once last pong exceeds staleness threshold", prop.ForAll(
		func(component string, missedPingThreshold int) bool {
			iter := iterCounter.Add(1)
			suffix := fmt.Sprintf("%s-%d", component, iter)

			healthMap, err := rmap.Join(ctx, "lifecycle-health-test-"+suffix, rdb)
			if err != nil {
				return false
			}
			defer healthMap.Close()

			registryMap, err := rmap.Join(ctx, "lifecycle-registry-test-"+suffix, rdb)
			if err != nil {
				return false
			}
			defer registryMap.Close()

			node, err := pool.AddNode(ctx, "lifecycle-health-pool-"+suffix, rdb, testNodeOpts()...)
			if err != nil {
				return false
			}
			defer func() { _ = node.Close(ctx) }()

			pingInterval := 100 * time.Millisecond
			tracker, err := NewTracker(noopPing, healthMap, registryMap, node,
				WithPingInterval(pingInterval),
				WithMissedPingThreshold(missedPingThreshold),
			)
			if err != nil {
				return false
			}
			defer func() { _ = tracker.Close() }()

			stalenessThreshold := time.Duration(missedPingThreshold+1) * pingInterval
			staleTime := time.Now().Add(-stalenessThreshold - time.Second)
			key := healthKeyPrefix + component
			if _, err := healthMap.Set(ctx, key, fmt.Sprintf("%d", staleTime.UnixNano())); err != nil {
				return false
			}

			return !tracker.IsHealthy(component)
		},
		genComponentName(),
		genMissedPingThreshold(),
	))

	properties.TestingRun(t)
}

// TestPongRestoresHealthyStatus verifies that RecordPong flips a stale
// component back to healthy once the new timestamp propagates.
func TestPongRestoresHealthyStatus(t *testing.T) {
	rdb := getRedis(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("pong response restores healthy status", prop.ForAll(
		func(component string) bool {
			iter := iterCounter.Add(1)
			suffix := fmt.Sprintf("%s-%d", component, iter)

			healthMap, err := rmap.Join(ctx, "lifecycle-health-pong-"+suffix, rdb)
			if err != nil {
				return false
			}
			defer healthMap.Close()

			registryMap, err := rmap.Join(ctx, "lifecycle-registry-pong-"+suffix, rdb)
			if err != nil {
				return false
			}
			defer registryMap.Close()

			node, err := pool.AddNode(ctx, "lifecycle-health-pong-pool-"+suffix, rdb, testNodeOpts()...)
			if err != nil {
				return false
			}
			defer func() { _ = node.Close(ctx) }()

			pingInterval := 100 * time.Millisecond
			tracker, err := NewTracker(noopPing, healthMap, registryMap, node,
				WithPingInterval(pingInterval),
				WithMissedPingThreshold(2),
			)
			if err != nil {
				return false
			}
			defer func() { _ = tracker.Close() }()

			healthEvents := healthMap.Subscribe()
			defer healthMap.Unsubscribe(healthEvents)

			staleTime := time.Now().Add(-500 * time.Millisecond)
			key := healthKeyPrefix + component
			if _, err := healthMap.Set(ctx, key, fmt.Sprintf("%d", staleTime.UnixNano())); err != nil {
				return false
			}

			select {
			case <-healthEvents:
			case <-time.After(5 * time.Second):
				return false
			}

			if tracker.IsHealthy(component) {
				return false
			}

			if err := tracker.RecordPong(ctx, component); err != nil {
				return false
			}

			select {
			case <-healthEvents:
			case <-time.After(5 * time.Second):
				return false
			}

			return tracker.IsHealthy(component)
		},
		genComponentName(),
	))

	properties.TestingRun(t)
}

// TestStartMonitoringDrivesPingsUntilStopped verifies the distributed ticker
// actually invokes PingFunc and records pongs once a component is registered,
// and stops once StopMonitoring is called.
func TestStartMonitoringDrivesPingsUntilStopped(t *testing.T) {
	rdb := getRedis(t)
	ctx := context.Background()

	var pings atomic.Int64
	ping := func(ctx context.Context, component string) error {
		pings.Add(1)
		return nil
	}

	healthMap, err := rmap.Join(ctx, "lifecycle-health-drive", rdb)
	if err != nil {
		t.Fatalf("join health map: %v", err)
	}
	defer healthMap.Close()

	registryMap, err := rmap.Join(ctx, "lifecycle-registry-drive", rdb)
	if err != nil {
		t.Fatalf("join registry map: %v", err)
	}
	defer registryMap.Close()

	node, err := pool.AddNode(ctx, "lifecycle-health-drive-pool", rdb, testNodeOpts()...)
	if err != nil {
		t.Fatalf("add node: %v", err)
	}
	defer func() { _ = node.Close(ctx) }()

	tracker, err := NewTracker(ping, healthMap, registryMap, node, WithPingInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	defer func() { _ = tracker.Close() }()

	if err := tracker.StartMonitoring(ctx, "worker-1"); err != nil {
		t.Fatalf("start monitoring: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for pings.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if pings.Load() == 0 {
		t.Fatal("expected at least one ping to have been driven by the distributed ticker")
	}

	tracker.StopMonitoring(ctx, "worker-1")
	observed := pings.Load()
	time.Sleep(200 * time.Millisecond)
	if pings.Load() > observed+2 {
		t.Fatal("expected ping loop to stop shortly after StopMonitoring")
	}
}

func genComponentName() gopter.Gen {
	return gen.OneConstOf(
		"supervisor",
		"scheduler-node",
		"tool-gateway",
		"memory-backend",
		"replay-engine",
	)
}

func genMissedPingThreshold() gopter.Gen {
	return gen.IntRange(1, 5)
}
