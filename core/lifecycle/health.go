package lifecycle

import (
	"context"
	"sync"
	"time"
)

// HealthStatus is the closed aggregate outcome of a health evaluation.
type HealthStatus int

const (
	Healthy HealthStatus = iota
	Degraded
	Critical
	Unhealthy
)

func (s HealthStatus) String() string {
	switch s {
	case Healthy:
		return "Healthy"
	case Degraded:
		return "Degraded"
	case Critical:
		return "Critical"
	case Unhealthy:
		return "Unhealthy"
	default:
		return "Unknown"
	}
}

// CheckResult is the outcome of evaluating a single Check.
type CheckResult struct {
	Name     string
	Critical bool
	Status   HealthStatus
	Metrics  map[string]float64
	Message  string
}

// Check is a named, independently evaluable health probe. Critical checks
// gate the overall-healthy predicate; non-critical checks only affect the
// reported aggregate status.
type Check struct {
	Name     string
	Critical bool
	Run      func(ctx context.Context) CheckResult
}

// Report is the result of one check_health() evaluation.
type Report struct {
	Overall   HealthStatus
	Checks    []CheckResult
	EvaluatedAt time.Time
}

// Monitor runs a registry of Checks and retains a bounded history of past
// reports.
type Monitor struct {
	mu         sync.Mutex
	checks     []Check
	history    []Report
	maxHistory int
}

// NewMonitor constructs a Monitor retaining up to maxHistory past reports
// (0 disables retention).
func NewMonitor(maxHistory int) *Monitor {
	return &Monitor{maxHistory: maxHistory}
}

// Register adds a check to the registry.
func (m *Monitor) Register(c Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, c)
}

// CheckHealth evaluates every registered check and aggregates the worst
// status observed. A critical check that is not Healthy makes the overall
// status at least that check's status; the OverallHealthy predicate
// additionally requires every critical check to report Healthy.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	checks := append([]Check(nil), m.checks...)
	m.mu.Unlock()

	results := make([]CheckResult, 0, len(checks))
	overall := Healthy
	for _, c := range checks {
		r := c.Run(ctx)
		r.Name = c.Name
		r.Critical = c.Critical
		results = append(results, r)
		if r.Status > overall {
			overall = r.Status
		}
	}

	report := Report{Overall: overall, Checks: results, EvaluatedAt: time.Now()}
	m.mu.Lock()
	if m.maxHistory > 0 {
		m.history = append(m.history, report)
		if len(m.history) > m.maxHistory {
			m.history = m.history[len(m.history)-m.maxHistory:]
		}
	}
	m.mu.Unlock()
	return report
}

// History returns the retained past reports, oldest first.
func (m *Monitor) History() []Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Report(nil), m.history...)
}

// StateMachineCheck builds a Check that is Healthy unless machine's
// orthogonal error flag is set, in which case it is Critical.
func StateMachineCheck(name string, machine *Machine) Check {
	return Check{
		Name:     name,
		Critical: true,
		Run: func(ctx context.Context) CheckResult {
			if errored, reason := machine.Errored(); errored {
				return CheckResult{Status: Critical, Message: reason}
			}
			return CheckResult{Status: Healthy}
		},
	}
}

// ResourceCheck builds a Check that is Healthy unless the agent's usage of
// resourceType exceeds softCap, in which case it is Degraded.
func ResourceCheck(name string, manager *ResourceManager, agentID string, resourceType ResourceType, softCap int64) Check {
	return Check{
		Name: name,
		Run: func(ctx context.Context) CheckResult {
			usage := manager.Usage(agentID, resourceType)
			metrics := map[string]float64{"usage": float64(usage), "soft_cap": float64(softCap)}
			if usage > softCap {
				return CheckResult{Status: Degraded, Metrics: metrics}
			}
			return CheckResult{Status: Healthy, Metrics: metrics}
		},
	}
}

// ResponsivenessCheck builds a Check that is Healthy if ping completes
// within budget, Critical on timeout or error.
func ResponsivenessCheck(name string, budget time.Duration, ping func(ctx context.Context) error) Check {
	return Check{
		Name:     name,
		Critical: true,
		Run: func(ctx context.Context) CheckResult {
			start := time.Now()
			pingCtx, cancel := context.WithTimeout(ctx, budget)
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- ping(pingCtx) }()

			select {
			case err := <-done:
				elapsed := time.Since(start)
				metrics := map[string]float64{"elapsed_ms": float64(elapsed.Milliseconds())}
				if err != nil {
					return CheckResult{Status: Critical, Metrics: metrics, Message: err.Error()}
				}
				return CheckResult{Status: Healthy, Metrics: metrics}
			case <-pingCtx.Done():
				return CheckResult{Status: Critical, Message: "ping exceeded budget"}
			}
		},
	}
}

// OverallHealthy reports whether every critical check in report is Healthy.
func (r Report) OverallHealthy() bool {
	for _, c := range r.Checks {
		if c.Critical && c.Status != Healthy {
			return false
		}
	}
	return true
}
