// Package hooks implements the priority-ordered, feature-gated,
// replayable interception layer that sits between C3 component execution
// and C1 state persistence.
package hooks

// Point is a closed enumeration of named interception sites. Adding a new
// point is a versioned change; callers must not invent ad-hoc points.
type Point string

const (
	SystemStartup  Point = "system_startup"
	SystemShutdown Point = "system_shutdown"

	BeforeAgentExecution Point = "before_agent_execution"
	AfterAgentExecution  Point = "after_agent_execution"

	BeforeToolExecution Point = "before_tool_execution"
	AfterToolExecution  Point = "after_tool_execution"

	BeforeWorkflowStart Point = "before_workflow_start"
	AfterWorkflowStart  Point = "after_workflow_start"

	StateChanged Point = "state_changed"
	ErrorRaised  Point = "error_raised"
	HealthCheck  Point = "health_check"
)

// Priority orders hooks within a Point. Higher numeric value runs first;
// dispatch is strictly non-increasing by Priority within a point.
type Priority int

const (
	PriorityLowest  Priority = -2
	PriorityLow     Priority = -1
	PriorityNormal  Priority = 0
	PriorityHigh    Priority = 1
	PriorityHighest Priority = 2
)
