// Package engine abstracts the durable scheduling backend that drives
// recurring replay kickoffs (Every/Cron schedules) so they survive process
// restarts, mirroring the pluggable workflow-engine abstraction the
// teacher's runtime uses for durable agent execution but trimmed to the
// one operation a replay scheduler needs: "run this callback when a
// schedule entry comes due, durably."
package engine

import (
	"context"
	"time"
)

type (
	// Engine registers recurring jobs and runs them durably: once
	// registered, a job continues firing on schedule even across process
	// restarts, for engines that support that (Temporal); the in-memory
	// engine only survives within one process.
	Engine interface {
		// ScheduleJob registers job to run according to its Schedule. For a
		// one-shot schedule (Immediate/At) the job fires once; for a
		// recurring schedule (Every/Cron) it fires repeatedly until
		// CancelJob is called. Returns a Handle for interacting with the
		// running job.
		ScheduleJob(ctx context.Context, job Job) (Handle, error)

		// CancelJob stops a previously scheduled job. Idempotent: cancelling
		// an already-cancelled or completed job is a no-op.
		CancelJob(ctx context.Context, jobID string) error

		// Close releases any engine-held resources (workers, connections).
		Close() error
	}

	// Job describes one schedulable unit of work.
	Job struct {
		// ID uniquely identifies this job within the engine.
		ID string
		// CronExpr is a five-field cron expression for recurring jobs, or
		// empty for Every/At/Immediate jobs (engines that only understand
		// cron syntax, like Temporal, translate Every into "@every <dur>").
		CronExpr string
		// Every is the recurring interval for Every-scheduled jobs; zero for
		// every other kind.
		Every time.Duration
		// At is the single fire time for At-scheduled jobs; zero for every
		// other kind.
		At time.Time
		// Run is invoked once per scheduled firing. Engines must not run two
		// invocations of the same job concurrently.
		Run func(ctx context.Context) error
	}

	// Handle lets a caller interact with a running job.
	Handle interface {
		// Wait blocks until the job's underlying execution unit (the
		// in-memory goroutine, or the durable workflow) terminates, due to
		// cancellation or a non-recoverable Run error.
		Wait(ctx context.Context) error
		// Cancel requests the job stop firing.
		Cancel(ctx context.Context) error
	}
)
