// Package temporal implements core/replay/engine.Engine on top of Temporal,
// so a recurring replay schedule (Every/Cron) survives process restarts.
// Grounded on the teacher's Temporal workflow/activity engine adapter
// (runtime/agent/engine/temporal), trimmed down to the single workflow type
// a replay job needs: run one callback on schedule, no child workflows, no
// signals, no queries.
package temporal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/lexlapax/rs-llmspell-sub006/core/replay/engine"
	"github.com/lexlapax/rs-llmspell-sub006/core/telemetry"
)

const replayJobWorkflowName = "replayJob"
const runActivityName = "replayJobRun"

// Options configures the Temporal-backed engine.
type Options struct {
	// Client is a pre-configured Temporal client. If nil, ClientOptions is
	// used to lazily construct one, and the engine closes it on Close.
	Client client.Client
	// ClientOptions constructs a client when Client is nil.
	ClientOptions *client.Options
	// TaskQueue is the queue workers poll. Required.
	TaskQueue string
	// WorkerOptions configures the single worker this engine runs.
	WorkerOptions worker.Options
	// Logger emits worker and workflow lifecycle logs. Defaults to a noop
	// logger.
	Logger telemetry.Logger
}

// Engine schedules replay jobs as Temporal workflows. Each job maps to a
// single workflow execution: a one-shot job runs once, a recurring job
// (Every/Cron) uses Temporal's native cron scheduling to re-fire the
// workflow, which in turn invokes the job's Run callback as an activity on
// every firing.
type Engine struct {
	client      client.Client
	closeClient bool
	taskQueue   string
	logger      telemetry.Logger

	mu      sync.Mutex
	worker  worker.Worker
	started bool
	runners map[string]func(ctx context.Context) error
}

// New constructs a Temporal-backed Engine. Either Client or ClientOptions
// must be provided, and TaskQueue is required.
func New(opts Options) (*Engine, error) {
	if opts.TaskQueue == "" {
		return nil, fmt.Errorf("temporal replay engine: task queue is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}

	cli := opts.Client
	closeClient := false
	if cli == nil {
		if opts.ClientOptions == nil {
			return nil, fmt.Errorf("temporal replay engine: client options are required when Client is nil")
		}
		var err error
		cli, err = client.NewLazyClient(*opts.ClientOptions)
		if err != nil {
			return nil, fmt.Errorf("temporal replay engine: create client: %w", err)
		}
		closeClient = true
	}

	e := &Engine{
		client:      cli,
		closeClient: closeClient,
		taskQueue:   opts.TaskQueue,
		logger:      logger,
		runners:     make(map[string]func(ctx context.Context) error),
	}
	e.worker = worker.New(cli, opts.TaskQueue, opts.WorkerOptions)
	e.worker.RegisterWorkflowWithOptions(e.runWorkflow, workflow.RegisterOptions{Name: replayJobWorkflowName})
	e.worker.RegisterActivityWithOptions(e.runActivity, worker.RegisterOptions{})
	return e, nil
}

// ScheduleJob starts a Temporal workflow for job. Recurring jobs (Every or
// CronExpr set) use Temporal's CronSchedule so the workflow keeps firing
// across restarts; Every is translated to Temporal's "@every <duration>"
// syntax since Temporal's scheduler only understands cron-style strings.
func (e *Engine) ScheduleJob(ctx context.Context, job engine.Job) (engine.Handle, error) {
	if job.ID == "" || job.Run == nil {
		return nil, fmt.Errorf("temporal replay engine: job id and Run are required")
	}

	e.mu.Lock()
	e.runners[job.ID] = job.Run
	e.ensureWorkerStartedLocked()
	e.mu.Unlock()

	cronSchedule := job.CronExpr
	if cronSchedule == "" && job.Every > 0 {
		cronSchedule = fmt.Sprintf("@every %s", job.Every.String())
	}

	startOpts := client.StartWorkflowOptions{
		ID:           jobWorkflowID(job.ID),
		TaskQueue:    e.taskQueue,
		CronSchedule: cronSchedule,
	}
	if cronSchedule == "" && !job.At.IsZero() {
		if delay := time.Until(job.At); delay > 0 {
			startOpts.StartDelay = delay
		}
	}

	run, err := e.client.ExecuteWorkflow(ctx, startOpts, replayJobWorkflowName, job.ID)
	if err != nil {
		return nil, fmt.Errorf("temporal replay engine: start workflow: %w", err)
	}

	return &jobHandle{client: e.client, run: run}, nil
}

// CancelJob cancels the Temporal workflow backing jobID.
func (e *Engine) CancelJob(ctx context.Context, jobID string) error {
	return e.client.CancelWorkflow(ctx, jobWorkflowID(jobID), "")
}

// Close stops the worker and, if this engine created the client, closes it.
func (e *Engine) Close() error {
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if started {
		e.worker.Stop()
	}
	if e.closeClient {
		e.client.Close()
	}
	return nil
}

func (e *Engine) ensureWorkerStartedLocked() {
	if e.started {
		return
	}
	e.started = true
	go func() {
		if err := e.worker.Run(worker.InterruptCh()); err != nil {
			e.logger.Error(context.Background(), "temporal replay worker exited", "task_queue", e.taskQueue, "err", err)
		}
	}()
}

// runWorkflow is the single workflow type every replay job executes under.
// It invokes the registered Run callback, via an activity, exactly once per
// firing (Temporal re-invokes the workflow on each cron tick).
func (e *Engine) runWorkflow(ctx workflow.Context, jobID string) error {
	actCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
	})
	return workflow.ExecuteActivity(actCtx, runActivityName, jobID).Get(ctx, nil)
}

// runActivity dispatches to the Run callback registered for jobID when the
// job was scheduled on this engine instance. A Run callback therefore only
// fires correctly on the process that called ScheduleJob; durable recovery
// after that process restarts requires re-registering the job's callback
// under the same job ID before the next cron firing.
func (e *Engine) runActivity(ctx context.Context, jobID string) error {
	e.mu.Lock()
	run, ok := e.runners[jobID]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("temporal replay engine: no Run callback registered for job %q", jobID)
	}
	return run(ctx)
}

func jobWorkflowID(jobID string) string {
	return "replay-job-" + jobID
}

type jobHandle struct {
	client client.Client
	run    client.WorkflowRun
}

func (h *jobHandle) Wait(ctx context.Context) error {
	return h.run.Get(ctx, nil)
}

func (h *jobHandle) Cancel(ctx context.Context) error {
	return h.client.CancelWorkflow(ctx, h.run.GetID(), h.run.GetRunID())
}
