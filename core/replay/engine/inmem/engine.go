// Package inmem implements core/replay/engine.Engine for single-process use:
// jobs are driven by a goroutine per job and do not survive process
// restarts. Grounded on the teacher's in-memory workflow engine
// (runtime/agent/engine/inmem), trimmed to the single run-on-schedule
// operation a replay scheduler needs.
package inmem

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lexlapax/rs-llmspell-sub006/core/replay/engine"
)

type (
	eng struct {
		mu   sync.Mutex
		jobs map[string]*runningJob
	}

	runningJob struct {
		cancel context.CancelFunc
		done   chan struct{}
		err    error
		mu     sync.Mutex
	}

	jobHandle struct {
		job *runningJob
	}
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// New returns an in-memory Engine.
func New() engine.Engine {
	return &eng{jobs: make(map[string]*runningJob)}
}

func (e *eng) ScheduleJob(ctx context.Context, job engine.Job) (engine.Handle, error) {
	if job.ID == "" || job.Run == nil {
		return nil, errors.New("inmem: job id and Run are required")
	}

	e.mu.Lock()
	if _, dup := e.jobs[job.ID]; dup {
		e.mu.Unlock()
		return nil, fmt.Errorf("inmem: job %q already scheduled", job.ID)
	}
	jobCtx, cancel := context.WithCancel(ctx)
	rj := &runningJob{cancel: cancel, done: make(chan struct{})}
	e.jobs[job.ID] = rj
	e.mu.Unlock()

	var next func(time.Time) (time.Time, bool)
	switch {
	case job.CronExpr != "":
		schedule, err := cronParser.Parse(job.CronExpr)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("inmem: parsing cron expression: %w", err)
		}
		next = func(from time.Time) (time.Time, bool) { return schedule.Next(from), true }
	case job.Every > 0:
		next = func(from time.Time) (time.Time, bool) { return from.Add(job.Every), true }
	case !job.At.IsZero():
		fired := false
		next = func(from time.Time) (time.Time, bool) {
			if fired {
				return time.Time{}, false
			}
			fired = true
			return job.At, true
		}
	default:
		// Immediate, one-shot.
		fired := false
		next = func(from time.Time) (time.Time, bool) {
			if fired {
				return time.Time{}, false
			}
			fired = true
			return from, true
		}
	}

	go e.runLoop(jobCtx, rj, job, next)

	return &jobHandle{job: rj}, nil
}

func (e *eng) runLoop(ctx context.Context, rj *runningJob, job engine.Job, next func(time.Time) (time.Time, bool)) {
	defer close(rj.done)
	defer func() {
		e.mu.Lock()
		delete(e.jobs, job.ID)
		e.mu.Unlock()
	}()

	now := time.Now()
	for {
		fireAt, ok := next(now)
		if !ok {
			return
		}
		delay := time.Until(fireAt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			rj.mu.Lock()
			rj.err = ctx.Err()
			rj.mu.Unlock()
			return
		case now = <-timer.C:
		}

		if err := job.Run(ctx); err != nil {
			rj.mu.Lock()
			rj.err = err
			rj.mu.Unlock()
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func (e *eng) CancelJob(ctx context.Context, jobID string) error {
	e.mu.Lock()
	rj, ok := e.jobs[jobID]
	e.mu.Unlock()
	if !ok {
		return nil
	}
	rj.cancel()
	return nil
}

func (e *eng) Close() error {
	e.mu.Lock()
	jobs := make([]*runningJob, 0, len(e.jobs))
	for _, rj := range e.jobs {
		jobs = append(jobs, rj)
	}
	e.mu.Unlock()
	for _, rj := range jobs {
		rj.cancel()
	}
	return nil
}

func (h *jobHandle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.job.done:
		h.job.mu.Lock()
		defer h.job.mu.Unlock()
		return h.job.err
	}
}

func (h *jobHandle) Cancel(ctx context.Context) error {
	h.job.cancel()
	return nil
}
