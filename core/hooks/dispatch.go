package hooks

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/lexlapax/rs-llmspell-sub006/core/telemetry"
)

// ChainResult is the outcome of dispatching a full chain of hooks at one
// point: the final Result (Continue/Halt/Error; a Modified result is folded
// into Value rather than reported here) and the value that flowed out of
// the last hook that ran.
type ChainResult struct {
	Result Result
	Value  any
}

// Dispatcher runs hook chains against a Registry, applying the engine's
// fixed dispatch semantics: descending priority, first Halt or Error stops
// the chain, Skip stops only the remaining hooks at that point, Modified
// replaces the flowing value for subsequent hooks.
type Dispatcher struct {
	registry    *Registry
	hookTimeout time.Duration // 0 disables the per-hook budget
	onTimeout   func(point Point, hookName string)
	tracer      telemetry.Tracer
	metrics     telemetry.Metrics
}

// NewDispatcher constructs a Dispatcher. hookTimeout, if non-zero, bounds a
// single hook's Execute call; breaching it invokes onTimeout (if set) so a
// MetricHook-style PerformanceWarning can be recorded by the caller, and the
// chain proceeds as if that hook returned Continue.
func NewDispatcher(registry *Registry, hookTimeout time.Duration, onTimeout func(point Point, hookName string)) *Dispatcher {
	return &Dispatcher{registry: registry, hookTimeout: hookTimeout, onTimeout: onTimeout}
}

// WithTelemetry attaches a Tracer and Metrics recorder. Once set, Dispatch
// opens one span per hook-point dispatch and records a "hooks.performance_warning"
// counter whenever a hook breaches hookTimeout. Either argument may be nil to
// leave that half unwired; a Dispatcher with neither set behaves exactly as
// before. Returns d for chaining at construction time.
func (d *Dispatcher) WithTelemetry(tracer telemetry.Tracer, metrics telemetry.Metrics) *Dispatcher {
	d.tracer = tracer
	d.metrics = metrics
	return d
}

// NewInstrumentedDispatcher builds a Dispatcher already wired to OTEL,
// through goa.design/clue's tracer and meter providers, for embedders that
// want span-per-hook-point dispatch and PerformanceWarning metrics without
// assembling the telemetry stack themselves. Configure the global
// TracerProvider/MeterProvider (e.g. via clue.ConfigureOpenTelemetry) before
// dispatching through the result.
func NewInstrumentedDispatcher(registry *Registry, hookTimeout time.Duration, onTimeout func(point Point, hookName string)) *Dispatcher {
	return NewDispatcher(registry, hookTimeout, onTimeout).
		WithTelemetry(telemetry.NewClueTracer(), telemetry.NewClueMetrics())
}

// Dispatch runs every enabled, feature-satisfied hook registered at point,
// in descending priority order, against execCtx. Cancelling ctx mid-chain
// is observed at the next hook boundary and reported as Halt("cancelled").
func (d *Dispatcher) Dispatch(ctx context.Context, execCtx *ExecContext) (ChainResult, error) {
	if d.tracer != nil {
		var span telemetry.Span
		ctx, span = d.tracer.Start(ctx, fmt.Sprintf("hooks.dispatch.%s", execCtx.Point))
		defer span.End()
	}

	hooks, err := d.registry.GetHooks(execCtx.Point)
	if err != nil {
		if d.tracer != nil {
			d.tracer.Span(ctx).RecordError(err)
		}
		return ChainResult{}, err
	}

	value := execCtx.Value
	for _, h := range hooks {
		select {
		case <-ctx.Done():
			return ChainResult{Result: HaltResult("cancelled"), Value: value}, nil
		default:
		}

		if !h.ShouldExecute(execCtx) {
			continue
		}

		execCtx.Value = value
		result, duration := d.runOne(ctx, h, execCtx)
		if mh, ok := h.(MetricHook); ok {
			mh.RecordPostExecution(ctx, execCtx, result, duration)
		}

		switch result.Kind {
		case Continue:
			// value unchanged, proceed
		case Modified:
			value = result.Value
		case Skip:
			return ChainResult{Result: ContinueResult(), Value: value}, nil
		case Halt, Error:
			if d.tracer != nil {
				d.tracer.Span(ctx).SetStatus(codes.Error, string(result.Kind))
			}
			return ChainResult{Result: result, Value: value}, nil
		}
	}
	return ChainResult{Result: ContinueResult(), Value: value}, nil
}

func (d *Dispatcher) runOne(ctx context.Context, h Hook, execCtx *ExecContext) (Result, time.Duration) {
	if mh, ok := h.(MetricHook); ok {
		mh.RecordPreExecution(ctx, execCtx)
	}

	start := time.Now()
	if d.hookTimeout <= 0 {
		result := h.Execute(ctx, execCtx)
		return result, time.Since(start)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, d.hookTimeout)
	defer cancel()

	type outcome struct {
		result Result
	}
	done := make(chan outcome, 1)
	go func() {
		done <- outcome{result: h.Execute(timeoutCtx, execCtx)}
	}()

	select {
	case o := <-done:
		return o.result, time.Since(start)
	case <-timeoutCtx.Done():
		if d.onTimeout != nil {
			d.onTimeout(execCtx.Point, h.Metadata().Name)
		}
		if d.metrics != nil {
			d.metrics.IncCounter("hooks.performance_warning", 1,
				"point", string(execCtx.Point), "hook", h.Metadata().Name)
		}
		if d.tracer != nil {
			d.tracer.Span(ctx).AddEvent("performance_warning",
				"point", string(execCtx.Point), "hook", h.Metadata().Name, "budget_ms", d.hookTimeout.Milliseconds())
		}
		return ContinueResult(), time.Since(start)
	}
}
