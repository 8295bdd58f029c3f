package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/fallback"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/normalize"
	"github.com/hupe1980/agentcrew/registry"
	"github.com/hupe1980/agentcrew/telemetry"
)

// NoOutputSentinels are backend outputs treated as "nothing produced".
// Comparison is case-insensitive after trimming.
var NoOutputSentinels = []string{"none", "null", "nil", "undefined", strings.ToLower(core.NoContent)}

// Options configures a Dispatcher.
type Options struct {
	// Normalizer cleans successful backend output. Defaults to normalize.New().
	Normalizer *normalize.Normalizer
	// Fallback renders degraded responses. Defaults to fallback.Default().
	Fallback *fallback.Policy
	// Publisher receives one event per dispatch. Defaults to a no-op.
	Publisher telemetry.Publisher
	// Timeout bounds each backend call. Zero means no per-call timeout.
	Timeout time.Duration
	// Logger defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// Dispatcher routes a task to one agent. It holds no mutable state and is
// safe for concurrent use.
type Dispatcher struct {
	registry   *registry.Registry
	normalizer *normalize.Normalizer
	fallback   *fallback.Policy
	publisher  telemetry.Publisher
	timeout    time.Duration
	logger     logging.Logger
}

// New creates a Dispatcher over reg.
func New(reg *registry.Registry, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		Normalizer: normalize.New(),
		Fallback:   fallback.Default(),
		Publisher:  telemetry.NopPublisher{},
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Normalizer == nil {
		opts.Normalizer = normalize.New()
	}

	if opts.Fallback == nil {
		opts.Fallback = fallback.Default()
	}

	if opts.Publisher == nil {
		opts.Publisher = telemetry.NopPublisher{}
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Dispatcher{
		registry:   reg,
		normalizer: opts.Normalizer,
		fallback:   opts.Fallback,
		publisher:  opts.Publisher,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
	}
}

// Registry returns the registry the dispatcher resolves agents from.
func (d *Dispatcher) Registry() *registry.Registry { return d.registry }

// Dispatch sends task to agentID. The backend receives task.Context overlaid
// with extra; neither map is modified.
func (d *Dispatcher) Dispatch(ctx context.Context, agentID string, task core.Task, extra map[string]string) core.CleanResult {
	start := time.Now()

	res, err := d.dispatch(ctx, agentID, task, merge(task.Context, extra))
	dur := time.Since(start)

	succeeded := !res.Degraded()

	ev := telemetry.NewEvent(agentID, dur, succeeded)
	ev.InvocationID = core.InvocationIDFromContext(ctx)
	ev.Reason = res.Reason
	d.publisher.Emit(ev)

	args := []any{"agent_id", agentID, "duration", dur, "succeeded", succeeded}
	if ev.InvocationID != "" {
		args = append(args, "invocation_id", ev.InvocationID)
	}

	if succeeded {
		d.logger.Debug("Dispatch completed", args...)
	} else {
		args = append(args, "reason", res.Reason)
		if err != nil {
			args = append(args, "error", err.Error())
		}

		d.logger.Warn("Dispatch degraded to fallback", args...)
	}

	return res
}

func (d *Dispatcher) dispatch(ctx context.Context, agentID string, task core.Task, taskCtx map[string]string) (core.CleanResult, error) {
	desc, ok := d.registry.Lookup(agentID)
	if !ok {
		return d.degrade(agentID, task, fallback.ReasonUnknownAgent), &core.UnknownAgentError{AgentID: agentID}
	}

	if !desc.Real || desc.Backend == nil {
		return d.degrade(agentID, task, fallback.ReasonNoBackend), nil
	}

	if err := ctx.Err(); err != nil {
		return d.degrade(agentID, task, reasonFor(err)), err
	}

	raw, err := d.invoke(ctx, desc, task.Instruction, taskCtx)
	if err != nil {
		return d.degrade(agentID, task, reasonFor(err)), &core.BackendInvocationError{AgentID: agentID, Err: err}
	}

	if isNoOutput(raw) {
		return d.degrade(agentID, task, fallback.ReasonEmptyOutput), nil
	}

	res, rep := d.normalizer.NormalizeWithReport(raw)
	if rep.Stage == normalize.StageEmpty || res.Empty() || isSentinel(res.Text) {
		return d.degrade(agentID, task, fallback.ReasonEmptyOutput), rep.Err
	}

	var malformed *core.MalformedOutputError
	if errors.As(rep.Err, &malformed) {
		d.logger.Warn("Backend output required last-resort cleanup", "agent_id", agentID, "stage", malformed.Stage, "length", malformed.Length)
	}

	return res, nil
}

type outcome struct {
	raw core.RawOutput
	err error
}

// invoke runs the backend on its own goroutine so that cancellation and the
// per-call timeout take effect even when the backend ignores its context.
func (d *Dispatcher) invoke(ctx context.Context, desc core.AgentDescriptor, text string, taskCtx map[string]string) (core.RawOutput, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &panicError{value: r}}
			}
		}()

		raw, err := desc.Backend.Invoke(ctx, text, taskCtx)
		done <- outcome{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		if out.err == nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return out.raw, out.err
	}
}

func (d *Dispatcher) degrade(agentID string, task core.Task, reason fallback.Reason) core.CleanResult {
	return d.fallback.Degrade(agentID, task, reason)
}

type panicError struct{ value any }

func (e *panicError) Error() string { return fmt.Sprintf("backend panicked: %v", e.value) }

func reasonFor(err error) fallback.Reason {
	var pe *panicError

	switch {
	case errors.As(err, &pe):
		return fallback.ReasonPanic
	case errors.Is(err, context.DeadlineExceeded):
		return fallback.ReasonTimeout
	case errors.Is(err, context.Canceled):
		return fallback.ReasonCancelled
	default:
		return fallback.ReasonBackendError
	}
}

func isNoOutput(raw core.RawOutput) bool {
	var s string

	switch v := raw.(type) {
	case nil:
		return true
	case core.PlainText:
		s = string(v)
	case core.WrapperObjectString:
		s = string(v)
	case core.StructuredRecord:
		return len(v) == 0
	default:
		return false
	}

	return isSentinel(s)
}

// isSentinel reports whether s is blank or one of NoOutputSentinels.
func isSentinel(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return true
	}

	for _, sentinel := range NoOutputSentinels {
		if s == sentinel {
			return true
		}
	}

	return false
}

func merge(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}

	for k, v := range extra {
		out[k] = v
	}

	return out
}
