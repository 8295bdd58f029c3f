// Package agentcrew provides a high-level façade over the orchestration core:
// an immutable agent registry, a failure-tolerant dispatcher, three
// collaboration modes and a keyword router. Most applications interact with
// this package by:
//  1. Building a registry of agents (or describing them in a YAML config)
//  2. Creating an AgentCrew via New() or NewFromConfig()
//  3. Running tasks (RunTask) or single dispatches (DispatchSingle)
//
// The façade delegates orchestration to engine.Engine and owns the
// telemetry emitter so Close can flush pending activity events.
package agentcrew

import (
	"context"
	"time"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/dispatch"
	"github.com/hupe1980/agentcrew/engine"
	"github.com/hupe1980/agentcrew/fallback"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/normalize"
	"github.com/hupe1980/agentcrew/registry"
	"github.com/hupe1980/agentcrew/router"
	"github.com/hupe1980/agentcrew/telemetry"
)

// Options configures the AgentCrew instance.
type Options struct {
	// Engine configuration (concurrency, task timeout, auto routing)
	EngineConfig engine.Config

	// DispatchTimeout bounds each backend call. Zero disables the bound.
	DispatchTimeout time.Duration

	// Normalizer, Fallback and Router default to their package defaults.
	Normalizer *normalize.Normalizer
	Fallback   *fallback.Policy
	Router     *router.Router

	// Sink receives one activity event per dispatch through a buffered
	// telemetry.Emitter. Nil disables telemetry.
	Sink telemetry.Sink

	// TelemetryBuffer and TelemetryTimeout tune the emitter.
	TelemetryBuffer  int
	TelemetryTimeout time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentCrew is the high-level façade aggregating the engine and telemetry.
type AgentCrew struct {
	engine  *engine.Engine
	emitter *telemetry.Emitter
	logger  logging.Logger
}

// New creates an AgentCrew over reg.
func New(reg *registry.Registry, optFns ...func(o *Options)) *AgentCrew {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	var (
		publisher telemetry.Publisher = telemetry.NopPublisher{}
		emitter   *telemetry.Emitter
	)

	if opts.Sink != nil {
		emitter = telemetry.NewEmitter(opts.Sink, func(o *telemetry.EmitterOptions) {
			if opts.TelemetryBuffer > 0 {
				o.BufferSize = opts.TelemetryBuffer
			}

			if opts.TelemetryTimeout > 0 {
				o.SinkTimeout = opts.TelemetryTimeout
			}

			o.Logger = opts.Logger
		})
		publisher = emitter
	}

	d := dispatch.New(reg, func(o *dispatch.Options) {
		o.Normalizer = opts.Normalizer
		o.Fallback = opts.Fallback
		o.Publisher = publisher
		o.Timeout = opts.DispatchTimeout
		o.Logger = opts.Logger
	})

	e := engine.New(d, func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Router = opts.Router
		o.Logger = opts.Logger
	})

	return &AgentCrew{engine: e, emitter: emitter, logger: opts.Logger}
}

// Engine exposes the underlying engine.
func (c *AgentCrew) Engine() *engine.Engine { return c.engine }

// Registry returns the agent registry.
func (c *AgentCrew) Registry() *registry.Registry { return c.engine.Registry() }

// RunTask runs task and returns entries in caller-declared agent order. The
// only error is core.ErrNoAgentsSpecified.
func (c *AgentCrew) RunTask(ctx context.Context, task core.Task) (core.CollaborationResult, error) {
	return c.engine.RunTask(ctx, task)
}

// DispatchSingle sends task to one agent. It never fails.
func (c *AgentCrew) DispatchSingle(ctx context.Context, agentID string, task core.Task) core.CleanResult {
	return c.engine.DispatchSingle(ctx, agentID, task)
}

// SelectAgent returns the router's choice for text.
func (c *AgentCrew) SelectAgent(text string) string { return c.engine.SelectAgent(text) }

// TelemetryStats returns how many events were dropped and how many failed in
// the sink. Both are zero when telemetry is disabled.
func (c *AgentCrew) TelemetryStats() (dropped, failed int64) {
	if c.emitter == nil {
		return 0, 0
	}

	return c.emitter.Dropped(), c.emitter.Failed()
}

// Close flushes pending telemetry and closes the sink.
func (c *AgentCrew) Close() error {
	if c.emitter == nil {
		return nil
	}

	return c.emitter.Close()
}
