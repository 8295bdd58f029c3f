package agentcrew

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentcrew/config"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/engine"
	"github.com/hupe1980/agentcrew/fallback"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/model/anthropic"
	"github.com/hupe1980/agentcrew/model/openai"
	"github.com/hupe1980/agentcrew/normalize"
	"github.com/hupe1980/agentcrew/registry"
	"github.com/hupe1980/agentcrew/router"
	"github.com/hupe1980/agentcrew/telemetry"
)

// NewFromConfig builds the registry, backends, logger and telemetry sink
// described by cfg. optFns run last and may override anything derived from
// cfg. ctx bounds connecting to external sinks.
func NewFromConfig(ctx context.Context, cfg config.Config, optFns ...func(o *Options)) (*AgentCrew, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.Log)

	reg, err := BuildRegistry(cfg.Agents)
	if err != nil {
		return nil, err
	}

	policy, err := fallback.New(func(o *fallback.Options) {
		if cfg.Fallback.Template != "" {
			o.Template = cfg.Fallback.Template
		}

		o.MaxEcho = cfg.Fallback.MaxEcho
		o.MaxTerms = cfg.Fallback.MaxTerms
	})
	if err != nil {
		return nil, err
	}

	sink, err := BuildSink(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, err
	}

	opts := []func(o *Options){func(o *Options) {
		o.EngineConfig = engine.Config{
			MaxConcurrentTasks: cfg.Engine.ConcurrencyLimit(),
			TaskTimeout:        cfg.Engine.TaskTimeout,
			AutoRoute:          cfg.AutoRouteEnabled(),
		}
		o.DispatchTimeout = cfg.Dispatch.Timeout
		o.Normalizer = normalize.New(func(no *normalize.Options) {
			no.MinUsableLength = cfg.Normalizer.MinUsableLength
			no.MaxLength = cfg.Normalizer.TruncateLength()
		})
		o.Fallback = policy
		o.Router = router.New(func(ro *router.Options) {
			ro.Routes = cfg.Router.Routes
			ro.DefaultAgent = cfg.Router.DefaultAgent
		})
		o.Sink = sink
		o.TelemetryBuffer = cfg.Telemetry.BufferSize
		o.TelemetryTimeout = cfg.Telemetry.Timeout
		o.Logger = logger
	}}

	return New(reg, append(opts, optFns...)...), nil
}

// NewLogger builds the structured logger described by cfg.
func NewLogger(cfg config.LogConfig) *logging.StructuredLogger {
	return logging.NewSlogLogger(logging.ParseLevel(cfg.Level), cfg.Format, cfg.AddSource).WithComponent("agentcrew")
}

// BuildRegistry creates one descriptor per configured agent.
func BuildRegistry(agents []config.AgentConfig) (*registry.Registry, error) {
	descs := make([]core.AgentDescriptor, 0, len(agents))

	for _, a := range agents {
		backend, err := BuildBackend(a)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", a.ID, err)
		}

		descs = append(descs, core.NewAgentDescriptor(a.ID, a.Name, backend, a.Capabilities...))
	}

	return registry.New(descs...)
}

// BuildBackend returns the backend for a, or nil for the "none" provider.
func BuildBackend(a config.AgentConfig) (core.Backend, error) {
	var m model.Model

	switch a.Provider {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderMock:
		mock := model.NewMockModel(a.ID)
		for task, resp := range a.Responses {
			if task == "default" {
				mock.SetDefaultResponse(resp)
				continue
			}

			mock.AddResponse(task, resp)
		}

		m = mock
	case config.ProviderOpenAI:
		m = openai.NewModel(func(o *openai.Options) {
			if a.Model != "" {
				o.Model = a.Model
			}

			if a.Temperature != nil {
				o.Temperature = *a.Temperature
			}

			if a.MaxTokens > 0 {
				o.MaxCompletionTokens = a.MaxTokens
			}

			o.APIKey = a.APIKey()
			o.BaseURL = a.BaseURL
		})
	case config.ProviderAnthropic:
		m = anthropic.NewModel(func(o *anthropic.Options) {
			if a.Model != "" {
				o.Model = a.Model
			}

			if a.Temperature != nil {
				o.Temperature = *a.Temperature
			}

			if a.MaxTokens > 0 {
				o.MaxTokens = a.MaxTokens
			}

			o.APIKey = a.APIKey()
			o.BaseURL = a.BaseURL
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", a.Provider)
	}

	return model.NewBackend(m, func(o *model.BackendOptions) {
		o.Instruction = a.Instruction
		o.Stream = a.Stream
	}), nil
}

// BuildSink returns the telemetry sink described by cfg, or nil for "none".
func BuildSink(ctx context.Context, cfg config.TelemetryConfig, logger logging.Logger) (telemetry.Sink, error) {
	switch cfg.Sink {
	case config.SinkNone, "":
		return nil, nil
	case config.SinkLog:
		return telemetry.LogSink{Logger: logger}, nil
	case config.SinkRedis:
		sink, err := telemetry.NewRedisSink(ctx, telemetry.RedisSinkConfig{
			Address:     cfg.Redis.Address,
			Password:    cfg.Redis.ResolvedPassword(),
			DB:          cfg.Redis.DB,
			Key:         cfg.Redis.Key,
			MaxLen:      cfg.Redis.MaxLen,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return nil, err
		}

		return sink, nil
	default:
		return nil, fmt.Errorf("unknown telemetry sink %q", cfg.Sink)
	}
}
