package telemetry

import (
	"context"
	"errors"

	"github.com/hupe1980/agentcrew/logging"
)

// Sink receives activity events from an Emitter.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, ev Event) error

// Record calls f(ctx, ev).
func (f SinkFunc) Record(ctx context.Context, ev Event) error { return f(ctx, ev) }

// LogSink writes each event as a structured log line.
type LogSink struct {
	Logger logging.Logger
}

// Record implements Sink.
func (s LogSink) Record(_ context.Context, ev Event) error {
	if s.Logger == nil {
		return nil
	}

	s.Logger.Info("Agent activity",
		"invocation_id", ev.InvocationID,
		"agent_id", ev.AgentID,
		"duration_ms", ev.DurationMs,
		"succeeded", ev.Succeeded,
		"reason", ev.Reason,
	)

	return nil
}

// MultiSink fans an event out to several sinks and joins their errors.
type MultiSink []Sink

// Record implements Sink.
func (m MultiSink) Record(ctx context.Context, ev Event) error {
	var errs []error

	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close closes every sink that implements io.Closer-like Close.
func (m MultiSink) Close() error {
	var errs []error

	for _, s := range m {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}
