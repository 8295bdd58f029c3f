// Package telemetry decouples per-dispatch activity records from the request
// path.
//
// The dispatcher hands an Event to an Emitter after every dispatch. The
// Emitter queues it on a bounded channel and a single background goroutine
// forwards it to a Sink. Emit never blocks and never reports sink failures to
// the caller; events are dropped (and counted) when the queue is full.
package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/agentcrew/logging"
)

// Event is the fire-and-forget activity record emitted after each dispatch.
type Event struct {
	InvocationID string        `json:"invocation_id,omitempty"`
	AgentID      string        `json:"agent_id"`
	Duration     time.Duration `json:"-"`
	DurationMs   int64         `json:"duration_ms"`
	Succeeded    bool          `json:"succeeded"`
	Reason       string        `json:"reason,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// NewEvent fills DurationMs and Timestamp.
func NewEvent(agentID string, dur time.Duration, succeeded bool) Event {
	return Event{
		AgentID:    agentID,
		Duration:   dur,
		DurationMs: dur.Milliseconds(),
		Succeeded:  succeeded,
		Timestamp:  time.Now().UTC(),
	}
}

// Publisher is the narrow interface the dispatcher depends on.
type Publisher interface {
	Emit(ev Event) bool
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Emit implements Publisher.
func (NopPublisher) Emit(Event) bool { return false }

// EmitterOptions configures an Emitter.
type EmitterOptions struct {
	// BufferSize is the queue capacity.
	BufferSize int
	// SinkTimeout bounds each Sink.Record call.
	SinkTimeout time.Duration
	Logger      logging.Logger
}

// Emitter is an asynchronous Publisher backed by a Sink.
type Emitter struct {
	sink    Sink
	opts    EmitterOptions
	ch      chan Event
	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewEmitter starts the forwarding goroutine. Call Close to flush and stop.
func NewEmitter(sink Sink, optFns ...func(o *EmitterOptions)) *Emitter {
	opts := EmitterOptions{
		BufferSize:  256,
		SinkTimeout: 2 * time.Second,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.BufferSize <= 0 {
		opts.BufferSize = 1
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	e := &Emitter{
		sink: sink,
		opts: opts,
		ch:   make(chan Event, opts.BufferSize),
		done: make(chan struct{}),
	}

	go e.loop()

	return e
}

// Emit enqueues ev without blocking. It returns false if ev was dropped.
func (e *Emitter) Emit(ev Event) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		e.dropped.Add(1)
		return false
	}

	select {
	case e.ch <- ev:
		return true
	default:
		e.dropped.Add(1)
		return false
	}
}

// Dropped returns the number of events discarded because the queue was full
// or the emitter was closed.
func (e *Emitter) Dropped() int64 { return e.dropped.Load() }

// Failed returns the number of events the sink rejected.
func (e *Emitter) Failed() int64 { return e.failed.Load() }

// Close stops accepting events, drains the queue and waits for the forwarder.
func (e *Emitter) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}

	e.closed = true
	close(e.ch)
	e.mu.Unlock()

	<-e.done

	if c, ok := e.sink.(interface{ Close() error }); ok {
		return c.Close()
	}

	return nil
}

func (e *Emitter) loop() {
	defer close(e.done)

	for ev := range e.ch {
		e.forward(ev)
	}
}

func (e *Emitter) forward(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.failed.Add(1)
			e.opts.Logger.Error("Telemetry sink panicked", "agent_id", ev.AgentID, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), e.opts.SinkTimeout)
	defer cancel()

	if err := e.sink.Record(ctx, ev); err != nil {
		e.failed.Add(1)
		e.opts.Logger.Warn("Telemetry sink rejected event", "agent_id", ev.AgentID, "error", err.Error())
	}
}
