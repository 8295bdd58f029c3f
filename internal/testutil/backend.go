package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/agentcrew/core"
)

// ErrBackendDown is returned by failing fake backends.
var ErrBackendDown = errors.New("backend down")

// Call records a single invocation of a FakeBackend.
type Call struct {
	Text    string
	Context map[string]string
	At      time.Time
}

// FakeBackend is a configurable core.Backend double. The zero value answers
// every call with "ok".
//
// Example:
//
//	b := testutil.NewFakeBackend("hello").Delay(20 * time.Millisecond)
//	desc := core.NewAgentDescriptor("tutor", "Tutor", b)
type FakeBackend struct {
	mu      sync.Mutex
	output  core.RawOutput
	delay   time.Duration
	err     error
	panicV  any
	respond func(text string, taskCtx map[string]string) core.RawOutput
	calls   []Call
}

// NewFakeBackend creates a backend returning PlainText(text).
func NewFakeBackend(text string) *FakeBackend {
	return &FakeBackend{output: core.PlainText(text)}
}

// Output sets the raw output returned on success (chainable).
func (b *FakeBackend) Output(o core.RawOutput) *FakeBackend { b.output = o; return b }

// Delay makes each call wait d or until the context is cancelled (chainable).
func (b *FakeBackend) Delay(d time.Duration) *FakeBackend { b.delay = d; return b }

// Fail makes every call return err (chainable).
func (b *FakeBackend) Fail(err error) *FakeBackend { b.err = err; return b }

// Panic makes every call panic with v (chainable).
func (b *FakeBackend) Panic(v any) *FakeBackend { b.panicV = v; return b }

// Respond computes the output from the call arguments (chainable).
func (b *FakeBackend) Respond(fn func(text string, taskCtx map[string]string) core.RawOutput) *FakeBackend {
	b.respond = fn
	return b
}

// Invoke implements core.Backend.
func (b *FakeBackend) Invoke(ctx context.Context, text string, taskCtx map[string]string) (core.RawOutput, error) {
	cp := make(map[string]string, len(taskCtx))
	for k, v := range taskCtx {
		cp[k] = v
	}

	b.mu.Lock()
	b.calls = append(b.calls, Call{Text: text, Context: cp, At: time.Now()})
	b.mu.Unlock()

	if b.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.delay):
		}
	}

	if b.panicV != nil {
		panic(b.panicV)
	}

	if b.err != nil {
		return nil, b.err
	}

	if b.respond != nil {
		return b.respond(text, cp), nil
	}

	if b.output == nil {
		return core.PlainText("ok"), nil
	}

	return b.output, nil
}

// Calls returns a snapshot of recorded invocations.
func (b *FakeBackend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Call, len(b.calls))
	copy(out, b.calls)

	return out
}

// CallCount returns how many times Invoke ran.
func (b *FakeBackend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.calls)
}

// LastCall returns the most recent invocation.
func (b *FakeBackend) LastCall() (Call, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.calls) == 0 {
		return Call{}, false
	}

	return b.calls[len(b.calls)-1], true
}

// Agent wraps a backend into a descriptor whose display name equals id.
func Agent(id string, b core.Backend, caps ...string) core.AgentDescriptor {
	return core.NewAgentDescriptor(id, id, b, caps...)
}

// RecordingPublisher collects telemetry events in memory. It satisfies
// telemetry.Publisher without importing it.
type RecordingPublisher[E any] struct {
	mu     sync.Mutex
	events []E
}

// Emit stores ev and reports success.
func (p *RecordingPublisher[E]) Emit(ev E) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, ev)

	return true
}

// Events returns a snapshot of recorded events.
func (p *RecordingPublisher[E]) Events() []E {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]E, len(p.events))
	copy(out, p.events)

	return out
}
