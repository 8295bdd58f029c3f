package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
	err    error
}

func (s *recordingSink) Record(_ context.Context, ev Event) error {
	if s.block != nil {
		<-s.block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)

	return s.err
}

func (s *recordingSink) recorded() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Event(nil), s.events...)
}

func TestEmitter_ForwardsEventsInOrder(t *testing.T) {
	sink := &recordingSink{}
	e := NewEmitter(sink)

	assert.True(t, e.Emit(NewEvent("a", time.Millisecond, true)))
	assert.True(t, e.Emit(NewEvent("b", 2*time.Millisecond, false)))
	require.NoError(t, e.Close())

	events := sink.recorded()
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].AgentID)
	assert.Equal(t, "b", events[1].AgentID)
	assert.Equal(t, int64(2), events[1].DurationMs)
	assert.False(t, events[1].Succeeded)
}

func TestEmitter_DropsWhenFullWithoutBlocking(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	e := NewEmitter(sink, func(o *EmitterOptions) { o.BufferSize = 1 })

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			e.Emit(NewEvent("a", 0, true))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked")
	}

	assert.Positive(t, e.Dropped())

	close(sink.block)
	require.NoError(t, e.Close())
}

func TestEmitter_SinkErrorsAreCountedNotPropagated(t *testing.T) {
	sink := &recordingSink{err: errors.New("sink down")}
	e := NewEmitter(sink)

	assert.True(t, e.Emit(NewEvent("a", 0, true)))
	require.NoError(t, e.Close())

	assert.Equal(t, int64(1), e.Failed())
}

func TestEmitter_SinkPanicIsRecovered(t *testing.T) {
	e := NewEmitter(SinkFunc(func(context.Context, Event) error { panic("boom") }))

	e.Emit(NewEvent("a", 0, true))
	require.NoError(t, e.Close())

	assert.Equal(t, int64(1), e.Failed())
}

func TestEmitter_EmitAfterClose(t *testing.T) {
	e := NewEmitter(&recordingSink{})
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	assert.False(t, e.Emit(NewEvent("a", 0, true)))
	assert.Equal(t, int64(1), e.Dropped())
}

func TestMultiSink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{err: errors.New("b failed")}

	err := MultiSink{a, b}.Record(context.Background(), NewEvent("x", 0, true))

	assert.EqualError(t, err, "b failed")
	assert.Len(t, a.recorded(), 1)
	assert.Len(t, b.recorded(), 1)
}

func TestLogSink_NilLogger(t *testing.T) {
	assert.NoError(t, LogSink{}.Record(context.Background(), NewEvent("x", 0, true)))
}

func TestNewRedisSink_Validation(t *testing.T) {
	_, err := NewRedisSink(context.Background(), RedisSinkConfig{})
	assert.Error(t, err)
}

func TestNewRedisSink_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := NewRedisSink(ctx, RedisSinkConfig{Address: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestRedisSink_RecordFailureIsReturned(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	sink := NewRedisSinkFromClient(client, "", 10)
	defer sink.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	assert.Error(t, sink.Record(ctx, NewEvent("x", 0, true)))
	assert.Equal(t, "agentcrew:activity", sink.key)
}

var (
	_ Publisher = (*Emitter)(nil)
	_ Publisher = NopPublisher{}
	_ Sink      = (*RedisSink)(nil)
	_ Sink      = LogSink{}
)
