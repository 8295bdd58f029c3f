package agentcrew

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/config"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/testutil"
	"github.com/hupe1980/agentcrew/registry"
	"github.com/hupe1980/agentcrew/telemetry"
)

const crewYAML = `
log:
  level: error
agents:
  - id: tutor
    provider: mock
    responses:
      default: "RunResponse(content='## Photosynthesis\\n- light\\n- water', thinking=None)"
  - id: exam_generator
    provider: mock
    responses:
      Explain photosynthesis: "1. Which pigment absorbs light?"
  - id: offline
`

func TestNewFromConfig_RunTask(t *testing.T) {
	cfg, err := config.Parse([]byte(crewYAML))
	require.NoError(t, err)

	crew, err := NewFromConfig(context.Background(), cfg)
	require.NoError(t, err)

	defer func() { assert.NoError(t, crew.Close()) }()

	assert.Equal(t, []string{"tutor", "exam_generator", "offline"}, crew.Registry().IDs())

	task := core.NewTask("Explain photosynthesis")
	task.Agents = []string{"tutor", "exam_generator", "offline"}
	task.Mode = core.ModeParallel

	res, err := crew.RunTask(context.Background(), task)
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	assert.Equal(t, "## Photosynthesis\n- light\n- water", res.Entries[0].Result.Text)
	assert.Equal(t, "1. Which pigment absorbs light?", res.Entries[1].Result.Text)
	assert.True(t, res.Entries[2].Result.Degraded())

	for _, e := range res.Entries {
		assert.NotContains(t, e.Result.Text, "RunResponse(")
		assert.NotEmpty(t, e.Result.Text)
	}
}

func TestNewFromConfig_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.Sink = "kafka"

	_, err := NewFromConfig(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNew_TelemetryFlushedOnClose(t *testing.T) {
	var (
		mu     sync.Mutex
		events []telemetry.Event
	)

	sink := telemetry.SinkFunc(func(_ context.Context, ev telemetry.Event) error {
		mu.Lock()
		defer mu.Unlock()

		events = append(events, ev)

		return nil
	})

	reg := registry.MustNew(
		testutil.Agent("tutor", testutil.NewFakeBackend("answer")),
		testutil.Agent("broken", testutil.NewFakeBackend("").Fail(testutil.ErrBackendDown)),
	)

	crew := New(reg, func(o *Options) { o.Sink = sink })

	task := core.NewTask("x")
	task.Agents = []string{"tutor", "broken"}

	_, err := crew.RunTask(context.Background(), task)
	require.NoError(t, err)
	require.NoError(t, crew.Close())

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, events, 2)
	assert.True(t, events[0].Succeeded)
	assert.False(t, events[1].Succeeded)
	assert.Equal(t, events[0].InvocationID, events[1].InvocationID)

	dropped, failed := crew.TelemetryStats()
	assert.Zero(t, dropped)
	assert.Zero(t, failed)
}

func TestAgentCrew_SelectAndDispatch(t *testing.T) {
	reg := registry.MustNew(
		testutil.Agent("tutor", testutil.NewFakeBackend("explained")),
		testutil.Agent("summarizer", testutil.NewFakeBackend("summed")),
	)

	crew := New(reg)
	defer crew.Close()

	assert.Equal(t, "summarizer", crew.SelectAgent("summarize the key points"))
	assert.Equal(t, "explained", crew.DispatchSingle(context.Background(), "tutor", core.NewTask("x")).Text)

	_, err := crew.RunTask(context.Background(), core.Task{Agents: []string{""}, Instruction: ""})
	assert.NoError(t, err, "empty agent list routes to the default agent")
}

func TestBuildBackend(t *testing.T) {
	b, err := BuildBackend(config.AgentConfig{ID: "x", Provider: config.ProviderNone})
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = BuildBackend(config.AgentConfig{ID: "x", Provider: config.ProviderMock, Responses: map[string]string{"default": "hi"}})
	require.NoError(t, err)

	raw, err := b.Invoke(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, core.PlainText("hi"), raw)

	_, err = BuildBackend(config.AgentConfig{ID: "x", Provider: "llama"})
	assert.Error(t, err)
}

func TestBuildSink(t *testing.T) {
	s, err := BuildSink(context.Background(), config.TelemetryConfig{Sink: config.SinkNone}, nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = BuildSink(context.Background(), config.TelemetryConfig{Sink: config.SinkLog}, nil)
	require.NoError(t, err)
	assert.IsType(t, telemetry.LogSink{}, s)
}
