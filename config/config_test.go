package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/normalize"
	"github.com/hupe1980/agentcrew/router"
)

const sample = `
log:
  level: debug
  format: json
engine:
  max_concurrent_tasks: 4
  task_timeout: 2m
dispatch:
  timeout: 30s
normalizer:
  min_usable_length: 80
router:
  default_agent: tutor
agents:
  - id: tutor
    name: Tutor
    provider: mock
    capabilities: [explain]
    responses:
      default: "Photosynthesis converts light."
  - id: exam_generator
    provider: openai
    model: gpt-4o-mini
    api_key_env: AGENTCREW_TEST_KEY
  - id: offline
telemetry:
  sink: redis
  redis:
    address: redis:6379
    key: crew:events
    max_len: 500
`

func TestParse_Sample(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Engine.ConcurrencyLimit())
	assert.Equal(t, 2*time.Minute, cfg.Engine.TaskTimeout)
	assert.True(t, cfg.AutoRouteEnabled())
	assert.Equal(t, 30*time.Second, cfg.Dispatch.Timeout)
	assert.Equal(t, 80, cfg.Normalizer.MinUsableLength)
	assert.Equal(t, normalize.DefaultMaxLength, cfg.Normalizer.TruncateLength())
	assert.Equal(t, router.DefaultRoutes, cfg.Router.Routes)

	require.Len(t, cfg.Agents, 3)
	assert.Equal(t, ProviderMock, cfg.Agents[0].Provider)
	assert.Equal(t, "Photosynthesis converts light.", cfg.Agents[0].Responses["default"])
	assert.Equal(t, "exam_generator", cfg.Agents[1].Name)
	assert.Equal(t, ProviderNone, cfg.Agents[2].Provider)

	assert.Equal(t, SinkRedis, cfg.Telemetry.Sink)
	assert.Equal(t, "redis:6379", cfg.Telemetry.Redis.Address)
	assert.Equal(t, int64(500), cfg.Telemetry.Redis.MaxLen)
	assert.Equal(t, 256, cfg.Telemetry.BufferSize)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_AutoRouteFalse(t *testing.T) {
	cfg, err := Parse([]byte("engine:\n  auto_route: false\nagents:\n  - id: a\n"))
	require.NoError(t, err)
	assert.False(t, cfg.AutoRouteEnabled())
}

func TestParse_ExplicitZeroLimits(t *testing.T) {
	cfg, err := Parse([]byte("engine:\n  max_concurrent_tasks: 0\nnormalizer:\n  max_length: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Engine.ConcurrencyLimit())
	assert.Equal(t, 0, cfg.Normalizer.TruncateLength())

	defaults := Default()
	assert.Equal(t, 10, defaults.Engine.ConcurrencyLimit())
	assert.Equal(t, normalize.DefaultMaxLength, defaults.Normalizer.TruncateLength())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "agnets: []\n"},
		{"duplicate id", "router:\n  default_agent: a\nagents:\n  - id: a\n  - id: a\n"},
		{"missing id", "agents:\n  - name: x\n"},
		{"unknown provider", "router:\n  default_agent: a\nagents:\n  - id: a\n    provider: llama\n"},
		{"default agent missing", "agents:\n  - id: a\n"},
		{"bad sink", "telemetry:\n  sink: kafka\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"negative timeout", "dispatch:\n  timeout: -1s\n"},
		{"negative concurrency", "engine:\n  max_concurrent_tasks: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_ValidationErrorsWrapSentinel(t *testing.T) {
	_, err := Parse([]byte("telemetry:\n  sink: kafka\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crew.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Agents, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestAgentConfig_APIKey(t *testing.T) {
	t.Setenv("AGENTCREW_TEST_KEY", "sk-test")

	assert.Equal(t, "sk-test", AgentConfig{APIKeyEnv: "AGENTCREW_TEST_KEY"}.APIKey())
	assert.Equal(t, "", AgentConfig{}.APIKey())
}

func TestRedisConfig_ResolvedPassword(t *testing.T) {
	t.Setenv("AGENTCREW_REDIS_PW", "from-env")

	assert.Equal(t, "from-env", RedisConfig{Password: "inline", PasswordEnv: "AGENTCREW_REDIS_PW"}.ResolvedPassword())
	assert.Equal(t, "inline", RedisConfig{Password: "inline"}.ResolvedPassword())
}
