package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentcrew/engine"
	"github.com/hupe1980/agentcrew/normalize"
	"github.com/hupe1980/agentcrew/router"
)

// Provider names the kind of backend bound to an agent.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderMock      Provider = "mock"
	// ProviderNone registers the agent without a backend; it always degrades.
	ProviderNone Provider = "none"
)

// SinkKind selects the telemetry sink.
type SinkKind string

const (
	SinkNone  SinkKind = "none"
	SinkLog   SinkKind = "log"
	SinkRedis SinkKind = "redis"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of the YAML document.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Engine     EngineConfig     `yaml:"engine"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Fallback   FallbackConfig   `yaml:"fallback"`
	Router     RouterConfig     `yaml:"router"`
	Agents     []AgentConfig    `yaml:"agents"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// EngineConfig configures task-level limits.
type EngineConfig struct {
	// MaxConcurrentTasks and AutoRoute are pointers so an explicit 0 (no
	// limit) or false survives defaulting.
	MaxConcurrentTasks *int          `yaml:"max_concurrent_tasks"`
	TaskTimeout        time.Duration `yaml:"task_timeout"`
	AutoRoute          *bool         `yaml:"auto_route"`
}

// DispatchConfig configures single-agent dispatch.
type DispatchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// NormalizerConfig tunes the normalizer.
type NormalizerConfig struct {
	MinUsableLength int `yaml:"min_usable_length"`
	// MaxLength is a pointer so an explicit 0 (no truncation) survives
	// defaulting.
	MaxLength *int `yaml:"max_length"`
}

// FallbackConfig tunes the fallback policy.
type FallbackConfig struct {
	Template string `yaml:"template"`
	MaxEcho  int    `yaml:"max_echo"`
	MaxTerms int    `yaml:"max_terms"`
}

// RouterConfig overrides the keyword table.
type RouterConfig struct {
	DefaultAgent string         `yaml:"default_agent"`
	Routes       []router.Route `yaml:"routes"`
}

// AgentConfig describes one registered agent.
type AgentConfig struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Capabilities []string `yaml:"capabilities"`
	Provider     Provider `yaml:"provider"`
	Model        string   `yaml:"model"`
	Instruction  string   `yaml:"instruction"`
	Temperature  *float64 `yaml:"temperature"`
	MaxTokens    int64    `yaml:"max_tokens"`
	// APIKeyEnv names the environment variable holding the API key. Empty
	// lets the provider SDK use its own default variable.
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Stream    bool   `yaml:"stream"`
	// Responses maps task text to canned answers for the mock provider;
	// the "default" key answers everything else.
	Responses map[string]string `yaml:"responses"`
}

// TelemetryConfig selects and tunes the activity sink.
type TelemetryConfig struct {
	Sink       SinkKind      `yaml:"sink"`
	BufferSize int           `yaml:"buffer_size"`
	Timeout    time.Duration `yaml:"timeout"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig configures telemetry.RedisSink.
type RedisConfig struct {
	Address     string        `yaml:"address"`
	Password    string        `yaml:"password"`
	PasswordEnv string        `yaml:"password_env"`
	DB          int           `yaml:"db"`
	Key         string        `yaml:"key"`
	MaxLen      int64         `yaml:"max_len"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// Default returns a configuration with every default applied and no agents.
func Default() Config {
	var c Config
	c.applyDefaults()

	return c
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Engine.MaxConcurrentTasks == nil {
		c.Engine.MaxConcurrentTasks = intPtr(engine.DefaultConfig.MaxConcurrentTasks)
	}

	if c.Engine.AutoRoute == nil {
		on := true
		c.Engine.AutoRoute = &on
	}

	if c.Normalizer.MinUsableLength == 0 {
		c.Normalizer.MinUsableLength = normalize.DefaultMinUsableLength
	}

	if c.Normalizer.MaxLength == nil {
		c.Normalizer.MaxLength = intPtr(normalize.DefaultMaxLength)
	}

	if c.Fallback.MaxEcho == 0 {
		c.Fallback.MaxEcho = 200
	}

	if c.Fallback.MaxTerms == 0 {
		c.Fallback.MaxTerms = 5
	}

	if c.Router.DefaultAgent == "" {
		c.Router.DefaultAgent = router.DefaultAgent
	}

	if len(c.Router.Routes) == 0 {
		c.Router.Routes = router.DefaultRoutes
	}

	for i := range c.Agents {
		a := &c.Agents[i]
		a.ID = strings.TrimSpace(a.ID)

		if a.Name == "" {
			a.Name = a.ID
		}

		if a.Provider == "" {
			a.Provider = ProviderNone
		}
	}

	if c.Telemetry.Sink == "" {
		c.Telemetry.Sink = SinkNone
	}

	if c.Telemetry.BufferSize == 0 {
		c.Telemetry.BufferSize = 256
	}

	if c.Telemetry.Timeout == 0 {
		c.Telemetry.Timeout = 2 * time.Second
	}

	if c.Telemetry.Redis.Address == "" {
		c.Telemetry.Redis.Address = "localhost:6379"
	}
}

// Validate checks cross-field constraints. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want json or text", c.Log.Format))
	}

	if c.Dispatch.Timeout < 0 {
		errs = append(errs, errors.New("dispatch.timeout must not be negative"))
	}

	if c.Engine.TaskTimeout < 0 {
		errs = append(errs, errors.New("engine.task_timeout must not be negative"))
	}

	if c.Engine.ConcurrencyLimit() < 0 {
		errs = append(errs, errors.New("engine.max_concurrent_tasks must not be negative"))
	}

	if c.Normalizer.MinUsableLength < 0 || c.Normalizer.TruncateLength() < 0 {
		errs = append(errs, errors.New("normalizer lengths must not be negative"))
	}

	seen := make(map[string]struct{}, len(c.Agents))

	for i, a := range c.Agents {
		if a.ID == "" {
			errs = append(errs, fmt.Errorf("agents[%d]: id is required", i))
			continue
		}

		if _, dup := seen[a.ID]; dup {
			errs = append(errs, fmt.Errorf("agents[%d]: duplicate id %q", i, a.ID))
		}

		seen[a.ID] = struct{}{}

		switch a.Provider {
		case ProviderOpenAI, ProviderAnthropic, ProviderMock, ProviderNone:
		default:
			errs = append(errs, fmt.Errorf("agents[%d] %s: unknown provider %q", i, a.ID, a.Provider))
		}
	}

	if len(c.Agents) > 0 && c.AutoRouteEnabled() {
		if _, ok := seen[c.Router.DefaultAgent]; !ok {
			errs = append(errs, fmt.Errorf("router.default_agent %q is not a configured agent", c.Router.DefaultAgent))
		}
	}

	switch c.Telemetry.Sink {
	case SinkNone, SinkLog:
	case SinkRedis:
		if c.Telemetry.Redis.Address == "" {
			errs = append(errs, errors.New("telemetry.redis.address is required for the redis sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("telemetry.sink %q: want none, log or redis", c.Telemetry.Sink))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// ConcurrencyLimit returns the effective max_concurrent_tasks; 0 means
// unlimited.
func (e EngineConfig) ConcurrencyLimit() int {
	if e.MaxConcurrentTasks == nil {
		return engine.DefaultConfig.MaxConcurrentTasks
	}

	return *e.MaxConcurrentTasks
}

// TruncateLength returns the effective max_length; 0 disables truncation.
func (n NormalizerConfig) TruncateLength() int {
	if n.MaxLength == nil {
		return normalize.DefaultMaxLength
	}

	return *n.MaxLength
}

func intPtr(v int) *int { return &v }

// AutoRouteEnabled reports the effective engine.auto_route value.
func (c Config) AutoRouteEnabled() bool {
	return c.Engine.AutoRoute == nil || *c.Engine.AutoRoute
}

// APIKey resolves the agent's API key from its environment variable.
func (a AgentConfig) APIKey() string {
	if a.APIKeyEnv == "" {
		return ""
	}

	return os.Getenv(a.APIKeyEnv)
}

// ResolvedPassword returns the Redis password, preferring PasswordEnv.
func (r RedisConfig) ResolvedPassword() string {
	if r.PasswordEnv != "" {
		if v := os.Getenv(r.PasswordEnv); v != "" {
			return v
		}
	}

	return r.Password
}
