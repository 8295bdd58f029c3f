package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSinkConfig describes the Redis list events are pushed to.
type RedisSinkConfig struct {
	Address  string
	Password string
	DB       int
	// Key is the list key. Defaults to "agentcrew:activity".
	Key string
	// MaxLen caps the list length via LTRIM. Zero disables trimming.
	MaxLen int64
	// DialTimeout bounds connection setup.
	DialTimeout time.Duration
}

// RedisSink pushes JSON encoded events onto a capped Redis list for an
// external consumer. Newest events are at the head.
type RedisSink struct {
	client redis.UniversalClient
	key    string
	maxLen int64
}

// NewRedisSink connects to Redis and verifies the connection with PING.
func NewRedisSink(ctx context.Context, cfg RedisSinkConfig) (*RedisSink, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address must not be empty")
	}

	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dial,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisSinkFromClient(client, cfg.Key, cfg.MaxLen), nil
}

// NewRedisSinkFromClient wraps an existing client. The sink takes ownership
// of the client and closes it in Close.
func NewRedisSinkFromClient(client redis.UniversalClient, key string, maxLen int64) *RedisSink {
	if key == "" {
		key = "agentcrew:activity"
	}

	return &RedisSink{client: client, key: key, maxLen: maxLen}
}

// Record implements Sink.
func (s *RedisSink) Record(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode activity event: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, payload)

	if s.maxLen > 0 {
		pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push activity event to redis: %w", err)
	}

	return nil
}

// Close closes the Redis connection.
func (s *RedisSink) Close() error {
	if s == nil || s.client == nil {
		return nil
	}

	return s.client.Close()
}
