package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*StructuredLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	cfg := DefaultLoggerConfig()
	cfg.Output = &buf
	cfg.Level = level

	return NewLogger(cfg), &buf
}

func TestStructuredLogger_KeyValueArgs(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelDebug)

	logger.WithComponent("dispatcher").WithContext("invocation_id", "inv-1").Info("hello", "agent_id", "tutor")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "dispatcher", entry["component"])
	assert.Equal(t, "inv-1", entry["invocation_id"])
	assert.Equal(t, "tutor", entry["agent_id"])
}

func TestStructuredLogger_LevelFilter(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelWarn)

	logger.Info("dropped")
	logger.Debug("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestStructuredLogger_WithDoesNotMutateParent(t *testing.T) {
	parent, buf := newBufferLogger(LogLevelInfo)
	_ = parent.WithContext("k", "v")

	parent.Info("plain")
	assert.False(t, strings.Contains(buf.String(), `"k"`))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("whatever"))
}

var _ Logger = NoOpLogger{}
var _ Logger = (*StructuredLogger)(nil)
