// Package logging provides a minimal logging interface and adapters for AgentCrew.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the dispatcher, collaboration strategies and engine use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - StructuredLogger with component and context attributes
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	crew := agentcrew.New(reg, func(o *agentcrew.Options) { o.Logger = logger })
//
// Arguments following the message are slog key/value pairs.
package logging
