package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAgentsSpecified is returned when a call requiring at least one
	// target agent resolves to none. It is the only error RunTask surfaces.
	ErrNoAgentsSpecified = errors.New("no agents specified")

	// ErrUnknownMode is returned when parsing an unrecognised collaboration mode.
	ErrUnknownMode = errors.New("unknown collaboration mode")
)

// UnknownAgentError reports a requested agent id absent from the registry.
// The dispatcher recovers it through the fallback policy.
type UnknownAgentError struct {
	AgentID string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent %q", e.AgentID)
}

// BackendInvocationError wraps a failure raised by an agent backend
// (network error, timeout, panic or unusable output).
type BackendInvocationError struct {
	AgentID string
	Err     error
}

func (e *BackendInvocationError) Error() string {
	return fmt.Sprintf("backend invocation failed for agent %s: %v", e.AgentID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BackendInvocationError) Unwrap() error { return e.Err }

// MalformedOutputError reports that the normalizer exhausted every extraction
// stage and fell back to stripping and truncating the raw payload.
type MalformedOutputError struct {
	Stage  string
	Length int
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed backend output: fell back to %s (%d chars)", e.Stage, e.Length)
}
