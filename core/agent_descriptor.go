package core

import "context"

// Backend is the opaque text-generation capability bound to an agent.
//
// Implementations may be slow and may fail; they must honour ctx cancellation.
// No assumptions are made about the underlying generation technology.
type Backend interface {
	Invoke(ctx context.Context, text string, taskCtx map[string]string) (RawOutput, error)
}

// BackendFunc adapts an ordinary function to the Backend interface.
type BackendFunc func(ctx context.Context, text string, taskCtx map[string]string) (RawOutput, error)

// Invoke calls f(ctx, text, taskCtx).
func (f BackendFunc) Invoke(ctx context.Context, text string, taskCtx map[string]string) (RawOutput, error) {
	return f(ctx, text, taskCtx)
}

// AgentDescriptor identifies a logical agent and its bound backend. Descriptors
// are created once when the registry is built and never mutated afterwards.
type AgentDescriptor struct {
	// ID is the unique registry key.
	ID string `json:"id"`
	// Name is the human-readable display name.
	Name string `json:"name"`
	// Capabilities is the agent's capability tag set.
	Capabilities []string `json:"capabilities,omitempty"`
	// Real reports whether a live backend is bound. Non-real agents always
	// answer through the fallback policy.
	Real bool `json:"is_real"`
	// Backend is the opaque capability handle. It is ignored when Real is false.
	Backend Backend `json:"-"`
}

// NewAgentDescriptor builds a descriptor; Real is derived from backend != nil.
func NewAgentDescriptor(id, name string, backend Backend, capabilities ...string) AgentDescriptor {
	if name == "" {
		name = id
	}

	return AgentDescriptor{
		ID:           id,
		Name:         name,
		Capabilities: append([]string(nil), capabilities...),
		Real:         backend != nil,
		Backend:      backend,
	}
}

// HasCapability reports whether tag is part of the descriptor's capability set.
func (d AgentDescriptor) HasCapability(tag string) bool {
	for _, c := range d.Capabilities {
		if c == tag {
			return true
		}
	}

	return false
}
