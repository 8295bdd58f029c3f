package core

import "context"

type invocationKey struct{}

// WithInvocationID returns a context carrying the id of the task run that a
// dispatch belongs to. Telemetry events and log lines pick it up from there.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationKey{}, id)
}

// InvocationIDFromContext returns the invocation id stored by
// WithInvocationID, or "" when none is present.
func InvocationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(invocationKey{}).(string)

	return id
}
