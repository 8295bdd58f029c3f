// Package dispatch invokes a single agent backend inside a failure boundary.
//
// A Dispatcher resolves the agent from an immutable registry, calls its
// backend, and routes the raw output through the normalizer. Any problem on
// the way (unknown id, unbound backend, error, timeout, cancellation, panic,
// empty output) is handed to the fallback policy instead. Exactly one of the
// two paths produces the returned core.CleanResult, and Dispatch never fails.
//
// After every call a telemetry event is published without blocking, so a
// slow or broken activity sink never affects the dispatch result.
//
// Example:
//
//	reg := registry.MustNew(core.NewAgentDescriptor("tutor", "Tutor", backend))
//	d := dispatch.New(reg, func(o *dispatch.Options) {
//	    o.Timeout = 30 * time.Second
//	})
//	res := d.Dispatch(ctx, "tutor", core.NewTask("Explain photosynthesis"), nil)
package dispatch
