// Package collaboration composes several agent dispatches into one result.
//
// Three stateless strategies are provided, selected by core.Mode:
//
//   - Sequential folds over the agents in caller order. Each step sees the
//     clean results of every earlier step in its context, keyed by agent id.
//     A degraded step does not stop the fold.
//   - Parallel fans out one dispatch per agent and waits for all of them.
//     Cancelling the context cancels every in-flight backend call.
//   - Hierarchical asks the first agent (the coordinator) for a delegation
//     plan naming the remaining workers, then runs each worker in turn with
//     the plan injected as shared context.
//
// Whatever the mode, entries come back in caller-declared order, never in
// completion order. Strategies only depend on the Dispatcher interface, so
// tests can drive them with a fake dispatcher.
package collaboration
