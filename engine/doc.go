// Package engine implements the task-level orchestration layer for AgentCrew.
//
// The Engine turns a core.Task into a core.CollaborationResult:
//
//  1. Resolve target agents. An explicit, ordered agent list is used as
//     given (blank ids are dropped, unknown ids are kept and degrade to the
//     fallback response). Without one, the keyword router picks a single
//     registered agent.
//  2. Pick the collaboration strategy for the task's mode. An invalid mode
//     is logged and treated as sequential.
//  3. Assign an invocation id, attach it to the context and run the
//     strategy over the dispatcher.
//
// # Error Handling
//
// RunTask surfaces exactly one error, core.ErrNoAgentsSpecified, when no
// target agent can be resolved. Backend failures, malformed output and
// unknown agent ids are all recovered inside the dispatcher and show up as
// degraded entries instead.
//
// # Concurrency Model
//
//   - The registry is immutable, so concurrent RunTask calls share it without locking
//   - Each task's context map is private to that call
//   - Concurrent task runs are bounded by Config.MaxConcurrentTasks
//   - Active runs are tracked by invocation id and can be cancelled with Cancel
//
// # Usage
//
//	reg := registry.MustNew(
//	    core.NewAgentDescriptor("tutor", "Tutor", tutorBackend, "explain"),
//	    core.NewAgentDescriptor("exam_generator", "Exam Generator", examBackend, "quiz"),
//	)
//	eng := engine.New(dispatch.New(reg), func(o *engine.Options) {
//	    o.Logger = logger
//	})
//
//	task := core.NewTask("Explain photosynthesis")
//	task.Agents = []string{"tutor", "exam_generator"}
//	task.Mode = core.ModeParallel
//
//	res, err := eng.RunTask(ctx, task)
//	if errors.Is(err, core.ErrNoAgentsSpecified) {
//	    // nothing to run
//	}
//
// Callbacks registered with RegisterCallback observe each run before the
// first dispatch and after the result is assembled.
package engine
