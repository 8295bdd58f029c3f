package collaboration

import (
	"context"
	"strings"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/util"
)

const (
	// PlanContextKey holds the coordinator's plan in each worker's context.
	PlanContextKey = "coordinator_plan"
	// CoordinatorContextKey holds the coordinator's agent id.
	CoordinatorContextKey = "coordinator"
)

// PlanPrompt is rendered with the original instruction and worker ids to
// form the coordinator's instruction.
var PlanPrompt = util.MustParseTemplate("plan", `You are coordinating a team of agents.
Produce a short delegation plan for the task below that assigns work to each of these worker agents: {{join ", " .Workers}}.
{{if not .Workers}}No workers are available, so answer the task directly.
{{end}}
Task: {{.Task}}`)

// PlanInstruction renders PlanPrompt for task and workers.
func PlanInstruction(task string, workers []string) string {
	text, err := PlanPrompt.Execute(map[string]any{"Task": task, "Workers": workers})
	if err != nil {
		return "Produce a delegation plan for workers " + strings.Join(workers, ", ") + ".\n\nTask: " + task
	}

	return text
}

// Hierarchical treats agents[0] as coordinator. It dispatches a plan
// request listing the remaining worker ids, then runs the workers
// sequentially with the plan in their context. The first entry has role
// core.RolePlan; worker entries follow in declared order.
func Hierarchical(ctx context.Context, d Dispatcher, agents []string, task core.Task) []core.Entry {
	if len(agents) == 0 {
		return nil
	}

	coordinator, workers := agents[0], agents[1:]
	entries := make([]core.Entry, 0, len(agents))

	plan := d.Dispatch(ctx, coordinator, task.WithInstruction(PlanInstruction(task.Instruction, workers)), nil)
	entries = append(entries, core.Entry{AgentID: coordinator, Role: core.RolePlan, Result: plan})

	shared := map[string]string{
		PlanContextKey:        plan.Text,
		CoordinatorContextKey: coordinator,
	}

	for _, id := range workers {
		res := d.Dispatch(ctx, id, task, copyMap(shared))
		entries = append(entries, core.Entry{AgentID: id, Role: core.RoleWorker, Result: res})
	}

	return entries
}
