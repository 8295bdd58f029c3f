package collaboration

import (
	"context"

	"github.com/hupe1980/agentcrew/core"
)

// Sequential dispatches agents one after another. Step i receives the task
// context plus the results of steps 0..i-1 keyed by agent id. When an agent
// id repeats, its later result replaces the earlier one in the accumulated
// context but both entries are returned.
func Sequential(ctx context.Context, d Dispatcher, agents []string, task core.Task) []core.Entry {
	entries := make([]core.Entry, 0, len(agents))
	acc := make(map[string]string, len(agents))

	for _, id := range agents {
		res := d.Dispatch(ctx, id, task, copyMap(acc))
		entries = append(entries, core.Entry{AgentID: id, Role: core.RoleStep, Result: res})
		acc[id] = res.Text
	}

	return entries
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}
