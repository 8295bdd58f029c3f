package collaboration

import (
	"context"
	"sync"

	"github.com/hupe1980/agentcrew/core"
)

// Parallel dispatches every agent concurrently and waits for all of them.
// Each goroutine writes into its own slot, so the result order is the
// declared order regardless of which backend answers first. The fan-out is
// bounded by len(agents).
func Parallel(ctx context.Context, d Dispatcher, agents []string, task core.Task) []core.Entry {
	entries := make([]core.Entry, len(agents))

	var wg sync.WaitGroup

	for i, id := range agents {
		wg.Add(1)

		go func(i int, id string) {
			defer wg.Done()

			entries[i] = core.Entry{
				AgentID: id,
				Role:    core.RoleStep,
				Result:  d.Dispatch(ctx, id, task, nil),
			}
		}(i, id)
	}

	wg.Wait()

	return entries
}
