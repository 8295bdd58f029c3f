package collaboration

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentcrew/core"
)

// Dispatcher is the single-agent call the strategies compose.
// *dispatch.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, agentID string, task core.Task, extra map[string]string) core.CleanResult
}

// Strategy runs task across agents and returns one entry per dispatch in
// caller-declared order. Strategies never fail; degraded steps carry
// fallback results.
type Strategy func(ctx context.Context, d Dispatcher, agents []string, task core.Task) []core.Entry

// StrategyFor returns the strategy implementing mode.
func StrategyFor(mode core.Mode) (Strategy, error) {
	switch mode {
	case core.ModeSequential:
		return Sequential, nil
	case core.ModeParallel:
		return Parallel, nil
	case core.ModeHierarchical:
		return Hierarchical, nil
	default:
		return nil, fmt.Errorf("%w: %d", core.ErrUnknownMode, int(mode))
	}
}

// Run resolves the strategy for mode and wraps its entries into a
// CollaborationResult. It returns core.ErrNoAgentsSpecified when agents is
// empty.
func Run(ctx context.Context, d Dispatcher, mode core.Mode, agents []string, task core.Task) (core.CollaborationResult, error) {
	if len(agents) == 0 {
		return core.CollaborationResult{}, core.ErrNoAgentsSpecified
	}

	strategy, err := StrategyFor(mode)
	if err != nil {
		return core.CollaborationResult{}, err
	}

	return core.CollaborationResult{
		InvocationID: core.InvocationIDFromContext(ctx),
		Mode:         mode,
		Entries:      strategy(ctx, d, agents, task),
	}, nil
}
