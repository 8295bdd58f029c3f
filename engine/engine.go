package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agentcrew/collaboration"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/dispatch"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/registry"
	"github.com/hupe1980/agentcrew/router"
)

// Config defines tuning parameters for the Engine's operational behavior.
type Config struct {
	// MaxConcurrentTasks limits how many RunTask calls execute at once.
	// Further calls wait for a slot. Zero means unlimited.
	MaxConcurrentTasks int

	// TaskTimeout bounds a whole RunTask call, across every dispatch it
	// makes. Zero disables the bound.
	TaskTimeout time.Duration

	// AutoRoute selects an agent with the router when a task names none.
	AutoRoute bool
}

// DefaultConfig provides production-ready defaults.
//
// Configuration values:
//   - MaxConcurrentTasks: 10
//   - TaskTimeout: 0 (per-dispatch timeouts are configured on the dispatcher)
//   - AutoRoute: true
var DefaultConfig = Config{
	MaxConcurrentTasks: 10,
	AutoRoute:          true,
}

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// Router picks an agent for tasks without an explicit agent list.
	// Defaults to router.New().
	Router *router.Router

	// Logger defaults to logging.NoOpLogger.
	Logger logging.Logger

	// NewInvocationID generates run ids. Defaults to uuid.NewString.
	NewInvocationID func() string
}

// Engine orchestrates task runs over a Dispatcher. It is safe for
// concurrent use.
type Engine struct {
	dispatcher *dispatch.Dispatcher
	router     *router.Router
	logger     logging.Logger
	config     Config
	newID      func() string
	callbacks  *CallbackManager

	// slots bounds concurrent task runs; nil when unlimited.
	slots chan struct{}

	// Active invocation tracking
	activeInvocations map[string]context.CancelFunc
	invocationsMu     sync.RWMutex
}

// New creates an Engine running tasks through d.
func New(d *dispatch.Dispatcher, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:          DefaultConfig,
		Logger:          logging.NoOpLogger{},
		NewInvocationID: uuid.NewString,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Router == nil {
		opts.Router = router.New()
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.NewInvocationID == nil {
		opts.NewInvocationID = uuid.NewString
	}

	var slots chan struct{}
	if opts.Config.MaxConcurrentTasks > 0 {
		slots = make(chan struct{}, opts.Config.MaxConcurrentTasks)
	}

	return &Engine{
		dispatcher:        d,
		router:            opts.Router,
		logger:            opts.Logger,
		config:            opts.Config,
		newID:             opts.NewInvocationID,
		callbacks:         NewCallbackManager(),
		slots:             slots,
		activeInvocations: make(map[string]context.CancelFunc),
	}
}

// Registry returns the agent registry behind the dispatcher.
func (e *Engine) Registry() *registry.Registry { return e.dispatcher.Registry() }

// Router returns the router used for tasks without explicit agents.
func (e *Engine) Router() *router.Router { return e.router }

// RegisterCallback adds a lifecycle callback.
func (e *Engine) RegisterCallback(cb Callback) { e.callbacks.RegisterCallback(cb) }

// SelectAgent returns the router's choice for text.
func (e *Engine) SelectAgent(text string) string { return e.router.Select(text) }

// ResolveAgents returns the agents a task will run against, in order.
// Explicit ids are trimmed and blanks dropped; unknown ids are kept so they
// degrade visibly. Without explicit ids the router's choice is used when
// it names a registered agent.
func (e *Engine) ResolveAgents(task core.Task) []string {
	agents := make([]string, 0, len(task.Agents))

	for _, id := range task.Agents {
		if id = strings.TrimSpace(id); id != "" {
			agents = append(agents, id)
		}
	}

	if len(agents) > 0 || !e.config.AutoRoute {
		return agents
	}

	selected := e.router.Select(task.Instruction)
	if !e.Registry().Contains(selected) {
		e.logger.Warn("Routed agent is not registered", "agent_id", selected)
		return nil
	}

	return []string{selected}
}

// RunTask executes task and returns the composed result. The only error is
// core.ErrNoAgentsSpecified.
func (e *Engine) RunTask(ctx context.Context, task core.Task) (core.CollaborationResult, error) {
	agents := e.ResolveAgents(task)
	if len(agents) == 0 {
		return core.CollaborationResult{}, core.ErrNoAgentsSpecified
	}

	mode := task.Mode
	if !mode.Valid() {
		e.logger.Warn("Unknown collaboration mode, using sequential", "mode", int(mode))
		mode = core.ModeSequential
	}

	release := e.acquire(ctx)
	defer release()

	invocationID := e.newID()

	runCtx, cancel := e.track(ctx, invocationID)
	defer e.untrack(invocationID, cancel)

	runCtx = core.WithInvocationID(runCtx, invocationID)

	cbCtx := &CallbackContext{
		InvocationID: invocationID,
		Task:         task,
		Agents:       agents,
		Mode:         mode,
		CallbackType: CallbackBeforeTask,
	}
	e.runCallbacks(runCtx, cbCtx)

	e.logger.Debug("Task started", "invocation_id", invocationID, "mode", mode.String(), "agents", agents)

	start := time.Now()

	res, err := collaboration.Run(runCtx, e.dispatcher, mode, agents, task)
	if err != nil {
		// Unreachable: agents is non-empty and mode is valid.
		return core.CollaborationResult{}, err
	}

	res.InvocationID = invocationID

	e.logger.Info("Collaboration completed",
		"invocation_id", invocationID,
		"mode", mode.String(),
		"step_count", len(res.Entries),
		"degraded", countDegraded(res),
		"duration", time.Since(start),
	)

	cbCtx.CallbackType = CallbackAfterTask
	cbCtx.Result = &res
	e.runCallbacks(runCtx, cbCtx)

	return res, nil
}

// DispatchSingle runs task against one agent, bypassing agent resolution
// and modes. It never fails.
func (e *Engine) DispatchSingle(ctx context.Context, agentID string, task core.Task) core.CleanResult {
	if core.InvocationIDFromContext(ctx) == "" {
		ctx = core.WithInvocationID(ctx, e.newID())
	}

	return e.dispatcher.Dispatch(ctx, strings.TrimSpace(agentID), task, nil)
}

// Cancel stops the run with the given invocation id. It reports whether
// such a run was active.
func (e *Engine) Cancel(invocationID string) bool {
	e.invocationsMu.RLock()
	cancel, ok := e.activeInvocations[invocationID]
	e.invocationsMu.RUnlock()

	if ok {
		cancel()
	}

	return ok
}

// ActiveInvocations returns the ids of the runs currently executing.
func (e *Engine) ActiveInvocations() []string {
	e.invocationsMu.RLock()
	defer e.invocationsMu.RUnlock()

	ids := make([]string, 0, len(e.activeInvocations))
	for id := range e.activeInvocations {
		ids = append(ids, id)
	}

	return ids
}

func (e *Engine) track(ctx context.Context, invocationID string) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)

	if e.config.TaskTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.config.TaskTimeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}

	e.invocationsMu.Lock()
	e.activeInvocations[invocationID] = cancel
	e.invocationsMu.Unlock()

	return runCtx, cancel
}

func (e *Engine) untrack(invocationID string, cancel context.CancelFunc) {
	cancel()

	e.invocationsMu.Lock()
	delete(e.activeInvocations, invocationID)
	e.invocationsMu.Unlock()
}

// acquire waits for a run slot. A cancelled caller proceeds without one;
// its dispatches degrade immediately.
func (e *Engine) acquire(ctx context.Context) func() {
	if e.slots == nil {
		return func() {}
	}

	select {
	case e.slots <- struct{}{}:
		return func() { <-e.slots }
	case <-ctx.Done():
		return func() {}
	}
}

func (e *Engine) runCallbacks(ctx context.Context, cbCtx *CallbackContext) {
	if err := e.callbacks.ExecuteCallbacks(ctx, cbCtx.CallbackType, cbCtx); err != nil {
		e.logger.Warn("Callback failed", "type", string(cbCtx.CallbackType), "invocation_id", cbCtx.InvocationID, "error", err.Error())
	}
}

func countDegraded(res core.CollaborationResult) int {
	n := 0

	for _, entry := range res.Entries {
		if entry.Result.Degraded() {
			n++
		}
	}

	return n
}
