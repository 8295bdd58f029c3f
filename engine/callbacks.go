package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentcrew/core"
)

// CallbackType identifies the lifecycle point a callback runs at.
type CallbackType string

const (
	// CallbackBeforeTask runs after agents are resolved, before any dispatch.
	CallbackBeforeTask CallbackType = "before_task"
	// CallbackAfterTask runs once the CollaborationResult is assembled.
	CallbackAfterTask CallbackType = "after_task"
)

// CallbackContext carries the data available to a callback. Result is only
// set for CallbackAfterTask.
type CallbackContext struct {
	InvocationID string
	Task         core.Task
	Agents       []string
	Mode         core.Mode
	Result       *core.CollaborationResult
	CallbackType CallbackType
}

// Callback observes task execution. Errors are logged by the engine and
// never change the task outcome.
type Callback interface {
	Type() CallbackType
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback adapts a plain function to Callback.
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a callback running fn at callbackType.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{callbackType: callbackType, fn: fn}
}

// Type implements Callback.
func (c *FunctionCallback) Type() CallbackType { return c.callbackType }

// Execute implements Callback.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager stores callbacks by type. Registration is safe while tasks run.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{callbacks: make(map[CallbackType][]Callback)}
}

// RegisterCallback appends callback to its type's list.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	t := callback.Type()
	cm.callbacks[t] = append(cm.callbacks[t], callback)
}

// ExecuteCallbacks runs every callback registered for callbackType in
// registration order. All callbacks run; the first error is returned. A
// panicking callback is converted into an error.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	var first error

	for _, cb := range callbacks {
		if err := safeExecute(ctx, cb, callbackCtx); err != nil && first == nil {
			first = err
		}
	}

	return first
}

func safeExecute(ctx context.Context, cb Callback, callbackCtx *CallbackContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback %s panicked: %v", cb.Type(), r)
		}
	}()

	return cb.Execute(ctx, callbackCtx)
}
