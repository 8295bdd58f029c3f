package model

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Request captures the model input assembled by a Backend.
type Request struct {
	Instructions string            `json:"instructions"` // System instructions for the model
	Task         string            `json:"task"`         // The raw task text
	Prompt       string            `json:"prompt"`       // Task text plus rendered context
	Context      map[string]string `json:"context,omitempty"`
	Stream       bool              `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a streaming model.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"` // Indicates if this is a partial response
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in‑memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	mu        sync.RWMutex
	responses map[string]string
	fallback  string
	delay     time.Duration
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a task text.
func (m *MockModel) AddResponse(task, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[task] = response
}

// SetDefaultResponse sets the completion used for unknown tasks. Empty means
// "Mock response to: <task>".
func (m *MockModel) SetDefaultResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

// SetDelay makes every generation wait d (or until ctx is done).
func (m *MockModel) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.RLock()
	full, ok := m.responses[req.Task]
	fallback, delay := m.fallback, m.delay
	m.mu.RUnlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if req.Task == "" && req.Prompt == "" {
			errCh <- fmt.Errorf("no prompt provided")
			return
		}

		if delay > 0 {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case <-time.After(delay):
			}
		}

		if !ok {
			full = fallback
			if full == "" {
				full = fmt.Sprintf("Mock response to: %s", req.Task)
			}
		}

		if req.Stream {
			for _, r := range full {
				if !Send(ctx, respCh, Response{Partial: true, Text: string(r)}) {
					errCh <- ctx.Err()
					return
				}
			}
		}

		if !Send(ctx, respCh, Response{Partial: false, Text: full, FinishReason: "stop"}) {
			errCh <- ctx.Err()
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// Send delivers resp on out unless ctx ends first, so producers never block
// on a consumer that has gone away. It reports whether resp was delivered.
func Send(ctx context.Context, out chan<- Response, resp Response) bool {
	select {
	case out <- resp:
		return true
	case <-ctx.Done():
		return false
	}
}
