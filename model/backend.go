package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/agentcrew/core"
)

// ErrNoOutput is returned when a model finishes without producing text.
var ErrNoOutput = errors.New("model produced no output")

// Backend adapts a Model to the core.Backend capability.
type Backend struct {
	model       Model
	instruction string
	stream      bool
}

// BackendOptions configures a Backend.
type BackendOptions struct {
	// Instruction is sent as the system prompt on every call.
	Instruction string
	// Stream requests streaming generation; chunks are concatenated.
	Stream bool
}

// NewBackend wraps m.
func NewBackend(m Model, optFns ...func(o *BackendOptions)) *Backend {
	opts := BackendOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Backend{model: m, instruction: opts.Instruction, stream: opts.Stream}
}

// Model returns the wrapped model.
func (b *Backend) Model() Model { return b.model }

// Invoke implements core.Backend. The model's text is returned as
// core.PlainText; wrapper and JSON shapes are left to the normalizer.
func (b *Backend) Invoke(ctx context.Context, text string, taskCtx map[string]string) (core.RawOutput, error) {
	req := Request{
		Instructions: b.instruction,
		Task:         text,
		Prompt:       BuildPrompt(text, taskCtx),
		Context:      taskCtx,
		Stream:       b.stream,
	}

	respCh, errCh := b.model.Generate(ctx, req)

	var (
		final   string
		gotDone bool
		partial strings.Builder
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}

			if resp.Partial {
				partial.WriteString(resp.Text)
				continue
			}

			final, gotDone = resp.Text, true
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}

			if err != nil {
				return nil, fmt.Errorf("%s generate: %w", b.model.Info().Provider, err)
			}
		}
	}

	if !gotDone {
		final = partial.String()
	}

	if strings.TrimSpace(final) == "" {
		return nil, ErrNoOutput
	}

	return core.PlainText(final), nil
}

// BuildPrompt appends the task context, sorted by key, to the task text.
func BuildPrompt(text string, taskCtx map[string]string) string {
	if len(taskCtx) == 0 {
		return text
	}

	keys := make([]string, 0, len(taskCtx))
	for k := range taskCtx {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var b strings.Builder

	b.WriteString(text)
	b.WriteString("\n\nContext:")

	for _, k := range keys {
		b.WriteString("\n\n[")
		b.WriteString(k)
		b.WriteString("]\n")
		b.WriteString(taskCtx[k])
	}

	return b.String()
}
