// Package registry provides the immutable, process-wide mapping from agent id
// to agent descriptor.
//
// A Registry is built once at startup and injected into the dispatcher and
// engine. It has no mutating methods after New returns, so any number of
// goroutines may read it concurrently without locking.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agentcrew/core"
)

// ErrDuplicateAgent is returned when two descriptors share an id.
var ErrDuplicateAgent = errors.New("duplicate agent id")

// ErrEmptyAgentID is returned for a descriptor without an id.
var ErrEmptyAgentID = errors.New("empty agent id")

// Registry is an immutable set of agent descriptors.
type Registry struct {
	byID  map[string]core.AgentDescriptor
	order []string
}

// New validates and freezes descriptors, preserving their declaration order.
func New(descriptors ...core.AgentDescriptor) (*Registry, error) {
	r := &Registry{
		byID:  make(map[string]core.AgentDescriptor, len(descriptors)),
		order: make([]string, 0, len(descriptors)),
	}

	for _, d := range descriptors {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			return nil, ErrEmptyAgentID
		}

		if _, exists := r.byID[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAgent, id)
		}

		d.ID = id
		if d.Name == "" {
			d.Name = id
		}

		d.Capabilities = append([]string(nil), d.Capabilities...)
		if d.Backend == nil {
			d.Real = false
		}

		r.byID[id] = d
		r.order = append(r.order, id)
	}

	return r, nil
}

// MustNew is New that panics on error. Intended for tests and static wiring.
func MustNew(descriptors ...core.AgentDescriptor) *Registry {
	r, err := New(descriptors...)
	if err != nil {
		panic(err)
	}

	return r
}

// Lookup returns the descriptor registered under id.
func (r *Registry) Lookup(id string) (core.AgentDescriptor, bool) {
	if r == nil {
		return core.AgentDescriptor{}, false
	}

	d, ok := r.byID[id]
	if !ok {
		return core.AgentDescriptor{}, false
	}

	d.Capabilities = append([]string(nil), d.Capabilities...)

	return d, true
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id string) bool {
	if r == nil {
		return false
	}

	_, ok := r.byID[id]

	return ok
}

// IDs returns all agent ids in declaration order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}

	return append([]string(nil), r.order...)
}

// Descriptors returns copies of all descriptors in declaration order.
func (r *Registry) Descriptors() []core.AgentDescriptor {
	if r == nil {
		return nil
	}

	out := make([]core.AgentDescriptor, 0, len(r.order))
	for _, id := range r.order {
		d, _ := r.Lookup(id)
		out = append(out, d)
	}

	return out
}

// WithCapability returns the ids of agents carrying tag, in declaration order.
func (r *Registry) WithCapability(tag string) []string {
	var ids []string

	for _, d := range r.Descriptors() {
		if d.HasCapability(tag) {
			ids = append(ids, d.ID)
		}
	}

	return ids
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.order)
}
