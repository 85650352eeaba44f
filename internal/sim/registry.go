package sim

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownHandle is returned when a picked handle belongs to no agent.
var ErrUnknownHandle = errors.New("unknown handle")

// Registry maps the render host's primitive handles to agents.
type Registry struct {
	byHandle map[string]*Agent
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byHandle: make(map[string]*Agent)}
}

// MeshHandles lists the handles a renderer uses for a car named name: the
// invisible root plus its body, roof and four wheels.
func MeshHandles(name string) []string {
	return []string{
		name,
		name + "_Body",
		name + "_Roof",
		name + "_Wheel0",
		name + "_Wheel1",
		name + "_Wheel2",
		name + "_Wheel3",
	}
}

// Register binds handles to a. A handle registered twice keeps its last
// owner.
func (r *Registry) Register(a *Agent, handles ...string) {
	for _, h := range handles {
		r.byHandle[h] = a
	}
}

// Lookup returns the agent owning handle.
func (r *Registry) Lookup(handle string) (*Agent, error) {
	a, ok := r.byHandle[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHandle, handle)
	}
	return a, nil
}

// Handles returns every registered handle in sorted order.
func (r *Registry) Handles() []string {
	out := make([]string, 0, len(r.byHandle))
	for h := range r.byHandle {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
