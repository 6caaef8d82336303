package operations

import (
	"fmt"
	"sync"
)

// Registry holds the registered steps in registration order.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]Step),
	}
}

// Register adds a step. Re-registering an ID is an error.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	id := step.ID()
	if id == "" {
		return fmt.Errorf("step has empty ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return fmt.Errorf("step %s already registered", id)
	}
	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Get returns the step with the given ID.
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, ok := r.steps[id]
	if !ok {
		return nil, fmt.Errorf("step %s not found", id)
	}
	return step, nil
}

// Has reports whether a step with the given ID is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.steps[id]
	return ok
}

// List returns all steps in registration order.
func (r *Registry) List() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Step, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.steps[id])
	}
	return out
}

// ListIDs returns all step IDs in registration order.
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered steps.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

// ExecutionOrder resolves step dependencies into a run order. Steps whose
// dependencies are satisfied run in registration order; a cycle or a missing
// dependency is an error.
func (r *Registry) ExecutionOrder() ([]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		for _, dep := range r.steps[id].GetDependencies() {
			if _, ok := r.steps[dep]; !ok {
				return nil, fmt.Errorf("step %s depends on unregistered step %s", id, dep)
			}
		}
	}

	done := make(map[string]bool, len(r.order))
	var ordered []Step
	for len(ordered) < len(r.order) {
		progressed := false
		for _, id := range r.order {
			if done[id] {
				continue
			}
			ready := true
			for _, dep := range r.steps[id].GetDependencies() {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				done[id] = true
				ordered = append(ordered, r.steps[id])
				progressed = true
			}
		}
		if !progressed {
			return nil, fmt.Errorf("dependency cycle among registered steps")
		}
	}
	return ordered, nil
}
