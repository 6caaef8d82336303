// Package testutil provides mock steps and gates for operations tests.
package testutil

import (
	"context"
	"sync"

	"ecomlens/internal/operations"
)

// MockStep is a configurable Step for manager and registry tests.
type MockStep struct {
	operations.BaseStage

	mu          sync.Mutex
	ExecuteFunc func(ctx context.Context, state *operations.OperationState) error
	ValidateErr error
	executions  int
}

// NewMockStep creates a mock step that succeeds by default.
func NewMockStep(id, name string, deps []string) *MockStep {
	s := &MockStep{}
	s.BaseStage = operations.NewBaseStage(id, name, deps)
	return s
}

// Execute runs the configured function, counting invocations.
func (s *MockStep) Execute(ctx context.Context, state *operations.OperationState) error {
	s.mu.Lock()
	s.executions++
	fn := s.ExecuteFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, state)
	}
	return nil
}

// Validate returns the configured validation error.
func (s *MockStep) Validate(state *operations.OperationState) error {
	return s.ValidateErr
}

// Executions returns how many times Execute ran.
func (s *MockStep) Executions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executions
}

// ScriptedGate replays a fixed sequence of decisions, then accepts.
type ScriptedGate struct {
	mu        sync.Mutex
	Decisions []operations.Decision
	Asked     []string
}

// Decide pops the next scripted decision.
func (g *ScriptedGate) Decide(ctx context.Context, stage string, state *operations.OperationState) (operations.Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Asked = append(g.Asked, stage)
	if len(g.Decisions) == 0 {
		return operations.Decision{Action: operations.ActionAccept, Explicit: true}, nil
	}
	d := g.Decisions[0]
	g.Decisions = g.Decisions[1:]
	return d, nil
}

// BlockingGate never answers; it forces the checkpoint timeout path.
type BlockingGate struct{}

// Decide blocks until the context expires.
func (BlockingGate) Decide(ctx context.Context, stage string, state *operations.OperationState) (operations.Decision, error) {
	<-ctx.Done()
	return operations.Decision{}, ctx.Err()
}
