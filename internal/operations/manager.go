package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ecomlens/pkg/contracts/domain"
)

// Manager runs the registered steps in dependency order. A failed stage is
// recorded and the run continues; later stages work with whatever the
// earlier ones managed to produce. Only fatal errors and cancellation stop
// the run.
type Manager struct {
	registry          *Registry
	gate              Gate
	broadcaster       *StatusBroadcaster
	logger            *slog.Logger
	retry             RetryConfig
	stageTimeout      time.Duration
	checkpointTimeout time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithGate sets the checkpoint gate.
func WithGate(g Gate) ManagerOption {
	return func(m *Manager) { m.gate = g }
}

// WithBroadcaster sets the status broadcaster.
func WithBroadcaster(b *StatusBroadcaster) ManagerOption {
	return func(m *Manager) { m.broadcaster = b }
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(rc RetryConfig) ManagerOption {
	return func(m *Manager) { m.retry = rc }
}

// WithStageTimeout bounds each stage execution.
func WithStageTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.stageTimeout = d }
}

// WithCheckpointTimeout bounds each checkpoint wait.
func WithCheckpointTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.checkpointTimeout = d }
}

// NewManager creates a manager over a registry.
func NewManager(registry *Registry, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		registry:          registry,
		gate:              AutoGate{},
		logger:            logger,
		retry:             NewRetryConfig(),
		stageTimeout:      DefaultStageTimeout,
		checkpointTimeout: DefaultCheckpointTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.broadcaster == nil {
		m.broadcaster = NewStatusBroadcaster(nil, logger)
	}
	return m
}

// Execute runs the whole pipeline for one request.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, *OperationState, error) {
	if req.ID == "" {
		return nil, nil, NewValidationError("", "operation ID is required")
	}

	state := NewOperationState(req.ID)
	if req.Domain != "" {
		state.SetConfig(ConfigKeyDomain, req.Domain)
	}
	if req.Format != "" {
		state.SetConfig(ConfigKeyFormat, req.Format)
	}
	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}

	steps, err := m.registry.ExecutionOrder()
	if err != nil {
		return nil, nil, NewValidationError("", err.Error())
	}

	state.Start()
	m.logger.InfoContext(ctx, "operation started",
		slog.String("operation_id", req.ID),
		slog.Int("stages", len(steps)))

	var runErr error
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			state.Cancel()
			m.broadcaster.Complete(req.ID, OperationStatusCancelled)
			return m.response(state), state, NewCancellationError(step.ID())
		}

		if err := m.runStageWithCheckpoint(ctx, step, state); err != nil {
			if IsFatal(err) || GetErrorType(err) == ErrorTypeCancellation {
				runErr = err
				break
			}
			state.AppendLog(step.ID(), "error", err.Error())
			m.broadcaster.StageError(req.ID, step.ID(), err.Error())
			m.logger.WarnContext(ctx, "stage failed, continuing",
				slog.String("operation_id", req.ID),
				slog.String("stage", step.ID()),
				slog.String("error", err.Error()))
		}
	}

	switch {
	case runErr != nil && GetErrorType(runErr) == ErrorTypeCancellation:
		state.Cancel()
	case runErr != nil:
		state.Fail(runErr)
	case anyStageFailed(state, steps):
		// Partial result: the run finishes but carries the failures.
		state.Complete()
	default:
		state.Complete()
	}

	m.broadcaster.Complete(req.ID, state.GetStatus())
	return m.response(state), state, runErr
}

// runStageWithCheckpoint executes a stage and then holds its checkpoint, if
// any. An adjust decision merges the overrides into the config and re-runs
// the stage.
func (m *Manager) runStageWithCheckpoint(ctx context.Context, step Step, state *OperationState) error {
	for {
		if err := m.runStage(ctx, step, state); err != nil {
			return err
		}
		if !hasCheckpoint(step.ID()) {
			return nil
		}

		outcome, err := m.holdCheckpoint(ctx, step.ID(), state)
		if err != nil {
			return err
		}
		if outcome.Action == ActionAccept {
			return nil
		}
		state.AppendLog(step.ID(), "info", "checkpoint requested adjustment, re-running stage")
	}
}

// holdCheckpoint waits for a gate decision and records the outcome. An
// expired wait resumes the run with an implicit acceptance, recorded as
// pending so the report shows nobody signed off.
func (m *Manager) holdCheckpoint(ctx context.Context, stageID string, state *OperationState) (CheckpointOutcome, error) {
	m.broadcaster.CheckpointWaiting(state.ID, stageID)
	state.AppendLog(stageID, "info", "checkpoint reached")

	gateCtx, cancel := context.WithTimeout(ctx, m.checkpointTimeout)
	defer cancel()

	decision, err := m.gate.Decide(gateCtx, stageID, state)
	if err != nil {
		if ctx.Err() != nil {
			return CheckpointOutcome{}, NewCancellationError(stageID)
		}
		// Gate timed out or failed. Resume with an implicit acceptance.
		decision = Decision{Action: ActionAccept}
		state.AppendLog(stageID, "warn", fmt.Sprintf("checkpoint unanswered (%v), resuming", err))
	}

	if decision.Action == ActionAdjust {
		for k, v := range decision.Params {
			state.SetConfig(k, v)
		}
	}

	outcome := CheckpointOutcome{
		Stage:    stageID,
		Action:   decision.Action,
		Explicit: decision.Explicit,
		Decided:  time.Now(),
	}
	state.RecordCheckpoint(domain.CheckpointRecord{
		After:    stageID,
		Decision: string(outcome.Action),
		Decided:  outcome.Decided,
		Pending:  !outcome.Explicit,
	})
	state.AppendLog(stageID, "info", fmt.Sprintf("checkpoint decision: %s", outcome.Action))
	return outcome, nil
}

// runStage executes one stage with retry and a per-stage timeout.
func (m *Manager) runStage(ctx context.Context, step Step, state *OperationState) error {
	stepState := NewStepState(step.ID(), step.Name())
	state.SetStage(step.ID(), stepState)

	if err := step.Validate(state); err != nil {
		stepState.Fail(err)
		m.broadcaster.StepStatus(state.ID, step.ID(), StepStatusFailed)
		return WrapError(step.ID(), err)
	}

	stepState.Start()
	m.broadcaster.StepStatus(state.ID, step.ID(), StepStatusActive)
	state.AppendLog(step.ID(), "info", "stage started")

	var lastErr error
	delay := m.retry.InitialDelay
	for attempt := 1; attempt <= m.retry.MaxAttempts; attempt++ {
		stageCtx, cancel := context.WithTimeout(ctx, m.stageTimeout)
		err := step.Execute(stageCtx, state)
		cancel()

		if err == nil {
			stepState.Complete()
			m.broadcaster.StepStatus(state.ID, step.ID(), StepStatusCompleted)
			state.AppendLog(step.ID(), "info", "stage completed")
			return nil
		}

		if ctx.Err() != nil {
			lastErr = NewCancellationError(step.ID())
			break
		}
		lastErr = WrapError(step.ID(), err)
		if !IsRetryable(lastErr) || attempt == m.retry.MaxAttempts {
			break
		}

		m.logger.WarnContext(ctx, "stage attempt failed, retrying",
			slog.String("stage", step.ID()),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			lastErr = NewCancellationError(step.ID())
		case <-time.After(delay):
		}
		if GetErrorType(lastErr) == ErrorTypeCancellation {
			break
		}
		delay = time.Duration(float64(delay) * m.retry.Multiplier)
		if delay > m.retry.MaxDelay {
			delay = m.retry.MaxDelay
		}
	}

	stepState.Fail(lastErr)
	m.broadcaster.StepStatus(state.ID, step.ID(), StepStatusFailed)
	return lastErr
}

func (m *Manager) response(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:          state.ID,
		Status:      state.GetStatus(),
		Steps:       state.Steps,
		Checkpoints: nil,
	}
	if state.EndTime != nil {
		resp.Duration = state.EndTime.Sub(state.StartTime)
	}
	for _, rec := range state.CheckpointRecords() {
		resp.Checkpoints = append(resp.Checkpoints, CheckpointOutcome{
			Stage:    rec.After,
			Action:   DecisionAction(rec.Decision),
			Explicit: !rec.Pending,
			Decided:  rec.Decided,
		})
	}
	if path, ok := state.GetContext(ContextKeyReportPath); ok {
		if s, ok := path.(string); ok {
			resp.ReportPath = s
		}
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}

func anyStageFailed(state *OperationState, steps []Step) bool {
	for _, step := range steps {
		if ss := state.GetStage(step.ID()); ss != nil && ss.GetStatus() == StepStatusFailed {
			return true
		}
	}
	return false
}
