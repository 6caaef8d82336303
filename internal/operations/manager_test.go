package operations_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomlens/internal/operations"
	"ecomlens/internal/operations/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fastRetry() operations.RetryConfig {
	return operations.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestManager_ExecuteRunsStepsInOrder(t *testing.T) {
	registry := operations.NewRegistry()

	var mu sync.Mutex
	var ran []string
	record := func(id string) func(context.Context, *operations.OperationState) error {
		return func(ctx context.Context, state *operations.OperationState) error {
			mu.Lock()
			defer mu.Unlock()
			ran = append(ran, id)
			return nil
		}
	}

	a := testutil.NewMockStep("a", "A", nil)
	a.ExecuteFunc = record("a")
	b := testutil.NewMockStep("b", "B", []string{"a"})
	b.ExecuteFunc = record("b")
	c := testutil.NewMockStep("c", "C", []string{"b"})
	c.ExecuteFunc = record("c")
	require.NoError(t, registry.Register(a))
	require.NoError(t, registry.Register(b))
	require.NoError(t, registry.Register(c))

	manager := operations.NewManager(registry, quietLogger())
	resp, state, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
	assert.Equal(t, []string{"a", "b", "c"}, ran)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, operations.StepStatusCompleted, state.GetStage(id).GetStatus())
	}
}

func TestManager_RequiresOperationID(t *testing.T) {
	manager := operations.NewManager(operations.NewRegistry(), quietLogger())

	_, _, err := manager.Execute(context.Background(), operations.OperationRequest{})
	assert.Equal(t, operations.ErrorTypeValidation, operations.GetErrorType(err))
}

func TestManager_ContinuesAfterStageFailure(t *testing.T) {
	registry := operations.NewRegistry()

	failing := testutil.NewMockStep("explore", "Explore", nil)
	failing.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		return operations.NewValidationError("explore", "no numeric columns")
	}
	after := testutil.NewMockStep("report", "Report", nil)
	require.NoError(t, registry.Register(failing))
	require.NoError(t, registry.Register(after))

	manager := operations.NewManager(registry, quietLogger(), operations.WithRetryConfig(fastRetry()))
	resp, state, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-2"})
	require.NoError(t, err)

	// The failure is recorded but the run finishes with partial output.
	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
	assert.Equal(t, operations.StepStatusFailed, state.GetStage("explore").GetStatus())
	assert.Equal(t, operations.StepStatusCompleted, state.GetStage("report").GetStatus())
	assert.Equal(t, 1, after.Executions())
}

func TestManager_FatalErrorAbortsRun(t *testing.T) {
	registry := operations.NewRegistry()

	fatal := testutil.NewMockStep("quality", "Quality", nil)
	fatal.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		return operations.NewFatalError("quality", errors.New("data directory missing"))
	}
	after := testutil.NewMockStep("report", "Report", nil)
	require.NoError(t, registry.Register(fatal))
	require.NoError(t, registry.Register(after))

	manager := operations.NewManager(registry, quietLogger(), operations.WithRetryConfig(fastRetry()))
	resp, _, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-3"})
	require.Error(t, err)

	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
	assert.Equal(t, 0, after.Executions())
}

func TestManager_RetriesRetryableFailures(t *testing.T) {
	registry := operations.NewRegistry()

	attempts := 0
	flaky := testutil.NewMockStep("visualize", "Visualize", nil)
	flaky.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient render failure")
		}
		return nil
	}
	require.NoError(t, registry.Register(flaky))

	manager := operations.NewManager(registry, quietLogger(), operations.WithRetryConfig(fastRetry()))
	resp, _, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-4"})
	require.NoError(t, err)

	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
	assert.Equal(t, 3, attempts)
}

func TestManager_ValidationFailureDoesNotRetry(t *testing.T) {
	registry := operations.NewRegistry()

	step := testutil.NewMockStep("explore", "Explore", nil)
	step.ValidateErr = operations.NewDependencyError("explore", "no data collection loaded")
	require.NoError(t, registry.Register(step))

	manager := operations.NewManager(registry, quietLogger(), operations.WithRetryConfig(fastRetry()))
	_, state, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-5"})
	require.NoError(t, err)

	assert.Equal(t, 0, step.Executions())
	assert.Equal(t, operations.StepStatusFailed, state.GetStage("explore").GetStatus())
}

func TestManager_CheckpointAcceptRecordsDecision(t *testing.T) {
	registry := operations.NewRegistry()
	require.NoError(t, registry.Register(testutil.NewMockStep(operations.StageIDQuality, "Quality", nil)))

	gate := &testutil.ScriptedGate{}
	manager := operations.NewManager(registry, quietLogger(), operations.WithGate(gate))
	resp, state, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-6"})
	require.NoError(t, err)

	assert.Equal(t, []string{operations.StageIDQuality}, gate.Asked)
	records := state.CheckpointRecords()
	require.Len(t, records, 1)
	assert.Equal(t, operations.StageIDQuality, records[0].After)
	assert.Equal(t, "accept", records[0].Decision)
	assert.False(t, records[0].Pending)

	require.Len(t, resp.Checkpoints, 1)
	assert.True(t, resp.Checkpoints[0].Explicit)
}

func TestManager_CheckpointAdjustRerunsStageWithOverrides(t *testing.T) {
	registry := operations.NewRegistry()

	step := testutil.NewMockStep(operations.StageIDQuality, "Quality", nil)
	require.NoError(t, registry.Register(step))

	gate := &testutil.ScriptedGate{
		Decisions: []operations.Decision{
			{
				Action:   operations.ActionAdjust,
				Params:   map[string]interface{}{operations.ConfigKeyQualityThreshold: "60"},
				Explicit: true,
			},
			{Action: operations.ActionAccept, Explicit: true},
		},
	}
	manager := operations.NewManager(registry, quietLogger(), operations.WithGate(gate))
	_, state, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-7"})
	require.NoError(t, err)

	assert.Equal(t, 2, step.Executions())
	assert.Equal(t, 60.0, state.ConfigFloat(operations.ConfigKeyQualityThreshold, 75))

	records := state.CheckpointRecords()
	require.Len(t, records, 2)
	assert.Equal(t, "adjust", records[0].Decision)
	assert.Equal(t, "accept", records[1].Decision)
}

func TestManager_CheckpointTimeoutResumesPending(t *testing.T) {
	registry := operations.NewRegistry()
	require.NoError(t, registry.Register(testutil.NewMockStep(operations.StageIDQuality, "Quality", nil)))

	manager := operations.NewManager(registry, quietLogger(),
		operations.WithGate(testutil.BlockingGate{}),
		operations.WithCheckpointTimeout(20*time.Millisecond))

	resp, state, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-8"})
	require.NoError(t, err)

	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
	records := state.CheckpointRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "accept", records[0].Decision)
	assert.True(t, records[0].Pending)
}

func TestManager_AutoGateRecordsPendingCheckpoint(t *testing.T) {
	registry := operations.NewRegistry()
	require.NoError(t, registry.Register(testutil.NewMockStep(operations.StageIDQuality, "Quality", nil)))

	manager := operations.NewManager(registry, quietLogger())
	_, state, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-9"})
	require.NoError(t, err)

	records := state.CheckpointRecords()
	require.Len(t, records, 1)
	assert.True(t, records[0].Pending)
}

func TestManager_CancelledContextStopsRun(t *testing.T) {
	registry := operations.NewRegistry()
	require.NoError(t, registry.Register(testutil.NewMockStep("a", "A", nil)))
	require.NoError(t, registry.Register(testutil.NewMockStep("b", "B", nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	manager := operations.NewManager(registry, quietLogger())
	resp, _, err := manager.Execute(ctx, operations.OperationRequest{ID: "run-10"})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(err))
	assert.Equal(t, operations.OperationStatusCancelled, resp.Status)
}

func TestManager_RequestParametersLandInConfig(t *testing.T) {
	registry := operations.NewRegistry()

	var seenFormat string
	step := testutil.NewMockStep("report", "Report", nil)
	step.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		seenFormat = state.ConfigString(operations.ConfigKeyFormat, "markdown")
		return nil
	}
	require.NoError(t, registry.Register(step))

	manager := operations.NewManager(registry, quietLogger())
	_, state, err := manager.Execute(context.Background(), operations.OperationRequest{
		ID:     "run-11",
		Domain: "e-commerce",
		Format: "html",
		Parameters: map[string]interface{}{
			operations.ConfigKeyIQRMultiplier: 3.0,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "html", seenFormat)
	assert.Equal(t, "e-commerce", state.ConfigString(operations.ConfigKeyDomain, ""))
	assert.Equal(t, 3.0, state.ConfigFloat(operations.ConfigKeyIQRMultiplier, 1.5))
}
