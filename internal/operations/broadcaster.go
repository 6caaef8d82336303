package operations

import (
	"fmt"
	"log/slog"

	"ecomlens/pkg/contracts/events"
)

// Hub broadcasts run events to connected clients.
type Hub interface {
	BroadcastUpdate(eventType events.MessageType, payload interface{})
}

// StatusBroadcaster pushes step status and progress over a hub. A nil hub
// degrades to logging only, which is what the CLI runs with.
type StatusBroadcaster struct {
	hub    Hub
	logger *slog.Logger
}

// NewStatusBroadcaster creates a broadcaster.
func NewStatusBroadcaster(hub Hub, logger *slog.Logger) *StatusBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusBroadcaster{hub: hub, logger: logger}
}

// StepStatus announces a step status transition.
func (b *StatusBroadcaster) StepStatus(operationID, stageID string, status StepStatus) {
	b.logger.Info("stage status",
		slog.String("operation_id", operationID),
		slog.String("stage", stageID),
		slog.String("status", string(status)))
	if b.hub == nil {
		return
	}
	b.hub.BroadcastUpdate(events.MessageTypeStageStatus, events.StageStatusEvent{
		RunID:  operationID,
		Stage:  stageID,
		Status: string(status),
	})
}

// Progress announces step progress.
func (b *StatusBroadcaster) Progress(operationID string, update ProgressUpdate) {
	if b.hub == nil {
		return
	}
	b.hub.BroadcastUpdate(events.MessageTypeStageProgress, events.StageProgressEvent{
		RunID:    operationID,
		Stage:    update.StageID,
		Progress: update.Progress,
		Message:  update.Message,
	})
}

// CheckpointWaiting announces that a checkpoint is blocked on a decision.
func (b *StatusBroadcaster) CheckpointWaiting(operationID, stageID string) {
	b.logger.Info("checkpoint waiting",
		slog.String("operation_id", operationID),
		slog.String("stage", stageID))
	if b.hub == nil {
		return
	}
	b.hub.BroadcastUpdate(events.MessageTypeCheckpointWaiting, events.CheckpointWaitingEvent{
		RunID: operationID,
		Stage: stageID,
	})
}

// StageError announces a stage failure the run survived.
func (b *StatusBroadcaster) StageError(operationID, stageID, message string) {
	if b.hub == nil {
		return
	}
	b.hub.BroadcastUpdate(events.MessageTypeError, events.ErrorEvent{
		RunID:   operationID,
		Message: fmt.Sprintf("stage %s failed: %s", stageID, message),
	})
}

// Complete announces the end of a run.
func (b *StatusBroadcaster) Complete(operationID string, status OperationStatusValue) {
	b.logger.Info("operation complete",
		slog.String("operation_id", operationID),
		slog.String("status", string(status)))
	if b.hub == nil {
		return
	}
	b.hub.BroadcastUpdate(events.MessageTypeRunComplete, events.RunCompleteEvent{
		RunID:  operationID,
		Status: string(status),
	})
}
