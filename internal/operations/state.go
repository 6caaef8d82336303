package operations

import (
	"fmt"
	"sync"
	"time"

	"ecomlens/pkg/contracts/domain"
)

// OperationStatusValue is the overall run status.
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState is the complete state of one pipeline run. Stage outputs
// pass between steps through the Context map; the execution log and
// checkpoint outcomes accumulate here for the final report.
type OperationState struct {
	mu sync.RWMutex

	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`

	Steps map[string]*StepState `json:"steps"`

	// Context passes data between steps.
	Context map[string]interface{} `json:"context"`

	// Config holds the request parameters.
	Config map[string]interface{} `json:"config"`

	// Log is the plain-text execution log carried into the report.
	Log []domain.LogEntry `json:"log"`

	// Checkpoints records every human gate decision of the run.
	Checkpoints []domain.CheckpointRecord `json:"checkpoints"`

	Error error `json:"error,omitempty"`
}

// NewOperationState creates a pending operation state.
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Context:   make(map[string]interface{}),
		Config:    make(map[string]interface{}),
	}
}

// Start marks the run as running.
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the run as completed.
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the run as failed.
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the run as cancelled.
func (p *OperationState) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
}

// GetStatus returns the current run status.
func (p *OperationState) GetStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStage returns the state of one step.
func (p *OperationState) GetStage(stageID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stageID]
}

// SetStage stores the state of one step.
func (p *OperationState) SetStage(stageID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stageID] = state
}

// GetContext reads a value from the run context.
func (p *OperationState) GetContext(key string) (interface{}, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	val, ok := p.Context[key]
	return val, ok
}

// SetContext writes a value to the run context.
func (p *OperationState) SetContext(key string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Context[key] = value
}

// GetConfig reads a request parameter.
func (p *OperationState) GetConfig(key string) (interface{}, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	val, ok := p.Config[key]
	return val, ok
}

// SetConfig writes a request parameter; checkpoint adjustments land here.
func (p *OperationState) SetConfig(key string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Config[key] = value
}

// ConfigFloat reads a numeric request parameter with a fallback.
func (p *OperationState) ConfigFloat(key string, fallback float64) float64 {
	v, ok := p.GetConfig(key)
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f
		}
	}
	return fallback
}

// ConfigString reads a string request parameter with a fallback.
func (p *OperationState) ConfigString(key, fallback string) string {
	v, ok := p.GetConfig(key)
	if !ok {
		return fallback
	}
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// AppendLog records one execution-log entry.
func (p *OperationState) AppendLog(stage, level, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Log = append(p.Log, domain.LogEntry{
		Time:    time.Now(),
		Stage:   stage,
		Level:   level,
		Message: message,
	})
}

// ExecutionLog returns a copy of the accumulated log.
func (p *OperationState) ExecutionLog() []domain.LogEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.LogEntry, len(p.Log))
	copy(out, p.Log)
	return out
}

// RecordCheckpoint appends a checkpoint outcome.
func (p *OperationState) RecordCheckpoint(record domain.CheckpointRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Checkpoints = append(p.Checkpoints, record)
}

// CheckpointRecords returns a copy of the recorded checkpoints.
func (p *OperationState) CheckpointRecords() []domain.CheckpointRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.CheckpointRecord, len(p.Checkpoints))
	copy(out, p.Checkpoints)
	return out
}

// StageRecords summarises every step for the report appendix, in the given
// order.
func (p *OperationState) StageRecords(order []string) []domain.StageRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var records []domain.StageRecord
	for _, id := range order {
		step, ok := p.Steps[id]
		if !ok {
			continue
		}
		record := domain.StageRecord{
			Stage:    id,
			Status:   string(step.GetStatus()),
			Duration: step.Duration(),
		}
		if err := step.GetError(); err != nil {
			record.Error = err.Error()
		}
		records = append(records, record)
	}
	return records
}
