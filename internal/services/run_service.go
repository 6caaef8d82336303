package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"ecomlens/internal/config"
	"ecomlens/internal/errors"
	"ecomlens/internal/explorer"
	"ecomlens/internal/infrastructure"
	"ecomlens/internal/operations"
	"ecomlens/pkg/contracts/domain"
)

// RunSummary is the externally visible view of one analysis run.
type RunSummary struct {
	ID           string                           `json:"id"`
	Status       operations.OperationStatusValue  `json:"status"`
	Steps        map[string]*operations.StepState `json:"steps"`
	Checkpoints  []operations.CheckpointOutcome   `json:"checkpoints,omitempty"`
	WaitingStage string                           `json:"waiting_stage,omitempty"`
	ReportPath   string                           `json:"report_path,omitempty"`
	Error        string                           `json:"error,omitempty"`
	Duration     time.Duration                    `json:"duration,omitempty"`
}

// RunService owns pipeline execution for the web server. One run at a time;
// checkpoint decisions arrive over HTTP and are forwarded to the blocked
// manager through a channel gate.
type RunService struct {
	mu sync.RWMutex

	manager *operations.Manager
	gate    *operations.ChannelGate
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
	timeout time.Duration

	runs         map[string]*operations.OperationState
	responses    map[string]*operations.OperationResponse
	activeRun    string
	waitingStage string
}

// NewRunService wires the full pipeline behind a service facade. metrics may
// be nil when telemetry is disabled.
func NewRunService(paths *config.Paths, cfg *config.Config, hub operations.Hub, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) (*RunService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := operations.NewRegistry()
	if err := operations.RegisterStages(registry, paths, cfg.Analysis, logger); err != nil {
		return nil, err
	}

	gate := operations.NewChannelGate()
	opts := []operations.ManagerOption{
		operations.WithBroadcaster(operations.NewStatusBroadcaster(hub, logger)),
		operations.WithCheckpointTimeout(cfg.Checkpoint.Timeout),
	}
	if cfg.Checkpoint.Enabled {
		opts = append(opts, operations.WithGate(gate))
	}

	svc := &RunService{
		manager:   operations.NewManager(registry, logger, opts...),
		gate:      gate,
		logger:    logger.With(slog.String("service", "runs")),
		metrics:   metrics,
		timeout:   cfg.Server.RunTimeout,
		runs:      make(map[string]*operations.OperationState),
		responses: make(map[string]*operations.OperationResponse),
	}
	go svc.trackWaitingStages()
	return svc, nil
}

func (s *RunService) trackWaitingStages() {
	for stage := range s.gate.Waiting() {
		s.mu.Lock()
		s.waitingStage = stage
		s.mu.Unlock()
	}
}

// StartRun launches a pipeline run in the background and returns its ID.
func (s *RunService) StartRun(req operations.OperationRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// activeRun is cleared by execute when the run finishes, so a non-empty
	// value always means a run is in flight.
	if s.activeRun != "" {
		return "", errors.ErrRunActive
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if _, exists := s.runs[req.ID]; exists {
		return "", errors.ErrConflict
	}
	s.activeRun = req.ID

	go s.execute(req)
	return req.ID, nil
}

func (s *RunService) execute(req operations.OperationRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if s.metrics != nil {
		s.metrics.ActiveRuns.Add(ctx, 1)
	}

	resp, state, err := s.manager.Execute(ctx, req)

	if s.metrics != nil {
		s.recordRunMetrics(resp, state, time.Since(start))
	}
	if err != nil {
		s.logger.Error("Run finished with error",
			slog.String("run_id", req.ID),
			slog.String("error", err.Error()))
	}

	s.mu.Lock()
	if state != nil {
		s.runs[req.ID] = state
	}
	if resp != nil {
		s.responses[req.ID] = resp
	}
	s.waitingStage = ""
	if s.activeRun == req.ID {
		s.activeRun = ""
	}
	s.mu.Unlock()
}

func (s *RunService) recordRunMetrics(resp *operations.OperationResponse, state *operations.OperationState, elapsed time.Duration) {
	ctx := context.Background()
	s.metrics.ActiveRuns.Add(ctx, -1)

	status := string(operations.OperationStatusFailed)
	if resp != nil {
		status = string(resp.Status)
	}
	s.metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	s.metrics.RunDuration.Record(ctx, elapsed.Seconds())

	if state == nil {
		return
	}
	for _, rec := range state.StageRecords(operations.StageOrder) {
		stageAttr := attribute.String("stage", rec.Stage)
		s.metrics.StagesTotal.Add(ctx, 1, metric.WithAttributes(stageAttr, attribute.String("status", rec.Status)))
		s.metrics.StageDuration.Record(ctx, rec.Duration.Seconds(), metric.WithAttributes(stageAttr))
		if rec.Error != "" {
			s.metrics.StageErrors.Add(ctx, 1, metric.WithAttributes(stageAttr))
		}
	}
	if v, ok := state.GetContext(operations.ContextKeyProfile); ok {
		if profile, ok := v.(*explorer.Profile); ok {
			s.metrics.FindingsTotal.Add(ctx, int64(len(profile.Findings)))
		}
	}
	if v, ok := state.GetContext(operations.ContextKeyHypotheses); ok {
		if hypotheses, ok := v.([]domain.Hypothesis); ok {
			s.metrics.HypothesesTotal.Add(ctx, int64(len(hypotheses)))
		}
	}
	if v, ok := state.GetContext(operations.ContextKeyRenderFailures); ok {
		if skipped, ok := v.(int); ok && skipped > 0 {
			s.metrics.RenderFailures.Add(ctx, int64(skipped))
		}
	}
}

// SubmitDecision answers the checkpoint currently blocking the active run.
func (s *RunService) SubmitDecision(runID string, decision operations.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeRun != runID {
		if _, known := s.runs[runID]; known || runID == "" {
			return errors.ErrNoCheckpoint
		}
		return errors.ErrRunNotFound
	}
	if s.waitingStage == "" {
		return errors.ErrNoCheckpoint
	}

	s.waitingStage = ""
	s.gate.Submit(decision)
	return nil
}

// Status returns the summary of a finished or running run.
func (s *RunService) Status(runID string) (*RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if resp, ok := s.responses[runID]; ok {
		summary := &RunSummary{
			ID:          resp.ID,
			Status:      resp.Status,
			Steps:       resp.Steps,
			Checkpoints: resp.Checkpoints,
			ReportPath:  resp.ReportPath,
			Error:       resp.Error,
			Duration:    resp.Duration,
		}
		return summary, nil
	}
	if s.activeRun == runID {
		return &RunSummary{
			ID:           runID,
			Status:       operations.OperationStatusRunning,
			WaitingStage: s.waitingStage,
		}, nil
	}
	return nil, errors.ErrRunNotFound
}

// List returns summaries of all known runs, most recent state only.
func (s *RunService) List() []*RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*RunSummary, 0, len(s.responses)+1)
	for id, resp := range s.responses {
		out = append(out, &RunSummary{
			ID:         id,
			Status:     resp.Status,
			ReportPath: resp.ReportPath,
			Duration:   resp.Duration,
		})
	}
	if s.activeRun != "" {
		if _, finished := s.responses[s.activeRun]; !finished {
			out = append(out, &RunSummary{
				ID:           s.activeRun,
				Status:       operations.OperationStatusRunning,
				WaitingStage: s.waitingStage,
			})
		}
	}
	return out
}
