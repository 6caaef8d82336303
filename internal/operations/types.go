package operations

import (
	"time"
)

// Step identifiers
const (
	StageIDQuality    = "quality"
	StageIDExplore    = "explore"
	StageIDHypothesis = "hypothesize"
	StageIDVisualize  = "visualize"
	StageIDCodegen    = "codegen"
	StageIDReport     = "report"
)

// Step names
const (
	StageNameQuality    = "Data Quality Assessment"
	StageNameExplore    = "Exploratory Analysis"
	StageNameHypothesis = "Hypothesis Generation"
	StageNameVisualize  = "Visualization"
	StageNameCodegen    = "Validation Code Generation"
	StageNameReport     = "Report Assembly"
)

// Context keys for operation state
const (
	ContextKeyCollection      = "collection"
	ContextKeyLoadIssues      = "load_issues"
	ContextKeyQualityScores   = "quality_scores"
	ContextKeyQualityAdvisory = "quality_advisory"
	ContextKeyProfile         = "profile"
	ContextKeyHypotheses      = "hypotheses"
	ContextKeyArtifacts       = "artifacts"
	ContextKeyRenderFailures  = "render_failures"
	ContextKeyScripts         = "scripts"
	ContextKeyReportPath      = "report_path"
)

// Config keys supplied by the request
const (
	ConfigKeyDomain               = "domain"
	ConfigKeyFormat               = "format"
	ConfigKeyCorrelationThreshold = "correlation_threshold"
	ConfigKeyIQRMultiplier        = "iqr_multiplier"
	ConfigKeyQualityThreshold     = "quality_threshold"
)

// DefaultStageTimeout bounds one stage execution.
const DefaultStageTimeout = 30 * time.Minute

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest is a request to execute a pipeline run.
type OperationRequest struct {
	ID         string                 `json:"id"`
	Domain     string                 `json:"domain,omitempty"`
	Format     string                 `json:"format,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse is the outcome of a pipeline run.
type OperationResponse struct {
	ID          string                `json:"id"`
	Status      OperationStatusValue  `json:"status"`
	Duration    time.Duration         `json:"duration"`
	Steps       map[string]*StepState `json:"steps"`
	Checkpoints []CheckpointOutcome   `json:"checkpoints,omitempty"`
	ReportPath  string                `json:"report_path,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// ProgressUpdate is a progress event emitted while a step runs.
type ProgressUpdate struct {
	StageID  string                 `json:"stage_id"`
	Progress float64                `json:"progress"`
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
