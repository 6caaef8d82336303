package domain

import (
	"time"
)

// OutputFormat enumerates the supported report output formats.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
	FormatPDF      OutputFormat = "pdf"
	FormatDOCX     OutputFormat = "docx"
)

// ValidFormat reports whether f is one of the enumerated output formats.
func ValidFormat(f OutputFormat) bool {
	switch f {
	case FormatMarkdown, FormatHTML, FormatPDF, FormatDOCX:
		return true
	}
	return false
}

// ChartType identifies the chart rendered for an artifact.
type ChartType string

const (
	ChartTypeBar     ChartType = "bar"
	ChartTypeLine    ChartType = "line"
	ChartTypePie     ChartType = "pie"
	ChartTypeScatter ChartType = "scatter"
)

// Artifact references one rendered chart file.
type Artifact struct {
	Path       string    `json:"path" validate:"required"`
	Chart      ChartType `json:"chart"`
	Title      string    `json:"title"`
	FindingIDs []string  `json:"finding_ids"`
}

// LogEntry is one line of the plain-text execution log carried into the
// final report.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Stage   string    `json:"stage"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// StageRecord summarises one pipeline stage for the report appendix.
type StageRecord struct {
	Stage    string        `json:"stage"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// CheckpointRecord captures the outcome of one human checkpoint.
type CheckpointRecord struct {
	After    string    `json:"after"`
	Decision string    `json:"decision"`
	Decided  time.Time `json:"decided"`
	Pending  bool      `json:"pending"`
}

// ReportDocument aggregates every stage output into the terminal artifact of
// a run. Assembled once at the end; pure aggregation, no new computation.
type ReportDocument struct {
	RunID           string             `json:"run_id" validate:"required"`
	GeneratedAt     time.Time          `json:"generated_at"`
	Domain          string             `json:"domain,omitempty"`
	Format          OutputFormat       `json:"format"`
	QualityScores   []QualityScore     `json:"quality_scores"`
	QualityAdvisory bool               `json:"quality_advisory"`
	Findings        []Finding          `json:"findings"`
	Hypotheses      []Hypothesis       `json:"hypotheses"`
	Artifacts       []Artifact         `json:"artifacts"`
	Scripts         []string           `json:"scripts,omitempty"`
	Recommendations []string           `json:"recommendations"`
	Stages          []StageRecord      `json:"stages"`
	Checkpoints     []CheckpointRecord `json:"checkpoints"`
	ExecutionLog    []LogEntry         `json:"execution_log"`
}
