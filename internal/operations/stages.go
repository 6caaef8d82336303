package operations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ecomlens/internal/codegen"
	"ecomlens/internal/config"
	"ecomlens/internal/dataset"
	"ecomlens/internal/explorer"
	"ecomlens/internal/exporter"
	"ecomlens/internal/hypothesis"
	"ecomlens/internal/quality"
	"ecomlens/internal/report"
	"ecomlens/internal/viz"
	"ecomlens/pkg/contracts/domain"
)

// StageOrder lists the six pipeline stages in execution order.
var StageOrder = []string{
	StageIDQuality,
	StageIDExplore,
	StageIDHypothesis,
	StageIDVisualize,
	StageIDCodegen,
	StageIDReport,
}

// RegisterStages populates a registry with the full pipeline.
func RegisterStages(registry *Registry, paths *config.Paths, analysis config.AnalysisConfig, logger *slog.Logger) error {
	steps := []Step{
		NewQualityStage(paths, analysis, logger),
		NewExploreStage(paths, analysis, logger),
		NewHypothesisStage(paths, logger),
		NewVisualizeStage(paths, logger),
		NewCodegenStage(paths, logger),
		NewReportStage(paths, logger),
	}
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return err
		}
	}
	return nil
}

// QualityStage loads the CSV collection and scores every table.
type QualityStage struct {
	BaseStage
	paths    *config.Paths
	analysis config.AnalysisConfig
	logger   *slog.Logger
}

// NewQualityStage creates the first pipeline stage.
func NewQualityStage(paths *config.Paths, analysis config.AnalysisConfig, logger *slog.Logger) *QualityStage {
	return &QualityStage{
		BaseStage: NewBaseStage(StageIDQuality, StageNameQuality, nil),
		paths:     paths,
		analysis:  analysis,
		logger:    logger,
	}
}

// Execute loads the data set, assesses quality and applies the threshold.
func (s *QualityStage) Execute(ctx context.Context, state *OperationState) error {
	manifest := dataset.DefaultManifest()
	loader := dataset.NewLoader(s.paths.DataDir, manifest, s.logger)

	collection, issues, err := loader.Load(ctx)
	if err != nil {
		return NewFatalError(s.ID(), err)
	}
	for _, issue := range issues {
		state.AppendLog(s.ID(), "warn", issue.Error())
	}
	state.SetContext(ContextKeyCollection, collection)
	state.SetContext(ContextKeyLoadIssues, issues)

	assessor := quality.NewAssessor(manifest, s.analysisDate(), s.logger)
	scores := assessor.Assess(collection)
	state.SetContext(ContextKeyQualityScores, scores)

	threshold := state.ConfigFloat(ConfigKeyQualityThreshold, s.analysis.QualityThreshold)
	advisory := quality.CheckThreshold(scores, threshold)
	state.SetContext(ContextKeyQualityAdvisory, advisory != nil)
	if advisory != nil {
		state.AppendLog(s.ID(), "warn", advisory.Error())
		s.logger.WarnContext(ctx, "quality below threshold, run continues with advisory",
			slog.Float64("aggregate", advisory.Aggregate),
			slog.Float64("threshold", advisory.Threshold))
	}

	csvWriter := exporter.NewCSVWriter(s.paths.QualityDir())
	if err := csvWriter.WriteSimpleCSV("quality_scores.csv", exporter.QualityHeaders, exporter.QualityRecords(scores)); err != nil {
		state.AppendLog(s.ID(), "warn", fmt.Sprintf("CSV export failed: %v", err))
	}

	return writeStageRecord(s.paths.QualityDir(), "quality_scores.json", map[string]interface{}{
		"scores":    scores,
		"advisory":  advisory != nil,
		"threshold": threshold,
	})
}

func (s *QualityStage) analysisDate() time.Time {
	if s.analysis.AnalysisDate != "" {
		if t, ok := dataset.ParseTime(s.analysis.AnalysisDate); ok {
			return t
		}
	}
	return time.Now()
}

// ExploreStage profiles every table and emits findings.
type ExploreStage struct {
	BaseStage
	paths    *config.Paths
	analysis config.AnalysisConfig
	logger   *slog.Logger
}

// NewExploreStage creates the exploration stage.
func NewExploreStage(paths *config.Paths, analysis config.AnalysisConfig, logger *slog.Logger) *ExploreStage {
	return &ExploreStage{
		BaseStage: NewBaseStage(StageIDExplore, StageNameExplore, []string{StageIDQuality}),
		paths:     paths,
		analysis:  analysis,
		logger:    logger,
	}
}

// Validate requires a loaded collection.
func (s *ExploreStage) Validate(state *OperationState) error {
	if _, ok := contextCollection(state); !ok {
		return NewDependencyError(s.ID(), "no data collection loaded")
	}
	return nil
}

// Execute runs the exploratory analysis.
func (s *ExploreStage) Execute(ctx context.Context, state *OperationState) error {
	collection, _ := contextCollection(state)

	exp := explorer.New(explorer.Config{
		CorrelationThreshold: state.ConfigFloat(ConfigKeyCorrelationThreshold, s.analysis.CorrelationThreshold),
		IQRMultiplier:        state.ConfigFloat(ConfigKeyIQRMultiplier, s.analysis.IQRMultiplier),
	}, s.logger)

	profile, err := exp.Explore(ctx, collection)
	if err != nil {
		return err
	}
	state.SetContext(ContextKeyProfile, profile)
	state.AppendLog(s.ID(), "info", fmt.Sprintf("%d findings across %d tables", len(profile.Findings), collection.Len()))

	csvWriter := exporter.NewCSVWriter(s.paths.ExplorationDir())
	if err := csvWriter.WriteSimpleCSV("findings.csv", exporter.FindingHeaders, exporter.FindingRecords(profile.Findings)); err != nil {
		state.AppendLog(s.ID(), "warn", fmt.Sprintf("CSV export failed: %v", err))
	}

	return writeStageRecord(s.paths.ExplorationDir(), "exploration_profile.json", profile)
}

// HypothesisStage turns findings into testable hypotheses.
type HypothesisStage struct {
	BaseStage
	paths  *config.Paths
	logger *slog.Logger
}

// NewHypothesisStage creates the hypothesis stage.
func NewHypothesisStage(paths *config.Paths, logger *slog.Logger) *HypothesisStage {
	return &HypothesisStage{
		BaseStage: NewBaseStage(StageIDHypothesis, StageNameHypothesis, []string{StageIDExplore}),
		paths:     paths,
		logger:    logger,
	}
}

// Validate requires an exploration profile.
func (s *HypothesisStage) Validate(state *OperationState) error {
	if _, ok := contextProfile(state); !ok {
		return NewDependencyError(s.ID(), "no exploration profile available")
	}
	return nil
}

// Execute generates hypotheses from the profile findings.
func (s *HypothesisStage) Execute(ctx context.Context, state *OperationState) error {
	profile, _ := contextProfile(state)

	gen := hypothesis.NewGenerator(s.logger)
	hypotheses := gen.Generate(profile.Findings)
	state.SetContext(ContextKeyHypotheses, hypotheses)
	state.AppendLog(s.ID(), "info", fmt.Sprintf("%d hypotheses generated", len(hypotheses)))

	csvWriter := exporter.NewCSVWriter(s.paths.HypothesisDir())
	if err := csvWriter.WriteSimpleCSV("hypotheses.csv", exporter.HypothesisHeaders, exporter.HypothesisRecords(hypotheses)); err != nil {
		state.AppendLog(s.ID(), "warn", fmt.Sprintf("CSV export failed: %v", err))
	}

	return writeStageRecord(s.paths.HypothesisDir(), "hypotheses.json", hypotheses)
}

// VisualizeStage renders chart workbooks for the findings.
type VisualizeStage struct {
	BaseStage
	paths  *config.Paths
	logger *slog.Logger
}

// NewVisualizeStage creates the visualization stage.
func NewVisualizeStage(paths *config.Paths, logger *slog.Logger) *VisualizeStage {
	return &VisualizeStage{
		BaseStage: NewBaseStage(StageIDVisualize, StageNameVisualize, []string{StageIDHypothesis}),
		paths:     paths,
		logger:    logger,
	}
}

// Validate requires an exploration profile.
func (s *VisualizeStage) Validate(state *OperationState) error {
	if _, ok := contextProfile(state); !ok {
		return NewDependencyError(s.ID(), "no exploration profile available")
	}
	return nil
}

// Execute renders one workbook per finding group plus the dashboard. A chart
// that fails to render is dropped, not fatal.
func (s *VisualizeStage) Execute(ctx context.Context, state *OperationState) error {
	profile, _ := contextProfile(state)

	visualizer := viz.New(s.paths.VisualizationDir(), s.logger)
	artifacts, errs := visualizer.Visualize(profile.Findings)
	for _, err := range errs {
		state.AppendLog(s.ID(), "warn", err.Error())
	}
	state.SetContext(ContextKeyArtifacts, artifacts)
	state.SetContext(ContextKeyRenderFailures, len(errs))
	state.AppendLog(s.ID(), "info", fmt.Sprintf("%d chart artifacts rendered", len(artifacts)))

	return writeStageRecord(s.paths.VisualizationDir(), "artifacts.json", artifacts)
}

// CodegenStage emits Python validation scripts for the hypotheses.
type CodegenStage struct {
	BaseStage
	paths  *config.Paths
	logger *slog.Logger
}

// NewCodegenStage creates the code generation stage.
func NewCodegenStage(paths *config.Paths, logger *slog.Logger) *CodegenStage {
	return &CodegenStage{
		BaseStage: NewBaseStage(StageIDCodegen, StageNameCodegen, []string{StageIDHypothesis}),
		paths:     paths,
		logger:    logger,
	}
}

// Validate requires hypotheses.
func (s *CodegenStage) Validate(state *OperationState) error {
	if _, ok := contextHypotheses(state); !ok {
		return NewDependencyError(s.ID(), "no hypotheses available")
	}
	return nil
}

// Execute writes one validation script per hypothesis plus the runner.
func (s *CodegenStage) Execute(ctx context.Context, state *OperationState) error {
	hypotheses, _ := contextHypotheses(state)

	gen := codegen.NewGenerator(s.paths.ScriptsDir(), s.paths.DataDir, s.logger)
	scripts, errs := gen.Generate(hypotheses)
	for _, err := range errs {
		state.AppendLog(s.ID(), "warn", err.Error())
	}
	state.SetContext(ContextKeyScripts, scripts)
	state.AppendLog(s.ID(), "info", fmt.Sprintf("%d validation scripts written", len(scripts)))
	return nil
}

// ReportStage assembles everything into the final report.
type ReportStage struct {
	BaseStage
	paths  *config.Paths
	logger *slog.Logger
}

// NewReportStage creates the terminal stage.
func NewReportStage(paths *config.Paths, logger *slog.Logger) *ReportStage {
	return &ReportStage{
		BaseStage: NewBaseStage(StageIDReport, StageNameReport, []string{StageIDVisualize, StageIDCodegen}),
		paths:     paths,
		logger:    logger,
	}
}

// Execute assembles and writes the report in the requested format. The stage
// has no Validate override: it renders whatever partial output exists, with
// degraded sections for whatever is missing.
func (s *ReportStage) Execute(ctx context.Context, state *OperationState) error {
	input := report.AssembleInput{
		RunID:           state.ID,
		Domain:          state.ConfigString(ConfigKeyDomain, "e-commerce"),
		Format:          domain.OutputFormat(state.ConfigString(ConfigKeyFormat, string(domain.FormatMarkdown))),
		QualityAdvisory: contextBool(state, ContextKeyQualityAdvisory),
		Stages:          state.StageRecords(StageOrder),
		Checkpoints:     state.CheckpointRecords(),
		ExecutionLog:    state.ExecutionLog(),
	}
	if scores, ok := contextQualityScores(state); ok {
		input.QualityScores = scores
	}
	if profile, ok := contextProfile(state); ok {
		input.Findings = profile.Findings
	}
	if hypotheses, ok := contextHypotheses(state); ok {
		input.Hypotheses = hypotheses
	}
	if artifacts, ok := contextArtifacts(state); ok {
		input.Artifacts = artifacts
	}
	if scripts, ok := contextScripts(state); ok {
		input.Scripts = scripts
	}

	doc := report.NewAssembler(s.logger).Assemble(input)
	path, err := report.Write(ctx, doc, input.Format, s.paths.ReportDir())
	if err != nil {
		return err
	}
	state.SetContext(ContextKeyReportPath, path)

	logPath := filepath.Join(s.paths.LogsDir, fmt.Sprintf("run_%s.log", state.ID))
	if err := report.WriteExecutionLog(doc, logPath); err != nil {
		state.AppendLog(s.ID(), "warn", fmt.Sprintf("execution log not written: %v", err))
	}
	state.AppendLog(s.ID(), "info", fmt.Sprintf("report written to %s", path))
	return nil
}

// Context accessors shared by the stages.

func contextCollection(state *OperationState) (*dataset.Collection, bool) {
	v, ok := state.GetContext(ContextKeyCollection)
	if !ok {
		return nil, false
	}
	c, ok := v.(*dataset.Collection)
	return c, ok
}

func contextProfile(state *OperationState) (*explorer.Profile, bool) {
	v, ok := state.GetContext(ContextKeyProfile)
	if !ok {
		return nil, false
	}
	p, ok := v.(*explorer.Profile)
	return p, ok
}

func contextQualityScores(state *OperationState) ([]domain.QualityScore, bool) {
	v, ok := state.GetContext(ContextKeyQualityScores)
	if !ok {
		return nil, false
	}
	s, ok := v.([]domain.QualityScore)
	return s, ok
}

func contextHypotheses(state *OperationState) ([]domain.Hypothesis, bool) {
	v, ok := state.GetContext(ContextKeyHypotheses)
	if !ok {
		return nil, false
	}
	h, ok := v.([]domain.Hypothesis)
	return h, ok
}

func contextArtifacts(state *OperationState) ([]domain.Artifact, bool) {
	v, ok := state.GetContext(ContextKeyArtifacts)
	if !ok {
		return nil, false
	}
	a, ok := v.([]domain.Artifact)
	return a, ok
}

func contextScripts(state *OperationState) ([]string, bool) {
	v, ok := state.GetContext(ContextKeyScripts)
	if !ok {
		return nil, false
	}
	s, ok := v.([]string)
	return s, ok
}

func contextBool(state *OperationState, key string) bool {
	v, ok := state.GetContext(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// writeStageRecord persists a stage output record as pretty JSON.
func writeStageRecord(dir, name string, payload interface{}) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
