package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ecomlens/internal/config"
	"ecomlens/internal/explorer"
	"ecomlens/internal/infrastructure"
	"ecomlens/internal/report"
	contracts "ecomlens/pkg/contracts/domain"
)

// qualityRecord mirrors the JSON the quality stage writes.
type qualityRecord struct {
	Scores    []contracts.QualityScore `json:"scores"`
	Advisory  bool                     `json:"advisory"`
	Threshold float64                  `json:"threshold"`
}

// main re-renders the final report from the stage records of the most recent
// run, without re-running the analysis.
func main() {
	domain := flag.String("domain", "e-commerce", "business domain tag carried into the report")
	format := flag.String("format", "markdown", "report format: markdown, html, pdf or docx")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	outputFormat := contracts.OutputFormat(*format)
	if !contracts.ValidFormat(outputFormat) {
		fmt.Fprintf(os.Stderr, "unsupported format %q\n", *format)
		os.Exit(1)
	}

	paths := cfg.Paths.Resolve()
	input := report.AssembleInput{
		RunID:  fmt.Sprintf("report_%s", time.Now().Format("20060102_150405")),
		Domain: *domain,
		Format: outputFormat,
	}

	var quality qualityRecord
	if readRecord(paths.QualityDir(), "quality_scores.json", &quality, logger) {
		input.QualityScores = quality.Scores
		input.QualityAdvisory = quality.Advisory
	}

	var profile explorer.Profile
	if readRecord(paths.ExplorationDir(), "exploration_profile.json", &profile, logger) {
		input.Findings = profile.Findings
	}

	readRecord(paths.HypothesisDir(), "hypotheses.json", &input.Hypotheses, logger)
	readRecord(paths.VisualizationDir(), "artifacts.json", &input.Artifacts, logger)

	doc := report.NewAssembler(logger).Assemble(input)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	path, err := report.Write(ctx, doc, outputFormat, paths.ReportDir())
	if err != nil {
		logger.Error("Report rendering failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Printf("Report: %s\n", path)
}

// readRecord loads one stage record, tolerating its absence.
func readRecord(dir, name string, out interface{}, logger *slog.Logger) bool {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Stage record unavailable, section will be degraded",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn("Stage record unreadable",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return false
	}
	return true
}
