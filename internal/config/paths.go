package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves every file system location the pipeline reads or writes.
// All output locations live under the output directory, mirroring the layout
// of the generated analysis tree.
type Paths struct {
	DataDir   string
	OutputDir string
	LogsDir   string
}

// Resolve turns the configured (possibly relative) paths into a Paths value.
func (p PathsConfig) Resolve() *Paths {
	return &Paths{
		DataDir:   p.DataDir,
		OutputDir: p.OutputDir,
		LogsDir:   p.LogsDir,
	}
}

// EnsureDirectories creates every output directory the run needs.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.OutputDir,
		p.QualityDir(),
		p.ExplorationDir(),
		p.HypothesisDir(),
		p.VisualizationDir(),
		p.ScriptsDir(),
		p.ReportDir(),
		p.LogsDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// QualityDir is where stage 1 writes its records.
func (p *Paths) QualityDir() string {
	return filepath.Join(p.OutputDir, "data_quality_report")
}

// ExplorationDir is where stage 2 writes its records.
func (p *Paths) ExplorationDir() string {
	return filepath.Join(p.OutputDir, "exploratory_analysis")
}

// HypothesisDir is where stage 3 writes its records.
func (p *Paths) HypothesisDir() string {
	return filepath.Join(p.OutputDir, "hypothesis_reports")
}

// VisualizationDir is where stage 4 writes chart artifacts.
func (p *Paths) VisualizationDir() string {
	return filepath.Join(p.OutputDir, "visualizations")
}

// ScriptsDir is where stage 5 writes generated validation scripts.
func (p *Paths) ScriptsDir() string {
	return filepath.Join(p.OutputDir, "generated_code")
}

// ReportDir is where stage 6 writes the assembled report.
func (p *Paths) ReportDir() string {
	return filepath.Join(p.OutputDir, "final_reports")
}

// DataPath returns the full path of a named input file.
func (p *Paths) DataPath(filename string) string {
	return filepath.Join(p.DataDir, filename)
}

// ReportPath returns the full path of a named final report file.
func (p *Paths) ReportPath(filename string) string {
	return filepath.Join(p.ReportDir(), filename)
}

// ExecutionLogPath returns the path of the plain-text execution log.
func (p *Paths) ExecutionLogPath() string {
	return filepath.Join(p.LogsDir, "execution.log")
}
