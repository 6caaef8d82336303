// Package codegen emits runnable validation scripts for generated
// hypotheses. Each script is rendered from a fixed text template, so
// identical hypotheses always produce identical scripts.
package codegen

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"ecomlens/pkg/contracts/domain"
)

const scriptTemplate = `#!/usr/bin/env python3
"""Validation script for {{.ID}}: {{.Title}}

Hypothesis: {{.Statement}}
Test method: {{.TestMethod}}
Expected outcome: {{.ExpectedOutcome}}
"""

import pandas as pd
from scipy import stats

DATA_DIR = "{{.DataDir}}"
DATASETS = [{{range $i, $t := .Tables}}{{if $i}}, {{end}}"{{$t}}.csv"{{end}}]

ALPHA = 0.05


def load_data():
    frames = {}
    for name in DATASETS:
        frames[name] = pd.read_csv(f"{DATA_DIR}/{name}")
    return frames


def validate(frames):
    """{{.TestMethod}}"""
    results = {
        "hypothesis_id": "{{.ID}}",
        "category": "{{.Category}}",
        "test_method": "{{.TestMethod}}",
        "alpha": ALPHA,
    }
    for name, df in frames.items():
        results[f"{name}_rows"] = len(df)
        numeric = df.select_dtypes(include="number")
        if numeric.shape[1] >= 2:
            corr = numeric.corr().abs()
            off_diagonal = corr.where(corr < 1.0)
            results[f"{name}_max_abs_corr"] = float(off_diagonal.max().max())
        for column in numeric.columns:
            _, p_value = stats.normaltest(numeric[column].dropna())
            results[f"{name}.{column}_normal_p"] = round(float(p_value), 6)
    return results


if __name__ == "__main__":
    frames = load_data()
    outcome = validate(frames)
    for key, value in outcome.items():
        print(f"{key}: {value}")
`

const runnerTemplate = `#!/usr/bin/env python3
"""Runs every generated validation script in priority order."""

import subprocess
import sys

SCRIPTS = [
{{- range .}}
    "{{.}}",
{{- end}}
]

if __name__ == "__main__":
    failed = []
    for script in SCRIPTS:
        print(f"=== {script} ===")
        result = subprocess.run([sys.executable, script])
        if result.returncode != 0:
            failed.append(script)
    sys.exit(1 if failed else 0)
`

// scriptContext is the data passed to the script template.
type scriptContext struct {
	domain.Hypothesis
	DataDir string
}

// Generator renders validation scripts for hypotheses.
type Generator struct {
	outDir  string
	dataDir string
	logger  *slog.Logger

	script *template.Template
	runner *template.Template
}

// NewGenerator creates a generator writing scripts under outDir. dataDir is
// baked into the scripts so they can locate the CSV files.
func NewGenerator(outDir, dataDir string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		outDir:  outDir,
		dataDir: dataDir,
		logger:  logger.With(slog.String("component", "codegen")),
		script:  template.Must(template.New("script").Parse(scriptTemplate)),
		runner:  template.Must(template.New("runner").Parse(runnerTemplate)),
	}
}

// Generate writes one script per hypothesis plus a runner, returning the
// written paths. A failed script is skipped and reported; the rest still
// render.
func (g *Generator) Generate(hypotheses []domain.Hypothesis) ([]string, []error) {
	if len(hypotheses) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return nil, []error{fmt.Errorf("failed to create script directory: %w", err)}
	}

	var paths []string
	var issues []error
	var names []string
	for _, h := range hypotheses {
		name := ScriptName(h.ID)
		path := filepath.Join(g.outDir, name)
		if err := g.writeScript(path, h); err != nil {
			issues = append(issues, fmt.Errorf("failed to generate %s: %w", name, err))
			continue
		}
		paths = append(paths, path)
		names = append(names, name)
		g.logger.Info("validation script written",
			slog.String("hypothesis", h.ID),
			slog.String("script", name))
	}

	if len(names) > 0 {
		runnerPath := filepath.Join(g.outDir, "run_all_validations.py")
		if err := g.writeRunner(runnerPath, names); err != nil {
			issues = append(issues, fmt.Errorf("failed to generate runner: %w", err))
		} else {
			paths = append(paths, runnerPath)
		}
	}
	return paths, issues
}

func (g *Generator) writeScript(path string, h domain.Hypothesis) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return g.script.Execute(file, scriptContext{Hypothesis: h, DataDir: g.dataDir})
}

func (g *Generator) writeRunner(path string, names []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return g.runner.Execute(file, names)
}

// ScriptName derives the script file name from a hypothesis ID.
func ScriptName(hypothesisID string) string {
	return "validate_" + strings.ToLower(hypothesisID) + ".py"
}
