// Package viz renders chart artifacts from exploration findings: one
// workbook per finding kind plus an aggregate dashboard. A failed render is
// logged and skipped, never fatal to the run.
package viz

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"ecomlens/pkg/contracts/domain"
)

// kindOrder fixes the grouping order so artifact lists are deterministic.
var kindOrder = []domain.FindingKind{
	domain.FindingKindCorrelation,
	domain.FindingKindTrend,
	domain.FindingKindOutlierSet,
	domain.FindingKindConcentration,
	domain.FindingKindAggregate,
	domain.FindingKindDistribution,
}

// chartForKind maps a finding kind to the chart used for its group.
var chartForKind = map[domain.FindingKind]domain.ChartType{
	domain.FindingKindCorrelation:   domain.ChartTypeScatter,
	domain.FindingKindTrend:         domain.ChartTypeLine,
	domain.FindingKindOutlierSet:    domain.ChartTypeBar,
	domain.FindingKindConcentration: domain.ChartTypePie,
	domain.FindingKindAggregate:     domain.ChartTypeBar,
	domain.FindingKindDistribution:  domain.ChartTypeBar,
}

// ChartGroup is one renderable group of findings sharing a kind.
type ChartGroup struct {
	Kind     domain.FindingKind
	Chart    domain.ChartType
	Title    string
	FileName string
	Findings []domain.Finding
}

// Renderer writes one chart group to disk and returns the file path.
type Renderer interface {
	Render(group ChartGroup) (string, error)
}

// RenderError reports a chart that failed to render. The artifact is
// skipped; the error is carried into the execution log.
type RenderError struct {
	Chart string
	Cause error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render chart %s: %v", e.Chart, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Visualizer groups findings and drives the renderer.
type Visualizer struct {
	renderer Renderer
	logger   *slog.Logger
}

// New creates a visualizer writing xlsx workbooks under outDir.
func New(outDir string, logger *slog.Logger) *Visualizer {
	return NewWithRenderer(&workbookRenderer{dir: outDir}, logger)
}

// NewWithRenderer creates a visualizer with a custom renderer.
func NewWithRenderer(renderer Renderer, logger *slog.Logger) *Visualizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Visualizer{
		renderer: renderer,
		logger:   logger.With(slog.String("component", "viz")),
	}
}

// Visualize renders one artifact per finding kind present, plus the
// dashboard. Workbooks render concurrently; render failures are returned as
// RenderError values alongside the artifacts that did succeed, in the fixed
// group order.
func (v *Visualizer) Visualize(findings []domain.Finding) ([]domain.Artifact, []error) {
	groups := v.groups(findings)
	results := make([]domain.Artifact, len(groups))
	failures := make([]error, len(groups))

	var g errgroup.Group
	g.SetLimit(4)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			path, err := v.renderer.Render(group)
			if err != nil {
				failures[i] = &RenderError{Chart: group.FileName, Cause: err}
				v.logger.Warn("chart skipped",
					slog.String("chart", group.FileName),
					slog.String("error", err.Error()))
				return nil
			}
			results[i] = domain.Artifact{
				Path:       path,
				Chart:      group.Chart,
				Title:      group.Title,
				FindingIDs: findingIDs(group.Findings),
			}
			v.logger.Info("chart rendered",
				slog.String("chart", group.FileName),
				slog.Int("findings", len(group.Findings)))
			return nil
		})
	}
	g.Wait()

	var artifacts []domain.Artifact
	var issues []error
	for i := range groups {
		if failures[i] != nil {
			issues = append(issues, failures[i])
			continue
		}
		artifacts = append(artifacts, results[i])
	}
	return artifacts, issues
}

// groups buckets findings by kind in the fixed order and appends the
// dashboard group covering everything.
func (v *Visualizer) groups(findings []domain.Finding) []ChartGroup {
	byKind := make(map[domain.FindingKind][]domain.Finding)
	for _, f := range findings {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}

	var groups []ChartGroup
	for _, kind := range kindOrder {
		members := byKind[kind]
		if len(members) == 0 {
			continue
		}
		groups = append(groups, ChartGroup{
			Kind:     kind,
			Chart:    chartForKind[kind],
			Title:    groupTitle(kind),
			FileName: string(kind) + "_findings.xlsx",
			Findings: members,
		})
	}

	if len(findings) > 0 {
		groups = append(groups, ChartGroup{
			Kind:     "",
			Chart:    domain.ChartTypeBar,
			Title:    "Findings Dashboard",
			FileName: "dashboard.xlsx",
			Findings: findings,
		})
	}
	return groups
}

func groupTitle(kind domain.FindingKind) string {
	switch kind {
	case domain.FindingKindCorrelation:
		return "Correlation Findings"
	case domain.FindingKindTrend:
		return "Trend Findings"
	case domain.FindingKindOutlierSet:
		return "Outlier Findings"
	case domain.FindingKindConcentration:
		return "Concentration Findings"
	case domain.FindingKindAggregate:
		return "Aggregate Findings"
	case domain.FindingKindDistribution:
		return "Distribution Findings"
	default:
		return "Findings"
	}
}

func findingIDs(findings []domain.Finding) []string {
	ids := make([]string, len(findings))
	for i, f := range findings {
		ids[i] = f.ID
	}
	return ids
}

// ArtifactFileName returns the base name of an artifact path for display.
func ArtifactFileName(a domain.Artifact) string {
	return filepath.Base(a.Path)
}
