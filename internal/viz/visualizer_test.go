package viz

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomlens/pkg/contracts/domain"
)

type fakeRenderer struct {
	mu       sync.Mutex
	rendered []ChartGroup
	failOn   string
}

func (r *fakeRenderer) Render(group ChartGroup) (string, error) {
	if group.FileName == r.failOn {
		return "", errors.New("disk full")
	}
	r.mu.Lock()
	r.rendered = append(r.rendered, group)
	r.mu.Unlock()
	return filepath.Join("out", group.FileName), nil
}

func sampleFindings() []domain.Finding {
	return []domain.Finding{
		{ID: "FND_001", Kind: domain.FindingKindCorrelation, Subject: domain.SubjectPriceFreight, Tables: []string{"order_items"}, Statistic: 0.414},
		{ID: "FND_002", Kind: domain.FindingKindCorrelation, Subject: domain.SubjectDimensions, Tables: []string{"products"}, Statistic: 0.8},
		{ID: "FND_003", Kind: domain.FindingKindConcentration, Subject: domain.SubjectCategory, Tables: []string{"products"}, Statistic: 14.2},
		{ID: "FND_004", Kind: domain.FindingKindAggregate, Subject: domain.SubjectDeliveryDays, Tables: []string{"orders"}, Statistic: 12.1},
	}
}

func TestVisualizer_OneArtifactPerKindPlusDashboard(t *testing.T) {
	renderer := &fakeRenderer{}
	artifacts, issues := NewWithRenderer(renderer, nil).Visualize(sampleFindings())

	require.Empty(t, issues)
	// correlation, concentration, aggregate groups + dashboard
	require.Len(t, artifacts, 4)

	assert.Equal(t, domain.ChartTypeScatter, artifacts[0].Chart)
	assert.Equal(t, []string{"FND_001", "FND_002"}, artifacts[0].FindingIDs)
	assert.Equal(t, domain.ChartTypePie, artifacts[1].Chart)
	assert.Equal(t, domain.ChartTypeBar, artifacts[2].Chart)

	dashboard := artifacts[3]
	assert.Equal(t, "Findings Dashboard", dashboard.Title)
	assert.Len(t, dashboard.FindingIDs, 4)
}

func TestVisualizer_RenderFailureSkipsChartOnly(t *testing.T) {
	renderer := &fakeRenderer{failOn: "concentration_findings.xlsx"}
	artifacts, issues := NewWithRenderer(renderer, nil).Visualize(sampleFindings())

	require.Len(t, issues, 1)
	var renderErr *RenderError
	require.ErrorAs(t, issues[0], &renderErr)
	assert.Equal(t, "concentration_findings.xlsx", renderErr.Chart)

	// remaining groups still rendered, dashboard included
	assert.Len(t, artifacts, 3)
	for _, a := range artifacts {
		assert.NotContains(t, a.Path, "concentration")
	}
}

func TestVisualizer_NoFindingsNoArtifacts(t *testing.T) {
	artifacts, issues := NewWithRenderer(&fakeRenderer{}, nil).Visualize(nil)
	assert.Empty(t, artifacts)
	assert.Empty(t, issues)
}

func TestWorkbookRenderer_WritesFile(t *testing.T) {
	renderer := &workbookRenderer{dir: t.TempDir()}
	path, err := renderer.Render(ChartGroup{
		Kind:     domain.FindingKindCorrelation,
		Chart:    domain.ChartTypeScatter,
		Title:    "Correlation Findings",
		FileName: "correlation_findings.xlsx",
		Findings: sampleFindings()[:2],
	})
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestGroups_Deterministic(t *testing.T) {
	v := NewWithRenderer(&fakeRenderer{}, nil)
	assert.Equal(t, v.groups(sampleFindings()), v.groups(sampleFindings()))
}
