package viz

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"ecomlens/pkg/contracts/domain"
)

const dataSheet = "Findings"

// workbookRenderer writes each chart group as an xlsx workbook with the
// finding rows and a native chart over their statistics.
type workbookRenderer struct {
	dir string
}

func (r *workbookRenderer) Render(group ChartGroup) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return "", err
	}

	headers := []string{"ID", "Subject", "Tables", "Statistic", "Sample Size", "Description"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(dataSheet, cell, h); err != nil {
			return "", err
		}
	}

	for row, finding := range group.Findings {
		values := []interface{}{
			finding.ID,
			string(finding.Subject),
			joinTables(finding),
			finding.Statistic,
			finding.SampleSize,
			finding.Description,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(dataSheet, cell, v); err != nil {
				return "", err
			}
		}
	}

	if err := f.AddChart(dataSheet, "H2", &excelize.Chart{
		Type: chartType(group.Chart),
		Series: []excelize.ChartSeries{{
			Name:       group.Title,
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", dataSheet, len(group.Findings)+1),
			Values:     fmt.Sprintf("%s!$D$2:$D$%d", dataSheet, len(group.Findings)+1),
		}},
		Title: []excelize.RichTextRun{{Text: group.Title}},
	}); err != nil {
		return "", err
	}

	path := filepath.Join(r.dir, group.FileName)
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func chartType(chart domain.ChartType) excelize.ChartType {
	switch chart {
	case domain.ChartTypeLine:
		return excelize.Line
	case domain.ChartTypePie:
		return excelize.Pie
	case domain.ChartTypeScatter:
		return excelize.Scatter
	default:
		return excelize.Col
	}
}

func joinTables(f domain.Finding) string {
	out := ""
	for i, t := range f.Tables {
		if i > 0 {
			out += ", "
		}
		out += t
	}
	return out
}
