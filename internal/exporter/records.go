package exporter

import (
	"strconv"
	"strings"

	"ecomlens/pkg/contracts/domain"
)

// QualityHeaders is the column layout of the quality scores export.
var QualityHeaders = []string{
	"table", "completeness", "accuracy", "consistency", "timeliness", "aggregate", "tier",
}

// QualityRecords flattens quality scores for CSV export.
func QualityRecords(scores []domain.QualityScore) [][]string {
	records := make([][]string, 0, len(scores))
	for _, s := range scores {
		records = append(records, []string{
			s.TableName,
			formatScore(s.Completeness),
			formatScore(s.Accuracy),
			formatScore(s.Consistency),
			formatScore(s.Timeliness),
			formatScore(s.Aggregate),
			string(s.Tier()),
		})
	}
	return records
}

// FindingHeaders is the column layout of the findings export.
var FindingHeaders = []string{
	"id", "kind", "subject", "tables", "columns", "statistic", "sample_size", "description",
}

// FindingRecords flattens findings for CSV export.
func FindingRecords(findings []domain.Finding) [][]string {
	records := make([][]string, 0, len(findings))
	for _, f := range findings {
		records = append(records, []string{
			f.ID,
			string(f.Kind),
			string(f.Subject),
			strings.Join(f.Tables, ";"),
			strings.Join(f.Columns, ";"),
			formatScore(f.Statistic),
			strconv.Itoa(f.SampleSize),
			f.Description,
		})
	}
	return records
}

// HypothesisHeaders is the column layout of the hypotheses export.
var HypothesisHeaders = []string{
	"id", "category", "finding_id", "priority", "statement", "test_method",
}

// HypothesisRecords flattens hypotheses for CSV export.
func HypothesisRecords(hypotheses []domain.Hypothesis) [][]string {
	records := make([][]string, 0, len(hypotheses))
	for _, h := range hypotheses {
		records = append(records, []string{
			h.ID,
			string(h.Category),
			h.FindingID,
			strconv.Itoa(h.Priority),
			h.Statement,
			h.TestMethod,
		})
	}
	return records
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
