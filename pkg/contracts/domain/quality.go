package domain

// QualityScore holds the four quality sub-scores for one table plus the
// unweighted aggregate. All values are in [0,100]. Scores are derived purely
// from a Table and recomputed each run.
type QualityScore struct {
	TableName    string  `json:"table_name" validate:"required"`
	Completeness float64 `json:"completeness" validate:"min=0,max=100"`
	Accuracy     float64 `json:"accuracy" validate:"min=0,max=100"`
	Consistency  float64 `json:"consistency" validate:"min=0,max=100"`
	Timeliness   float64 `json:"timeliness" validate:"min=0,max=100"`
	Aggregate    float64 `json:"aggregate" validate:"min=0,max=100"`

	// Supporting detail surfaced in the report.
	MissingCells  int      `json:"missing_cells"`
	TotalCells    int      `json:"total_cells"`
	DuplicateRows int      `json:"duplicate_rows"`
	KeyIssues     []string `json:"key_issues,omitempty"`
	StaleDays     int      `json:"stale_days"`
}

// QualityTier buckets an aggregate score the way the quality report groups
// datasets: excellent (>=90), good (75-89), needs improvement (<75).
type QualityTier string

const (
	QualityTierExcellent        QualityTier = "excellent"
	QualityTierGood             QualityTier = "good"
	QualityTierNeedsImprovement QualityTier = "needs_improvement"
)

// Tier returns the quality tier for the aggregate score.
func (q QualityScore) Tier() QualityTier {
	switch {
	case q.Aggregate >= 90:
		return QualityTierExcellent
	case q.Aggregate >= 75:
		return QualityTierGood
	default:
		return QualityTierNeedsImprovement
	}
}
