package quality

import (
	"fmt"

	"ecomlens/pkg/contracts/domain"
)

// BelowThresholdError is the advisory raised when the overall quality
// aggregate falls under the configured threshold. The run proceeds; the
// advisory feeds the first checkpoint and marks the report.
type BelowThresholdError struct {
	Aggregate float64
	Threshold float64
	Tables    []string
}

func (e *BelowThresholdError) Error() string {
	return fmt.Sprintf("data quality %.1f below threshold %.1f", e.Aggregate, e.Threshold)
}

// CheckThreshold averages the per-table aggregates and returns an advisory
// when the overall mean falls below threshold, naming the tables that
// individually miss it. A nil return means quality is acceptable.
func CheckThreshold(scores []domain.QualityScore, threshold float64) *BelowThresholdError {
	if len(scores) == 0 {
		return nil
	}
	sum := 0.0
	var weak []string
	for _, s := range scores {
		sum += s.Aggregate
		if s.Aggregate < threshold {
			weak = append(weak, s.TableName)
		}
	}
	overall := round1(sum / float64(len(scores)))
	if overall >= threshold {
		return nil
	}
	return &BelowThresholdError{Aggregate: overall, Threshold: threshold, Tables: weak}
}
