// Package quality scores loaded tables on completeness, accuracy,
// consistency and timeliness. Scores are advisory: a low aggregate never
// halts a run, it only raises a warning for the checkpoint decision.
package quality

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"ecomlens/internal/dataset"
	"ecomlens/pkg/contracts/domain"
)

const (
	// keyIssuePenalty is subtracted from consistency per key problem.
	keyIssuePenalty = 5.0
	// maxStalenessPenalty caps how much timeliness can lose to stale data.
	maxStalenessPenalty = 60.0
	// stalenessWindowDays converts stale days into penalty points.
	stalenessWindowDays = 30.0
)

// Assessor computes quality scores for a table collection.
type Assessor struct {
	manifest     dataset.Manifest
	analysisDate time.Time
	logger       *slog.Logger
}

// NewAssessor creates an assessor. analysisDate anchors the timeliness
// score; pass the configured analysis date so runs are reproducible.
func NewAssessor(manifest dataset.Manifest, analysisDate time.Time, logger *slog.Logger) *Assessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{
		manifest:     manifest,
		analysisDate: analysisDate,
		logger:       logger.With(slog.String("component", "quality.assessor")),
	}
}

// Assess scores every table in load order.
func (a *Assessor) Assess(collection *dataset.Collection) []domain.QualityScore {
	scores := make([]domain.QualityScore, 0, collection.Len())
	for _, table := range collection.Tables() {
		score := a.assessTable(table)
		a.logger.Info("table scored",
			slog.String("table", table.Name),
			slog.Float64("aggregate", score.Aggregate),
			slog.String("tier", string(score.Tier())))
		scores = append(scores, score)
	}
	return scores
}

func (a *Assessor) assessTable(t *domain.Table) domain.QualityScore {
	score := domain.QualityScore{TableName: t.Name}

	score.TotalCells = t.TotalCells()
	score.MissingCells = countMissingCells(t)
	score.Completeness = completeness(score.MissingCells, score.TotalCells)

	score.Accuracy = accuracy(t)

	score.DuplicateRows = countDuplicateRows(t)
	score.KeyIssues = a.keyIssues(t)
	score.Consistency = consistency(score.DuplicateRows, t.RowCount, len(score.KeyIssues))

	score.StaleDays = a.staleDays(t)
	score.Timeliness = timeliness(score.StaleDays)

	score.Aggregate = round1((score.Completeness + score.Accuracy + score.Consistency + score.Timeliness) / 4)
	return score
}

// completeness is the share of non-missing cells, scaled to 100.
func completeness(missing, total int) float64 {
	if total == 0 {
		return 100
	}
	return round1((1 - float64(missing)/float64(total)) * 100)
}

func countMissingCells(t *domain.Table) int {
	missing := 0
	for _, row := range t.Rows {
		for i := range t.Columns {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				missing++
			}
		}
	}
	return missing
}

// accuracy is the share of numeric values inside their column's plausible
// range. Tables without numeric columns score 100.
func accuracy(t *domain.Table) float64 {
	checked, plausible := 0, 0
	for _, name := range t.NumericColumns() {
		min, max := plausibleRange(name)
		idx := t.ColumnIndex(name)
		for _, row := range t.Rows {
			if idx >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[idx])
			if v == "" {
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			checked++
			if f >= min && f <= max {
				plausible++
			}
		}
	}
	if checked == 0 {
		return 100
	}
	return round1(float64(plausible) / float64(checked) * 100)
}

// plausibleRange returns the acceptable value range for a numeric column.
// Monetary and count columns must be non-negative; review scores sit on a
// fixed 1..5 scale.
func plausibleRange(column string) (float64, float64) {
	lower := strings.ToLower(column)
	if strings.Contains(lower, "score") {
		return 1, 5
	}
	return 0, math.MaxFloat64
}

// consistency starts at 100 and loses the duplicate-row percentage plus a
// fixed penalty per key issue, floored at zero.
func consistency(duplicates, rows, keyIssueCount int) float64 {
	dupPct := 0.0
	if rows > 0 {
		dupPct = float64(duplicates) / float64(rows) * 100
	}
	score := 100 - dupPct - keyIssuePenalty*float64(keyIssueCount)
	if score < 0 {
		score = 0
	}
	return round1(score)
}

func countDuplicateRows(t *domain.Table) int {
	seen := make(map[string]bool, t.RowCount)
	duplicates := 0
	for _, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			duplicates++
		}
		seen[key] = true
	}
	return duplicates
}

// keyIssues checks the manifest's key columns for duplicate or empty values.
func (a *Assessor) keyIssues(t *domain.Table) []string {
	spec, ok := a.manifest.FileFor(t.Name)
	if !ok {
		return nil
	}
	var issues []string
	for _, key := range spec.KeyColumns {
		idx := t.ColumnIndex(key)
		if idx < 0 {
			issues = append(issues, "key column "+key+" absent")
			continue
		}
		seen := make(map[string]bool, t.RowCount)
		dups, empties := 0, 0
		for _, row := range t.Rows {
			v := ""
			if idx < len(row) {
				v = strings.TrimSpace(row[idx])
			}
			if v == "" {
				empties++
				continue
			}
			if seen[v] {
				dups++
			}
			seen[v] = true
		}
		if dups > 0 {
			issues = append(issues, "key column "+key+" has "+strconv.Itoa(dups)+" duplicate values")
		}
		if empties > 0 {
			issues = append(issues, "key column "+key+" has "+strconv.Itoa(empties)+" empty values")
		}
	}
	return issues
}

// staleDays measures the gap between the analysis date and the newest
// timestamp found in any datetime column. Tables without timestamps are
// treated as current.
func (a *Assessor) staleDays(t *domain.Table) int {
	var newest time.Time
	for _, name := range t.DatetimeColumns() {
		idx := t.ColumnIndex(name)
		for _, row := range t.Rows {
			if idx >= len(row) {
				continue
			}
			if ts, ok := dataset.ParseTime(row[idx]); ok && ts.After(newest) {
				newest = ts
			}
		}
	}
	if newest.IsZero() {
		return 0
	}
	days := int(a.analysisDate.Sub(newest).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// timeliness loses one point per staleness window, capped.
func timeliness(staleDays int) float64 {
	penalty := float64(staleDays) / stalenessWindowDays
	if penalty > maxStalenessPenalty {
		penalty = maxStalenessPenalty
	}
	return round1(100 - penalty)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
