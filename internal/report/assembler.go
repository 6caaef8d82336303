// Package report assembles every stage output into the final report
// document and renders it as markdown, HTML, PDF or DOCX. Assembly is pure
// aggregation: missing inputs degrade their section to "not available"
// instead of failing the run.
package report

import (
	"log/slog"
	"time"

	"ecomlens/internal/hypothesis"
	"ecomlens/pkg/contracts/domain"
)

// recommendationByCategory is the fixed recommendation template keyed by
// hypothesis category.
var recommendationByCategory = map[domain.HypothesisCategory]string{
	domain.CategoryLogistics:    "Optimize delivery operations in regions with above-average delivery times.",
	domain.CategorySatisfaction: "Monitor review scores continuously and address the drivers of low ratings.",
	domain.CategoryCustomer:     "Focus regional marketing on the most concentrated customer states.",
	domain.CategoryCorrelation:  "Validate correlated metrics before treating them as independent drivers.",
	domain.CategoryPayment:      "Review the installment and payment-method mix to reduce processing cost.",
	domain.CategoryBehavior:     "Invest in retention programs to lift the repeat purchase rate.",
	domain.CategoryFeedback:     "Triage long negative review comments for support follow-up.",
	domain.CategorySeller:       "Recruit sellers outside the dominant hub states to balance the logistics network.",
	domain.CategoryProduct:      "Rebalance catalog and inventory investment across the leading categories.",
	domain.CategoryTemporal:     "Schedule campaigns and staffing around the observed peak purchase windows.",
}

// AssembleInput carries everything the pipeline produced for one run.
type AssembleInput struct {
	RunID           string
	Domain          string
	Format          domain.OutputFormat
	QualityScores   []domain.QualityScore
	QualityAdvisory bool
	Findings        []domain.Finding
	Hypotheses      []domain.Hypothesis
	Artifacts       []domain.Artifact
	Scripts         []string
	Stages          []domain.StageRecord
	Checkpoints     []domain.CheckpointRecord
	ExecutionLog    []domain.LogEntry
}

// Assembler builds the final report document.
type Assembler struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAssembler creates an assembler.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		logger: logger.With(slog.String("component", "report.assembler")),
		now:    time.Now,
	}
}

// Assemble merges stage outputs into the terminal report document.
func (a *Assembler) Assemble(input AssembleInput) *domain.ReportDocument {
	doc := &domain.ReportDocument{
		RunID:           input.RunID,
		GeneratedAt:     a.now(),
		Domain:          input.Domain,
		Format:          input.Format,
		QualityScores:   input.QualityScores,
		QualityAdvisory: input.QualityAdvisory,
		Findings:        input.Findings,
		Hypotheses:      input.Hypotheses,
		Artifacts:       input.Artifacts,
		Scripts:         input.Scripts,
		Recommendations: recommendations(input.Hypotheses),
		Stages:          input.Stages,
		Checkpoints:     input.Checkpoints,
		ExecutionLog:    input.ExecutionLog,
	}

	a.logger.Info("report assembled",
		slog.String("run_id", doc.RunID),
		slog.Int("findings", len(doc.Findings)),
		slog.Int("hypotheses", len(doc.Hypotheses)),
		slog.Bool("quality_advisory", doc.QualityAdvisory))
	return doc
}

// recommendations derives one recommendation per hypothesis category
// present, in priority order.
func recommendations(hypotheses []domain.Hypothesis) []string {
	var recs []string
	seen := make(map[domain.HypothesisCategory]bool)
	for _, h := range hypothesis.Prioritized(hypotheses) {
		if seen[h.Category] {
			continue
		}
		seen[h.Category] = true
		if rec, ok := recommendationByCategory[h.Category]; ok {
			recs = append(recs, rec)
		}
	}
	return recs
}

// OverallQuality averages the per-table aggregate scores; zero when no
// table was scored.
func OverallQuality(scores []domain.QualityScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.Aggregate
	}
	return sum / float64(len(scores))
}
