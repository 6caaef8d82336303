package report

import (
	"fmt"
	"strings"

	"ecomlens/internal/hypothesis"
	"ecomlens/pkg/contracts/domain"
)

const notAvailable = "_Not available for this run._"

// RenderMarkdown renders the report document as a markdown byte slice.
func RenderMarkdown(doc *domain.ReportDocument) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# E-commerce Analysis Report\n\n")
	fmt.Fprintf(&b, "Run: %s  \n", doc.RunID)
	fmt.Fprintf(&b, "Generated: %s  \n", doc.GeneratedAt.Format("2006-01-02 15:04:05"))
	if doc.Domain != "" {
		fmt.Fprintf(&b, "Domain: %s  \n", doc.Domain)
	}
	b.WriteString("\n")

	b.WriteString("## Executive Summary\n\n")
	if len(doc.QualityScores) > 0 {
		fmt.Fprintf(&b, "Overall data quality score: **%.1f/100**\n\n", OverallQuality(doc.QualityScores))
	}
	if doc.QualityAdvisory {
		b.WriteString("> **Quality advisory**: the aggregate data quality fell below the configured threshold. ")
		b.WriteString("Results should be interpreted with caution; the first checkpoint decision is recorded below.\n\n")
	}
	fmt.Fprintf(&b, "The pipeline produced %d findings and %d testable hypotheses across %d scored tables.\n\n",
		len(doc.Findings), len(doc.Hypotheses), len(doc.QualityScores))

	b.WriteString("## Data Quality\n\n")
	if len(doc.QualityScores) == 0 {
		b.WriteString(notAvailable + "\n\n")
	} else {
		b.WriteString("| Table | Completeness | Accuracy | Consistency | Timeliness | Aggregate | Tier |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, s := range doc.QualityScores {
			fmt.Fprintf(&b, "| %s | %.1f | %.1f | %.1f | %.1f | %.1f | %s |\n",
				s.TableName, s.Completeness, s.Accuracy, s.Consistency, s.Timeliness, s.Aggregate, s.Tier())
		}
		b.WriteString("\n")
	}

	b.WriteString("## Findings\n\n")
	if len(doc.Findings) == 0 {
		b.WriteString(notAvailable + "\n\n")
	} else {
		for _, f := range doc.Findings {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", f.ID, f.Kind, f.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Hypotheses\n\n")
	if len(doc.Hypotheses) == 0 {
		b.WriteString(notAvailable + "\n\n")
	} else {
		for _, h := range hypothesis.Prioritized(doc.Hypotheses) {
			fmt.Fprintf(&b, "### %s: %s\n\n", h.ID, h.Title)
			fmt.Fprintf(&b, "**Category**: %s (priority %d)\n\n", h.Category, h.Priority)
			fmt.Fprintf(&b, "**Hypothesis**: %s\n\n", h.Statement)
			if h.Rationale != "" {
				fmt.Fprintf(&b, "**Rationale**: %s\n\n", h.Rationale)
			}
			fmt.Fprintf(&b, "**Test Method**: %s\n\n", h.TestMethod)
			if h.ExpectedOutcome != "" {
				fmt.Fprintf(&b, "**Expected Outcome**: %s\n\n", h.ExpectedOutcome)
			}
			if h.BusinessImpact != "" {
				fmt.Fprintf(&b, "**Business Impact**: %s\n\n", h.BusinessImpact)
			}
			fmt.Fprintf(&b, "**Derived From**: %s\n\n", h.FindingID)
		}
	}

	b.WriteString("## Strategic Recommendations\n\n")
	if len(doc.Recommendations) == 0 {
		b.WriteString(notAvailable + "\n\n")
	} else {
		for i, rec := range doc.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Visualizations\n\n")
	if len(doc.Artifacts) == 0 {
		b.WriteString(notAvailable + "\n\n")
	} else {
		for _, a := range doc.Artifacts {
			fmt.Fprintf(&b, "- %s (%s chart): `%s`\n", a.Title, a.Chart, a.Path)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Validation Scripts\n\n")
	if len(doc.Scripts) == 0 {
		b.WriteString(notAvailable + "\n\n")
	} else {
		for _, s := range doc.Scripts {
			fmt.Fprintf(&b, "- `%s`\n", s)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Pipeline Stages\n\n")
	if len(doc.Stages) == 0 {
		b.WriteString(notAvailable + "\n\n")
	} else {
		b.WriteString("| Stage | Status | Duration | Error |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, s := range doc.Stages {
			errText := "-"
			if s.Error != "" {
				errText = s.Error
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", s.Stage, s.Status, s.Duration, errText)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Checkpoints\n\n")
	if len(doc.Checkpoints) == 0 {
		b.WriteString(notAvailable + "\n\n")
	} else {
		for _, c := range doc.Checkpoints {
			if c.Pending {
				fmt.Fprintf(&b, "- after %s: **pending**\n", c.After)
				continue
			}
			fmt.Fprintf(&b, "- after %s: %s at %s\n", c.After, c.Decision, c.Decided.Format("15:04:05"))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Execution Log\n\n")
	if len(doc.ExecutionLog) == 0 {
		b.WriteString(notAvailable + "\n")
	} else {
		b.WriteString("```\n")
		for _, e := range doc.ExecutionLog {
			fmt.Fprintf(&b, "%s [%s] %s: %s\n",
				e.Time.Format("2006-01-02 15:04:05"), e.Level, e.Stage, e.Message)
		}
		b.WriteString("```\n")
	}

	return []byte(b.String())
}
