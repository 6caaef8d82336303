package report

import (
	"bytes"
	"fmt"
	"html/template"

	"ecomlens/internal/hypothesis"
	"ecomlens/pkg/contracts/domain"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>E-commerce Analysis Report</title>
<style>
body { font-family: -apple-system, Segoe UI, sans-serif; margin: 2rem auto; max-width: 960px; color: #1a202c; }
h1 { border-bottom: 3px solid #2b6cb0; padding-bottom: .4rem; }
h2 { color: #2b6cb0; margin-top: 2rem; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border: 1px solid #cbd5e0; padding: .4rem .6rem; text-align: left; }
th { background: #ebf4ff; }
.advisory { background: #fff5f5; border-left: 4px solid #c53030; padding: .8rem 1rem; margin: 1rem 0; }
.hypothesis { border: 1px solid #e2e8f0; border-radius: 6px; padding: 1rem; margin: 1rem 0; }
.empty { color: #718096; font-style: italic; }
pre { background: #f7fafc; padding: 1rem; overflow-x: auto; font-size: .85rem; }
</style>
</head>
<body>
<h1>E-commerce Analysis Report</h1>
<p>Run: {{.Doc.RunID}}<br>Generated: {{.Doc.GeneratedAt.Format "2006-01-02 15:04:05"}}{{if .Doc.Domain}}<br>Domain: {{.Doc.Domain}}{{end}}</p>

<h2>Executive Summary</h2>
{{if .Doc.QualityScores}}<p>Overall data quality score: <strong>{{printf "%.1f" .OverallQuality}}/100</strong></p>{{end}}
{{if .Doc.QualityAdvisory}}<div class="advisory"><strong>Quality advisory:</strong> the aggregate data quality fell below the configured threshold. Results should be interpreted with caution.</div>{{end}}
<p>The pipeline produced {{len .Doc.Findings}} findings and {{len .Doc.Hypotheses}} testable hypotheses across {{len .Doc.QualityScores}} scored tables.</p>

<h2>Data Quality</h2>
{{if .Doc.QualityScores}}
<table>
<tr><th>Table</th><th>Completeness</th><th>Accuracy</th><th>Consistency</th><th>Timeliness</th><th>Aggregate</th><th>Tier</th></tr>
{{range .Doc.QualityScores}}<tr><td>{{.TableName}}</td><td>{{printf "%.1f" .Completeness}}</td><td>{{printf "%.1f" .Accuracy}}</td><td>{{printf "%.1f" .Consistency}}</td><td>{{printf "%.1f" .Timeliness}}</td><td>{{printf "%.1f" .Aggregate}}</td><td>{{.Tier}}</td></tr>
{{end}}</table>
{{else}}<p class="empty">Not available for this run.</p>{{end}}

<h2>Findings</h2>
{{if .Doc.Findings}}
<ul>
{{range .Doc.Findings}}<li><strong>{{.ID}}</strong> ({{.Kind}}): {{.Description}}</li>
{{end}}</ul>
{{else}}<p class="empty">Not available for this run.</p>{{end}}

<h2>Hypotheses</h2>
{{if .Hypotheses}}
{{range .Hypotheses}}
<div class="hypothesis">
<h3>{{.ID}}: {{.Title}}</h3>
<p><strong>Category:</strong> {{.Category}} (priority {{.Priority}})</p>
<p><strong>Hypothesis:</strong> {{.Statement}}</p>
{{if .Rationale}}<p><strong>Rationale:</strong> {{.Rationale}}</p>{{end}}
<p><strong>Test method:</strong> {{.TestMethod}}</p>
{{if .ExpectedOutcome}}<p><strong>Expected outcome:</strong> {{.ExpectedOutcome}}</p>{{end}}
{{if .BusinessImpact}}<p><strong>Business impact:</strong> {{.BusinessImpact}}</p>{{end}}
<p><strong>Derived from:</strong> {{.FindingID}}</p>
</div>
{{end}}
{{else}}<p class="empty">Not available for this run.</p>{{end}}

<h2>Strategic Recommendations</h2>
{{if .Doc.Recommendations}}
<ol>
{{range .Doc.Recommendations}}<li>{{.}}</li>
{{end}}</ol>
{{else}}<p class="empty">Not available for this run.</p>{{end}}

<h2>Visualizations</h2>
{{if .Doc.Artifacts}}
<ul>
{{range .Doc.Artifacts}}<li>{{.Title}} ({{.Chart}} chart): <code>{{.Path}}</code></li>
{{end}}</ul>
{{else}}<p class="empty">Not available for this run.</p>{{end}}

<h2>Validation Scripts</h2>
{{if .Doc.Scripts}}
<ul>
{{range .Doc.Scripts}}<li><code>{{.}}</code></li>
{{end}}</ul>
{{else}}<p class="empty">Not available for this run.</p>{{end}}

<h2>Pipeline Stages</h2>
{{if .Doc.Stages}}
<table>
<tr><th>Stage</th><th>Status</th><th>Duration</th><th>Error</th></tr>
{{range .Doc.Stages}}<tr><td>{{.Stage}}</td><td>{{.Status}}</td><td>{{.Duration}}</td><td>{{.Error}}</td></tr>
{{end}}</table>
{{else}}<p class="empty">Not available for this run.</p>{{end}}

<h2>Checkpoints</h2>
{{if .Doc.Checkpoints}}
<ul>
{{range .Doc.Checkpoints}}<li>after {{.After}}: {{if .Pending}}<strong>pending</strong>{{else}}{{.Decision}} at {{.Decided.Format "15:04:05"}}{{end}}</li>
{{end}}</ul>
{{else}}<p class="empty">Not available for this run.</p>{{end}}

<h2>Execution Log</h2>
{{if .Doc.ExecutionLog}}
<pre>{{range .Doc.ExecutionLog}}{{.Time.Format "2006-01-02 15:04:05"}} [{{.Level}}] {{.Stage}}: {{.Message}}
{{end}}</pre>
{{else}}<p class="empty">Not available for this run.</p>{{end}}

</body>
</html>
`

var htmlTpl = template.Must(template.New("report").Parse(htmlTemplate))

// htmlContext wraps the document with the derived values the template needs.
type htmlContext struct {
	Doc            *domain.ReportDocument
	Hypotheses     []domain.Hypothesis
	OverallQuality float64
}

// RenderHTML renders the report document as a standalone HTML page.
func RenderHTML(doc *domain.ReportDocument) ([]byte, error) {
	var buf bytes.Buffer
	err := htmlTpl.Execute(&buf, htmlContext{
		Doc:            doc,
		Hypotheses:     hypothesis.Prioritized(doc.Hypotheses),
		OverallQuality: OverallQuality(doc.QualityScores),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render html report: %w", err)
	}
	return buf.Bytes(), nil
}
