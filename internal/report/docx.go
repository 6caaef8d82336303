package report

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"ecomlens/internal/hypothesis"
	"ecomlens/pkg/contracts/domain"
)

// Minimal OOXML WordprocessingML package: content types, the package
// relationship, and one document part.
const (
	docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

	docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	docxHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

	docxFooter = `</w:body></w:document>`
)

// docxParagraph is one paragraph of the generated document.
type docxParagraph struct {
	text string
	bold bool
	size int // half-points; 0 means default
}

// RenderDOCX renders the report document as a minimal DOCX package.
func RenderDOCX(doc *domain.ReportDocument) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	parts := map[string]string{
		"[Content_Types].xml": docxContentTypes,
		"_rels/.rels":         docxRels,
		"word/document.xml":   documentXML(doc),
	}
	// fixed order keeps the archive byte-stable across runs
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		f, err := w.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to build docx part %s: %w", name, err)
		}
		if _, err := f.Write([]byte(parts[name])); err != nil {
			return nil, fmt.Errorf("failed to build docx part %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize docx: %w", err)
	}
	return buf.Bytes(), nil
}

func documentXML(doc *domain.ReportDocument) string {
	var b strings.Builder
	b.WriteString(docxHeader)

	write := func(p docxParagraph) {
		b.WriteString(`<w:p><w:r><w:rPr>`)
		if p.bold {
			b.WriteString(`<w:b/>`)
		}
		if p.size > 0 {
			fmt.Fprintf(&b, `<w:sz w:val="%d"/>`, p.size)
		}
		b.WriteString(`</w:rPr><w:t xml:space="preserve">`)
		b.WriteString(escapeXML(p.text))
		b.WriteString(`</w:t></w:r></w:p>`)
	}
	heading := func(text string) { write(docxParagraph{text: text, bold: true, size: 28}) }
	body := func(text string) { write(docxParagraph{text: text}) }

	write(docxParagraph{text: "E-commerce Analysis Report", bold: true, size: 40})
	body(fmt.Sprintf("Run: %s", doc.RunID))
	body(fmt.Sprintf("Generated: %s", doc.GeneratedAt.Format("2006-01-02 15:04:05")))
	if doc.Domain != "" {
		body(fmt.Sprintf("Domain: %s", doc.Domain))
	}

	heading("Executive Summary")
	if len(doc.QualityScores) > 0 {
		body(fmt.Sprintf("Overall data quality score: %.1f/100", OverallQuality(doc.QualityScores)))
	}
	if doc.QualityAdvisory {
		body("Quality advisory: the aggregate data quality fell below the configured threshold.")
	}
	body(fmt.Sprintf("The pipeline produced %d findings and %d testable hypotheses across %d scored tables.",
		len(doc.Findings), len(doc.Hypotheses), len(doc.QualityScores)))

	heading("Data Quality")
	if len(doc.QualityScores) == 0 {
		body("Not available for this run.")
	}
	for _, s := range doc.QualityScores {
		body(fmt.Sprintf("%s: completeness %.1f, accuracy %.1f, consistency %.1f, timeliness %.1f, aggregate %.1f (%s)",
			s.TableName, s.Completeness, s.Accuracy, s.Consistency, s.Timeliness, s.Aggregate, s.Tier()))
	}

	heading("Findings")
	if len(doc.Findings) == 0 {
		body("Not available for this run.")
	}
	for _, f := range doc.Findings {
		body(fmt.Sprintf("%s (%s): %s", f.ID, f.Kind, f.Description))
	}

	heading("Hypotheses")
	if len(doc.Hypotheses) == 0 {
		body("Not available for this run.")
	}
	for _, h := range hypothesis.Prioritized(doc.Hypotheses) {
		write(docxParagraph{text: fmt.Sprintf("%s: %s", h.ID, h.Title), bold: true})
		body(fmt.Sprintf("Category: %s (priority %d)", h.Category, h.Priority))
		body("Hypothesis: " + h.Statement)
		body("Test method: " + h.TestMethod)
		body("Derived from: " + h.FindingID)
	}

	heading("Strategic Recommendations")
	if len(doc.Recommendations) == 0 {
		body("Not available for this run.")
	}
	for i, rec := range doc.Recommendations {
		body(fmt.Sprintf("%d. %s", i+1, rec))
	}

	heading("Visualizations")
	if len(doc.Artifacts) == 0 {
		body("Not available for this run.")
	}
	for _, a := range doc.Artifacts {
		body(fmt.Sprintf("%s (%s chart): %s", a.Title, a.Chart, a.Path))
	}

	heading("Checkpoints")
	if len(doc.Checkpoints) == 0 {
		body("Not available for this run.")
	}
	for _, c := range doc.Checkpoints {
		if c.Pending {
			body(fmt.Sprintf("after %s: pending", c.After))
			continue
		}
		body(fmt.Sprintf("after %s: %s", c.After, c.Decision))
	}

	heading("Execution Log")
	if len(doc.ExecutionLog) == 0 {
		body("Not available for this run.")
	}
	for _, e := range doc.ExecutionLog {
		body(fmt.Sprintf("%s [%s] %s: %s",
			e.Time.Format("2006-01-02 15:04:05"), e.Level, e.Stage, e.Message))
	}

	b.WriteString(docxFooter)
	return b.String()
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
