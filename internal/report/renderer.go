package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ecomlens/pkg/contracts/domain"
)

// FileName returns the report file name for a format.
func FileName(format domain.OutputFormat) string {
	switch format {
	case domain.FormatHTML:
		return "analysis_report.html"
	case domain.FormatPDF:
		return "analysis_report.pdf"
	case domain.FormatDOCX:
		return "analysis_report.docx"
	default:
		return "analysis_report.md"
	}
}

// Render renders the document in the requested format.
func Render(ctx context.Context, doc *domain.ReportDocument, format domain.OutputFormat) ([]byte, error) {
	if !domain.ValidFormat(format) {
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	switch format {
	case domain.FormatHTML:
		return RenderHTML(doc)
	case domain.FormatPDF:
		return RenderPDF(ctx, doc)
	case domain.FormatDOCX:
		return RenderDOCX(doc)
	default:
		return RenderMarkdown(doc), nil
	}
}

// Write renders the document and writes it under dir, returning the path.
func Write(ctx context.Context, doc *domain.ReportDocument, format domain.OutputFormat, dir string) (string, error) {
	content, err := Render(ctx, doc, format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, FileName(format))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// WriteExecutionLog writes the plain-text execution log next to the report.
func WriteExecutionLog(doc *domain.ReportDocument, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	var content []byte
	for _, e := range doc.ExecutionLog {
		content = append(content, fmt.Sprintf("%s [%s] %s: %s\n",
			e.Time.Format("2006-01-02 15:04:05"), e.Level, e.Stage, e.Message)...)
	}
	return os.WriteFile(path, content, 0o644)
}
