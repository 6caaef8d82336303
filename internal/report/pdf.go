package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"ecomlens/pkg/contracts/domain"
)

// pdfRenderTimeout bounds one headless-Chrome print.
const pdfRenderTimeout = 60 * time.Second

// RenderPDF prints the HTML rendering of the document to PDF through
// headless Chrome. The HTML is staged to a temp file so Chrome can load it
// by URL.
func RenderPDF(ctx context.Context, doc *domain.ReportDocument) ([]byte, error) {
	html, err := RenderHTML(doc)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "ecomlens-report-*")
	if err != nil {
		return nil, fmt.Errorf("failed to stage html for pdf: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "report.html")
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return nil, fmt.Errorf("failed to stage html for pdf: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	chromeCtx, cancelChrome := chromedp.NewContext(allocCtx)
	defer cancelChrome()

	chromeCtx, cancelTimeout := context.WithTimeout(chromeCtx, pdfRenderTimeout)
	defer cancelTimeout()

	var pdf []byte
	err = chromedp.Run(chromeCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var printErr error
			pdf, _, printErr = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return printErr
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to print pdf: %w", err)
	}
	return pdf, nil
}
