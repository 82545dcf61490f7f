package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// MinContentLength is the minimum extracted text length to consider an HTTP fetch
// successful. Shorter pages are likely rendered client-side.
const MinContentLength = 500

// DefaultBrowserTimeout bounds one headless render.
const DefaultBrowserTimeout = 30 * time.Second

// ShouldUseBrowser returns true if the extracted text is too short,
// indicating the page is likely a JavaScript-rendered SPA.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// Renderer renders a page and returns its HTML.
type Renderer func(ctx context.Context, url string) (string, error)

// ChromeRenderer returns a Renderer backed by a headless Chrome instance.
// Chrome or Chromium must be installed.
func ChromeRenderer(timeout time.Duration, log *zap.Logger) Renderer {
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, url string) (string, error) {
		return WithBrowser(ctx, url, timeout, log)
	}
}

// newBrowser starts a headless Chrome bounded by timeout. The returned cancel
// func shuts the browser down.
func newBrowser(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)

	return browserCtx, func() {
		cancelTimeout()
		cancelBrowser()
		cancelAlloc()
	}
}

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
func WithBrowser(ctx context.Context, url string, timeout time.Duration, log *zap.Logger) (string, error) {
	log.Debug("starting headless browser", zap.String("url", url))
	start := time.Now()

	browserCtx, cancel := newBrowser(ctx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// client-side rendering settles after load
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.Debug("rendered page",
		zap.String("url", url),
		zap.Int("bytes", len(html)),
		zap.Duration("duration", time.Since(start)),
	)
	return html, nil
}

// PDFPrinter converts an HTML document to PDF bytes.
type PDFPrinter func(ctx context.Context, html string) ([]byte, error)

// ChromePDFPrinter returns a PDFPrinter backed by headless Chrome's print
// engine. Chrome or Chromium must be installed.
func ChromePDFPrinter(timeout time.Duration, log *zap.Logger) PDFPrinter {
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, html string) ([]byte, error) {
		return PrintPDF(ctx, html, timeout, log)
	}
}

// PrintPDF loads html into a blank headless page and prints it to PDF with
// backgrounds and the page size the document's CSS asks for.
func PrintPDF(ctx context.Context, html string, timeout time.Duration, log *zap.Logger) ([]byte, error) {
	start := time.Now()

	browserCtx, cancel := newBrowser(ctx, timeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pdf printing failed: %w", err)
	}

	log.Debug("printed pdf",
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)),
	)
	return pdf, nil
}
