package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/resume-scorer/internal/fetch"
	"github.com/jonathan/resume-scorer/internal/logger"
	"go.uber.org/zap"
)

// PageFetcher fetches a job-description page as text.
type PageFetcher interface {
	JobDescription(ctx context.Context, url string, useBrowser bool) (*fetch.Page, error)
}

// FromURL fetches a job description through f and returns its cleaned text.
// If useBrowser is true, client-rendered pages fall back to a headless browser.
func FromURL(ctx context.Context, f PageFetcher, urlStr string, useBrowser bool, log *zap.Logger) (string, *Metadata, error) {
	log = logger.OrNop(log)
	urlStr = strings.TrimSpace(urlStr)

	page, err := f.JobDescription(ctx, urlStr, useBrowser)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	cleaned := CleanText(page.Text)
	if cleaned == "" {
		return "", nil, fmt.Errorf("%w: %s", ErrEmptyContent, urlStr)
	}

	metadata := NewMetadata(cleaned, urlStr)
	metadata.Platform = string(page.Platform)
	metadata.Rendered = page.Rendered

	log.Debug("ingested job description",
		zap.String(logger.FieldURL, urlStr),
		zap.String("platform", metadata.Platform),
		zap.Int("chars", metadata.Chars),
		zap.Bool("rendered", page.Rendered),
	)
	return cleaned, metadata, nil
}
