package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCacheTTL is how long a fetched job description is reused.
const DefaultCacheTTL = 6 * time.Hour

// Page is a job-description page reduced to text.
type Page struct {
	URL        string
	Platform   Platform
	Text       string
	Rendered   bool // text came from the headless browser
	StatusCode int
	FetchedAt  time.Time
}

// CachedFetcher fetches job-description pages and keeps them in memory for a TTL.
// Permanent failures (4xx other than 429) are remembered for the same TTL so a
// bad URL is not requested again. It is safe for concurrent use.
type CachedFetcher struct {
	options  *Options
	cacheTTL time.Duration
	render   Renderer
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	pages    map[string]*Page
	failures map[string]failure
}

type failure struct {
	err error
	at  time.Time
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL time.Duration
	Options  *Options
	// Renderer is used when UseBrowser is requested and the HTTP text is too
	// short. Nil disables the browser fallback.
	Renderer Renderer
	Logger   *zap.Logger
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL: DefaultCacheTTL,
		Options:  DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher.
func NewCachedFetcher(config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedFetcher{
		options:  config.Options,
		cacheTTL: config.CacheTTL,
		render:   config.Renderer,
		log:      log,
		now:      time.Now,
		pages:    make(map[string]*Page),
		failures: make(map[string]failure),
	}
}

// JobDescription fetches urlStr and extracts the posting text with
// platform-specific selectors. With useBrowser set, a page whose text is shorter
// than MinContentLength is rendered in the browser and re-extracted; a browser
// failure keeps the HTTP text.
func (f *CachedFetcher) JobDescription(ctx context.Context, urlStr string, useBrowser bool) (*Page, error) {
	if page, ok, err := f.lookup(urlStr); ok {
		f.log.Debug("job description cache hit", zap.String("url", urlStr))
		return page, err
	}

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		f.recordFailure(urlStr, err)
		return nil, err
	}

	platform := DetectPlatform(urlStr)
	content := PlatformContentSelectors(platform)
	noise := PlatformNoiseSelectors(platform)

	text, err := ExtractMainText(result.HTML, content, noise...)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "content extraction failed", Cause: err}
	}

	page := &Page{
		URL:        urlStr,
		Platform:   platform,
		Text:       text,
		StatusCode: result.StatusCode,
		FetchedAt:  f.now(),
	}

	if useBrowser && f.render != nil && ShouldUseBrowser(text) {
		f.log.Info("content too short, rendering in browser",
			zap.String("url", urlStr),
			zap.Int("chars", len(text)),
			zap.Int("min_chars", MinContentLength),
		)
		if html, rerr := f.render(ctx, urlStr); rerr != nil {
			f.log.Warn("browser rendering failed, using HTTP content", zap.String("url", urlStr), zap.Error(rerr))
		} else if rendered, xerr := ExtractMainText(html, content, noise...); xerr == nil {
			page.Text = rendered
			page.Rendered = true
		}
	}

	f.mu.Lock()
	f.pages[urlStr] = page
	f.mu.Unlock()

	return page, nil
}

// InvalidateCache forgets any cached page or failure for urlStr.
func (f *CachedFetcher) InvalidateCache(urlStr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pages, urlStr)
	delete(f.failures, urlStr)
}

func (f *CachedFetcher) lookup(urlStr string) (*Page, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if page, ok := f.pages[urlStr]; ok {
		if now.Sub(page.FetchedAt) < f.cacheTTL {
			return page, true, nil
		}
		delete(f.pages, urlStr)
	}
	if fail, ok := f.failures[urlStr]; ok {
		if now.Sub(fail.at) < f.cacheTTL {
			return nil, true, fail.err
		}
		delete(f.failures, urlStr)
	}
	return nil, false, nil
}

func (f *CachedFetcher) recordFailure(urlStr string, err error) {
	var fe *Error
	if !errors.As(err, &fe) || fe.Retryable {
		return
	}
	f.mu.Lock()
	f.failures[urlStr] = failure{err: err, at: f.now()}
	f.mu.Unlock()
}
