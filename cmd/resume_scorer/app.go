package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/resume-scorer/internal/analysis"
	"github.com/jonathan/resume-scorer/internal/config"
	"github.com/jonathan/resume-scorer/internal/fetch"
	"github.com/jonathan/resume-scorer/internal/llm"
	"github.com/jonathan/resume-scorer/internal/logger"
	"github.com/jonathan/resume-scorer/internal/matching"
	"github.com/jonathan/resume-scorer/internal/nlp"
	"github.com/jonathan/resume-scorer/internal/terms"
	"github.com/jonathan/resume-scorer/internal/vocab"
)

// app holds the process-wide resources built from configuration.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

// newApp loads configuration and builds the logger. Command-line logging
// flags take precedence over the config file.
func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.debug {
		cfg.Log.Debug = true
	}
	if opts.jsonLog {
		cfg.Log.JSON = true
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// extractor builds the term extractor over the configured vocabulary. Its
// parser loads the tagger model here, once, so requests share it.
func (a *app) extractor() (*terms.Extractor, error) {
	v, err := vocab.FromFile(a.cfg.VocabularyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}
	parser := nlp.NewProseParser()
	if err := parser.Warm(); err != nil {
		a.log.Warn("failed to warm up tagger", zap.Error(err))
	}
	return terms.NewExtractor(v, parser), nil
}

// embedder returns an embedder that is built on first use, so a missing API key
// only fails analyses that actually need embeddings.
func (a *app) embedder() *llm.LazyEmbedder {
	llmCfg := a.cfg.Embedding.LLM()
	apiKey := a.cfg.Embedding.APIKey
	return llm.NewLazyEmbedder(llmCfg.GetModel(), func() (llm.Embedder, error) {
		return llm.NewEmbedder(context.Background(), llmCfg, apiKey)
	})
}

// analyzer wires the extractor and embedder into an Analyzer.
func (a *app) analyzer() (*analysis.Analyzer, error) {
	extractor, err := a.extractor()
	if err != nil {
		return nil, err
	}
	opts := analysis.Options{
		Threshold:   a.cfg.Analysis.Threshold,
		MaxKeywords: a.cfg.Analysis.MaxKeywords,
		Logger:      a.log,
	}
	return analysis.NewAnalyzer(extractor, a.embedder(), opts,
		matching.WithDualSource(a.cfg.Analysis.DualSource)), nil
}

// fetcher builds the cached job-description fetcher with the browser fallback.
func (a *app) fetcher() *fetch.CachedFetcher {
	opts := fetch.DefaultOptions()
	opts.Timeout = a.cfg.Fetch.Timeout
	return fetch.NewCachedFetcher(&fetch.CachedFetcherConfig{
		CacheTTL: a.cfg.Fetch.CacheTTL,
		Options:  opts,
		Renderer: fetch.ChromeRenderer(a.cfg.Fetch.BrowserTimeout, a.log),
		Logger:   a.log,
	})
}
