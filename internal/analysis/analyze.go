// Package analysis runs the résumé scoring pipeline: parsing, keyword matching,
// scoring and suggestion building.
package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-scorer/internal/formatting"
	"github.com/jonathan/resume-scorer/internal/ingestion"
	"github.com/jonathan/resume-scorer/internal/llm"
	"github.com/jonathan/resume-scorer/internal/logger"
	"github.com/jonathan/resume-scorer/internal/matching"
	"github.com/jonathan/resume-scorer/internal/scoring"
	"github.com/jonathan/resume-scorer/internal/terms"
	"github.com/jonathan/resume-scorer/internal/types"
	"github.com/jonathan/resume-scorer/internal/vocab"
)

// Report limits
const (
	MinJobDescriptionWords     = 12
	ResumePreviewRunes         = 1200
	JobDescriptionPreviewRunes = 600
)

// Stage is a coarse analysis state reported to clients.
type Stage string

// Stages in the order a job passes through them.
const (
	StageQueued           Stage = "queued"
	StageParsing          Stage = "parsing"
	StageAnalyzing        Stage = "analyzing"
	StageGeneratingReport Stage = "generating_report"
	StageDone             Stage = "done"
	StageError            Stage = "error"
)

// ProgressEvent represents a progress update during an analysis
type ProgressEvent struct {
	Stage    Stage  `json:"state"`
	Progress int    `json:"progress"` // 0-100
	Message  string `json:"message"`
}

// ProgressCallback is called when analysis progress occurs
type ProgressCallback func(event ProgressEvent)

// Input is one résumé to analyze. When ResumeText is empty the text is
// extracted from Data using the extension of Filename.
type Input struct {
	JobID          string
	Filename       string
	Data           []byte
	ResumeText     string
	JobDescription string
}

// Options tunes an Analyzer.
type Options struct {
	Threshold   float64
	MaxKeywords int
	Logger      *zap.Logger
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		Threshold:   matching.DefaultThreshold,
		MaxKeywords: terms.DefaultMaxKeywords,
	}
}

// Analyzer is built once per process and shared by all requests.
type Analyzer struct {
	vocab       *vocab.Vocabulary
	extractor   *terms.Extractor
	matcher     *matching.SemanticMatcher
	threshold   float64
	maxKeywords int
	log         *zap.Logger
	now         func() time.Time
}

// NewAnalyzer wires the extractor and embedder into an Analyzer. Zero option
// values fall back to DefaultOptions.
func NewAnalyzer(extractor *terms.Extractor, embedder llm.Embedder, opts Options, matcherOpts ...matching.SemanticOption) *Analyzer {
	defaults := DefaultOptions()
	if opts.Threshold <= 0 {
		opts.Threshold = defaults.Threshold
	}
	if opts.MaxKeywords <= 0 {
		opts.MaxKeywords = defaults.MaxKeywords
	}
	return &Analyzer{
		vocab:       extractor.Vocabulary(),
		extractor:   extractor,
		matcher:     matching.NewSemanticMatcher(extractor, embedder, matcherOpts...),
		threshold:   opts.Threshold,
		maxKeywords: opts.MaxKeywords,
		log:         logger.OrNop(opts.Logger),
		now:         time.Now,
	}
}

// Analyze scores one résumé against an optional job description and builds the
// report. Progress is reported up to StageGeneratingReport; the caller marks the
// job done once the report is stored. A model failure aborts the analysis with
// an error matching llm.ErrModelUnavailable.
func (a *Analyzer) Analyze(ctx context.Context, in Input, onProgress ProgressCallback) (*types.Report, error) {
	emit := func(stage Stage, progress int, message string) {
		if onProgress != nil {
			onProgress(ProgressEvent{Stage: stage, Progress: progress, Message: message})
		}
	}
	log := logger.WithJob(a.log, in.JobID)
	start := time.Now()

	emit(StageParsing, 10, "Parsing resume...")
	resumeText := in.ResumeText
	if resumeText == "" && len(in.Data) > 0 {
		var err error
		resumeText, err = ingestion.ExtractResumeText(in.Filename, in.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse resume: %w", err)
		}
	}
	flags := formatting.Detect(ingestion.Ext(in.Filename), resumeText, a.vocab)

	emit(StageAnalyzing, 35, "Analyzing keywords...")
	jd := in.JobDescription
	hasJD := jd != ""
	jdTooShort := JobDescriptionTooShort(jd)

	keywords := []string{}
	exact := types.ExactMatch{Present: []string{}, Missing: []string{}}
	semantic := types.SemanticResult{
		Matches: []types.SemanticMatch{},
		Hits:    []string{},
		Misses:  []string{},
	}

	if hasJD && !jdTooShort {
		var err error
		keywords, err = a.extractor.Extract(ctx, jd, a.maxKeywords)
		if err != nil {
			return nil, fmt.Errorf("failed to extract job description keywords: %w", err)
		}
		if len(keywords) > 0 {
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				semantic, err = a.matcher.Match(gctx, keywords, resumeText, a.threshold)
				return err
			})
			exact = matching.MatchExact(resumeText, keywords)
			if err := g.Wait(); err != nil {
				return nil, fmt.Errorf("semantic matching failed: %w", err)
			}
		}
	}
	log.Debug("keyword analysis complete",
		zap.Int("jd_keywords", len(keywords)),
		zap.Float64("coverage", exact.Coverage),
		zap.Float64("semantic_coverage", semantic.Coverage),
	)

	emit(StageAnalyzing, 60, "Scoring resume...")
	signals := scoring.ContentSignals(resumeText, a.vocab)
	scores := scoring.ComputeScores(exact.Coverage, semantic.Coverage, flags, signals)

	emit(StageGeneratingReport, 80, "Generating report...")
	suggestions := scoring.BuildSuggestions(flags, exact.Missing, semantic.Misses, signals)
	if hasJD && jdTooShort {
		suggestions.Items = append([]types.Suggestion{scoring.ShortJobDescription()}, suggestions.Items...)
	}

	report := &types.Report{
		JobID:             in.JobID,
		Filename:          in.Filename,
		ResumeTextPreview: truncateRunes(resumeText, ResumePreviewRunes),
		Scores:            scores,
		KeywordAnalysis: types.KeywordAnalysis{
			Present:          exact.Present,
			Missing:          exact.Missing,
			Coverage:         exact.Coverage,
			JDKeywords:       keywords,
			SemanticHits:     semantic.Hits,
			SemanticMisses:   semantic.Misses,
			SemanticCoverage: semantic.Coverage,
			SemanticMatches:  semantic.Matches,
		},
		FormattingFlags: flags,
		ContentSignals:  signals,
		Suggestions:     suggestions,
		GeneratedAt:     a.now().UTC().Format(time.RFC3339),
	}
	if hasJD {
		preview := truncateRunes(jd, JobDescriptionPreviewRunes)
		report.JobDescriptionPreview = &preview
	}

	log.Info("analysis complete",
		zap.String(logger.FieldFilename, in.Filename),
		zap.Float64("score", scores.Total),
		zap.Duration(logger.FieldDuration, time.Since(start)),
	)
	return report, nil
}

// JobDescriptionTooShort reports whether jd has too few words for keyword extraction.
func JobDescriptionTooShort(jd string) bool {
	return ingestion.CountWords(jd) < MinJobDescriptionWords
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
