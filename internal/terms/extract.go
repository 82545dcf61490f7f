package terms

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-scorer/internal/llm"
	"github.com/jonathan/resume-scorer/internal/nlp"
	"github.com/jonathan/resume-scorer/internal/vocab"
)

// Default term list caps.
const (
	DefaultMaxKeywords    = 80
	DefaultMaxResumeTerms = 140
)

const (
	minTermLen     = 2
	maxTermLen     = 40
	maxEntityWords = 3
	maxPhraseWords = 4
)

// candidatePattern matches 1-4 word runs of alphanumerics and + # . - characters.
var candidatePattern = regexp.MustCompile(`[a-zA-Z0-9+#.\-]{2,}(?:\s+[a-zA-Z0-9+#.\-]{2,}){0,3}`)

// Extractor derives skill and keyword candidates from free text.
// It is safe for concurrent use if its Parser is.
type Extractor struct {
	vocab      *vocab.Vocabulary
	parser     nlp.Parser
	filterJunk bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithoutJunkFilter keeps terms that contain junk phrases ("team player", "apply now").
func WithoutJunkFilter() Option {
	return func(e *Extractor) { e.filterJunk = false }
}

// NewExtractor creates an extractor over the given vocabulary. A nil parser
// disables the linguistic pass.
func NewExtractor(v *vocab.Vocabulary, p nlp.Parser, opts ...Option) *Extractor {
	e := &Extractor{vocab: v, parser: p, filterJunk: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Vocabulary returns the tables the extractor filters with.
func (e *Extractor) Vocabulary() *vocab.Vocabulary {
	return e.vocab
}

// Extract returns up to maxTerms unique normalized terms found in text, in
// first-seen order: curated patterns, then entities and noun phrases, then
// regex candidates with a technical marker.
// Blank text returns an empty list without invoking the parser. A parser
// failure is returned as a model error.
func (e *Extractor) Extract(ctx context.Context, text string, maxTerms int) ([]string, error) {
	if strings.TrimSpace(text) == "" || maxTerms <= 0 {
		return []string{}, nil
	}

	low := Fold(text)
	var found []string

	// 1) curated patterns
	for _, p := range e.vocab.SkillPatterns() {
		if strings.Contains(low, p) {
			found = append(found, p)
		}
	}

	// 2) entities and noun phrases
	if e.parser != nil {
		doc, err := e.parser.Parse(ctx, text)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, llm.AsModelError("prose", "parse", err)
		}
		for _, ent := range doc.Entities {
			if cand := Normalize(ent); e.acceptChunk(cand, maxEntityWords) {
				found = append(found, cand)
			}
		}
		for _, np := range doc.NounPhrases {
			if cand := Normalize(np); e.acceptChunk(cand, maxPhraseWords) {
				found = append(found, cand)
			}
		}
	}

	// 3) regex candidates
	for _, m := range candidatePattern.FindAllString(low, -1) {
		cand := Normalize(m)
		if validLength(cand) && !e.vocab.IsStopWord(cand) && e.vocab.HasTechnicalMarker(cand) {
			found = append(found, cand)
		}
	}

	cleaned := make([]string, 0, min(len(found), maxTerms))
	for _, t := range UniqueTerms(found) {
		if e.vocab.IsStopWord(t) || utf8.RuneCountInString(t) < minTermLen {
			continue
		}
		if e.vocab.AllStopWords(t) {
			continue
		}
		if e.filterJunk && e.vocab.ContainsJunk(t) {
			continue
		}
		cleaned = append(cleaned, t)
		if len(cleaned) == maxTerms {
			break
		}
	}

	return cleaned, nil
}

func (e *Extractor) acceptChunk(cand string, maxWords int) bool {
	if !validLength(cand) || e.vocab.AllStopWords(cand) {
		return false
	}
	return len(strings.Fields(cand)) <= maxWords
}

func validLength(t string) bool {
	n := utf8.RuneCountInString(t)
	return n >= minTermLen && n <= maxTermLen
}
