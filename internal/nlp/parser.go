// Package nlp provides the linguistic parse (named entities and noun phrases) used by term extraction.
package nlp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

// Doc is the result of parsing a text: entity spans and noun-phrase spans in
// document order.
type Doc struct {
	Entities    []string
	NounPhrases []string
}

// Parser extracts linguistic chunks from free text.
// Implementations must be safe for concurrent use.
type Parser interface {
	Parse(ctx context.Context, text string) (*Doc, error)
}

// Token is a tagged word; the tag uses the Penn Treebank tag set.
type Token struct {
	Text string
	Tag  string
}

// ProseParser implements Parser with the prose NLP library (tokenizer, averaged
// perceptron POS tagger and NER).
type ProseParser struct {
	once    sync.Once
	model   *prose.Model
	initErr error
}

// NewProseParser returns a parser backed by prose. The library is warmed up on first use.
func NewProseParser() *ProseParser {
	return &ProseParser{}
}

// Warm loads the tagger and entity models once and keeps them for every later
// Parse. Safe to call more than once.
func (p *ProseParser) Warm() error {
	p.once.Do(func() {
		doc, err := prose.NewDocument("Warm up the tagger.", prose.WithSegmentation(false))
		if err != nil {
			p.initErr = err
			return
		}
		p.model = doc.Model
	})
	return p.initErr
}

// Model returns the shared prose model, or nil before Warm.
func (p *ProseParser) Model() *prose.Model {
	return p.model
}

// Parse tags text and returns entity and noun-phrase spans.
func (p *ProseParser) Parse(ctx context.Context, text string) (*Doc, error) {
	if err := p.Warm(); err != nil {
		return nil, fmt.Errorf("prose model init failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return &Doc{}, nil
	}

	// Sentence segmentation is not needed: noun phrases never span a line break
	// because chunking resets on punctuation tags.
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false), prose.UsingModel(p.model))
	if err != nil {
		return nil, fmt.Errorf("prose parse failed: %w", err)
	}

	out := &Doc{}
	for _, ent := range doc.Entities() {
		out.Entities = append(out.Entities, ent.Text)
	}

	toks := doc.Tokens()
	tagged := make([]Token, len(toks))
	for i, tok := range toks {
		tagged[i] = Token{Text: tok.Text, Tag: tok.Tag}
	}
	out.NounPhrases = NounChunks(tagged)

	return out, nil
}
