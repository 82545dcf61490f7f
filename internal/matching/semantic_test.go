package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jonathan/resume-scorer/internal/llm"
	"github.com/jonathan/resume-scorer/internal/nlp"
	"github.com/jonathan/resume-scorer/internal/terms"
	"github.com/jonathan/resume-scorer/internal/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableEmbedder returns fixed vectors per text and records every call.
type tableEmbedder struct {
	table    map[string][]float32
	fallback []float32
	err      error

	calls atomic.Int32
	last  []string
}

func (e *tableEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	e.last = append([]string(nil), texts...)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := e.table[t]; ok {
			out[i] = v
		} else {
			out[i] = e.fallback
		}
	}
	return out, nil
}

func (e *tableEmbedder) Model() string { return "table" }

type countingParser struct {
	calls atomic.Int32
}

func (p *countingParser) Parse(context.Context, string) (*nlp.Doc, error) {
	p.calls.Add(1)
	return &nlp.Doc{}, nil
}

func newMatcher(emb llm.Embedder, p nlp.Parser, opts ...SemanticOption) *SemanticMatcher {
	return NewSemanticMatcher(terms.NewExtractor(vocab.MustDefault(), p), emb, opts...)
}

func TestSemanticMatch_NoKeywordsSkipsModels(t *testing.T) {
	emb := &tableEmbedder{fallback: []float32{1, 0}}
	parser := &countingParser{}

	got, err := newMatcher(emb, parser).Match(context.Background(), []string{}, "any text", DefaultThreshold)
	require.NoError(t, err)

	assert.Empty(t, got.Matches)
	assert.Empty(t, got.Hits)
	assert.Empty(t, got.Misses)
	assert.Equal(t, 0.0, got.Coverage)
	assert.Equal(t, int32(0), emb.calls.Load())
	assert.Equal(t, int32(0), parser.calls.Load())
}

func TestSemanticMatch_NoEvidence(t *testing.T) {
	emb := &tableEmbedder{fallback: []float32{1, 0}}

	got, err := newMatcher(emb, nil).Match(context.Background(), []string{"Kubernetes"}, "", DefaultThreshold)
	require.NoError(t, err)

	assert.Equal(t, []string{"kubernetes"}, got.Misses)
	assert.Empty(t, got.Hits)
	assert.Equal(t, 0.0, got.Coverage)
	assert.Equal(t, int32(0), emb.calls.Load())
}

func TestSemanticMatch_SourcesAndEvidence(t *testing.T) {
	line := "Shipped docker images nightly for the team"
	emb := &tableEmbedder{
		table: map[string][]float32{
			"containers":   {1, 0},
			"ci pipelines": {0.6, 0.8},
			"docker":       {1, 0},
			line:           {0.8, 0.6},
		},
		fallback: []float32{0, 1},
	}

	got, err := newMatcher(emb, nil).Match(context.Background(), []string{"Containers", "CI pipelines"}, line, DefaultThreshold)
	require.NoError(t, err)

	// keywords, résumé terms and lines in one call
	assert.Equal(t, int32(1), emb.calls.Load())
	assert.Equal(t, []string{"containers", "ci pipelines", "docker", "shipped docker images nightly", line}, emb.last)

	require.Len(t, got.Matches, 2)
	assert.Equal(t, "containers", got.Matches[0].Keyword)
	assert.InDelta(t, 1.0, got.Matches[0].Score, 1e-6)
	assert.Empty(t, got.Matches[0].BestLine, "term source win carries no evidence")

	assert.Equal(t, "ci pipelines", got.Matches[1].Keyword)
	assert.InDelta(t, 0.96, got.Matches[1].Score, 1e-6)
	assert.Equal(t, line, got.Matches[1].BestLine)

	assert.Equal(t, []string{"containers", "ci pipelines"}, got.Hits)
	assert.Empty(t, got.Misses)
	assert.Equal(t, 100.0, got.Coverage)
}

func TestSemanticMatch_SingleSource(t *testing.T) {
	line := "Shipped docker images nightly for the team"
	emb := &tableEmbedder{
		table: map[string][]float32{
			"containers": {1, 0},
			"docker":     {1, 0},
			line:         {0.8, 0.6},
		},
		fallback: []float32{0, 1},
	}
	parser := &countingParser{}

	got, err := newMatcher(emb, parser, WithDualSource(false)).Match(context.Background(), []string{"containers"}, line, 0.9)
	require.NoError(t, err)

	assert.Equal(t, int32(0), parser.calls.Load(), "résumé terms are not extracted")
	assert.Equal(t, []string{"containers", line}, emb.last)
	assert.InDelta(t, 0.8, got.Matches[0].Score, 1e-6)
	assert.Equal(t, line, got.Matches[0].BestLine)
	assert.Equal(t, []string{"containers"}, got.Misses)
	assert.Equal(t, 0.0, got.Coverage)
}

func TestSemanticMatch_ScoresClamped(t *testing.T) {
	emb := &tableEmbedder{
		table:    map[string][]float32{"golang": {1, 0}},
		fallback: []float32{-1, 0},
	}

	got, err := newMatcher(emb, nil).Match(context.Background(), []string{"golang"}, "Baked bread every single morning", DefaultThreshold)
	require.NoError(t, err)

	require.Len(t, got.Matches, 1)
	assert.Equal(t, 0.0, got.Matches[0].Score)
	assert.Equal(t, []string{"golang"}, got.Misses)
}

func TestSemanticMatch_PreviewSortedAndCapped(t *testing.T) {
	table := map[string][]float32{}
	var keywords []string
	for i := 0; i < 15; i++ {
		kw := fmt.Sprintf("skill%02d", i)
		keywords = append(keywords, kw)
		// skill00 is least similar, skill14 most
		table[kw] = []float32{float32(i + 1), float32(15 - i)}
	}
	emb := &tableEmbedder{table: table, fallback: []float32{1, 0}}

	got, err := newMatcher(emb, nil).Match(context.Background(), keywords, "Evidence line about shipping software", 0)
	require.NoError(t, err)

	assert.Len(t, got.Matches, DefaultPreviewCap)
	assert.Equal(t, "skill14", got.Matches[0].Keyword)
	for i := 1; i < len(got.Matches); i++ {
		assert.GreaterOrEqual(t, got.Matches[i-1].Score, got.Matches[i].Score)
	}
	for _, m := range got.Matches {
		assert.GreaterOrEqual(t, m.Score, 0.0)
		assert.LessOrEqual(t, m.Score, 1.0)
	}
	assert.Len(t, got.Hits, 15)
	assert.Equal(t, 100.0, got.Coverage)
}

func TestSemanticMatch_TiesKeepKeywordOrder(t *testing.T) {
	emb := &tableEmbedder{fallback: []float32{1, 1}}

	got, err := newMatcher(emb, nil, WithPreviewCap(0)).Match(context.Background(), []string{"b", "a", "c"}, "Some evidence line that is long enough", DefaultThreshold)
	require.NoError(t, err)

	var order []string
	for _, m := range got.Matches {
		order = append(order, m.Keyword)
	}
	assert.Equal(t, []string{"b", "a", "c"}, order)
}

func TestSemanticMatch_EmbedderFailure(t *testing.T) {
	emb := &tableEmbedder{err: errors.New("connection refused")}

	_, err := newMatcher(emb, nil).Match(context.Background(), []string{"go"}, "Go developer building APIs", DefaultThreshold)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, int32(1), emb.calls.Load(), "no retry")
}

func TestSemanticMatch_HashEmbedder(t *testing.T) {
	m := newMatcher(llm.NewHashEmbedder(384), nil)
	resume := strings.Join([]string{
		"Deployed services on Kubernetes clusters",
		"Wrote Terraform modules for AWS networking",
	}, "\n")

	got, err := m.Match(context.Background(), []string{"kubernetes", "sourdough baking"}, resume, 0.3)
	require.NoError(t, err)

	assert.Contains(t, got.Hits, "kubernetes")
	assert.Contains(t, got.Misses, "sourdough baking")
	assert.Equal(t, 50.0, got.Coverage)
}
