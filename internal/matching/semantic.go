package matching

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jonathan/resume-scorer/internal/llm"
	"github.com/jonathan/resume-scorer/internal/terms"
	"github.com/jonathan/resume-scorer/internal/types"
)

// Semantic matching defaults.
const (
	DefaultThreshold  = 0.62
	DefaultPreviewCap = 12
)

// SemanticMatcher scores keywords against résumé evidence lines and, in
// dual-source mode, against terms extracted from the résumé. It holds no
// per-request state and is safe for concurrent use.
type SemanticMatcher struct {
	extractor  *terms.Extractor
	embedder   llm.Embedder
	dualSource bool
	previewCap int
}

// SemanticOption configures a SemanticMatcher.
type SemanticOption func(*SemanticMatcher)

// WithDualSource enables or disables matching against extracted résumé terms.
func WithDualSource(enabled bool) SemanticOption {
	return func(m *SemanticMatcher) { m.dualSource = enabled }
}

// WithPreviewCap sets how many top matches are returned. Zero or less returns all.
func WithPreviewCap(n int) SemanticOption {
	return func(m *SemanticMatcher) { m.previewCap = n }
}

// NewSemanticMatcher creates a matcher using the shared extractor and embedder.
func NewSemanticMatcher(extractor *terms.Extractor, embedder llm.Embedder, opts ...SemanticOption) *SemanticMatcher {
	m := &SemanticMatcher{
		extractor:  extractor,
		embedder:   embedder,
		dualSource: true,
		previewCap: DefaultPreviewCap,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match computes, for each keyword, its best similarity to the résumé and
// classifies it as a hit when the score reaches threshold. All texts of the
// request are embedded in one call. No embedding happens when there are no
// keywords or nothing to compare them with.
func (m *SemanticMatcher) Match(ctx context.Context, keywords []string, resumeText string, threshold float64) (types.SemanticResult, error) {
	kws := terms.UniqueTerms(keywords)
	result := types.SemanticResult{
		Matches: []types.SemanticMatch{},
		Hits:    []string{},
		Misses:  []string{},
	}
	if len(kws) == 0 {
		return result, nil
	}

	var resumeTerms []string
	if m.dualSource {
		var err error
		resumeTerms, err = m.extractor.Extract(ctx, resumeText, terms.DefaultMaxResumeTerms)
		if err != nil {
			return types.SemanticResult{}, err
		}
	}
	lines := terms.SelectLines(resumeText, m.extractor.Vocabulary())

	if len(resumeTerms) == 0 && len(lines) == 0 {
		result.Misses = kws
		return result, nil
	}

	texts := make([]string, 0, len(kws)+len(resumeTerms)+len(lines))
	texts = append(texts, kws...)
	texts = append(texts, resumeTerms...)
	texts = append(texts, lines...)

	vecs, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return types.SemanticResult{}, llm.AsModelError(m.embedder.Model(), "embed", err)
	}
	if len(vecs) != len(texts) {
		return types.SemanticResult{}, &llm.ModelError{
			Model: m.embedder.Model(),
			Op:    "embed",
			Cause: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vecs)),
		}
	}

	kwVecs := vecs[:len(kws)]
	termVecs := vecs[len(kws) : len(kws)+len(resumeTerms)]
	lineVecs := vecs[len(kws)+len(resumeTerms):]

	matches := make([]types.SemanticMatch, 0, len(kws))
	for i, kw := range kws {
		best := 0.0
		bestLine := ""

		// Term wins raise the score but carry no evidence text.
		for _, tv := range termVecs {
			if s := llm.Cosine(kwVecs[i], tv); s > best {
				best = s
			}
		}

		if idx, s := argmax(kwVecs[i], lineVecs); idx >= 0 && s > best {
			best = s
			bestLine = lines[idx]
		}

		best = clamp01(best)
		if best >= threshold {
			result.Hits = append(result.Hits, kw)
		} else {
			result.Misses = append(result.Misses, kw)
		}
		matches = append(matches, types.SemanticMatch{Keyword: kw, Score: best, BestLine: bestLine})
	}

	result.Coverage = percent(len(result.Hits), len(result.Hits)+len(result.Misses))

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if m.previewCap > 0 && len(matches) > m.previewCap {
		matches = matches[:m.previewCap]
	}
	result.Matches = matches

	return result, nil
}

// argmax returns the index of the candidate most similar to v (first on ties)
// and its similarity, or -1 when there are no candidates.
func argmax(v []float32, candidates [][]float32) (int, float64) {
	idx, best := -1, math.Inf(-1)
	for j, c := range candidates {
		if s := llm.Cosine(v, c); s > best {
			idx, best = j, s
		}
	}
	return idx, best
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
