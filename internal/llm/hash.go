package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// trigramWeight scales character trigram features relative to whole words.
const trigramWeight = 0.5

// HashEmbedder is a deterministic, offline Embedder. Each text is mapped into a
// fixed number of buckets using signed feature hashing over its words and the
// character trigrams of each word, then unit-normalized. Texts sharing words or
// word fragments get a positive cosine similarity.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hashing embedder with dim dimensions
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = defaultDimensions
	}
	return &HashEmbedder{dim: dim}
}

// Embed embeds every text. It only fails if ctx is done.
func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}
	return out, nil
}

// Model returns the embedding model name
func (h *HashEmbedder) Model() string {
	return fmt.Sprintf("hash-ngram-%d", h.dim)
}

func (h *HashEmbedder) vector(text string) []float32 {
	vec := make([]float32, h.dim)
	for _, word := range hashTokens(text) {
		h.add(vec, "w:"+word, 1)
		padded := []rune(" " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			h.add(vec, "c:"+string(padded[i:i+3]), trigramWeight)
		}
	}
	return Normalize(vec)
}

func (h *HashEmbedder) add(vec []float32, feature string, weight float32) {
	hs := fnv.New64a()
	_, _ = hs.Write([]byte(feature))
	sum := hs.Sum64()
	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

// hashTokens lowercases text and splits it into words, keeping the symbols that
// carry meaning in technical terms (c++, c#, node.js).
func hashTokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '.'
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
