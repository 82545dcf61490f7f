package llm

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	h := NewHashEmbedder(128)
	ctx := context.Background()

	a, err := h.Embed(ctx, []string{"Kubernetes clusters", "kubernetes CLUSTERS"})
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Len(t, a[0], 128)
	assert.InDelta(t, 1.0, norm(a[0]), 1e-5)
	assert.Equal(t, a[0], a[1])

	b, err := h.Embed(ctx, []string{"Kubernetes clusters"})
	require.NoError(t, err)
	assert.Equal(t, a[0], b[0])
}

func TestHashEmbedder_Similarity(t *testing.T) {
	h := NewHashEmbedder(384)
	vecs, err := h.Embed(context.Background(), []string{
		"kubernetes",
		"Deployed services on Kubernetes clusters",
		"Baked sourdough bread",
	})
	require.NoError(t, err)

	related := Cosine(vecs[0], vecs[1])
	unrelated := Cosine(vecs[0], vecs[2])
	assert.Greater(t, related, unrelated)
	assert.Greater(t, related, 0.3)
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	h := NewHashEmbedder(16)
	vecs, err := h.Embed(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), vecs[0])
}

func TestHashEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashEmbedder(8).Embed(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashTokens(t *testing.T) {
	assert.Equal(t, []string{"c++", "c#", "node.js", "ci", "cd"}, hashTokens("C++, C#; Node.js. CI/CD"))
}

func TestGeminiEmbedder_Batches(t *testing.T) {
	var calls [][]string
	e := &GeminiEmbedder{
		model:     "test-model",
		batchSize: 2,
		embedBatch: func(_ context.Context, texts []string) ([][]float32, error) {
			calls = append(calls, texts)
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = []float32{3, 4}
			}
			return out, nil
		},
	}

	vecs, err := e.Embed(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, vecs, 5)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, calls)
	assert.InDelta(t, 0.6, vecs[4][0], 1e-6)
	assert.InDelta(t, 0.8, vecs[4][1], 1e-6)
}

func TestGeminiEmbedder_Errors(t *testing.T) {
	t.Run("api failure", func(t *testing.T) {
		e := &GeminiEmbedder{
			model:     "test-model",
			batchSize: 10,
			embedBatch: func(context.Context, []string) ([][]float32, error) {
				return nil, errors.New("quota exceeded")
			},
		}
		_, err := e.Embed(context.Background(), []string{"a"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrModelUnavailable)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("count mismatch", func(t *testing.T) {
		e := &GeminiEmbedder{
			model:     "test-model",
			batchSize: 10,
			embedBatch: func(context.Context, []string) ([][]float32, error) {
				return [][]float32{{1}}, nil
			},
		}
		_, err := e.Embed(context.Background(), []string{"a", "b"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrModelUnavailable)
		assert.Contains(t, err.Error(), "expected 2 embeddings, got 1")
	})

	t.Run("no texts", func(t *testing.T) {
		e := &GeminiEmbedder{batchSize: 10}
		vecs, err := e.Embed(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, vecs)
	})
}

func TestLazyEmbedder(t *testing.T) {
	t.Run("builds once across goroutines", func(t *testing.T) {
		var built atomic.Int32
		lazy := NewLazyEmbedder("hash", func() (Embedder, error) {
			built.Add(1)
			return NewHashEmbedder(8), nil
		})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := lazy.Embed(context.Background(), []string{"go"})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), built.Load())
	})

	t.Run("remembers failure", func(t *testing.T) {
		var built atomic.Int32
		lazy := NewLazyEmbedder("broken", func() (Embedder, error) {
			built.Add(1)
			return nil, errors.New("weights missing")
		})

		for i := 0; i < 3; i++ {
			_, err := lazy.Embed(context.Background(), []string{"go"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrModelUnavailable)
		}
		assert.Equal(t, int32(1), built.Load())
		assert.Equal(t, "broken", lazy.Model())
	})
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 1}))
}

func TestModelError(t *testing.T) {
	cause := errors.New("boom")
	err := AsModelError("m", "embed", cause)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "model unavailable: m: embed: boom", err.Error())

	// Already wrapped errors are returned as-is
	assert.Same(t, err, AsModelError("other", "init", err))
	assert.NoError(t, AsModelError("m", "embed", nil))
}
