package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Embedder turns texts into fixed-dimension, unit-normalized vectors.
// One call embeds the whole batch; the i-th vector belongs to texts[i].
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model returns the model name used for embeddings
	Model() string
}

// NewEmbedder creates an embedder based on configuration.
// The gemini provider requires an API key.
func NewEmbedder(ctx context.Context, config *Config, apiKey string) (Embedder, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderHash:
		return NewHashEmbedder(config.Dimensions), nil
	case ProviderGemini:
		return NewGeminiEmbedder(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", config.Provider)
	}
}

// GeminiEmbedder implements Embedder for Google Gemini embedding models
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	batchSize int

	// embedBatch performs one API call; replaced in tests
	embedBatch func(ctx context.Context, texts []string) ([][]float32, error)
}

// NewGeminiEmbedder creates a new Gemini embedder
func NewGeminiEmbedder(ctx context.Context, config *Config, apiKey string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, &ModelError{Model: config.GetModel(), Op: "init", Cause: fmt.Errorf("API key is required")}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &ModelError{Model: config.GetModel(), Op: "init", Cause: fmt.Errorf("failed to create Gemini client: %w", err)}
	}

	e := &GeminiEmbedder{
		client:    client,
		model:     config.GetModel(),
		batchSize: config.BatchSize,
	}
	if e.batchSize <= 0 {
		e.batchSize = defaultBatchSize
	}
	e.embedBatch = e.callAPI
	return e, nil
}

// Embed embeds texts, splitting into API-sized batches.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, AsModelError(e.model, "embed", err)
		}
		if len(vecs) != end-start {
			return nil, &ModelError{
				Model: e.model,
				Op:    "embed",
				Cause: fmt.Errorf("expected %d embeddings, got %d", end-start, len(vecs)),
			}
		}
		for _, v := range vecs {
			out = append(out, Normalize(v))
		}
	}
	return out, nil
}

// Model returns the embedding model name
func (e *GeminiEmbedder) Model() string {
	return e.model
}

// Close releases resources held by the client
func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

func (e *GeminiEmbedder) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	em := e.client.EmbeddingModel(e.model)
	em.TaskType = genai.TaskTypeSemanticSimilarity

	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to embed contents: %w", err)
	}

	vecs := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vecs[i] = emb.Values
	}
	return vecs, nil
}
