// Package llm provides the embedding backends used for semantic matching and the
// lazily constructed, process-wide model handles.
package llm

// Provider represents an embedding provider
type Provider string

// Provider constants define supported embedding providers
const (
	// ProviderGemini is the Google Gemini embedding API
	ProviderGemini Provider = "gemini"
	// ProviderHash is the deterministic offline feature-hashing embedder
	ProviderHash Provider = "hash"
)

const (
	defaultGeminiModel = "text-embedding-004"
	defaultHashModel   = "hash-ngram-384"
	defaultDimensions  = 384
	// Gemini batchEmbedContents accepts at most 100 requests per call.
	defaultBatchSize = 100
)

// Config holds the embedding configuration for the application
type Config struct {
	Provider   Provider
	Model      string
	Dimensions int // used by the hash provider
	BatchSize  int // used by the gemini provider
}

// DefaultConfig returns the default configuration (Gemini embeddings)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider:   ProviderGemini,
		Model:      defaultGeminiModel,
		Dimensions: defaultDimensions,
		BatchSize:  defaultBatchSize,
	}
}

// DefaultHashConfig returns the configuration of the offline embedder
func DefaultHashConfig() *Config {
	return &Config{
		Provider:   ProviderHash,
		Model:      defaultHashModel,
		Dimensions: defaultDimensions,
		BatchSize:  defaultBatchSize,
	}
}

// GetModel returns the configured model name, falling back to the provider default
func (c *Config) GetModel() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Provider == ProviderHash {
		return defaultHashModel
	}
	return defaultGeminiModel
}

// WithModel returns a new Config with a specific model name
func (c *Config) WithModel(model string) *Config {
	newConfig := *c
	newConfig.Model = model
	return &newConfig
}
