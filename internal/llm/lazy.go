package llm

import (
	"context"
	"sync"
)

// LazyEmbedder constructs its underlying Embedder on first use and shares it
// across goroutines. A construction failure is remembered and returned by every
// later call, so a missing model is reported the same way for every request.
type LazyEmbedder struct {
	name    string
	factory func() (Embedder, error)

	once sync.Once
	emb  Embedder
	err  error
}

// NewLazyEmbedder returns an Embedder that calls factory once, on first use.
// name is reported by Model until the embedder has been built.
func NewLazyEmbedder(name string, factory func() (Embedder, error)) *LazyEmbedder {
	return &LazyEmbedder{name: name, factory: factory}
}

// Get builds the embedder if needed and returns it.
func (l *LazyEmbedder) Get() (Embedder, error) {
	l.once.Do(func() {
		emb, err := l.factory()
		if err != nil {
			l.err = AsModelError(l.name, "init", err)
			return
		}
		l.emb = emb
	})
	return l.emb, l.err
}

// Embed delegates to the underlying embedder.
func (l *LazyEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	emb, err := l.Get()
	if err != nil {
		return nil, err
	}
	return emb.Embed(ctx, texts)
}

// Model returns the configured model name
func (l *LazyEmbedder) Model() string {
	return l.name
}
