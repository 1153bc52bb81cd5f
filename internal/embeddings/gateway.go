package embeddings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/codectx/ragcore/internal/config"
)

// Usage is a snapshot of the gateway's cumulative accounting counters.
type Usage struct {
	TokensUsed       int
	CostEstimate     float64
	QueriesProcessed int
	FellBack         bool
}

// ProgressFunc is called during batch embedding to report progress.
type ProgressFunc func(done, total int)

// Gateway selects and drives an embedding backend, accounts for token usage
// and cost, and guarantees that embedding never hard-fails: when the active
// backend reports a remote error the gateway logs a warning and permanently
// downgrades to the deterministic mock backend for the rest of the process.
type Gateway struct {
	model      string
	batchSize  int
	onProgress ProgressFunc

	mu       sync.Mutex
	backend  Embedder
	fellBack bool
	usage    Usage
}

// NewGateway creates a gateway for the configured provider. The openai
// provider requires apiKey; mock and local need no credentials.
func NewGateway(cfg config.EmbeddingConfig, apiKey string) (*Gateway, error) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	var backend Embedder
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("embeddings: provider openai requires an API key")
		}
		backend = NewOpenAIEmbedder(apiKey, OpenAIModel(cfg.Model))
	case config.ProviderLocal:
		backend = NewLocalEmbedder(cfg.Model, cfg.Dimension, cfg.LocalURL)
	case config.ProviderMock, "":
		backend = NewMockEmbedder(cfg.Dimension)
	default:
		return nil, fmt.Errorf("embeddings: unknown provider %q", cfg.Provider)
	}

	return &Gateway{
		model:     cfg.Model,
		batchSize: batchSize,
		backend:   backend,
	}, nil
}

// SetProgressFunc sets the per-text progress callback used by EmbedBatch.
func (g *Gateway) SetProgressFunc(fn ProgressFunc) {
	g.onProgress = fn
}

// BackendName returns the active backend identifier.
func (g *Gateway) BackendName() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.backend.Name()
}

// Dimensions returns the vector dimension of the active backend.
func (g *Gateway) Dimensions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.backend.Dimensions()
}

// Usage returns a snapshot of the accounting counters.
func (g *Gateway) Usage() Usage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usage
}

// Embed converts text into an embedding vector. A remote backend failure is
// recovered by switching to the mock backend; the returned vector is always
// valid.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	g.mu.Lock()
	backend := g.backend
	g.mu.Unlock()

	vec, err := backend.Embed(ctx, text)
	if err != nil {
		var remoteErr *RemoteError
		if !errors.As(err, &remoteErr) {
			return nil, err
		}
		backend = g.downgrade(backend, err)
		if vec, err = backend.Embed(ctx, text); err != nil {
			return nil, err
		}
	}

	g.account(backend)
	return vec, nil
}

// EmbedBatch embeds texts sequentially in fixed-size groups, preserving
// per-text order. Grouping exists for rate-limit friendliness and progress
// reporting, not parallelism.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	total := len(texts)
	groups := (total + g.batchSize - 1) / g.batchSize
	vectors := make([][]float32, 0, total)

	for start := 0; start < total; start += g.batchSize {
		end := start + g.batchSize
		if end > total {
			end = total
		}
		fmt.Fprintf(os.Stderr, "Embedding group %d/%d (%d texts)\n", start/g.batchSize+1, groups, end-start)

		for _, text := range texts[start:end] {
			vec, err := g.Embed(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("embed text %d/%d: %w", len(vectors)+1, total, err)
			}
			vectors = append(vectors, vec)
			if g.onProgress != nil {
				g.onProgress(len(vectors), total)
			}
		}
	}

	return vectors, nil
}

// downgrade permanently replaces a failed backend with the mock embedder and
// returns the replacement. Concurrent callers that already downgraded win.
func (g *Gateway) downgrade(failed Embedder, cause error) Embedder {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.fellBack {
		fmt.Fprintf(os.Stderr, "Warning: embedding backend %s failed (%v); falling back to deterministic mock embeddings\n", failed.Name(), cause)
		g.backend = NewMockEmbedder(failed.Dimensions())
		g.fellBack = true
		g.usage.FellBack = true
	}
	return g.backend
}

// account updates the usage counters after a successful embed call.
func (g *Gateway) account(backend Embedder) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.usage.QueriesProcessed++
	if reporter, ok := backend.(UsageReporter); ok {
		g.usage.TokensUsed = reporter.TokensUsed()
		g.usage.CostEstimate = EstimateCost(g.model, g.usage.TokensUsed)
	}
}
