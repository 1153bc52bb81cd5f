package embeddings

import (
	"context"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// RemoteError wraps a failure reported by the remote embedding service. The
// gateway uses it to decide whether to downgrade to the mock backend.
type RemoteError struct {
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote embedding backend: %v", e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// OpenAIModel represents a supported OpenAI embedding model.
type OpenAIModel string

const (
	ModelTextEmbedding3Small OpenAIModel = "text-embedding-3-small"
	ModelTextEmbedding3Large OpenAIModel = "text-embedding-3-large"
)

func (m OpenAIModel) dimensions() int {
	switch m {
	case ModelTextEmbedding3Small:
		return 1536
	case ModelTextEmbedding3Large:
		return 3072
	default:
		return 1536
	}
}

// OpenAIEmbedder generates embeddings using OpenAI's API. Vectors are
// normalized to unit length so scores are comparable with the mock and local
// backends, and prompt-token usage accumulates for cost accounting.
type OpenAIEmbedder struct {
	client *openai.Client
	model  OpenAIModel

	mu     sync.Mutex
	tokens int
}

// NewOpenAIEmbedder creates a new OpenAI embedder with the given API key and
// model.
func NewOpenAIEmbedder(apiKey string, model OpenAIModel) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (e *OpenAIEmbedder) Name() string {
	return string(e.model)
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.model.dimensions()
}

// TokensUsed returns the cumulative prompt tokens consumed by this embedder.
func (e *OpenAIEmbedder) TokensUsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tokens
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, &RemoteError{Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &RemoteError{Err: fmt.Errorf("empty response from %s", e.model)}
	}

	e.mu.Lock()
	e.tokens += resp.Usage.PromptTokens
	e.mu.Unlock()

	return Normalize(resp.Data[0].Embedding), nil
}
