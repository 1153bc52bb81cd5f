package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
)

const defaultLocalBaseURL = "http://localhost:11434"

// LocalEmbedder generates embeddings through a local model server (Ollama
// wire format). The model is initialized lazily on first use: exactly one
// probe runs no matter how many callers arrive concurrently, and if the
// probe fails the embedder permanently falls back to the deterministic mock
// for the remainder of the process.
type LocalEmbedder struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client

	initOnce sync.Once
	fallback *MockEmbedder // set inside initOnce when the probe fails
}

// NewLocalEmbedder creates a local embedder. model is the local model name
// (e.g. "nomic-embed-text"), dimension its output size, and baseURL the
// server address (defaults to the conventional localhost port when empty).
func NewLocalEmbedder(model string, dimension int, baseURL string) *LocalEmbedder {
	if baseURL == "" {
		baseURL = defaultLocalBaseURL
	}
	if dimension <= 0 {
		dimension = 768
	}
	return &LocalEmbedder{
		baseURL:    baseURL,
		model:      model,
		dimension:  dimension,
		httpClient: &http.Client{},
	}
}

func (e *LocalEmbedder) Name() string {
	if e.fallback != nil {
		return e.fallback.Name()
	}
	return "local/" + e.model
}

func (e *LocalEmbedder) Dimensions() int {
	return e.dimension
}

func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.initOnce.Do(func() {
		if err := e.probe(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: local embedding model unavailable (%v); using deterministic mock embeddings\n", err)
			e.fallback = NewMockEmbedder(e.dimension)
		}
	})

	if e.fallback != nil {
		return e.fallback.Embed(ctx, text)
	}

	vec, err := e.embedRemote(ctx, text)
	if err != nil {
		return nil, err
	}
	return Normalize(vec), nil
}

// probe verifies the model server is reachable and can embed. It runs once.
func (e *LocalEmbedder) probe(ctx context.Context) error {
	_, err := e.embedRemote(ctx, "ping")
	return err
}

type localEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type localEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *LocalEmbedder) embedRemote(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(localEmbedRequest{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal local embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create local embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("local model returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result localEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode local model response: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("local model returned no embeddings")
	}

	return result.Embeddings[0], nil
}
