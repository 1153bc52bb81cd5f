package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/codectx/ragcore/internal/chunker"
)

const (
	// upsertBatchSize bounds a single upsert payload.
	upsertBatchSize = 100
	// contentPreviewLimit truncates stored content for remote metadata,
	// which has payload limits.
	contentPreviewLimit = 1000
)

// RemoteError wraps a failure reported by the remote index service.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote index %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// RemoteIndex talks to a managed vector index service over HTTPS. Store and
// Retrieve bubble network and authentication errors to the caller; only
// Connect treats an unreachable service as a reason to fall back.
type RemoteIndex struct {
	host       string
	name       string
	apiKey     string
	httpClient *http.Client

	statsMu    sync.Mutex
	total      int
	last       time.Time
	retrievals int
	avgScore   float64
}

// NewRemoteIndex creates a client for the index service at host.
func NewRemoteIndex(host, name, apiKey string) *RemoteIndex {
	return &RemoteIndex{
		host:       host,
		name:       name,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type remoteStatsResponse struct {
	TotalVectorCount int `json:"totalVectorCount"`
	Dimension        int `json:"dimension"`
}

type remoteVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata"`
}

type remoteUpsertRequest struct {
	Vectors   []remoteVector `json:"vectors"`
	Namespace string         `json:"namespace,omitempty"`
}

type remoteQueryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	Namespace       string    `json:"namespace,omitempty"`
}

type remoteQueryResponse struct {
	Matches []struct {
		ID       string            `json:"id"`
		Score    float64           `json:"score"`
		Metadata map[string]string `json:"metadata"`
	} `json:"matches"`
}

// Initialize verifies connectivity by requesting index statistics.
func (x *RemoteIndex) Initialize(ctx context.Context) error {
	var stats remoteStatsResponse
	if err := x.post(ctx, "/describe_index_stats", struct{}{}, &stats); err != nil {
		return err
	}
	x.statsMu.Lock()
	x.total = stats.TotalVectorCount
	x.statsMu.Unlock()
	return nil
}

// Store upserts entries in fixed-size batches to respect payload limits.
func (x *RemoteIndex) Store(ctx context.Context, chunks []chunker.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("store: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	dimension := len(vectors[0])
	for _, vec := range vectors {
		if len(vec) != dimension {
			return &ErrDimensionMismatch{Want: dimension, Got: len(vec)}
		}
	}

	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := remoteUpsertRequest{Namespace: x.name}
		for i := start; i < end; i++ {
			batch.Vectors = append(batch.Vectors, remoteVector{
				ID:     SanitizeID(chunks[i].ID),
				Values: vectors[i],
				Metadata: map[string]string{
					"source":      chunks[i].Source,
					"type":        chunks[i].Type,
					"chunk_index": fmt.Sprintf("%d", chunks[i].Index),
					"content":     truncate(chunks[i].Content, contentPreviewLimit),
				},
			})
		}

		if err := x.post(ctx, "/vectors/upsert", batch, nil); err != nil {
			return err
		}
	}

	x.statsMu.Lock()
	x.total += len(chunks)
	x.last = time.Now().UTC()
	x.statsMu.Unlock()
	return nil
}

// Retrieve queries the service and filters by threshold client-side.
func (x *RemoteIndex) Retrieve(ctx context.Context, queryVec []float32, topK int, threshold float64) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}

	var resp remoteQueryResponse
	err := x.post(ctx, "/query", remoteQueryRequest{
		Vector:          queryVec,
		TopK:            topK,
		IncludeMetadata: true,
		Namespace:       x.name,
	}, &resp)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, m := range resp.Matches {
		if m.Score < threshold {
			continue
		}
		chunkIndex := 0
		fmt.Sscanf(m.Metadata["chunk_index"], "%d", &chunkIndex)
		results = append(results, Result{
			Source:     m.Metadata["source"],
			Content:    m.Metadata["content"],
			Type:       m.Metadata["type"],
			Score:      m.Score,
			ChunkIndex: chunkIndex,
		})
	}

	x.statsMu.Lock()
	x.retrievals++
	x.avgScore = batchAverage(results)
	x.statsMu.Unlock()
	return results, nil
}

// Stats returns the client's view of the remote index.
func (x *RemoteIndex) Stats() Stats {
	x.statsMu.Lock()
	defer x.statsMu.Unlock()
	return Stats{
		TotalDocuments: x.total,
		LastIndexed:    x.last,
		Retrievals:     x.retrievals,
		AverageScore:   x.avgScore,
	}
}

// Clear deletes every vector in the index namespace.
func (x *RemoteIndex) Clear(ctx context.Context) error {
	body := map[string]any{"deleteAll": true, "namespace": x.name}
	if err := x.post(ctx, "/vectors/delete", body, nil); err != nil {
		return err
	}
	x.statsMu.Lock()
	x.total = 0
	x.statsMu.Unlock()
	return nil
}

// Count returns the client's view of the entry count.
func (x *RemoteIndex) Count() int {
	x.statsMu.Lock()
	defer x.statsMu.Unlock()
	return x.total
}

// post sends a JSON request and decodes the JSON response, wrapping every
// failure in a RemoteError.
func (x *RemoteIndex) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &RemoteError{Op: path, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.host+path, bytes.NewReader(body))
	if err != nil {
		return &RemoteError{Op: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", x.apiKey)

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return &RemoteError{Op: path, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Op: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
