package vectorindex

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/codectx/ragcore/internal/chunker"
	"github.com/codectx/ragcore/internal/config"
)

// maxIDLength bounds storage keys; remote backends and filesystems both have
// key-format limits.
const maxIDLength = 64

// Metadata is the retrievable context stored alongside each vector.
type Metadata struct {
	Source     string `json:"source"`
	Type       string `json:"type"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
}

// Entry is the persisted unit of the vector index.
type Entry struct {
	Embedding []float32 `json:"embedding"`
	Metadata  Metadata  `json:"metadata"`
}

// Result is one ranked retrieval match. It is transient and never persisted.
type Result struct {
	Source     string  `json:"source"`
	Content    string  `json:"content"`
	Type       string  `json:"type"`
	Score      float64 `json:"score"`
	ChunkIndex int     `json:"chunk_index"`
}

// Stats describes the index's current contents and query history.
type Stats struct {
	TotalDocuments int       `json:"total_documents"`
	LastIndexed    time.Time `json:"last_indexed"`
	Retrievals     int       `json:"retrievals"`
	// AverageScore is the mean score of the most recent retrieval's matches,
	// overwritten by each call.
	AverageScore float64 `json:"average_score"`
}

// Index stores (vector, metadata) pairs and answers top-K similarity queries.
type Index interface {
	// Initialize prepares the index: the local backend loads any persisted
	// entries, the remote backend verifies connectivity.
	Initialize(ctx context.Context) error

	// Store writes parallel lists of chunks and embedding vectors.
	Store(ctx context.Context, chunks []chunker.Chunk, vectors [][]float32) error

	// Retrieve returns at most topK entries with similarity >= threshold,
	// ordered by descending similarity; ties keep insertion order.
	Retrieve(ctx context.Context, queryVec []float32, topK int, threshold float64) ([]Result, error)

	// Stats returns current index statistics.
	Stats() Stats

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Count returns the number of stored entries.
	Count() int
}

// ErrDimensionMismatch is returned when a write would mix vectors of
// different dimension in one index, which would make scores incomparable.
type ErrDimensionMismatch struct {
	Want int
	Got  int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vector dimension mismatch: index holds %d-dimensional vectors, got %d", e.Want, e.Got)
}

// Connect selects an index backend from configuration. A remote index that
// cannot be reached (missing credential, unreachable host, bad response)
// falls back to the local file index with a warning instead of failing.
func Connect(ctx context.Context, cfg config.IndexConfig, apiKey string) (Index, error) {
	if cfg.Provider == config.IndexRemoteCloud {
		if apiKey != "" && cfg.Host != "" {
			remote := NewRemoteIndex(cfg.Host, cfg.Name, apiKey)
			if err := remote.Initialize(ctx); err == nil {
				return remote, nil
			} else {
				fmt.Fprintf(os.Stderr, "Warning: remote index unavailable (%v); using local file index\n", err)
			}
		} else {
			fmt.Fprintln(os.Stderr, "Warning: remote index not configured (missing host or credential); using local file index")
		}
	}

	local := NewLocalIndex(cfg.Dir)
	if err := local.Initialize(ctx); err != nil {
		return nil, err
	}
	return local, nil
}

// Cosine computes the cosine similarity of two vectors. A zero vector has
// similarity 0 with everything, never NaN.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SanitizeID reduces an identifier to [A-Za-z0-9_-] and truncates it, so it
// is safe both as a remote key and on the local filesystem.
func SanitizeID(id string) string {
	out := make([]byte, 0, len(id))
	for i := 0; i < len(id) && len(out) < maxIDLength; i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
