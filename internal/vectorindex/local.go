package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/codectx/ragcore/internal/chunker"
)

const indexFileName = "index.json"

// LocalIndex is a brute-force cosine index held in memory and serialized
// wholesale to a single JSON file after every store call. Reads may run
// concurrently; writes are serialized relative to each other and to
// persistence.
type LocalIndex struct {
	dir string

	mu        sync.RWMutex
	entries   map[string]Entry
	order     []string // insertion order, for stable ranking ties
	dimension int      // 0 until the first entry establishes it
	last      time.Time

	statsMu    sync.Mutex
	retrievals int
	avgScore   float64
}

// NewLocalIndex creates a local index persisted under dir.
func NewLocalIndex(dir string) *LocalIndex {
	return &LocalIndex{
		dir:     dir,
		entries: make(map[string]Entry),
	}
}

// indexPair serializes as a two-element [id, entry] JSON array.
type indexPair struct {
	ID    string
	Entry Entry
}

func (p indexPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.ID, p.Entry})
}

func (p *indexPair) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &p.ID); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Entry)
}

// indexFile mirrors the on-disk schema of index.json.
type indexFile struct {
	Entries     []indexPair `json:"entries"`
	Count       int         `json:"count"`
	LastIndexed time.Time   `json:"last_indexed"`
}

// Initialize loads previously persisted entries, if any. A missing index
// file means a fresh, empty index; a corrupt or unreadable one is an error.
func (x *LocalIndex) Initialize(_ context.Context) error {
	path := filepath.Join(x.dir, indexFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index %s: %w", path, err)
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse index %s: %w", path, err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = make(map[string]Entry, len(file.Entries))
	x.order = x.order[:0]
	x.dimension = 0
	for _, pair := range file.Entries {
		if _, dup := x.entries[pair.ID]; !dup {
			x.order = append(x.order, pair.ID)
		}
		x.entries[pair.ID] = pair.Entry
		if x.dimension == 0 {
			x.dimension = len(pair.Entry.Embedding)
		}
	}
	x.last = file.LastIndexed
	return nil
}

// Store writes parallel chunk/vector lists and persists the whole index.
func (x *LocalIndex) Store(_ context.Context, chunks []chunker.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("store: %d chunks but %d vectors", len(chunks), len(vectors))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	dimension := x.dimension
	for _, vec := range vectors {
		if dimension == 0 {
			dimension = len(vec)
			continue
		}
		if len(vec) != dimension {
			return &ErrDimensionMismatch{Want: dimension, Got: len(vec)}
		}
	}

	for i, chunk := range chunks {
		id := SanitizeID(chunk.ID)
		if _, dup := x.entries[id]; !dup {
			x.order = append(x.order, id)
		}
		x.entries[id] = Entry{
			Embedding: vectors[i],
			Metadata: Metadata{
				Source:     chunk.Source,
				Type:       chunk.Type,
				ChunkIndex: chunk.Index,
				Content:    chunk.Content,
			},
		}
	}
	x.dimension = dimension
	x.last = time.Now().UTC()

	return x.persistLocked()
}

// persistLocked serializes the index to disk. Callers must hold mu.
func (x *LocalIndex) persistLocked() error {
	file := indexFile{
		Entries:     make([]indexPair, 0, len(x.order)),
		Count:       len(x.entries),
		LastIndexed: x.last,
	}
	for _, id := range x.order {
		file.Entries = append(file.Entries, indexPair{ID: id, Entry: x.entries[id]})
	}

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("serialize index: %w", err)
	}
	if err := os.MkdirAll(x.dir, 0755); err != nil {
		return fmt.Errorf("create index dir %s: %w", x.dir, err)
	}
	path := filepath.Join(x.dir, indexFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write index %s: %w", path, err)
	}
	return nil
}

// Retrieve ranks every stored entry against queryVec. O(n) per query, which
// is fine at the item counts a single codebase produces.
func (x *LocalIndex) Retrieve(_ context.Context, queryVec []float32, topK int, threshold float64) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}

	x.mu.RLock()
	var results []Result
	for _, id := range x.order {
		entry := x.entries[id]
		score := Cosine(queryVec, entry.Embedding)
		if score < threshold {
			continue
		}
		results = append(results, Result{
			Source:     entry.Metadata.Source,
			Content:    entry.Metadata.Content,
			Type:       entry.Metadata.Type,
			Score:      score,
			ChunkIndex: entry.Metadata.ChunkIndex,
		})
	}
	x.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	x.statsMu.Lock()
	x.retrievals++
	x.avgScore = batchAverage(results)
	x.statsMu.Unlock()

	return results, nil
}

// Stats returns current index statistics.
func (x *LocalIndex) Stats() Stats {
	x.mu.RLock()
	total := len(x.entries)
	last := x.last
	x.mu.RUnlock()

	x.statsMu.Lock()
	defer x.statsMu.Unlock()
	return Stats{
		TotalDocuments: total,
		LastIndexed:    last,
		Retrievals:     x.retrievals,
		AverageScore:   x.avgScore,
	}
}

// Clear removes every entry and persists the empty index.
func (x *LocalIndex) Clear(_ context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = make(map[string]Entry)
	x.order = nil
	x.dimension = 0
	return x.persistLocked()
}

// Count returns the number of stored entries.
func (x *LocalIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

func batchAverage(results []Result) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	return sum / float64(len(results))
}
