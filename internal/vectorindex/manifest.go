package vectorindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const manifestFileName = "manifest.json"

// ErrManifestMissing indicates the index was never built.
var ErrManifestMissing = errors.New("manifest not found: run `ragcore index` first")

// ManifestStats summarizes one completed indexing run.
type ManifestStats struct {
	Documents        int     `json:"documents"`
	Chunks           int     `json:"chunks"`
	AverageChunkSize int     `json:"average_chunk_size"`
	EmbeddingModel   string  `json:"embedding_model"`
	Dimension        int     `json:"dimension"`
	Backend          string  `json:"backend"`
	TokensUsed       int     `json:"tokens_used"`
	CostEstimate     float64 `json:"cost_estimate"`
}

// Manifest is the single record describing the current index generation. A
// new indexing run overwrites it wholesale.
type Manifest struct {
	RunID         string         `json:"run_id"`
	Timestamp     time.Time      `json:"timestamp"`
	RootDirectory string         `json:"root_directory"`
	Statistics    ManifestStats  `json:"statistics"`
	FileBreakdown map[string]int `json:"file_breakdown"`
	IndexReady    bool           `json:"index_ready"`
}

// WriteManifest persists the manifest, pretty-printed, under dir.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, manifestFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads the current manifest from dir.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrManifestMissing
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}
