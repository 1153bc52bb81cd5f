package config

// modelDimensions maps known embedding models to their vector dimension.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"nomic-embed-text":       768,
}

// DefaultExtensions are the file suffixes indexed by default.
var DefaultExtensions = []string{
	".go", ".js", ".ts", ".jsx", ".tsx", ".py",
	".md", ".json", ".yml", ".yaml", ".sh", ".html", ".css",
}

// DefaultIgnorePatterns are path fragments excluded from indexing by default.
var DefaultIgnorePatterns = []string{
	".git",
	"node_modules",
	"vendor",
	"__pycache__",
	"dist",
	"build",
	".next",
	".venv",
	".rag-index",
	"coverage",
}

// DefaultConfig returns a Config with sensible defaults. The mock embedding
// provider and the local file index work with no credentials, so a zero-setup
// run is always possible.
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:  ProviderMock,
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			BatchSize: 10,
		},
		Index: IndexConfig{
			Provider:       IndexLocalFile,
			Dir:            ".rag-index",
			APIKeyEnv:      "RAGCORE_INDEX_API_KEY",
			TopK:           5,
			ScoreThreshold: 0.5,
		},
		Chunking: ChunkingConfig{
			RootDir:        ".",
			Extensions:     DefaultExtensions,
			IgnorePatterns: DefaultIgnorePatterns,
			ChunkSize:      500,
			OverlapSize:    50,
			MaxFileSize:    1_000_000,
		},
		RetrievalEnabled: true,
	}
}

// DimensionFor returns the vector dimension for a known model, or fallback
// when the model is not in the table.
func DimensionFor(model string, fallback int) int {
	if d, ok := modelDimensions[model]; ok {
		return d
	}
	return fallback
}
