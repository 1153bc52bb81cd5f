package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (RAGCORE_*). A missing file is not an
// error: defaults plus environment apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: RAGCORE_EMBEDDING_PROVIDER ->
	// embedding.provider, RAGCORE_INDEX_TOP_K -> index.top_k, etc. Only the
	// section separator becomes a dot; the rest of the key keeps its
	// underscores.
	if err := k.Load(env.Provider("RAGCORE_", ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKeyMapper maps RAGCORE_<SECTION>_<KEY> to <section>.<key>.
func envKeyMapper(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "RAGCORE_"))
	for _, section := range []string{"embedding", "index", "chunking"} {
		if strings.HasPrefix(s, section+"_") {
			return section + "." + strings.TrimPrefix(s, section+"_")
		}
	}
	return s
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validEmbeddingProviders is the set of recognized embedding provider values.
var validEmbeddingProviders = map[EmbeddingProvider]bool{
	ProviderMock:   true,
	ProviderLocal:  true,
	ProviderOpenAI: true,
}

// validIndexProviders is the set of recognized index provider values.
var validIndexProviders = map[IndexProvider]bool{
	IndexLocalFile:   true,
	IndexRemoteCloud: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !validEmbeddingProviders[c.Embedding.Provider] {
		return fmt.Errorf("invalid embedding provider %q: must be one of mock, local, openai", c.Embedding.Provider)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding batch_size must be positive, got %d", c.Embedding.BatchSize)
	}

	if !validIndexProviders[c.Index.Provider] {
		return fmt.Errorf("invalid index provider %q: must be one of local-file, remote-cloud", c.Index.Provider)
	}
	if c.Index.Dir == "" {
		return fmt.Errorf("index dir is required")
	}
	if c.Index.TopK <= 0 {
		return fmt.Errorf("index top_k must be positive, got %d", c.Index.TopK)
	}
	if c.Index.ScoreThreshold < 0 || c.Index.ScoreThreshold > 1 {
		return fmt.Errorf("index score_threshold must be in [0,1], got %g", c.Index.ScoreThreshold)
	}

	if c.Chunking.RootDir == "" {
		return fmt.Errorf("chunking root_dir is required")
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.OverlapSize < 0 || c.Chunking.OverlapSize >= c.Chunking.ChunkSize {
		return fmt.Errorf("overlap_size must be in [0, chunk_size), got %d", c.Chunking.OverlapSize)
	}
	if c.Chunking.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", c.Chunking.MaxFileSize)
	}

	return nil
}

// IndexAPIKey resolves the remote index credential from the environment.
func (c *Config) IndexAPIKey() string {
	if c.Index.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Index.APIKeyEnv)
}
