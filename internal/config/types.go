package config

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

const (
	ProviderMock   EmbeddingProvider = "mock"
	ProviderLocal  EmbeddingProvider = "local"
	ProviderOpenAI EmbeddingProvider = "openai"
)

// IndexProvider identifies a vector index backend.
type IndexProvider string

const (
	IndexLocalFile   IndexProvider = "local-file"
	IndexRemoteCloud IndexProvider = "remote-cloud"
)

// EmbeddingConfig configures the embedding gateway.
type EmbeddingConfig struct {
	Provider  EmbeddingProvider `yaml:"provider" koanf:"provider"`
	Model     string            `yaml:"model" koanf:"model"`
	Dimension int               `yaml:"dimension" koanf:"dimension"`
	BatchSize int               `yaml:"batch_size" koanf:"batch_size"`
	// LocalURL is the base URL of the local embedding server, used when
	// Provider is "local". Empty means the conventional localhost port.
	LocalURL string `yaml:"local_url" koanf:"local_url"`
}

// IndexConfig configures the vector index backend.
type IndexConfig struct {
	Provider IndexProvider `yaml:"provider" koanf:"provider"`
	// Dir is where the local index and manifest live.
	Dir string `yaml:"dir" koanf:"dir"`
	// Name identifies the remote index, and Host its endpoint.
	Name string `yaml:"name" koanf:"name"`
	Host string `yaml:"host" koanf:"host"`
	// APIKeyEnv names the environment variable holding the remote credential.
	APIKeyEnv      string  `yaml:"api_key_env" koanf:"api_key_env"`
	TopK           int     `yaml:"top_k" koanf:"top_k"`
	ScoreThreshold float64 `yaml:"score_threshold" koanf:"score_threshold"`
}

// ChunkingConfig configures document loading and splitting.
type ChunkingConfig struct {
	RootDir        string   `yaml:"root_dir" koanf:"root_dir"`
	Extensions     []string `yaml:"extensions" koanf:"extensions"`
	IgnorePatterns []string `yaml:"ignore_patterns" koanf:"ignore_patterns"`
	ChunkSize      int      `yaml:"chunk_size" koanf:"chunk_size"`
	OverlapSize    int      `yaml:"overlap_size" koanf:"overlap_size"`
	MaxFileSize    int64    `yaml:"max_file_size" koanf:"max_file_size"`
}

// Config is the top-level ragcore configuration, corresponding to .ragcore.yml.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	Index     IndexConfig     `yaml:"index" koanf:"index"`
	Chunking  ChunkingConfig  `yaml:"chunking" koanf:"chunking"`
	// RetrievalEnabled toggles context augmentation in the retrieval facade.
	RetrievalEnabled bool `yaml:"retrieval_enabled" koanf:"retrieval_enabled"`
}
