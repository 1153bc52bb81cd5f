package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/codectx/ragcore/internal/config"
	"github.com/codectx/ragcore/internal/embeddings"
	"github.com/codectx/ragcore/internal/vectorindex"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// createGateway builds the embedding gateway for the configured provider,
// resolving the remote credential from the environment.
func createGateway(cfg *config.Config) (*embeddings.Gateway, error) {
	apiKey := ""
	if cfg.Embedding.Provider == config.ProviderOpenAI {
		apiKey = os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for the openai embedding provider")
		}
	}
	return embeddings.NewGateway(cfg.Embedding, apiKey)
}

// connectIndex opens the configured index backend; a failed remote connect
// downgrades to the local file index.
func connectIndex(ctx context.Context, cfg *config.Config) (vectorindex.Index, error) {
	return vectorindex.Connect(ctx, cfg.Index, cfg.IndexAPIKey())
}
