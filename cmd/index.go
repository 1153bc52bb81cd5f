package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codectx/ragcore/internal/pipeline"
	"github.com/codectx/ragcore/internal/progress"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index for the configured codebase",
	Long: `Walks the codebase, splits every document into overlapping chunks,
embeds each chunk, stores the vectors, and writes a manifest describing
the run. The previous index generation is replaced wholesale.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("root", "", "override the codebase root directory")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.Chunking.RootDir = root
	}

	gateway, err := createGateway(cfg)
	if err != nil {
		return err
	}
	index, err := connectIndex(ctx, cfg)
	if err != nil {
		return err
	}

	p := pipeline.New(gateway, index, cfg)
	p.SetReporter(progress.NewReporter())

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d documents (%d chunks, %d embeddings) in %s\n",
		result.Documents, result.Chunks, result.Embeddings, result.Duration.Round(10_000_000))
	if result.TokensUsed > 0 {
		fmt.Printf("Tokens used: %d (estimated cost $%.4f)\n", result.TokensUsed, result.Cost)
	}
	fmt.Printf("Index written to %s\n", cfg.Index.Dir)
	return nil
}
