package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ragcore",
	Short: "Semantic code retrieval: chunk, embed, index, and query a codebase",
	Long: `ragcore splits a codebase into overlapping chunks, converts each chunk
into an embedding vector, and stores the vectors in a retrievable index.
Agents and tooling then ask natural-language questions and get back the
most relevant snippets, ranked by vector similarity.`,
}

func Execute() error {
	// Credentials conventionally live in .env during local development.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".ragcore.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
