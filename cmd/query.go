package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Semantically search the indexed codebase",
	Long:  `Embeds the query string and returns the most similar indexed chunks, ranked by cosine similarity.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().Int("limit", 0, "maximum number of results (default from config)")
	queryCmd.Flags().Float64("threshold", -1, "minimum similarity score (default from config)")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	queryText := args[0]

	limit, _ := cmd.Flags().GetInt("limit")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = cfg.Index.TopK
	}
	if threshold < 0 {
		threshold = cfg.Index.ScoreThreshold
	}

	gateway, err := createGateway(cfg)
	if err != nil {
		return err
	}
	index, err := connectIndex(ctx, cfg)
	if err != nil {
		return err
	}
	if index.Count() == 0 {
		fmt.Println("Index is empty. Run `ragcore index` first.")
		return nil
	}

	vec, err := gateway.Embed(ctx, queryText)
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}
	results, err := index.Retrieve(ctx, vec, limit, threshold)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results above the similarity threshold.")
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for i, r := range results {
		fmt.Printf("  %d. [%.1f%%] %s (chunk %d, %s)\n", i+1, r.Score*100, r.Source, r.ChunkIndex, r.Type)
		fmt.Printf("     %s\n\n", truncate(r.Content, 120))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
