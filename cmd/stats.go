package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/codectx/ragcore/internal/vectorindex"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print manifest and index statistics for the current generation",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	manifest, err := vectorindex.ReadManifest(cfg.Index.Dir)
	if err != nil {
		return err
	}

	fmt.Printf("Run:        %s\n", manifest.RunID)
	fmt.Printf("Indexed:    %s\n", manifest.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Root:       %s\n", manifest.RootDirectory)
	fmt.Printf("Backend:    %s (%d dimensions)\n", manifest.Statistics.Backend, manifest.Statistics.Dimension)
	fmt.Printf("Documents:  %d\n", manifest.Statistics.Documents)
	fmt.Printf("Chunks:     %d (avg %d bytes)\n", manifest.Statistics.Chunks, manifest.Statistics.AverageChunkSize)
	if manifest.Statistics.TokensUsed > 0 {
		fmt.Printf("Tokens:     %d ($%.4f)\n", manifest.Statistics.TokensUsed, manifest.Statistics.CostEstimate)
	}
	fmt.Printf("Ready:      %t\n", manifest.IndexReady)

	if len(manifest.FileBreakdown) > 0 {
		fmt.Println("\nFiles by extension:")
		exts := make([]string, 0, len(manifest.FileBreakdown))
		for ext := range manifest.FileBreakdown {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		for _, ext := range exts {
			fmt.Printf("  %-8s %d\n", ext, manifest.FileBreakdown[ext])
		}
	}

	index, err := connectIndex(ctx, cfg)
	if err != nil {
		return err
	}
	stats := index.Stats()
	fmt.Printf("\nIndex entries: %d\n", stats.TotalDocuments)
	if !stats.LastIndexed.IsZero() {
		fmt.Printf("Last stored:   %s\n", stats.LastIndexed.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}
