package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/codectx/ragcore/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [query...]",
	Short: "Check end-to-end index health with canned retrieval queries",
	Long: `Reads the manifest from the last indexing run, reconnects to the index,
and runs a set of test queries through the embedding gateway. Results are
printed for manual inspection; the command fails only when no index was
ever built or the index cannot be opened.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gateway, err := createGateway(cfg)
	if err != nil {
		return err
	}
	index, err := connectIndex(ctx, cfg)
	if err != nil {
		return err
	}

	v := verify.New(cfg, gateway, index, os.Stdout)
	v.SetQueries(args)
	return v.Run(ctx)
}
