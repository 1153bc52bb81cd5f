package verify

import (
	"context"
	"fmt"
	"io"

	"github.com/codectx/ragcore/internal/config"
	"github.com/codectx/ragcore/internal/embeddings"
	"github.com/codectx/ragcore/internal/vectorindex"
)

// defaultQueries exercise the kinds of questions callers typically ask.
var defaultQueries = []string{
	"how is configuration loaded",
	"error handling and logging",
	"how are embeddings generated",
	"where are vectors stored on disk",
	"how does the retrieval ranking work",
}

// Verifier reconnects to the current index and runs canned queries through
// the embedding gateway. It performs no assertions; it is a diagnostic for a
// human reader, not a test.
type Verifier struct {
	cfg     *config.Config
	gateway *embeddings.Gateway
	index   vectorindex.Index
	out     io.Writer
	queries []string
}

// New creates a Verifier writing its report to out.
func New(cfg *config.Config, gateway *embeddings.Gateway, index vectorindex.Index, out io.Writer) *Verifier {
	return &Verifier{
		cfg:     cfg,
		gateway: gateway,
		index:   index,
		out:     out,
		queries: defaultQueries,
	}
}

// SetQueries overrides the canned query list.
func (v *Verifier) SetQueries(queries []string) {
	if len(queries) > 0 {
		v.queries = queries
	}
}

// Run reads the manifest, probes the index, and prints ranked results for
// each canned query. It fails only when the manifest is absent or the index
// is unreachable; empty retrievals are reported, not failed.
func (v *Verifier) Run(ctx context.Context) error {
	manifest, err := vectorindex.ReadManifest(v.cfg.Index.Dir)
	if err != nil {
		return err
	}

	fmt.Fprintf(v.out, "Index built %s from %s\n", manifest.Timestamp.Format("2006-01-02 15:04:05 MST"), manifest.RootDirectory)
	fmt.Fprintf(v.out, "  %d documents, %d chunks, backend %s (%d dimensions)\n\n",
		manifest.Statistics.Documents, manifest.Statistics.Chunks,
		manifest.Statistics.Backend, manifest.Statistics.Dimension)

	if count := v.index.Count(); count == 0 {
		fmt.Fprintln(v.out, "Index is empty; queries will return nothing.")
	}

	for i, query := range v.queries {
		fmt.Fprintf(v.out, "Query %d/%d: %q\n", i+1, len(v.queries), query)

		vec, err := v.gateway.Embed(ctx, query)
		if err != nil {
			return fmt.Errorf("embed verification query: %w", err)
		}
		results, err := v.index.Retrieve(ctx, vec, v.cfg.Index.TopK, v.cfg.Index.ScoreThreshold)
		if err != nil {
			return fmt.Errorf("retrieve: %w", err)
		}

		if len(results) == 0 {
			fmt.Fprintln(v.out, "  (no matches above threshold)")
		}
		for rank, r := range results {
			fmt.Fprintf(v.out, "  %d. [%.1f%%] %s (chunk %d)\n", rank+1, r.Score*100, r.Source, r.ChunkIndex)
		}
		fmt.Fprintln(v.out)
	}

	stats := v.index.Stats()
	fmt.Fprintf(v.out, "Retrieval stats: %d retrievals, last batch average score %.4f\n",
		stats.Retrievals, stats.AverageScore)
	return nil
}
