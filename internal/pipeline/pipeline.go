package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codectx/ragcore/internal/chunker"
	"github.com/codectx/ragcore/internal/config"
	"github.com/codectx/ragcore/internal/embeddings"
	"github.com/codectx/ragcore/internal/progress"
	"github.com/codectx/ragcore/internal/vectorindex"
)

// Pipeline orchestrates a full index rebuild: load -> chunk -> embed ->
// store -> manifest. It is a single linear pass with no resumability; a
// failure at any stage aborts the run.
type Pipeline struct {
	gateway  *embeddings.Gateway
	index    vectorindex.Index
	cfg      *config.Config
	reporter progress.Reporter
}

// Result summarizes a completed indexing run.
type Result struct {
	Documents  int
	Chunks     int
	Embeddings int
	TokensUsed int
	Cost       float64
	Duration   time.Duration
}

// New creates a Pipeline over the given gateway and index.
func New(gateway *embeddings.Gateway, index vectorindex.Index, cfg *config.Config) *Pipeline {
	return &Pipeline{
		gateway: gateway,
		index:   index,
		cfg:     cfg,
	}
}

// SetReporter sets the progress reporter used during embedding.
func (p *Pipeline) SetReporter(r progress.Reporter) {
	p.reporter = r
}

// Run executes the full indexing pipeline and writes the manifest. The index
// is rebuilt wholesale: previous entries are cleared before the new ones are
// stored.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	docs, chunks, err := chunker.ChunkDocuments(p.cfg.Chunking)
	if err != nil {
		return nil, fmt.Errorf("load codebase: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no indexable files under %s", p.cfg.Chunking.RootDir)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	if p.reporter != nil {
		p.reporter.Start(len(texts), "Embedding chunks")
		p.gateway.SetProgressFunc(func(done, total int) {
			p.reporter.Update(done, "")
		})
	}
	vectors, err := p.gateway.EmbedBatch(ctx, texts)
	if p.reporter != nil {
		p.reporter.Finish()
	}
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	if err := p.index.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear index: %w", err)
	}
	if err := p.index.Store(ctx, chunks, vectors); err != nil {
		return nil, fmt.Errorf("store embeddings: %w", err)
	}

	usage := p.gateway.Usage()
	manifest := buildManifest(p.cfg, docs, chunks, p.gateway, usage)
	if err := vectorindex.WriteManifest(p.cfg.Index.Dir, manifest); err != nil {
		return nil, err
	}

	return &Result{
		Documents:  len(docs),
		Chunks:     len(chunks),
		Embeddings: len(vectors),
		TokensUsed: usage.TokensUsed,
		Cost:       usage.CostEstimate,
		Duration:   time.Since(start),
	}, nil
}

func buildManifest(cfg *config.Config, docs []chunker.Document, chunks []chunker.Chunk, gateway *embeddings.Gateway, usage embeddings.Usage) *vectorindex.Manifest {
	breakdown := make(map[string]int)
	for _, doc := range docs {
		breakdown[doc.Type]++
	}

	var chunkBytes int
	for _, chunk := range chunks {
		chunkBytes += len(chunk.Content)
	}
	avgChunk := 0
	if len(chunks) > 0 {
		avgChunk = chunkBytes / len(chunks)
	}

	return &vectorindex.Manifest{
		RunID:         uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		RootDirectory: cfg.Chunking.RootDir,
		Statistics: vectorindex.ManifestStats{
			Documents:        len(docs),
			Chunks:           len(chunks),
			AverageChunkSize: avgChunk,
			EmbeddingModel:   cfg.Embedding.Model,
			Dimension:        gateway.Dimensions(),
			Backend:          gateway.BackendName(),
			TokensUsed:       usage.TokensUsed,
			CostEstimate:     usage.CostEstimate,
		},
		FileBreakdown: breakdown,
		IndexReady:    true,
	}
}
