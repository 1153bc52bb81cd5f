package retrieval

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/codectx/ragcore/internal/embeddings"
	"github.com/codectx/ragcore/internal/vectorindex"
)

const previewLength = 160

// Agent is the base decision-making caller the facade wraps. Its answer is
// always returned, with or without retrieved context.
type Agent interface {
	Decide(ctx context.Context, query string) (string, error)
}

// Options control retrieval behaviour per facade.
type Options struct {
	TopK           int
	ScoreThreshold float64
	Enabled        bool
}

// Stats accumulates per-call retrieval metrics across the process lifetime.
type Stats struct {
	Calls            int
	Successes        int
	Failures         int
	LastLatencyMS    float64
	AverageLatencyMS float64
}

// Facade embeds the caller's query, retrieves relevant context, and augments
// the agent's answer with it. Retrieval failures never prevent the agent's
// own answer from being returned.
type Facade struct {
	agent   Agent
	gateway *embeddings.Gateway
	index   vectorindex.Index
	opts    Options

	mu    sync.Mutex
	stats Stats
}

// New creates a Facade around agent. Zero option fields take the retrieval
// defaults (top 5, threshold 0.5).
func New(agent Agent, gateway *embeddings.Gateway, index vectorindex.Index, opts Options) *Facade {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.ScoreThreshold == 0 {
		opts.ScoreThreshold = 0.5
	}
	return &Facade{
		agent:   agent,
		gateway: gateway,
		index:   index,
		opts:    opts,
	}
}

// Decide returns the agent's answer, augmented with a compact summary of the
// top index matches when retrieval succeeds and finds any.
func (f *Facade) Decide(ctx context.Context, query string) (string, error) {
	answer, err := f.agent.Decide(ctx, query)
	if err != nil {
		return "", err
	}

	if !f.opts.Enabled {
		return answer, nil
	}

	results, elapsed, retrieveErr := f.retrieve(ctx, query)

	f.mu.Lock()
	f.stats.Calls++
	f.stats.LastLatencyMS = elapsed
	if retrieveErr != nil {
		f.stats.Failures++
	} else {
		f.stats.Successes++
	}
	n := f.stats.Calls
	f.stats.AverageLatencyMS += (elapsed - f.stats.AverageLatencyMS) / float64(n)
	f.mu.Unlock()

	if retrieveErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: retrieval failed (%v); returning unaugmented answer\n", retrieveErr)
		return answer, nil
	}
	if len(results) == 0 {
		return answer, nil
	}

	return answer + "\n\n" + formatContext(results), nil
}

// GetStats returns a snapshot of the accumulated retrieval metrics.
func (f *Facade) GetStats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *Facade) retrieve(ctx context.Context, query string) ([]vectorindex.Result, float64, error) {
	start := time.Now()
	vec, err := f.gateway.Embed(ctx, query)
	if err != nil {
		return nil, msSince(start), fmt.Errorf("embed query: %w", err)
	}
	results, err := f.index.Retrieve(ctx, vec, f.opts.TopK, f.opts.ScoreThreshold)
	if err != nil {
		return nil, msSince(start), fmt.Errorf("retrieve: %w", err)
	}
	return results, msSince(start), nil
}

func formatContext(results []vectorindex.Result) string {
	var sb strings.Builder
	sb.WriteString("Relevant context:\n")
	for _, r := range results {
		preview := strings.ReplaceAll(r.Content, "\n", " ")
		if len(preview) > previewLength {
			preview = preview[:previewLength] + "..."
		}
		sb.WriteString(fmt.Sprintf("- %s [%.1f%%] %s\n", r.Source, r.Score*100, preview))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
