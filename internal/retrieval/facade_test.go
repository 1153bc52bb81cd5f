package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/codectx/ragcore/internal/chunker"
	"github.com/codectx/ragcore/internal/config"
	"github.com/codectx/ragcore/internal/embeddings"
	"github.com/codectx/ragcore/internal/vectorindex"
)

// stubAgent answers every query with a fixed string.
type stubAgent struct {
	answer string
	err    error
	calls  int
}

func (a *stubAgent) Decide(ctx context.Context, query string) (string, error) {
	a.calls++
	return a.answer, a.err
}

// brokenIndex fails every retrieval.
type brokenIndex struct {
	vectorindex.Index
}

func (brokenIndex) Retrieve(context.Context, []float32, int, float64) ([]vectorindex.Result, error) {
	return nil, errors.New("index corrupted")
}

func testGateway(t *testing.T) *embeddings.Gateway {
	t.Helper()
	g, err := embeddings.NewGateway(config.EmbeddingConfig{
		Provider:  config.ProviderMock,
		Dimension: 32,
		BatchSize: 10,
	}, "")
	if err != nil {
		t.Fatalf("NewGateway() error: %v", err)
	}
	return g
}

func populatedIndex(t *testing.T, g *embeddings.Gateway, texts map[string]string) vectorindex.Index {
	t.Helper()
	idx := vectorindex.NewLocalIndex(t.TempDir())
	ctx := context.Background()

	var chunks []chunker.Chunk
	var vectors [][]float32
	for source, content := range texts {
		vec, err := g.Embed(ctx, content)
		if err != nil {
			t.Fatalf("Embed() error: %v", err)
		}
		chunks = append(chunks, chunker.Chunk{
			ID:      source + "#chunk0",
			Source:  source,
			Type:    "go",
			Content: content,
		})
		vectors = append(vectors, vec)
	}
	if err := idx.Store(ctx, chunks, vectors); err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	return idx
}

func TestDecide_AugmentsWithContext(t *testing.T) {
	g := testGateway(t)
	idx := populatedIndex(t, g, map[string]string{
		"auth.go": "func checkPassword(hash, password string) bool",
	})
	agent := &stubAgent{answer: "use bcrypt"}

	f := New(agent, g, idx, Options{Enabled: true, ScoreThreshold: 0.9})

	// The mock embedder maps identical text to identical vectors, so querying
	// with the stored content guarantees a match above the threshold.
	got, err := f.Decide(context.Background(), "func checkPassword(hash, password string) bool")
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if !strings.HasPrefix(got, "use bcrypt") {
		t.Errorf("agent answer missing from output: %q", got)
	}
	if !strings.Contains(got, "Relevant context:") {
		t.Errorf("output missing context block: %q", got)
	}
	if !strings.Contains(got, "auth.go") {
		t.Errorf("output missing match source: %q", got)
	}

	stats := f.GetStats()
	if stats.Calls != 1 || stats.Successes != 1 || stats.Failures != 0 {
		t.Errorf("stats = %+v, want 1 call, 1 success", stats)
	}
	if stats.AverageLatencyMS < 0 {
		t.Errorf("AverageLatencyMS = %v", stats.AverageLatencyMS)
	}
}

func TestDecide_NoMatchesLeavesAnswerUntouched(t *testing.T) {
	g := testGateway(t)
	idx := populatedIndex(t, g, map[string]string{
		"auth.go": "func checkPassword(hash, password string) bool",
	})
	agent := &stubAgent{answer: "plain answer"}

	f := New(agent, g, idx, Options{Enabled: true, ScoreThreshold: 0.99})

	got, err := f.Decide(context.Background(), "completely unrelated question about cooking")
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if got != "plain answer" {
		t.Errorf("answer changed despite no matches: %q", got)
	}
}

func TestDecide_DisabledSkipsRetrieval(t *testing.T) {
	g := testGateway(t)
	agent := &stubAgent{answer: "direct"}

	f := New(agent, g, brokenIndex{}, Options{Enabled: false})

	got, err := f.Decide(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if got != "direct" {
		t.Errorf("answer = %q, want unmodified agent answer", got)
	}
	if f.GetStats().Calls != 0 {
		t.Errorf("disabled facade recorded %d calls", f.GetStats().Calls)
	}
}

func TestDecide_RetrievalFailureIsIsolated(t *testing.T) {
	g := testGateway(t)
	agent := &stubAgent{answer: "still works"}

	f := New(agent, g, brokenIndex{}, Options{Enabled: true})

	got, err := f.Decide(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Decide() must not propagate retrieval errors, got: %v", err)
	}
	if got != "still works" {
		t.Errorf("answer = %q, want the agent's own answer", got)
	}

	stats := f.GetStats()
	if stats.Failures != 1 || stats.Successes != 0 {
		t.Errorf("stats = %+v, want 1 failure", stats)
	}
}

func TestDecide_AgentErrorPropagates(t *testing.T) {
	g := testGateway(t)
	agent := &stubAgent{err: errors.New("model unavailable")}

	f := New(agent, g, brokenIndex{}, Options{Enabled: true})

	if _, err := f.Decide(context.Background(), "anything"); err == nil {
		t.Fatal("expected the agent's own error to propagate")
	}
	if f.GetStats().Calls != 0 {
		t.Error("retrieval stats recorded for a failed agent call")
	}
}

func TestDecide_AverageLatencyAccumulates(t *testing.T) {
	g := testGateway(t)
	idx := populatedIndex(t, g, map[string]string{"a.go": "content"})
	agent := &stubAgent{answer: "ok"}

	f := New(agent, g, idx, Options{Enabled: true})
	for i := 0; i < 3; i++ {
		if _, err := f.Decide(context.Background(), "content"); err != nil {
			t.Fatalf("Decide() error: %v", err)
		}
	}

	stats := f.GetStats()
	if stats.Calls != 3 {
		t.Errorf("Calls = %d, want 3", stats.Calls)
	}
	if agent.calls != 3 {
		t.Errorf("agent invoked %d times, want 3", agent.calls)
	}
	if stats.AverageLatencyMS < 0 || stats.LastLatencyMS < 0 {
		t.Errorf("latency stats negative: %+v", stats)
	}
}
