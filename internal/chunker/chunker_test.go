package chunker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codectx/ragcore/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func testChunkingConfig(root string) config.ChunkingConfig {
	return config.ChunkingConfig{
		RootDir:        root,
		Extensions:     []string{".go", ".md", ".js"},
		IgnorePatterns: []string{"node_modules", ".git"},
		ChunkSize:      500,
		OverlapSize:    50,
		MaxFileSize:    1_000_000,
	}
}

func TestLoad_BasicTraversal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "docs/readme.md", "# readme\n")
	writeFile(t, dir, "util.js", "const x = 1;\n")

	docs, err := Load(testChunkingConfig(dir))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}

	found := map[string]bool{}
	for _, d := range docs {
		found[d.Source] = true
		if d.Content == "" {
			t.Errorf("document %s has empty content", d.Source)
		}
		if d.Size <= 0 {
			t.Errorf("document %s has size %d", d.Source, d.Size)
		}
	}
	for _, want := range []string{"main.go", "docs/readme.md", "util.js"} {
		if !found[want] {
			t.Errorf("expected document %q not loaded", want)
		}
	}
}

func TestLoad_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "image.svg", "<svg/>\n")

	docs, err := Load(testChunkingConfig(dir))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	for _, d := range docs {
		if d.Source == "image.svg" {
			t.Error("extension filter let through image.svg")
		}
	}
}

func TestLoad_IgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.go", "package app\n")
	writeFile(t, dir, "node_modules/pkg/index.js", "module.exports = {};\n")

	docs, err := Load(testChunkingConfig(dir))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 1 || docs[0].Source != "app.go" {
		t.Errorf("expected only app.go, got %+v", docs)
	}
}

func TestLoad_OversizedFileSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "small.go", "package small\n")
	writeFile(t, dir, "big.go", strings.Repeat("// filler line\n", 100))

	cfg := testChunkingConfig(dir)
	cfg.MaxFileSize = 100

	docs, err := Load(cfg)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	for _, d := range docs {
		if d.Source == "big.go" {
			t.Error("big.go should have been skipped (exceeds MaxFileSize)")
		}
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 document, got %d", len(docs))
	}
}

func TestLoad_SkipsBinaryFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.go", "package ok\n")
	binary := make([]byte, 64)
	binary[10] = 0x00
	if err := os.WriteFile(filepath.Join(dir, "blob.go"), binary, 0644); err != nil {
		t.Fatal(err)
	}

	docs, err := Load(testChunkingConfig(dir))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	for _, d := range docs {
		if d.Source == "blob.go" {
			t.Error("binary file blob.go should have been skipped")
		}
	}
}

func TestLoad_MissingRoot(t *testing.T) {
	cfg := testChunkingConfig(filepath.Join(t.TempDir(), "does-not-exist"))
	if _, err := Load(cfg); err == nil {
		t.Fatal("expected error for missing root directory")
	}
}

func makeDoc(lineCount int) Document {
	lines := make([]string, lineCount)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return Document{
		ID:      "test.go",
		Source:  "test.go",
		Type:    "go",
		Content: strings.Join(lines, "\n"),
	}
}

func TestSplit_SingleChunkForShortDocument(t *testing.T) {
	doc := makeDoc(10)
	chunks := Split(doc, 500, 50)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != doc.Content {
		t.Error("single chunk should contain the whole document")
	}
	if chunks[0].ID != "test.go#chunk0" {
		t.Errorf("chunk ID = %q, want test.go#chunk0", chunks[0].ID)
	}
	if chunks[0].StartLine != 1 || chunks[0].EndLine != 10 {
		t.Errorf("chunk lines = %d-%d, want 1-10", chunks[0].StartLine, chunks[0].EndLine)
	}
}

func TestSplit_OverlapInvariant(t *testing.T) {
	doc := makeDoc(1250)
	chunkSize, overlap := 500, 50
	chunks := Split(doc, chunkSize, overlap)

	if len(chunks) < 2 {
		t.Fatalf("expected >= 2 chunks, got %d", len(chunks))
	}

	for i := 0; i+1 < len(chunks); i++ {
		prev := strings.Split(chunks[i].Content, "\n")
		next := strings.Split(chunks[i+1].Content, "\n")

		tail := prev[len(prev)-overlap:]
		head := next[:overlap]
		for j := range tail {
			if tail[j] != head[j] {
				t.Fatalf("chunk %d/%d overlap mismatch at line %d", i, i+1, j)
			}
		}
	}
}

func TestSplit_ChunkOrdinalsAndLineRanges(t *testing.T) {
	doc := makeDoc(1000)
	chunks := Split(doc, 500, 50)

	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has ordinal %d", i, c.Index)
		}
		wantLines := len(strings.Split(c.Content, "\n"))
		if got := c.EndLine - c.StartLine + 1; got != wantLines {
			t.Errorf("chunk %d: line range covers %d lines, content has %d", i, got, wantLines)
		}
	}

	// Each subsequent chunk starts exactly overlap lines before the previous end.
	for i := 1; i < len(chunks); i++ {
		want := chunks[i-1].EndLine - 50 + 1
		if chunks[i].StartLine != want {
			t.Errorf("chunk %d starts at line %d, want %d", i, chunks[i].StartLine, want)
		}
	}
}

func TestSplit_NoOverlapConfigured(t *testing.T) {
	doc := makeDoc(1000)
	chunks := Split(doc, 500, 0)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[1].StartLine != 501 {
		t.Errorf("second chunk starts at %d, want 501", chunks[1].StartLine)
	}
}

func TestChunkDocuments_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", strings.Repeat("line\n", 20))
	writeFile(t, dir, "b.md", "short doc\n")

	cfg := testChunkingConfig(dir)
	cfg.ChunkSize = 10
	cfg.OverlapSize = 2

	docs, chunks, err := ChunkDocuments(cfg)
	if err != nil {
		t.Fatalf("ChunkDocuments() error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if len(chunks) < 3 {
		t.Errorf("expected a.go to produce multiple chunks, got %d total", len(chunks))
	}
	for _, c := range chunks {
		if c.Source == "" || c.Type == "" {
			t.Errorf("chunk %s missing metadata: %+v", c.ID, c)
		}
	}
}
