package chunker

import (
	"fmt"
	"strings"

	"github.com/codectx/ragcore/internal/config"
)

// Chunk is a contiguous line-range slice of a Document. Consecutive chunks of
// the same document overlap by the configured overlap size, so context at a
// chunk boundary is never lost to retrieval.
type Chunk struct {
	ID        string // "{document ID}#chunk{n}".
	Source    string
	Type      string
	Index     int // Ordinal within the document.
	Content   string
	StartLine int // 1-based, inclusive.
	EndLine   int // 1-based, inclusive.
}

// Split cuts a document into sliding line windows. Lines accumulate until the
// buffer reaches chunkSize, the buffer is emitted, and the next buffer is
// seeded with the last overlap lines of the emitted chunk. Whatever remains
// at end-of-document becomes a final, possibly shorter, chunk. A document
// with fewer lines than chunkSize yields exactly one chunk.
func Split(doc Document, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	lines := strings.Split(doc.Content, "\n")

	var chunks []Chunk
	var buf []string
	bufStart := 0 // 0-based line index of the first buffered line.

	for i, line := range lines {
		buf = append(buf, line)
		if len(buf) >= chunkSize {
			chunks = append(chunks, newChunk(doc, len(chunks), buf, bufStart))
			tail := buf[len(buf)-overlap:]
			buf = append([]string(nil), tail...)
			bufStart = i + 1 - overlap
		}
	}
	if len(buf) > 0 {
		chunks = append(chunks, newChunk(doc, len(chunks), buf, bufStart))
	}

	return chunks
}

func newChunk(doc Document, ordinal int, lines []string, start int) Chunk {
	return Chunk{
		ID:        fmt.Sprintf("%s#chunk%d", doc.ID, ordinal),
		Source:    doc.Source,
		Type:      doc.Type,
		Index:     ordinal,
		Content:   strings.Join(lines, "\n"),
		StartLine: start + 1,
		EndLine:   start + len(lines),
	}
}

// ChunkDocuments loads every document under cfg.RootDir and splits each into
// chunks in one pass.
func ChunkDocuments(cfg config.ChunkingConfig) ([]Document, []Chunk, error) {
	docs, err := Load(cfg)
	if err != nil {
		return nil, nil, err
	}

	var chunks []Chunk
	for _, doc := range docs {
		chunks = append(chunks, Split(doc, cfg.ChunkSize, cfg.OverlapSize)...)
	}
	return docs, chunks, nil
}
