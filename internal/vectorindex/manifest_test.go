package vectorindex

import (
	"errors"
	"testing"
	"time"
)

func TestManifest_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := &Manifest{
		RunID:         "run-123",
		Timestamp:     time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		RootDirectory: "/some/project",
		Statistics: ManifestStats{
			Documents:        12,
			Chunks:           40,
			AverageChunkSize: 2048,
			EmbeddingModel:   "text-embedding-3-small",
			Dimension:        1536,
			Backend:          "mock",
		},
		FileBreakdown: map[string]int{"go": 10, "md": 2},
		IndexReady:    true,
	}
	if err := WriteManifest(dir, m); err != nil {
		t.Fatalf("WriteManifest() error: %v", err)
	}

	got, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() error: %v", err)
	}
	if got.RunID != m.RunID {
		t.Errorf("RunID = %q, want %q", got.RunID, m.RunID)
	}
	if !got.Timestamp.Equal(m.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, m.Timestamp)
	}
	if got.Statistics != m.Statistics {
		t.Errorf("Statistics = %+v, want %+v", got.Statistics, m.Statistics)
	}
	if got.FileBreakdown["go"] != 10 || got.FileBreakdown["md"] != 2 {
		t.Errorf("FileBreakdown = %v", got.FileBreakdown)
	}
	if !got.IndexReady {
		t.Error("IndexReady lost in round trip")
	}
}

func TestReadManifest_Missing(t *testing.T) {
	_, err := ReadManifest(t.TempDir())
	if !errors.Is(err, ErrManifestMissing) {
		t.Fatalf("error = %v, want ErrManifestMissing", err)
	}
}
